// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package connectors

import (
	"context"
	"fmt"

	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/configs"
	"github.com/redis/go-redis/v9"
)

type RedisConnector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected(ctx context.Context) bool
	GetConnection() redis.UniversalClient
}

type redisConnector struct {
	cfg    *configs.RedisConfig
	logger commons.Logger
	client redis.UniversalClient
}

func NewRedisConnector(cfg *configs.RedisConfig, logger commons.Logger) RedisConnector {
	return &redisConnector{cfg: cfg, logger: logger}
}

// NewRedisConnectorWithClient wraps an existing client, mainly for tests.
func NewRedisConnectorWithClient(client redis.UniversalClient, logger commons.Logger) RedisConnector {
	return &redisConnector{client: client, logger: logger}
}

func (r *redisConnector) Connect(ctx context.Context) error {
	r.client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port),
		Username: r.cfg.Auth.User,
		Password: r.cfg.Auth.Password,
		DB:       r.cfg.Db,
		PoolSize: r.cfg.MaxConnection,
	})
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("unable to connect redis %s:%d: %w", r.cfg.Host, r.cfg.Port, err)
	}
	r.logger.Infof("connected to redis %s:%d", r.cfg.Host, r.cfg.Port)
	return nil
}

func (r *redisConnector) Disconnect(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *redisConnector) IsConnected(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}

func (r *redisConnector) GetConnection() redis.UniversalClient {
	return r.client
}
