// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_callcontext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/connectors"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "intake:callcontext:"
	redisRecentKey = "intake:callcontext:recent"
)

type redisStore struct {
	redis  connectors.RedisConnector
	logger commons.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a store shared by every relay instance. Values expire
// through the key TTL; a sorted set scored by insertion time backs MostRecent and List.
func NewRedisStore(redis connectors.RedisConnector, logger commons.Logger, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{
		redis:  redis,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

func redisKey(callID string) string {
	return redisKeyPrefix + callID
}

func (s *redisStore) Put(ctx context.Context, callID string, cc *CallContext) error {
	if callID == "" {
		return fmt.Errorf("call context requires a call id")
	}
	stored := *cc
	stored.CallID = callID
	stored.CreatedDate = s.now()

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal call context %s: %w", callID, err)
	}

	client := s.redis.GetConnection()
	if err := client.Set(ctx, redisKey(callID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save call context %s: %w", callID, err)
	}
	if err := client.ZAdd(ctx, redisRecentKey, redis.Z{
		Score:  float64(stored.CreatedDate.UnixMilli()),
		Member: callID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index call context %s: %w", callID, err)
	}
	// drop index members whose values have already expired
	cutoff := strconv.FormatInt(stored.CreatedDate.Add(-s.ttl).UnixMilli(), 10)
	if err := client.ZRemRangeByScore(ctx, redisRecentKey, "-inf", cutoff).Err(); err != nil {
		s.logger.Warnf("failed to prune call context index: %v", err)
	}

	s.logger.Debugf("stored call context: callId=%s, direction=%s", callID, stored.Direction)
	return nil
}

func (s *redisStore) Get(ctx context.Context, callID string) (*CallContext, error) {
	data, err := s.redis.GetConnection().Get(ctx, redisKey(callID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, callID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read call context %s: %w", callID, err)
	}
	var cc CallContext
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("failed to decode call context %s: %w", callID, err)
	}
	return &cc, nil
}

func (s *redisStore) Remove(ctx context.Context, callID string) error {
	client := s.redis.GetConnection()
	if err := client.Del(ctx, redisKey(callID)).Err(); err != nil {
		return fmt.Errorf("failed to delete call context %s: %w", callID, err)
	}
	if err := client.ZRem(ctx, redisRecentKey, callID).Err(); err != nil {
		return fmt.Errorf("failed to unindex call context %s: %w", callID, err)
	}
	return nil
}

func (s *redisStore) MostRecent(ctx context.Context, within time.Duration) (*CallContext, error) {
	newest, err := s.redis.GetConnection().ZRevRangeWithScores(ctx, redisRecentKey, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read call context index: %w", err)
	}
	if len(newest) == 0 {
		return nil, ErrNotFound
	}
	insertedAt := time.UnixMilli(int64(newest[0].Score))
	if s.now().Sub(insertedAt) > within {
		return nil, ErrNotFound
	}
	callID, _ := newest[0].Member.(string)
	return s.Get(ctx, callID)
}

func (s *redisStore) List(ctx context.Context) ([]*CallContext, error) {
	callIDs, err := s.redis.GetConnection().ZRevRange(ctx, redisRecentKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read call context index: %w", err)
	}
	out := make([]*CallContext, 0, len(callIDs))
	for _, callID := range callIDs {
		cc, err := s.Get(ctx, callID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}
