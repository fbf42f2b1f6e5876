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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

type PostgresConnector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected(ctx context.Context) bool
	DB(ctx context.Context) *gorm.DB
}

type postgresConnector struct {
	cfg    *configs.PostgresConfig
	logger commons.Logger
	db     *gorm.DB
}

func NewPostgresConnector(cfg *configs.PostgresConfig, logger commons.Logger) PostgresConnector {
	return &postgresConnector{cfg: cfg, logger: logger}
}

// NewPostgresConnectorWithDB wraps an already opened gorm handle, mainly for tests.
func NewPostgresConnectorWithDB(db *gorm.DB, logger commons.Logger) PostgresConnector {
	return &postgresConnector{db: db, logger: logger}
}

func (p *postgresConnector) dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.cfg.Host, p.cfg.Port, p.cfg.Auth.User, p.cfg.Auth.Password, p.cfg.DBName, p.cfg.SslMode)
}

func (p *postgresConnector) Connect(ctx context.Context) error {
	db, err := gorm.Open(postgres.Open(p.dsn()), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("unable to connect postgres %s:%d: %w", p.cfg.Host, p.cfg.Port, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(p.cfg.MaxOpenConnection)
	sqlDB.SetMaxIdleConns(p.cfg.MaxIdealConnection)
	p.db = db
	p.logger.Infof("connected to postgres %s:%d/%s", p.cfg.Host, p.cfg.Port, p.cfg.DBName)
	return nil
}

func (p *postgresConnector) Disconnect(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *postgresConnector) IsConnected(ctx context.Context) bool {
	if p.db == nil {
		return false
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

func (p *postgresConnector) DB(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}
