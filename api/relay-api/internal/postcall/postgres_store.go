// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_postcall

import (
	"context"
	"fmt"
	"strconv"

	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/connectors"
)

type postgresStore struct {
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewPostgresRecordStore(logger commons.Logger, postgres connectors.PostgresConnector) RecordStore {
	return &postgresStore{logger: logger, postgres: postgres}
}

// Migrate creates or updates the intake_records table.
func Migrate(ctx context.Context, postgres connectors.PostgresConnector) error {
	return postgres.DB(ctx).AutoMigrate(&IntakeRecord{})
}

func (s *postgresStore) Save(ctx context.Context, record *IntakeRecord) (string, error) {
	db := s.postgres.DB(ctx)
	if tx := db.Create(record); tx.Error != nil {
		s.logger.Errorf("unable to insert intake record for conversation %s: %v", record.ConversationId, tx.Error)
		return "", fmt.Errorf("%w: %v", internal_type.ErrRecordStoreWrite, tx.Error)
	}
	return strconv.FormatUint(record.Id, 10), nil
}
