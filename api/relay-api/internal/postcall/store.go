// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_postcall

import (
	"context"

	"github.com/rapidaai/intake-relay/pkg/commons"
)

// Record store backends.
const (
	BackendNone     = "none"
	BackendAirtable = "airtable"
	BackendPostgres = "postgres"
)

// RecordStore persists intake records and returns the stored record id.
type RecordStore interface {
	Save(ctx context.Context, record *IntakeRecord) (string, error)
}

type noopRecordStore struct {
	logger commons.Logger
}

// NewNoopRecordStore only logs the record.
func NewNoopRecordStore(logger commons.Logger) RecordStore {
	return &noopRecordStore{logger: logger}
}

func (s *noopRecordStore) Save(ctx context.Context, record *IntakeRecord) (string, error) {
	s.logger.Infow("record store disabled, intake record not persisted",
		"conversation_id", record.ConversationId,
		"case_type", record.CaseType,
		"lead_score", record.LeadScore)
	return "", nil
}
