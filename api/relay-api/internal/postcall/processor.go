// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_postcall

import (
	"context"
	"errors"
	"time"

	"github.com/rapidaai/intake-relay/pkg/commons"
)

// Result describes what happened to one post-call payload.
type Result struct {
	Processed bool
	RecordId  string
	Record    *IntakeRecord
}

// Processor turns finished-call payloads into stored leads.
type Processor struct {
	logger     commons.Logger
	store      RecordStore
	automation AutomationTrigger
	now        func() time.Time
}

func NewProcessor(logger commons.Logger, store RecordStore, automation AutomationTrigger) *Processor {
	return &Processor{logger: logger, store: store, automation: automation, now: time.Now}
}

// Process saves the record then triggers the automation. The trigger runs even
// when the save fails so the follow-up workflow still hears about the lead.
func (p *Processor) Process(ctx context.Context, payload *Payload) (*Result, error) {
	payload = payload.Unwrap()
	if !payload.Completed() {
		p.logger.Debugf("ignoring post-call payload for conversation %s with status %q", payload.ConversationId, payload.Status)
		return &Result{}, nil
	}

	data, err := payload.IntakeData()
	if err != nil {
		return &Result{}, err
	}
	record := NewIntakeRecord(payload.ConversationId, data, p.now())

	recordId, saveErr := p.store.Save(ctx, record)
	if saveErr != nil {
		p.logger.Errorf("unable to save intake record for conversation %s: %v", payload.ConversationId, saveErr)
	}
	triggerErr := p.automation.Trigger(ctx, recordId, record)
	if triggerErr != nil {
		p.logger.Errorf("unable to trigger automation for conversation %s: %v", payload.ConversationId, triggerErr)
	}

	p.logger.Infow("intake processed",
		"conversation_id", payload.ConversationId,
		"record_id", recordId,
		"case_type", record.CaseType,
		"lead_score", record.LeadScore)
	return &Result{Processed: true, RecordId: recordId, Record: record}, errors.Join(saveErr, triggerErr)
}
