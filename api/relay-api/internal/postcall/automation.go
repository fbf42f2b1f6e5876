// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_postcall

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

const (
	AutomationSource  = "ai-intake-phone"
	automationTimeout = 15 * time.Second
)

// AutomationTrigger hands a saved record to the follow-up workflow.
type AutomationTrigger interface {
	Trigger(ctx context.Context, recordId string, record *IntakeRecord) error
}

type automationRecord struct {
	Id     string                 `json:"id,omitempty"`
	Fields map[string]interface{} `json:"fields"`
}

type automationRequest struct {
	Source string           `json:"source"`
	Data   automationRecord `json:"data"`
}

type webhookTrigger struct {
	logger     commons.Logger
	client     *resty.Client
	webhookUrl string
}

// NewWebhookTrigger posts records to webhookUrl. An empty url disables the trigger.
func NewWebhookTrigger(logger commons.Logger, webhookUrl string) AutomationTrigger {
	return &webhookTrigger{
		logger:     logger,
		client:     resty.New().SetTimeout(automationTimeout),
		webhookUrl: webhookUrl,
	}
}

func (t *webhookTrigger) Trigger(ctx context.Context, recordId string, record *IntakeRecord) error {
	if t.webhookUrl == "" {
		t.logger.Debugf("automation webhook not configured, skipping conversation %s", record.ConversationId)
		return nil
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(automationRequest{
			Source: AutomationSource,
			Data:   automationRecord{Id: recordId, Fields: record.AirtableFields()},
		}).
		Post(t.webhookUrl)
	if err != nil {
		return fmt.Errorf("%w: %v", internal_type.ErrAutomationTrigger, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: webhook responded %d", internal_type.ErrAutomationTrigger, resp.StatusCode())
	}
	t.logger.Infof("automation triggered for conversation %s", record.ConversationId)
	return nil
}
