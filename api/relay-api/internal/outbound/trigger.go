// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_outbound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	internal_upstream "github.com/rapidaai/intake-relay/api/relay-api/internal/upstream"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/utils"
)

const (
	outboundCallPath     = "/v1/convai/twilio/outbound-call"
	amdBehaviorOnMachine = "hangup"
	outboundCallTimeout  = 30 * time.Second
)

var (
	ErrNoConsent      = errors.New("no consent to contact")
	ErrInvalidRequest = errors.New("invalid outbound call request")
)

type outboundCallRequest struct {
	AgentId                          string                                 `json:"agent_id"`
	AgentPhoneNumberId               string                                 `json:"agent_phone_number_id"`
	ToNumber                         string                                 `json:"to_number"`
	FromNumber                       string                                 `json:"from_number,omitempty"`
	Amd                              bool                                   `json:"amd"`
	AmdBehaviorOnMachine             string                                 `json:"amd_behavior_on_machine"`
	ConversationInitiationClientData internal_upstream.InitiationClientData `json:"conversation_initiation_client_data"`
}

// CallResult is the provider's answer to an outbound call request.
type CallResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ConversationId string `json:"conversation_id,omitempty"`
	CallSid        string `json:"callSid,omitempty"`
	CallId         string `json:"call_id,omitempty"`
}

// Id returns the best identifier the provider gave for the call.
func (r *CallResult) Id() string {
	return utils.FirstNonEmpty(r.CallId, r.CallSid, r.ConversationId)
}

// Trigger places outbound calls through the voice-AI provider, which dials
// the lead over its own Twilio integration.
type Trigger struct {
	logger     commons.Logger
	client     *resty.Client
	elevenLabs *config.ElevenLabsConfig
	twilio     *config.TwilioConfig
	contexts   internal_callcontext.Store
	validate   *validator.Validate
}

func NewTrigger(logger commons.Logger, cfg *config.AppConfig, contexts internal_callcontext.Store) *Trigger {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ElevenLabs.ApiBaseUrl, "/")).
		SetTimeout(outboundCallTimeout).
		SetHeader(utils.HEADER_API_KEY, cfg.ElevenLabs.ApiKey)
	return &Trigger{
		logger:     logger,
		client:     client,
		elevenLabs: &cfg.ElevenLabs,
		twilio:     &cfg.Twilio,
		contexts:   contexts,
		validate:   validator.New(),
	}
}

// Call checks consent, asks the provider to dial the lead and remembers the
// lead's context under the returned call id.
func (t *Trigger) Call(ctx context.Context, req *CallRequest) (*CallResult, error) {
	if !req.HasConsent() {
		return nil, ErrNoConsent
	}
	if err := t.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if utils.IsEmpty(t.elevenLabs.OutboundAgentId) || utils.IsEmpty(t.elevenLabs.PhoneNumberId) {
		return nil, fmt.Errorf("%w: outbound agent or phone number is not configured", internal_type.ErrUpstreamUnavailable)
	}

	start := time.Now()
	variables := req.DynamicVariables()
	t.logger.Infow("triggering outbound call",
		"to", req.PhoneNumber,
		"case_type", variables["case_type"],
		"record_id", variables["record_id"])

	var result CallResult
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(outboundCallRequest{
			AgentId:              t.elevenLabs.OutboundAgentId,
			AgentPhoneNumberId:   t.elevenLabs.PhoneNumberId,
			ToNumber:             req.PhoneNumber,
			FromNumber:           t.twilio.OutboundPhoneNumber,
			Amd:                  true,
			AmdBehaviorOnMachine: amdBehaviorOnMachine,
			ConversationInitiationClientData: internal_upstream.InitiationClientData{
				Type:             internal_upstream.TypeConversationInitiationClientData,
				DynamicVariables: variables,
			},
		}).
		SetResult(&result).
		Post(outboundCallPath)
	t.logger.Benchmark("Trigger.Call", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal_type.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: provider responded %d %s", internal_type.ErrUpstreamUnavailable, resp.StatusCode(), resp.String())
	}

	if callId := utils.FirstNonEmpty(result.CallSid, result.CallId); callId != "" {
		cc := internal_callcontext.FromParameters(callId, internal_callcontext.DirectionOutbound, variables)
		if err := t.contexts.Put(ctx, callId, cc); err != nil {
			t.logger.Warnf("unable to store context for outbound call %s: %v", callId, err)
		}
	}
	t.logger.Infof("outbound call initiated to %s, call %s", req.PhoneNumber, result.Id())
	return &result, nil
}
