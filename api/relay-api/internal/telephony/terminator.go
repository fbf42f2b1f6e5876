// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_telephony

import (
	"context"
	"fmt"
	"time"

	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/utils"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const callStatusCompleted = "completed"

// Terminator ends the telephony call behind a session.
type Terminator interface {
	Terminate(ctx context.Context, callSid string) error
}

// callUpdater is the slice of the Twilio REST API the terminator uses.
type callUpdater interface {
	UpdateCall(sid string, params *openapi.UpdateCallParams) (*openapi.ApiV2010Call, error)
}

type twilioTerminator struct {
	logger commons.Logger
	calls  callUpdater
}

// NewTwilioTerminator builds a terminator from account credentials. Missing
// credentials are not an error here; every Terminate call then fails instead.
func NewTwilioTerminator(logger commons.Logger, cfg *config.TwilioConfig) Terminator {
	clientParams, err := ClientParam(cfg)
	if err != nil {
		logger.Warnf("call termination disabled: %v", err)
		return &twilioTerminator{logger: logger}
	}
	client := twilio.NewRestClientWithParams(*clientParams)
	return &twilioTerminator{logger: logger, calls: client.Api}
}

// ClientParam validates account credentials for the Twilio REST client.
func ClientParam(cfg *config.TwilioConfig) (*twilio.ClientParams, error) {
	if cfg == nil || cfg.AccountSid == "" {
		return nil, fmt.Errorf("illegal twilio config account_sid is not found")
	}
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("illegal twilio config auth_token is not found")
	}
	return &twilio.ClientParams{
		Username: cfg.AccountSid,
		Password: cfg.AuthToken,
	}, nil
}

func (t *twilioTerminator) Terminate(ctx context.Context, callSid string) error {
	if callSid == "" {
		return fmt.Errorf("%w: empty call sid", internal_type.ErrTerminationFailed)
	}
	if t.calls == nil {
		return fmt.Errorf("%w: twilio credentials not configured", internal_type.ErrTerminationFailed)
	}

	start := time.Now()
	params := &openapi.UpdateCallParams{}
	params.SetStatus(callStatusCompleted)

	// the REST client takes no context, so the deadline is enforced around it
	result := make(chan error, 1)
	utils.Go(ctx, t.logger, func() {
		_, err := t.calls.UpdateCall(callSid, params)
		result <- err
	})

	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("%w: %s: %v", internal_type.ErrTerminationFailed, callSid, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", internal_type.ErrTerminationFailed, callSid, ctx.Err())
	}
	t.logger.Benchmark("TwilioTerminator.Terminate", time.Since(start))
	t.logger.Infof("terminated call %s", callSid)
	return nil
}
