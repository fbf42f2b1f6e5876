// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_relay

import (
	"context"

	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_telephony "github.com/rapidaai/intake-relay/api/relay-api/internal/telephony"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	internal_upstream "github.com/rapidaai/intake-relay/api/relay-api/internal/upstream"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

// Relay creates sessions sharing one connector, terminator, context store and registry.
type Relay struct {
	logger     commons.Logger
	cfg        *config.AppConfig
	connector  internal_upstream.Connector
	terminator internal_telephony.Terminator
	contexts   internal_callcontext.Store
	registry   *Registry
}

func NewRelay(
	logger commons.Logger,
	cfg *config.AppConfig,
	connector internal_upstream.Connector,
	terminator internal_telephony.Terminator,
	contexts internal_callcontext.Store,
	registry *Registry,
) *Relay {
	return &Relay{
		logger:     logger,
		cfg:        cfg,
		connector:  connector,
		terminator: terminator,
		contexts:   contexts,
		registry:   registry,
	}
}

// Options returns the session settings for a call direction; each direction
// talks to its own agent.
func (r *Relay) Options(direction string) Options {
	agentId := r.cfg.ElevenLabs.InboundAgentId
	if direction == internal_callcontext.DirectionOutbound {
		agentId = r.cfg.ElevenLabs.OutboundAgentId
	}
	return Options{
		Direction:           direction,
		AgentId:             agentId,
		PendingAudioLimit:   r.cfg.Relay.PendingAudioLimit,
		MalformedFrameLimit: r.cfg.Relay.MalformedFrameLimit,
		ConnectTimeout:      r.cfg.ElevenLabs.ConnectTimeout,
		TerminateTimeout:    r.cfg.Relay.TerminateTimeout,
	}
}

func (r *Relay) NewSession(inbound internal_type.InboundTransport, direction string) *Session {
	return NewSession(r.logger, inbound, r.connector, r.terminator, r.contexts, r.registry, r.Options(direction))
}

// Serve runs a session for inbound until the call ends or ctx is cancelled.
func (r *Relay) Serve(ctx context.Context, inbound internal_type.InboundTransport, direction string) {
	r.NewSession(inbound, direction).Run(ctx)
}
