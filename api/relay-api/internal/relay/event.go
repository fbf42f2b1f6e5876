// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_relay

import (
	internal_upstream "github.com/rapidaai/intake-relay/api/relay-api/internal/upstream"
)

// EventKind enumerates everything that can happen to a session.
type EventKind int

const (
	EventStart EventKind = iota
	EventInboundAudio
	EventInboundStop
	EventInboundClose
	EventInboundError
	EventUpstreamConnected
	EventUpstreamFailed
	EventUpstreamReady
	EventUpstreamAudio
	EventUpstreamInterruption
	EventUpstreamPing
	EventUpstreamAgentResponse
	EventUpstreamUserTranscript
	EventUpstreamConversationEnd
	EventUpstreamClose
	EventUpstreamError
)

var eventNames = map[EventKind]string{
	EventStart:                   "start",
	EventInboundAudio:            "inbound_audio",
	EventInboundStop:             "inbound_stop",
	EventInboundClose:            "inbound_close",
	EventInboundError:            "inbound_error",
	EventUpstreamConnected:       "upstream_connected",
	EventUpstreamFailed:          "upstream_failed",
	EventUpstreamReady:           "upstream_ready",
	EventUpstreamAudio:           "upstream_audio",
	EventUpstreamInterruption:    "upstream_interruption",
	EventUpstreamPing:            "upstream_ping",
	EventUpstreamAgentResponse:   "upstream_agent_response",
	EventUpstreamUserTranscript:  "upstream_user_transcript",
	EventUpstreamConversationEnd: "upstream_conversation_end",
	EventUpstreamClose:           "upstream_close",
	EventUpstreamError:           "upstream_error",
	eventShutdown:                "shutdown",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// terminal reports whether the event ends the session.
func (k EventKind) terminal() bool {
	switch k {
	case EventInboundStop, EventInboundClose, EventInboundError,
		EventUpstreamFailed, EventUpstreamConversationEnd, EventUpstreamClose, EventUpstreamError:
		return true
	}
	return false
}

// fromInbound reports whether the inbound side produced the event.
func (k EventKind) fromInbound() bool {
	switch k {
	case EventStart, EventInboundAudio, EventInboundStop, EventInboundClose, EventInboundError:
		return true
	}
	return false
}

// Event is the single input of the session state machine.
type Event struct {
	Kind EventKind

	// start
	StreamSid  string
	CallSid    string
	Parameters map[string]string

	// audio payload, base64, never decoded
	Audio string

	// ping event id, transcript text, provider conversation id
	EventId        int
	Text           string
	ConversationId string

	// upstream connected
	Handle internal_upstream.Handle

	Err error
}

// upstreamEvent maps a handle event onto the session enumeration.
func upstreamEvent(ev internal_upstream.Event) Event {
	out := Event{
		Audio:          ev.Audio,
		EventId:        ev.EventId,
		Text:           ev.Text,
		ConversationId: ev.ConversationId,
		Err:            ev.Err,
	}
	switch ev.Kind {
	case internal_upstream.EventReady:
		out.Kind = EventUpstreamReady
	case internal_upstream.EventAudio:
		out.Kind = EventUpstreamAudio
	case internal_upstream.EventInterruption:
		out.Kind = EventUpstreamInterruption
	case internal_upstream.EventPing:
		out.Kind = EventUpstreamPing
	case internal_upstream.EventAgentResponse:
		out.Kind = EventUpstreamAgentResponse
	case internal_upstream.EventUserTranscript:
		out.Kind = EventUpstreamUserTranscript
	case internal_upstream.EventConversationEnd:
		out.Kind = EventUpstreamConversationEnd
	case internal_upstream.EventClose:
		out.Kind = EventUpstreamClose
	default:
		out.Kind = EventUpstreamError
	}
	return out
}
