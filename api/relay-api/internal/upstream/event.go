// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_upstream

// EventKind enumerates what a Handle reports to its session.
type EventKind int

const (
	EventReady EventKind = iota
	EventAudio
	EventInterruption
	EventPing
	EventAgentResponse
	EventUserTranscript
	EventConversationEnd
	EventClose
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventAudio:
		return "audio"
	case EventInterruption:
		return "interruption"
	case EventPing:
		return "ping"
	case EventAgentResponse:
		return "agent_response"
	case EventUserTranscript:
		return "user_transcript"
	case EventConversationEnd:
		return "conversation_end"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is one decoded provider frame or a socket outcome. EventClose and
// EventError are always the last event of a handle.
type Event struct {
	Kind           EventKind
	Audio          string
	EventId        int
	Text           string
	ConversationId string
	Err            error
}
