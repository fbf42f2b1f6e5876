// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_upstream

// =============================================================================
// Conversational AI websocket message types
// =============================================================================

const (
	// client -> provider
	TypeConversationInitiationClientData = "conversation_initiation_client_data"
	TypePong                             = "pong"

	// provider -> client
	TypeConversationInitiationMetadata = "conversation_initiation_metadata"
	TypeAudio                          = "audio"
	TypeAgentResponse                  = "agent_response"
	TypeUserTranscript                 = "user_transcript"
	TypeInterruption                   = "interruption"
	TypeConversationEnd                = "conversation_end"
	TypePing                           = "ping"
)

// InitiationClientData is the first frame sent after the socket opens.
type InitiationClientData struct {
	Type             string            `json:"type"`
	DynamicVariables map[string]string `json:"dynamic_variables,omitempty"`
}

type UserAudioChunk struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

type Pong struct {
	Type    string `json:"type"`
	EventId int    `json:"event_id"`
}

// ServerMessage is any frame received from the provider; only the event
// matching Type is populated.
type ServerMessage struct {
	Type                           string                          `json:"type"`
	ConversationInitiationMetadata *ConversationInitiationMetadata `json:"conversation_initiation_metadata_event,omitempty"`
	AudioEvent                     *AudioEvent                     `json:"audio_event,omitempty"`
	AgentResponseEvent             *AgentResponseEvent             `json:"agent_response_event,omitempty"`
	UserTranscriptionEvent         *UserTranscriptionEvent         `json:"user_transcription_event,omitempty"`
	InterruptionEvent              *EventReference                 `json:"interruption_event,omitempty"`
	PingEvent                      *PingEvent                      `json:"ping_event,omitempty"`
}

type ConversationInitiationMetadata struct {
	ConversationId         string `json:"conversation_id"`
	AgentOutputAudioFormat string `json:"agent_output_audio_format"`
	UserInputAudioFormat   string `json:"user_input_audio_format"`
}

type AudioEvent struct {
	AudioBase64 string `json:"audio_base_64"`
	EventId     int    `json:"event_id"`
}

type AgentResponseEvent struct {
	AgentResponse string `json:"agent_response"`
}

type UserTranscriptionEvent struct {
	UserTranscript string `json:"user_transcript"`
}

type EventReference struct {
	EventId int `json:"event_id"`
}

type PingEvent struct {
	EventId int `json:"event_id"`
	PingMs  int `json:"ping_ms,omitempty"`
}

type signedUrlResponse struct {
	SignedUrl string `json:"signed_url"`
}
