// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_telephony

import (
	"encoding/json"
	"fmt"

	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
)

// Media stream events.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventDTMF      = "dtmf"
	EventStop      = "stop"
	EventClear     = "clear"
)

// StreamMessage is one JSON frame of the Twilio media stream protocol.
type StreamMessage struct {
	Event          string       `json:"event"`
	SequenceNumber string       `json:"sequenceNumber,omitempty"`
	StreamSid      string       `json:"streamSid,omitempty"`
	Start          *StreamStart `json:"start,omitempty"`
	Media          *StreamMedia `json:"media,omitempty"`
	Mark           *StreamMark  `json:"mark,omitempty"`
	Stop           *StreamStop  `json:"stop,omitempty"`
	DTMF           *StreamDigit `json:"dtmf,omitempty"`
}

type StreamStart struct {
	StreamSid        string            `json:"streamSid"`
	AccountSid       string            `json:"accountSid"`
	CallSid          string            `json:"callSid"`
	Tracks           []string          `json:"tracks,omitempty"`
	MediaFormat      *MediaFormat      `json:"mediaFormat,omitempty"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// StreamMedia carries base64 audio; the payload is never decoded by the relay.
type StreamMedia struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

type StreamMark struct {
	Name string `json:"name"`
}

type StreamStop struct {
	AccountSid string `json:"accountSid"`
	CallSid    string `json:"callSid"`
}

type StreamDigit struct {
	Digit string `json:"digit"`
}

// DecodeStreamMessage parses one inbound frame. Frames that are not JSON, lack
// an event name or miss the body their event requires wrap ErrMalformedFrame.
func DecodeStreamMessage(data []byte) (*StreamMessage, error) {
	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: media stream: %v", internal_type.ErrMalformedFrame, err)
	}
	switch msg.Event {
	case "":
		return nil, fmt.Errorf("%w: media stream missing event", internal_type.ErrMalformedFrame)
	case EventStart:
		if msg.Start == nil {
			return nil, fmt.Errorf("%w: media stream start without body", internal_type.ErrMalformedFrame)
		}
		if msg.StreamSid == "" {
			msg.StreamSid = msg.Start.StreamSid
		}
	case EventMedia:
		if msg.Media == nil {
			return nil, fmt.Errorf("%w: media stream media without body", internal_type.ErrMalformedFrame)
		}
	}
	return &msg, nil
}

// MediaFrame builds a playback frame for the caller.
func MediaFrame(streamSid, payload string) ([]byte, error) {
	return json.Marshal(&StreamMessage{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     &StreamMedia{Payload: payload},
	})
}

// ClearFrame asks Twilio to drop any audio still queued for playback.
func ClearFrame(streamSid string) ([]byte, error) {
	return json.Marshal(&StreamMessage{Event: EventClear, StreamSid: streamSid})
}

// StopFrame ends the media stream from the relay side.
func StopFrame(streamSid string) ([]byte, error) {
	return json.Marshal(&StreamMessage{Event: EventStop, StreamSid: streamSid})
}
