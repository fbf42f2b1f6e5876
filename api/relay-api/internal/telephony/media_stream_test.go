// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_telephony

import (
	"errors"
	"testing"

	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DecodeStreamMessage
// =============================================================================

func TestDecodeStreamMessage_Start(t *testing.T) {
	raw := `{"event":"start","sequenceNumber":"1","start":{"streamSid":"ST1","accountSid":"AC1","callSid":"CA1",` +
		`"tracks":["inbound"],"mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1},` +
		`"customParameters":{"user_name":"Jane","case_type":"slip"}},"streamSid":"ST1"}`

	msg, err := DecodeStreamMessage([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, EventStart, msg.Event)
	assert.Equal(t, "ST1", msg.StreamSid)
	assert.Equal(t, "CA1", msg.Start.CallSid)
	assert.Equal(t, 8000, msg.Start.MediaFormat.SampleRate)
	assert.Equal(t, "Jane", msg.Start.CustomParameters["user_name"])
}

func TestDecodeStreamMessage_StartFillsStreamSid(t *testing.T) {
	msg, err := DecodeStreamMessage([]byte(`{"event":"start","start":{"streamSid":"ST9","callSid":"CA9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "ST9", msg.StreamSid)
}

func TestDecodeStreamMessage_Media(t *testing.T) {
	msg, err := DecodeStreamMessage([]byte(`{"event":"media","streamSid":"ST1","media":{"track":"inbound","chunk":"2","timestamp":"40","payload":"AAAA"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventMedia, msg.Event)
	assert.Equal(t, "AAAA", msg.Media.Payload)
}

func TestDecodeStreamMessage_Stop(t *testing.T) {
	msg, err := DecodeStreamMessage([]byte(`{"event":"stop","streamSid":"ST1","stop":{"accountSid":"AC1","callSid":"CA1"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventStop, msg.Event)
	assert.Equal(t, "CA1", msg.Stop.CallSid)
}

func TestDecodeStreamMessage_UnknownEventPassesThrough(t *testing.T) {
	msg, err := DecodeStreamMessage([]byte(`{"event":"connected","protocol":"Call","version":"1.0.0"}`))
	require.NoError(t, err)
	assert.Equal(t, EventConnected, msg.Event)
}

func TestDecodeStreamMessage_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":           `hello`,
		"missing event":      `{"streamSid":"ST1"}`,
		"start without body": `{"event":"start"}`,
		"media without body": `{"event":"media","streamSid":"ST1"}`,
		"wrong type":         `{"event":42}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeStreamMessage([]byte(raw))
			assert.True(t, errors.Is(err, internal_type.ErrMalformedFrame), "got %v", err)
		})
	}
}

// =============================================================================
// Outbound frames
// =============================================================================

func TestMediaFrame(t *testing.T) {
	data, err := MediaFrame("ST1", "BBBB")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"media","streamSid":"ST1","media":{"payload":"BBBB"}}`, string(data))
}

func TestClearFrame(t *testing.T) {
	data, err := ClearFrame("ST1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"clear","streamSid":"ST1"}`, string(data))
}

func TestStopFrame(t *testing.T) {
	data, err := StopFrame("ST1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"stop","streamSid":"ST1"}`, string(data))
}
