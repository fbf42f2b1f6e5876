// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_postcall

import (
	"encoding/json"
	"errors"
	"testing"

	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, body string) *Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return &p
}

func TestPayload_Completed(t *testing.T) {
	assert.True(t, decodePayload(t, `{"status":"completed","analysis":{"name":"a"}}`).Completed())
	assert.True(t, decodePayload(t, `{"status":"done","analysis":"{}"}`).Completed())
	assert.False(t, decodePayload(t, `{"status":"in-progress","analysis":{}}`).Completed())
	assert.False(t, decodePayload(t, `{"status":"completed"}`).Completed())
	assert.False(t, decodePayload(t, `{"status":"completed","analysis":null}`).Completed())
}

func TestPayload_IntakeDataFromObject(t *testing.T) {
	p := decodePayload(t, `{"conversation_id":"c1","status":"completed","analysis":{
		"name":"Jane Doe","phone":"+15551234567","accident_type":"car",
		"accident_date":"monday","extra_notes":"neck pain","consent_given":"yes","urgency_flag":"hospital"}}`)
	d, err := p.IntakeData()
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", d.Name)
	assert.Equal(t, "+15551234567", d.Phone)
	assert.Equal(t, "car", d.AccidentType)
	assert.Equal(t, "monday", d.AccidentDate)
	assert.Equal(t, "neck pain", d.ExtraNotes)
	assert.Equal(t, "yes", d.ConsentGiven)
	assert.Equal(t, "hospital", d.UrgencyFlag)
}

func TestPayload_IntakeDataFromEncodedString(t *testing.T) {
	p := decodePayload(t, `{"status":"completed","analysis":"{\"name\":\"Bob\",\"consent_given\":true}"}`)
	d, err := p.IntakeData()
	require.NoError(t, err)
	assert.Equal(t, "Bob", d.Name)
	assert.Equal(t, "yes", d.ConsentGiven)
}

func TestPayload_IntakeDataFromCollectionResults(t *testing.T) {
	p := decodePayload(t, `{"type":"post_call_transcription","data":{"conversation_id":"c9","status":"done",
		"analysis":{"data_collection_results":{"name":{"value":"Ann Lee"},"phone":{"value":5551234567}}}}}`)
	inner := p.Unwrap()
	assert.Equal(t, "c9", inner.ConversationId)
	require.True(t, inner.Completed())

	d, err := inner.IntakeData()
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", d.Name)
	assert.Equal(t, "5551234567", d.Phone)
}

func TestPayload_IntakeDataMalformed(t *testing.T) {
	p := decodePayload(t, `{"status":"completed","analysis":"not json"}`)
	_, err := p.IntakeData()
	assert.True(t, errors.Is(err, internal_type.ErrMalformedFrame))
}
