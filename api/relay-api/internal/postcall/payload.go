// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_postcall

import (
	"bytes"
	"encoding/json"
	"fmt"

	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
)

// Payload is the post-call webhook body. Newer deliveries wrap the same
// fields in a typed envelope under data.
type Payload struct {
	Type           string          `json:"type,omitempty"`
	ConversationId string          `json:"conversation_id"`
	AgentId        string          `json:"agent_id,omitempty"`
	Status         string          `json:"status"`
	Transcript     json.RawMessage `json:"transcript,omitempty"`
	Analysis       json.RawMessage `json:"analysis,omitempty"`
	Data           *Payload        `json:"data,omitempty"`
}

// Unwrap returns the payload carrying the conversation fields.
func (p *Payload) Unwrap() *Payload {
	if p.Data != nil && p.ConversationId == "" {
		return p.Data
	}
	return p
}

// Completed reports whether the call finished with an analysis to process.
func (p *Payload) Completed() bool {
	if p.Status != "completed" && p.Status != "done" {
		return false
	}
	trimmed := bytes.TrimSpace(p.Analysis)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// IntakeData decodes the analysis, which arrives either as an object or as a
// JSON-encoded string. Values under data_collection_results are lifted to the top.
func (p *Payload) IntakeData() (IntakeData, error) {
	raw := bytes.TrimSpace(p.Analysis)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}

	var fields map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil {
		return IntakeData{}, fmt.Errorf("%w: analysis: %v", internal_type.ErrMalformedFrame, err)
	}
	if collected, ok := fields["data_collection_results"].(map[string]interface{}); ok {
		for k, v := range collected {
			if result, ok := v.(map[string]interface{}); ok {
				fields[k] = result["value"]
				continue
			}
			fields[k] = v
		}
	}

	return IntakeData{
		Name:         stringField(fields, "name"),
		Phone:        stringField(fields, "phone"),
		Email:        stringField(fields, "email"),
		AccidentType: stringField(fields, "accident_type"),
		AccidentDate: stringField(fields, "accident_date"),
		ExtraNotes:   stringField(fields, "extra_notes"),
		ConsentGiven: stringField(fields, "consent_given"),
		UrgencyFlag:  stringField(fields, "urgency_flag"),
	}, nil
}

func stringField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(v)
	}
}
