// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_callcontext

import (
	"maps"
	"time"

	"github.com/rapidaai/intake-relay/pkg/utils"
)

// Call directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Defaults served to the voice agent when a caller field is unknown.
const (
	DefaultUserName     = "valued client"
	DefaultCaseType     = "your case"
	DefaultIncidentDate = "recently"
)

// CallContext holds caller and case metadata for one call. It bridges the
// call-setup step (inbound TwiML parameters or outbound trigger payload) and the
// media stream / provider callbacks that follow, which may arrive slightly before
// or after the relay session itself exists.
type CallContext struct {
	CallID          string            `json:"callId"`
	UserName        string            `json:"user_name,omitempty"`
	CaseType        string            `json:"case_type,omitempty"`
	IncidentDate    string            `json:"incident_date,omitempty"`
	CaseDescription string            `json:"case_description,omitempty"`
	LeadScore       string            `json:"lead_score,omitempty"`
	RecordID        string            `json:"record_id,omitempty"`
	Direction       string            `json:"callType,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
	CreatedDate     time.Time         `json:"timestamp"`
}

// known parameter names, everything else lands in Extra
var knownParameters = map[string]bool{
	"user_name":        true,
	"case_type":        true,
	"incident_date":    true,
	"case_description": true,
	"lead_score":       true,
	"record_id":        true,
}

// FromParameters builds a context from Twilio stream custom parameters.
func FromParameters(callID, direction string, params map[string]string) *CallContext {
	cc := &CallContext{
		CallID:          callID,
		UserName:        params["user_name"],
		CaseType:        params["case_type"],
		IncidentDate:    params["incident_date"],
		CaseDescription: params["case_description"],
		LeadScore:       params["lead_score"],
		RecordID:        params["record_id"],
		Direction:       direction,
	}
	for k, v := range params {
		if knownParameters[k] {
			continue
		}
		if cc.Extra == nil {
			cc.Extra = make(map[string]string)
		}
		cc.Extra[k] = v
	}
	return cc
}

// Variables returns the dynamic variables exposed to the voice agent. Only
// populated fields are included; see PersonalizationVariables for the defaulted set.
func (cc *CallContext) Variables() map[string]string {
	vars := make(map[string]string)
	for k, v := range cc.Extra {
		vars[k] = v
	}
	set := func(k, v string) {
		if !utils.IsEmpty(v) {
			vars[k] = v
		}
	}
	set("user_name", cc.UserName)
	set("case_type", cc.CaseType)
	set("incident_date", cc.IncidentDate)
	set("case_description", cc.CaseDescription)
	set("lead_score", cc.LeadScore)
	set("record_id", cc.RecordID)
	return vars
}

// PersonalizationVariables returns the three variables the agent prompt always
// references, with defaults for anything unknown. A nil context yields all defaults.
func (cc *CallContext) PersonalizationVariables() map[string]string {
	if cc == nil {
		return map[string]string{
			"user_name":     DefaultUserName,
			"case_type":     DefaultCaseType,
			"incident_date": DefaultIncidentDate,
		}
	}
	return map[string]string{
		"user_name":     utils.DefaultIfEmpty(cc.UserName, DefaultUserName),
		"case_type":     utils.DefaultIfEmpty(cc.CaseType, DefaultCaseType),
		"incident_date": utils.DefaultIfEmpty(cc.IncidentDate, DefaultIncidentDate),
	}
}

// DynamicVariables is the variable set sent to the agent when a session opens:
// the personalization defaults overlaid with every populated field.
func (cc *CallContext) DynamicVariables() map[string]string {
	vars := cc.PersonalizationVariables()
	if cc == nil {
		return vars
	}
	for k, v := range cc.Variables() {
		vars[k] = v
	}
	return vars
}

// Age returns how long ago the context was stored.
func (cc *CallContext) Age(now time.Time) time.Duration {
	return now.Sub(cc.CreatedDate)
}

// Clone returns a copy that shares no mutable state with cc.
func (cc *CallContext) Clone() *CallContext {
	out := *cc
	out.Extra = maps.Clone(cc.Extra)
	return &out
}
