// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_outbound

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rapidaai/intake-relay/pkg/utils"
)

// Defaults for dynamic variables of an outbound call.
const (
	DefaultUserName     = "valued client"
	DefaultCaseType     = "personal injury case"
	DefaultIncidentDate = "recently"
	DefaultLeadScore    = "0"
)

// Value accepts a JSON string, number or boolean. Automation tools are loose
// about which one they send for the same column.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Value(s)
		return nil
	}
	*v = Value(b)
	return nil
}

func (v Value) String() string {
	return string(v)
}

// CallRequest is a lead handed over by the automation workflow.
type CallRequest struct {
	PhoneNumber          string `json:"phoneNumber" validate:"required"`
	FirstName            string `json:"firstName"`
	CaseType             string `json:"caseType"`
	CaseDescription      string `json:"caseDescription"`
	WhenIncidentOccurred string `json:"whenIncidentOccurred"`
	ConsentToContact     Value  `json:"consentToContact"`
	LeadScore            Value  `json:"lead_score"`
	RecordId             Value  `json:"record_id"`
	AppointmentStatus    string `json:"appointment_status"`
	ScheduledTime        string `json:"scheduled_time"`
	MeetingLink          string `json:"meeting_link"`
}

// HasConsent reports whether the lead agreed to be called.
func (r *CallRequest) HasConsent() bool {
	return strings.EqualFold(strings.TrimSpace(r.ConsentToContact.String()), "true")
}

// DynamicVariables are the variables the outbound agent prompt references.
func (r *CallRequest) DynamicVariables() map[string]string {
	return map[string]string{
		"user_name":          utils.DefaultIfEmpty(r.FirstName, DefaultUserName),
		"case_type":          utils.DefaultIfEmpty(r.CaseType, DefaultCaseType),
		"incident_date":      utils.DefaultIfEmpty(r.WhenIncidentOccurred, DefaultIncidentDate),
		"case_description":   r.CaseDescription,
		"lead_score":         utils.DefaultIfEmpty(r.LeadScore.String(), DefaultLeadScore),
		"record_id":          r.RecordId.String(),
		"appointment_status": r.AppointmentStatus,
		"scheduled_time":     r.ScheduledTime,
		"meeting_link":       r.MeetingLink,
	}
}
