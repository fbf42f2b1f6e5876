// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_callcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromParameters(t *testing.T) {
	cc := FromParameters("CA1", DirectionOutbound, map[string]string{
		"user_name":   "Jane",
		"case_type":   "slip",
		"record_id":   "rec1",
		"meeting_url": "https://meet.example.com/x",
	})

	assert.Equal(t, "CA1", cc.CallID)
	assert.Equal(t, "Jane", cc.UserName)
	assert.Equal(t, "slip", cc.CaseType)
	assert.Equal(t, "rec1", cc.RecordID)
	assert.Equal(t, DirectionOutbound, cc.Direction)
	assert.Equal(t, map[string]string{"meeting_url": "https://meet.example.com/x"}, cc.Extra)
}

func TestFromParameters_Empty(t *testing.T) {
	cc := FromParameters("CA1", DirectionInbound, nil)
	assert.Nil(t, cc.Extra)
	assert.Empty(t, cc.Variables())
}

func TestVariables_OnlyPopulated(t *testing.T) {
	cc := &CallContext{UserName: "Jane", LeadScore: "80", Extra: map[string]string{"x": "y"}}
	assert.Equal(t, map[string]string{"user_name": "Jane", "lead_score": "80", "x": "y"}, cc.Variables())
}

func TestPersonalizationVariables_Defaults(t *testing.T) {
	var missing *CallContext
	assert.Equal(t, map[string]string{
		"user_name":     DefaultUserName,
		"case_type":     DefaultCaseType,
		"incident_date": DefaultIncidentDate,
	}, missing.PersonalizationVariables())

	cc := &CallContext{UserName: "Jane"}
	vars := cc.PersonalizationVariables()
	assert.Equal(t, "Jane", vars["user_name"])
	assert.Equal(t, DefaultCaseType, vars["case_type"])
}

func TestDynamicVariables_OverlaysDefaults(t *testing.T) {
	cc := &CallContext{UserName: "Jane", RecordID: "rec1"}
	vars := cc.DynamicVariables()
	assert.Equal(t, "Jane", vars["user_name"])
	assert.Equal(t, DefaultIncidentDate, vars["incident_date"])
	assert.Equal(t, "rec1", vars["record_id"])

	var missing *CallContext
	assert.Len(t, missing.DynamicVariables(), 3)
}

func TestAge(t *testing.T) {
	now := time.Now()
	cc := &CallContext{CreatedDate: now.Add(-5 * time.Second)}
	assert.Equal(t, 5*time.Second, cc.Age(now))
}

func TestCallContext_Clone(t *testing.T) {
	cc := &CallContext{CallID: "CA1", UserName: "Jane", Extra: map[string]string{"k": "v"}}
	out := cc.Clone()
	out.Extra["k"] = "changed"
	out.UserName = "John"

	assert.Equal(t, "v", cc.Extra["k"])
	assert.Equal(t, "Jane", cc.UserName)
	assert.Nil(t, (&CallContext{}).Clone().Extra)
}
