// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package webhook_api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	"github.com/rapidaai/intake-relay/pkg/utils"
)

// form field names accepted as aliases of the context variables
var customLlmAliases = map[string]string{
	"firstName":    "user_name",
	"caseType":     "case_type",
	"incidentDate": "incident_date",
}

type customLlmRequest struct {
	Prompt              string        `json:"prompt"`
	ConversationHistory []interface{} `json:"conversation_history"`
}

// CustomLlmContext stores the context a custom LLM call will be personalized with.
func (w *WebhookApi) CustomLlmContext(c *gin.Context) {
	callSid := c.Param("callSid")
	body := bodyMap(c)

	params := make(map[string]string, len(body))
	for k, v := range body {
		if alias, ok := customLlmAliases[k]; ok {
			k = alias
		}
		params[k] = stringOf(v)
	}
	cc := internal_callcontext.FromParameters(callSid, internal_callcontext.DirectionOutbound, params)
	if err := w.contexts.Put(c.Request.Context(), callSid, cc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Context stored for call %s", callSid),
		"context": params,
	})
}

// CustomLlm answers the provider's custom LLM hook with a personalized
// greeting on the first turn and a system prompt afterwards.
func (w *WebhookApi) CustomLlm(c *gin.Context) {
	callSid := c.Param("callSid")
	var req customLlmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		w.logger.Debugf("custom llm request for %s without body: %v", callSid, err)
	}

	cc, err := w.contexts.Get(c.Request.Context(), callSid)
	if err != nil {
		w.logger.Infof("no context for custom llm call %s", callSid)
		c.JSON(http.StatusOK, gin.H{
			"response": fmt.Sprintf("I'm calling from %s. How can I help you today?", w.cfg.FirmName),
		})
		return
	}

	if len(req.ConversationHistory) == 0 {
		greeting := fmt.Sprintf("Hello, is this %s? This is %s from %s. I'm calling about the %s case you submitted. I wanted to follow up and see if you had a few minutes to discuss what happened",
			utils.DefaultIfEmpty(cc.UserName, "there"), w.cfg.AgentName, w.cfg.FirmName, utils.DefaultIfEmpty(cc.CaseType, "legal"))
		if !utils.IsEmpty(cc.IncidentDate) {
			greeting += " on " + cc.IncidentDate
		}
		c.JSON(http.StatusOK, gin.H{"response": greeting + "."})
		return
	}

	systemPrompt := fmt.Sprintf("You are a compassionate legal intake specialist from %s. You are calling %s who recently submitted a form about a %s.",
		w.cfg.FirmName, utils.DefaultIfEmpty(cc.UserName, "a potential client"), utils.DefaultIfEmpty(cc.CaseType, "legal matter"))
	if !utils.IsEmpty(cc.IncidentDate) {
		systemPrompt += fmt.Sprintf(" The incident occurred on %s.", cc.IncidentDate)
	}
	c.JSON(http.StatusOK, gin.H{"system_prompt": systemPrompt, "response": req.Prompt})
}
