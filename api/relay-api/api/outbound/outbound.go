// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package outbound_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	internal_outbound "github.com/rapidaai/intake-relay/api/relay-api/internal/outbound"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

// Caller places outbound calls.
type Caller interface {
	Call(ctx context.Context, req *internal_outbound.CallRequest) (*internal_outbound.CallResult, error)
}

type OutboundApi struct {
	logger  commons.Logger
	trigger Caller
}

func New(logger commons.Logger, trigger Caller) *OutboundApi {
	return &OutboundApi{logger: logger, trigger: trigger}
}

// Trigger places a call to a lead handed over by the automation workflow.
func (o *OutboundApi) Trigger(c *gin.Context) {
	var req internal_outbound.CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	result, err := o.trigger.Call(c.Request.Context(), &req)
	switch {
	case errors.Is(err, internal_outbound.ErrNoConsent):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No consent to contact"})
		return
	case errors.Is(err, internal_outbound.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	case err != nil:
		o.logger.Errorf("error triggering outbound call to %s: %v", req.PhoneNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"callId":  result.Id(),
		"message": fmt.Sprintf("Call initiated to %s", req.PhoneNumber),
		"details": result,
	})
}

// Status logs call-status callbacks from the provider.
func (o *OutboundApi) Status(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		o.logger.Warnf("unable to read call status update: %v", err)
	}
	o.logger.Infow("call status update", "body", string(body))
	c.Status(http.StatusOK)
}

func (o *OutboundApi) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Outbound service ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
