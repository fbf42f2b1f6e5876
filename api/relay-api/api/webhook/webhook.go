// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package webhook_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_postcall "github.com/rapidaai/intake-relay/api/relay-api/internal/postcall"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/utils"
)

// Processor handles finished-call payloads.
type Processor interface {
	Process(ctx context.Context, payload *internal_postcall.Payload) (*internal_postcall.Result, error)
}

type WebhookApi struct {
	cfg       *config.AppConfig
	logger    commons.Logger
	contexts  internal_callcontext.Store
	processor Processor
	now       func() time.Time
}

func New(cfg *config.AppConfig, logger commons.Logger, contexts internal_callcontext.Store, processor Processor) *WebhookApi {
	return &WebhookApi{
		cfg:       cfg,
		logger:    logger,
		contexts:  contexts,
		processor: processor,
		now:       time.Now,
	}
}

// bodyMap decodes an optional JSON object body; anything else yields an empty map.
func bodyMap(c *gin.Context) map[string]interface{} {
	body := map[string]interface{}{}
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		return body
	}
	_ = json.Unmarshal(raw, &body)
	return body
}

func stringOf(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// callId finds the correlation key the provider sent, in order: body,
// query, header, body metadata.
func callId(c *gin.Context, body map[string]interface{}) string {
	var fromMetadata string
	if metadata, ok := body["metadata"].(map[string]interface{}); ok {
		fromMetadata = stringOf(metadata["call_id"])
	}
	return utils.FirstNonEmpty(
		stringOf(body["call_id"]),
		c.Query("call_id"),
		c.GetHeader(utils.HEADER_CALL_ID),
		fromMetadata,
	)
}

// ConversationInit serves the personalization variables for a conversation
// the provider is about to start.
func (w *WebhookApi) ConversationInit(c *gin.Context) {
	ctx := c.Request.Context()
	body := bodyMap(c)
	id := callId(c, body)

	var cc *internal_callcontext.CallContext
	if id != "" {
		found, err := w.contexts.Get(ctx, id)
		switch {
		case err == nil:
			cc = found
		case !errors.Is(err, internal_callcontext.ErrNotFound):
			w.logger.Errorf("conversation init lookup failed for %s: %v", id, err)
		}
	}
	if cc == nil && w.cfg.ContextStore.RecentFallback {
		recent, err := w.contexts.MostRecent(ctx, w.cfg.ContextStore.RecentWindow)
		if err == nil {
			w.logger.Warnf("conversation init for %q resolved by recency to %s (%s old)", id, recent.CallID, recent.Age(w.now()).Round(time.Second))
			cc = recent
		}
	}
	if cc == nil {
		w.logger.Infof("no context for conversation init call_id=%q, serving defaults", id)
	}

	c.JSON(http.StatusOK, gin.H{
		"variables":         cc.PersonalizationVariables(),
		"type":              "conversation_initiation_client_data",
		"dynamic_variables": cc.DynamicVariables(),
	})
}

func (w *WebhookApi) ConversationInitStatus(c *gin.Context) {
	active := 0
	if contexts, err := w.contexts.List(c.Request.Context()); err == nil {
		active = len(contexts)
	} else {
		w.logger.Warnf("unable to count call contexts: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"message":        "ElevenLabs conversation init webhook is ready",
		"activeContexts": active,
		"timestamp":      w.now().UTC().Format(time.RFC3339Nano),
	})
}

// TestContext stores a hand-made context, for exercising the init webhook.
func (w *WebhookApi) TestContext(c *gin.Context) {
	body := bodyMap(c)
	sid := stringOf(body["callSid"])
	if utils.IsEmpty(sid) {
		sid = fmt.Sprintf("test-%d", w.now().UnixMilli())
	}
	delete(body, "callSid")

	params := make(map[string]string, len(body))
	for k, v := range body {
		params[k] = stringOf(v)
	}
	direction := utils.DefaultIfEmpty(params["callType"], internal_callcontext.DirectionInbound)
	delete(params, "callType")

	if err := w.contexts.Put(c.Request.Context(), sid, internal_callcontext.FromParameters(sid, direction, params)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Context stored for testing",
		"callSid": sid,
		"context": params,
	})
}

// Debug lists every live context with its age.
func (w *WebhookApi) Debug(c *gin.Context) {
	contexts, err := w.contexts.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	now := w.now()
	out := make([]gin.H, 0, len(contexts))
	for _, cc := range contexts {
		entry := gin.H{}
		for k, v := range cc.Variables() {
			entry[k] = v
		}
		entry["callSid"] = cc.CallID
		entry["callType"] = cc.Direction
		entry["timestamp"] = cc.CreatedDate
		entry["age"] = fmt.Sprintf("%ds", int(cc.Age(now).Seconds()))
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"totalContexts": len(contexts), "contexts": out})
}

// PostCall receives the provider's post-call analysis. It always answers 200
// so the provider does not retry; failures are logged.
func (w *WebhookApi) PostCall(c *gin.Context) {
	var payload internal_postcall.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		w.logger.Warnf("unreadable post-call webhook: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Unreadable payload"})
		return
	}

	result, err := w.processor.Process(c.Request.Context(), &payload)
	switch {
	case err != nil:
		w.logger.Errorf("post-call processing failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Processing failed"})
	case result.Processed:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Data processed successfully", "recordId": result.RecordId})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Acknowledged"})
	}
}
