// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package relay_routers

import (
	"github.com/gin-gonic/gin"
	webhookApi "github.com/rapidaai/intake-relay/api/relay-api/api/webhook"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_postcall "github.com/rapidaai/intake-relay/api/relay-api/internal/postcall"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

// WebhookRoutes mounts the provider callbacks. Context inspection routes only
// exist in development.
func WebhookRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	contexts internal_callcontext.Store,
	processor *internal_postcall.Processor,
) {
	logger.Info("Internal WebhookRoutes added to engine.")
	wApi := webhookApi.New(cfg, logger, contexts, processor)
	apiv1 := engine.Group("/webhook")
	{
		apiv1.POST("/conversation-init", wApi.ConversationInit)
		apiv1.GET("/conversation-init", wApi.ConversationInitStatus)
		apiv1.POST("/elevenlabs", wApi.PostCall)
	}
	if cfg.IsDevelopment() {
		apiv1.POST("/conversation-init/test-context", wApi.TestContext)
		apiv1.GET("/conversation-init/debug", wApi.Debug)
	}

	customLlm := engine.Group("/custom-llm")
	{
		customLlm.POST("/:callSid/context", wApi.CustomLlmContext)
		customLlm.POST("/:callSid", wApi.CustomLlm)
	}
}
