// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package relay_routers

import (
	"github.com/gin-gonic/gin"
	outboundApi "github.com/rapidaai/intake-relay/api/relay-api/api/outbound"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_outbound "github.com/rapidaai/intake-relay/api/relay-api/internal/outbound"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

func OutboundRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, contexts internal_callcontext.Store) {
	logger.Info("Internal OutboundRoutes added to engine.")
	apiv1 := engine.Group("/outbound")
	oApi := outboundApi.New(logger, internal_outbound.NewTrigger(logger, cfg, contexts))
	{
		apiv1.POST("/trigger", oApi.Trigger)
		apiv1.POST("/status", oApi.Status)
		apiv1.GET("/health", oApi.Health)
	}
}
