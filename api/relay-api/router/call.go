// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package relay_routers

import (
	"context"

	"github.com/gin-gonic/gin"
	callApi "github.com/rapidaai/intake-relay/api/relay-api/api/call"
	internal_relay "github.com/rapidaai/intake-relay/api/relay-api/internal/relay"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

// CallRoutes mounts the voice webhook and both media stream sockets. Sessions
// run under sessionCtx; the returned api drains them on shutdown.
func CallRoutes(sessionCtx context.Context, cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, relay *internal_relay.Relay) *callApi.CallApi {
	logger.Info("Internal CallRoutes added to engine.")
	cApi := callApi.New(sessionCtx, cfg, logger, relay)
	{
		engine.POST("/inbound", cApi.VerifySignature(), cApi.Inbound)
		engine.GET("/media-stream", cApi.MediaStream)
		engine.GET("/outbound-media-stream", cApi.OutboundMediaStream)
	}
	return cApi
}
