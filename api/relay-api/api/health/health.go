// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package health_api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

const readinessTimeout = 2 * time.Second

// Dependency is any connector readiness depends on.
type Dependency interface {
	IsConnected(ctx context.Context) bool
}

type HealthApi struct {
	cfg          *config.AppConfig
	logger       commons.Logger
	dependencies map[string]Dependency
}

func New(cfg *config.AppConfig, logger commons.Logger, dependencies map[string]Dependency) *HealthApi {
	return &HealthApi{cfg: cfg, logger: logger, dependencies: dependencies}
}

func (h *HealthApi) Banner(c *gin.Context) {
	c.String(http.StatusOK, "AI Intake Orchestrator is running")
}

func (h *HealthApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.cfg.Name,
		"version": h.cfg.Version,
	})
}

// Readiness reports 503 until every configured dependency answers.
func (h *HealthApi) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.dependencies))
	for name, dep := range h.dependencies {
		if dep.IsConnected(ctx) {
			checks[name] = "up"
			continue
		}
		h.logger.Warnf("readiness check failed for %s", name)
		checks[name] = "down"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": status == http.StatusOK, "dependencies": checks})
}
