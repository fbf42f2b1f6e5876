// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package health_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependency bool

func (f fakeDependency) IsConnected(ctx context.Context) bool { return bool(f) }

func newTestEngine(deps map[string]Dependency) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := commons.NewApplicationLogger(commons.Level("error"))
	h := New(&config.AppConfig{Name: "intake-relay", Version: "0.0.1"}, logger, deps)
	engine := gin.New()
	engine.GET("/", h.Banner)
	engine.GET("/healthz/", h.Healthz)
	engine.GET("/readiness/", h.Readiness)
	return engine
}

func serve(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	w := serve(newTestEngine(nil), "/healthz/")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "intake-relay", body["service"])
}

func TestBanner(t *testing.T) {
	w := serve(newTestEngine(nil), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")
}

func TestReadiness_AllUp(t *testing.T) {
	w := serve(newTestEngine(map[string]Dependency{"redis": fakeDependency(true)}), "/readiness/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"up"`)
}

func TestReadiness_DependencyDown(t *testing.T) {
	w := serve(newTestEngine(map[string]Dependency{
		"redis":    fakeDependency(true),
		"postgres": fakeDependency(false),
	}), "/readiness/")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"down"`)
}
