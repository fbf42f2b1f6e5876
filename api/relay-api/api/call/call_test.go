// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package call_api

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_relay "github.com/rapidaai/intake-relay/api/relay-api/internal/relay"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	internal_upstream "github.com/rapidaai/intake-relay/api/relay-api/internal/upstream"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unavailableConnector struct{}

func (unavailableConnector) Connect(ctx context.Context, req internal_upstream.Request) (internal_upstream.Handle, error) {
	return nil, internal_type.ErrUpstreamUnavailable
}

type recordingTerminator struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingTerminator) Terminate(ctx context.Context, callSid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, callSid)
	return nil
}

func (r *recordingTerminator) terminated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		PublicHost: "relay.example.com",
		ElevenLabs: config.ElevenLabsConfig{
			InboundAgentId:  "agent_in",
			OutboundAgentId: "agent_out",
			ConnectTimeout:  time.Second,
		},
		Relay: config.RelayConfig{
			PendingAudioLimit:   10,
			MalformedFrameLimit: 3,
			TerminateTimeout:    time.Second,
		},
	}
}

type testCallApi struct {
	api        *CallApi
	engine     *gin.Engine
	contexts   internal_callcontext.Store
	terminator *recordingTerminator
}

func newTestCallApi(t *testing.T, cfg *config.AppConfig) *testCallApi {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := commons.NewApplicationLogger(commons.Level("error"))
	contexts := internal_callcontext.NewMemoryStore(logger, time.Minute)
	terminator := &recordingTerminator{}
	relay := internal_relay.NewRelay(logger, cfg, unavailableConnector{}, terminator, contexts, internal_relay.NewRegistry())

	api := New(context.Background(), cfg, logger, relay)
	engine := gin.New()
	engine.POST("/inbound", api.Inbound)
	engine.GET("/media-stream", api.MediaStream)
	engine.GET("/outbound-media-stream", api.OutboundMediaStream)
	return &testCallApi{api: api, engine: engine, contexts: contexts, terminator: terminator}
}

func postInbound(engine *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// =============================================================================
// Inbound TwiML
// =============================================================================

func TestInbound_ConnectsStream(t *testing.T) {
	h := newTestCallApi(t, testConfig())
	w := postInbound(h.engine, url.Values{"CallSid": {"CA1"}, "From": {"+15551234567"}, "To": {"+15550000000"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/xml")
	body := w.Body.String()
	assert.Contains(t, body, `url="wss://relay.example.com/media-stream"`)
	assert.Contains(t, body, `name="caller_number"`)
	assert.Contains(t, body, `value="+15551234567"`)
	assert.Contains(t, body, `name="called_number"`)
	assert.NotContains(t, body, "caller_city")
}

func TestInbound_UnavailableWithoutAgent(t *testing.T) {
	cfg := testConfig()
	cfg.ElevenLabs.InboundAgentId = ""
	h := newTestCallApi(t, cfg)
	w := postInbound(h.engine, url.Values{"CallSid": {"CA1"}})

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "temporarily unavailable")
	assert.Contains(t, body, "<Hangup")
	assert.NotContains(t, body, "<Stream")
}

// =============================================================================
// Signature
// =============================================================================

func twilioSignature(token, fullUrl string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	data := fullUrl
	for _, k := range keys {
		data += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newSignedEngine(t *testing.T) *gin.Engine {
	cfg := testConfig()
	cfg.Twilio = config.TwilioConfig{AuthToken: "secret", ValidateSignature: true}
	h := newTestCallApi(t, cfg)
	engine := gin.New()
	engine.POST("/inbound", h.api.VerifySignature(), h.api.Inbound)
	return engine
}

func TestVerifySignature_Accepts(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "From": {"+15551234567"}}
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", twilioSignature("secret", "https://relay.example.com/inbound", form))

	w := httptest.NewRecorder()
	newSignedEngine(t).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<Stream")
}

func TestVerifySignature_Rejects(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}}
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "bogus")

	w := httptest.NewRecorder()
	newSignedEngine(t).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifySignature_DisabledPassesThrough(t *testing.T) {
	h := newTestCallApi(t, testConfig())
	engine := gin.New()
	engine.POST("/inbound", h.api.VerifySignature(), h.api.Inbound)
	w := postInbound(engine, url.Values{"CallSid": {"CA1"}})
	assert.Equal(t, http.StatusOK, w.Code)
}

// =============================================================================
// Media stream
// =============================================================================

func dialStream(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	wsUrl := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestMediaStream_UpstreamUnavailableEndsCall(t *testing.T) {
	h := newTestCallApi(t, testConfig())
	srv := httptest.NewServer(h.engine)
	defer srv.Close()

	conn := dialStream(t, srv, "/media-stream")
	start := `{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1","customParameters":{"user_name":"Jane"}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(start)))

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "stop", frame["event"])
	assert.Equal(t, "MZ1", frame["streamSid"])

	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "relay closes the media stream after stop")

	drainCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, h.api.Drain(drainCtx))
	assert.Equal(t, []string{"CA1"}, h.terminator.terminated())

	cc, err := h.contexts.Get(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", cc.UserName)
	assert.Equal(t, internal_callcontext.DirectionInbound, cc.Direction)
}

func TestOutboundMediaStream_UsesOutboundDirection(t *testing.T) {
	h := newTestCallApi(t, testConfig())
	srv := httptest.NewServer(h.engine)
	defer srv.Close()

	conn := dialStream(t, srv, "/outbound-media-stream")
	start := `{"event":"start","start":{"streamSid":"MZ2","callSid":"CA2"}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(start)))

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	drainCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, h.api.Drain(drainCtx))

	cc, err := h.contexts.Get(context.Background(), "CA2")
	require.NoError(t, err)
	assert.Equal(t, internal_callcontext.DirectionOutbound, cc.Direction)
}

func TestDrain_NoSessions(t *testing.T) {
	h := newTestCallApi(t, testConfig())
	assert.NoError(t, h.api.Drain(context.Background()))
}
