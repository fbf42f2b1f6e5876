// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/utils"
)

// Connection strategies.
const (
	StrategyDirect    = "direct"
	StrategySignedUrl = "signed_url"
)

const (
	conversationPath = "/v1/convai/conversation"
	signedUrlPath    = "/v1/convai/conversation/get-signed-url"
)

// Request identifies the agent and call an upstream session is opened for.
type Request struct {
	AgentId   string
	CallId    string
	Variables map[string]string
}

// Connector opens provider sessions. Connect blocks until the socket is open
// and the init frame has been written; readiness arrives later as EventReady.
type Connector interface {
	Connect(ctx context.Context, req Request) (Handle, error)
}

type elevenLabsConnector struct {
	logger commons.Logger
	cfg    *config.ElevenLabsConfig
	rest   *resty.Client
	dialer *websocket.Dialer
}

func NewElevenLabsConnector(logger commons.Logger, cfg *config.ElevenLabsConfig) Connector {
	rest := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ApiBaseUrl, "/")).
		SetTimeout(cfg.ConnectTimeout)
	return &elevenLabsConnector{
		logger: logger,
		cfg:    cfg,
		rest:   rest,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.ConnectTimeout,
		},
	}
}

func (c *elevenLabsConnector) Connect(ctx context.Context, req Request) (Handle, error) {
	start := time.Now()
	if utils.IsEmpty(req.AgentId) {
		return nil, fmt.Errorf("%w: agent id is not configured", internal_type.ErrUpstreamUnavailable)
	}

	var (
		wsUrl string
		err   error
	)
	headers := http.Header{}
	switch c.cfg.Strategy {
	case StrategyDirect:
		wsUrl, err = c.directUrl(req)
		if !utils.IsEmpty(c.cfg.ApiKey) {
			headers.Set(utils.HEADER_API_KEY, c.cfg.ApiKey)
		}
	default:
		wsUrl, err = c.signedUrl(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsUrl, headers)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, fmt.Errorf("%w: dial failed (status %d): %v", internal_type.ErrUpstreamUnavailable, status, err)
	}

	h := newHandle(c.logger, conn)
	if err := h.writeJSON(&InitiationClientData{
		Type:             TypeConversationInitiationClientData,
		DynamicVariables: req.Variables,
	}); err != nil {
		h.Close()
		return nil, fmt.Errorf("%w: init frame: %v", internal_type.ErrUpstreamUnavailable, err)
	}
	go h.listen()

	c.logger.Benchmark("ElevenLabsConnector.Connect", time.Since(start))
	c.logger.Infof("upstream connected: agent=%s, callId=%s, strategy=%s", req.AgentId, req.CallId, c.cfg.Strategy)
	return h, nil
}

func (c *elevenLabsConnector) directUrl(req Request) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.WebsocketBaseUrl, "/") + conversationPath)
	if err != nil {
		return "", fmt.Errorf("%w: invalid websocket base url: %v", internal_type.ErrUpstreamUnavailable, err)
	}
	query := u.Query()
	query.Set("agent_id", req.AgentId)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// signedUrl fetches a short-lived URL and tags it with the call id so the
// provider can echo it to the conversation-init webhook.
func (c *elevenLabsConnector) signedUrl(ctx context.Context, req Request) (string, error) {
	if utils.IsEmpty(c.cfg.ApiKey) {
		return "", fmt.Errorf("%w: api key is not configured", internal_type.ErrUpstreamUnavailable)
	}

	var out signedUrlResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader(utils.HEADER_API_KEY, c.cfg.ApiKey).
		SetQueryParam("agent_id", req.AgentId).
		SetResult(&out).
		Get(signedUrlPath)
	if err != nil {
		return "", fmt.Errorf("%w: signed url request: %v", internal_type.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: signed url request returned %d: %s", internal_type.ErrUpstreamUnavailable, resp.StatusCode(), resp.String())
	}
	if utils.IsEmpty(out.SignedUrl) {
		return "", fmt.Errorf("%w: signed url response without url", internal_type.ErrUpstreamUnavailable)
	}

	u, err := url.Parse(out.SignedUrl)
	if err != nil {
		return "", fmt.Errorf("%w: invalid signed url: %v", internal_type.ErrUpstreamUnavailable, err)
	}
	if !utils.IsEmpty(req.CallId) {
		query := u.Query()
		query.Set("call_id", req.CallId)
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}
