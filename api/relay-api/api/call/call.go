// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package call_api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_relay "github.com/rapidaai/intake-relay/api/relay-api/internal/relay"
	internal_telephony "github.com/rapidaai/intake-relay/api/relay-api/internal/telephony"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/utils"
	"github.com/twilio/twilio-go/client"
)

const (
	UnavailableMessage  = "I'm sorry, but our AI assistant is temporarily unavailable. Please call back in a few minutes."
	mediaStreamPath     = "/media-stream"
	contentTypeTwiML    = "text/xml"
	parameterCaller     = "caller_number"
	parameterCalled     = "called_number"
	parameterCallerCity = "caller_city"
)

// CallApi answers Twilio voice webhooks and hosts the media stream sockets.
// Sessions live as long as ctx, not the HTTP request that upgraded them.
type CallApi struct {
	ctx      context.Context
	cfg      *config.AppConfig
	logger   commons.Logger
	relay    *internal_relay.Relay
	sessions sync.WaitGroup
}

func New(ctx context.Context, cfg *config.AppConfig, logger commons.Logger, relay *internal_relay.Relay) *CallApi {
	return &CallApi{ctx: ctx, cfg: cfg, logger: logger, relay: relay}
}

// Inbound connects an incoming call to the media stream, or apologizes and
// hangs up when the relay cannot take it.
func (a *CallApi) Inbound(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	a.logger.Infow("inbound call received", "call_sid", callSid, "from", c.PostForm("From"))

	if utils.IsEmpty(a.cfg.PublicHost) || utils.IsEmpty(a.cfg.ElevenLabs.InboundAgentId) {
		a.logger.Errorf("inbound call %s rejected, public host or inbound agent not configured", callSid)
		a.unavailable(c)
		return
	}

	parameters := make(map[string]string)
	for name, field := range map[string]string{
		parameterCaller:     "From",
		parameterCalled:     "To",
		parameterCallerCity: "FromCity",
	} {
		if v := c.PostForm(field); !utils.IsEmpty(v) {
			parameters[name] = v
		}
	}

	twiml, err := internal_telephony.ConnectStreamTwiML(fmt.Sprintf("wss://%s%s", a.cfg.PublicHost, mediaStreamPath), parameters)
	if err != nil {
		a.logger.Errorf("unable to build stream twiml for call %s: %v", callSid, err)
		a.unavailable(c)
		return
	}
	c.Data(http.StatusOK, contentTypeTwiML, []byte(twiml))
}

// VerifySignature rejects voice webhooks not signed with the account's auth
// token. Signatures are computed over the public url Twilio called.
func (a *CallApi) VerifySignature() gin.HandlerFunc {
	if !a.cfg.Twilio.ValidateSignature || utils.IsEmpty(a.cfg.Twilio.AuthToken) {
		return func(c *gin.Context) { c.Next() }
	}
	validator := client.NewRequestValidator(a.cfg.Twilio.AuthToken)
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		url := fmt.Sprintf("https://%s%s", a.cfg.PublicHost, c.Request.URL.RequestURI())
		if !validator.Validate(url, params, c.GetHeader(utils.HEADER_TWILIO_SIGNATURE)) {
			a.logger.Warnf("rejected unsigned voice webhook from %s", c.ClientIP())
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func (a *CallApi) unavailable(c *gin.Context) {
	twiml, err := internal_telephony.SayHangupTwiML(UnavailableMessage)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, contentTypeTwiML, []byte(twiml))
}

func (a *CallApi) MediaStream(c *gin.Context) {
	a.stream(c, internal_callcontext.DirectionInbound)
}

func (a *CallApi) OutboundMediaStream(c *gin.Context) {
	a.stream(c, internal_callcontext.DirectionOutbound)
}

func (a *CallApi) stream(c *gin.Context, direction string) {
	conn, err := internal_telephony.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Errorf("media stream upgrade failed: %v", err)
		return
	}
	a.sessions.Add(1)
	defer a.sessions.Done()

	a.logger.Debugf("media stream connected from %s, direction=%s", c.ClientIP(), direction)
	a.relay.Serve(a.ctx, internal_telephony.NewStreamTransport(a.logger, conn), direction)
}

// Drain waits for running sessions to finish tearing down.
func (a *CallApi) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
