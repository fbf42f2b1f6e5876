// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package relay_server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	callApi "github.com/rapidaai/intake-relay/api/relay-api/api/call"
	healthCheckApi "github.com/rapidaai/intake-relay/api/relay-api/api/health"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_postcall "github.com/rapidaai/intake-relay/api/relay-api/internal/postcall"
	internal_relay "github.com/rapidaai/intake-relay/api/relay-api/internal/relay"
	internal_telephony "github.com/rapidaai/intake-relay/api/relay-api/internal/telephony"
	internal_upstream "github.com/rapidaai/intake-relay/api/relay-api/internal/upstream"
	relay_routers "github.com/rapidaai/intake-relay/api/relay-api/router"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/connectors"
	"golang.org/x/sync/errgroup"
)

const (
	ContextBackendMemory = "memory"
	ContextBackendRedis  = "redis"
	readHeaderTimeout    = 10 * time.Second
)

// Server owns the backends, the relay and the HTTP listener.
type Server struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	redis    connectors.RedisConnector
	postgres connectors.PostgresConnector

	contexts     internal_callcontext.Store
	records      internal_postcall.RecordStore
	dependencies map[string]healthCheckApi.Dependency
}

func New(cfg *config.AppConfig, logger commons.Logger) *Server {
	return &Server{
		cfg:          cfg,
		logger:       logger,
		redis:        connectors.NewRedisConnector(&cfg.RedisConfig, logger),
		postgres:     connectors.NewPostgresConnector(&cfg.PostgresConfig, logger),
		dependencies: make(map[string]healthCheckApi.Dependency),
	}
}

// Connect opens the backends the configuration selects and builds the stores on top.
func (s *Server) Connect(ctx context.Context) error {
	useRedis := s.cfg.ContextStore.Backend == ContextBackendRedis
	usePostgres := s.cfg.RecordStore.Backend == internal_postcall.BackendPostgres

	g, gCtx := errgroup.WithContext(ctx)
	if useRedis {
		g.Go(func() error {
			return s.redis.Connect(gCtx)
		})
	}
	if usePostgres {
		g.Go(func() error {
			if err := s.postgres.Connect(gCtx); err != nil {
				return err
			}
			return internal_postcall.Migrate(gCtx, s.postgres)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ttl := s.cfg.ContextStore.Ttl
	if useRedis {
		s.dependencies["redis"] = s.redis
		s.contexts = internal_callcontext.NewRedisStore(s.redis, s.logger, ttl)
	} else {
		s.contexts = internal_callcontext.NewMemoryStore(s.logger, ttl)
	}

	switch s.cfg.RecordStore.Backend {
	case internal_postcall.BackendPostgres:
		s.dependencies["postgres"] = s.postgres
		s.records = internal_postcall.NewPostgresRecordStore(s.logger, s.postgres)
	case internal_postcall.BackendAirtable:
		s.records = internal_postcall.NewAirtableRecordStore(s.logger, &s.cfg.RecordStore.Airtable)
	default:
		s.records = internal_postcall.NewNoopRecordStore(s.logger)
	}
	s.logger.Infof("context store=%s, record store=%s", s.cfg.ContextStore.Backend, s.cfg.RecordStore.Backend)
	return nil
}

func (s *Server) Disconnect(ctx context.Context) {
	if err := s.redis.Disconnect(ctx); err != nil {
		s.logger.Warnf("redis disconnect: %v", err)
	}
	if err := s.postgres.Disconnect(ctx); err != nil {
		s.logger.Warnf("postgres disconnect: %v", err)
	}
}

// Handler builds the gin engine. Relay sessions run under sessionCtx.
func (s *Server) Handler(sessionCtx context.Context) (*gin.Engine, *callApi.CallApi) {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-call-id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}), requestLogger(s.logger))

	relay := internal_relay.NewRelay(
		s.logger,
		s.cfg,
		internal_upstream.NewElevenLabsConnector(s.logger, &s.cfg.ElevenLabs),
		internal_telephony.NewTwilioTerminator(s.logger, &s.cfg.Twilio),
		s.contexts,
		internal_relay.NewRegistry(),
	)
	processor := internal_postcall.NewProcessor(s.logger, s.records, internal_postcall.NewWebhookTrigger(s.logger, s.cfg.Automation.WebhookUrl))

	relay_routers.HealthCheckRoutes(s.cfg, engine, s.logger, s.dependencies)
	calls := relay_routers.CallRoutes(sessionCtx, s.cfg, engine, s.logger, relay)
	relay_routers.OutboundRoutes(s.cfg, engine, s.logger, s.contexts)
	relay_routers.WebhookRoutes(s.cfg, engine, s.logger, s.contexts, processor)
	return engine, calls
}

// Run serves until ctx is cancelled, then stops accepting, ends live calls
// and waits up to ShutdownWait for them to tear down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Connect(ctx); err != nil {
		return fmt.Errorf("unable to connect backends: %w", err)
	}
	defer s.Disconnect(context.Background())

	sessionCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()
	engine, calls := s.Handler(sessionCtx)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Infof("%s %s listening on %s", s.cfg.Name, s.cfg.Version, httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Infof("shutting down, waiting up to %s for live calls", s.cfg.ShutdownWait)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownWait)
		defer cancel()

		err := httpSrv.Shutdown(shutdownCtx)
		cancelSessions()
		if drainErr := calls.Drain(shutdownCtx); drainErr != nil {
			s.logger.Warnf("live calls did not finish before shutdown: %v", drainErr)
		}
		return err
	})
	return g.Wait()
}

func requestLogger(logger commons.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}
