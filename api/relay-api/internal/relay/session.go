// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_telephony "github.com/rapidaai/intake-relay/api/relay-api/internal/telephony"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	internal_upstream "github.com/rapidaai/intake-relay/api/relay-api/internal/upstream"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/rapidaai/intake-relay/pkg/utils"
)

// Phase only moves forward; PhaseClosed is absorbing.
type Phase int32

const (
	PhaseAwaitingStart Phase = iota
	PhaseConnectingUpstream
	PhaseActive
	PhaseEnding
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingStart:
		return "AWAITING_START"
	case PhaseConnectingUpstream:
		return "CONNECTING_UPSTREAM"
	case PhaseActive:
		return "ACTIVE"
	case PhaseEnding:
		return "ENDING"
	case PhaseClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// eventShutdown ends a session when the server stops. It is terminal and does
// not originate from either transport.
const eventShutdown EventKind = -1

const inboundEventBuffer = 256

type Options struct {
	Direction           string
	AgentId             string
	PendingAudioLimit   int
	MalformedFrameLimit int
	ConnectTimeout      time.Duration
	TerminateTimeout    time.Duration
}

type sessionStats struct {
	forwardedUpstream int
	forwardedInbound  int
	dropped           int
}

// Session relays one call between the Twilio media stream and the voice agent.
// All state below the atomics is owned by the goroutine running Run.
type Session struct {
	logger     commons.Logger
	opts       Options
	token      string
	inbound    internal_type.InboundTransport
	connector  internal_upstream.Connector
	terminator internal_telephony.Terminator
	contexts   internal_callcontext.Store
	registry   *Registry

	phase    atomic.Int32
	tornDown atomic.Bool
	closed   chan struct{}

	streamSid      string
	callSid        string
	conversationId string
	registryKey    string
	upstream       internal_upstream.Handle
	upstreamReady  bool
	pending        []string
	cancelConnect  context.CancelFunc
	readyTimer     *time.Timer
	stats          sessionStats
	startedAt      time.Time

	inboundEvents chan Event
	connectResult chan Event
}

func NewSession(
	logger commons.Logger,
	inbound internal_type.InboundTransport,
	connector internal_upstream.Connector,
	terminator internal_telephony.Terminator,
	contexts internal_callcontext.Store,
	registry *Registry,
	opts Options,
) *Session {
	token := uuid.NewString()
	return &Session{
		logger:        logger.With("session", token, "direction", opts.Direction),
		opts:          opts,
		token:         token,
		inbound:       inbound,
		connector:     connector,
		terminator:    terminator,
		contexts:      contexts,
		registry:      registry,
		closed:        make(chan struct{}),
		startedAt:     time.Now(),
		inboundEvents: make(chan Event, inboundEventBuffer),
		connectResult: make(chan Event),
	}
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

// Done is closed once teardown has finished.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

func (s *Session) setPhase(next Phase) {
	for {
		current := s.phase.Load()
		if int32(next) <= current {
			return
		}
		if s.phase.CompareAndSwap(current, int32(next)) {
			return
		}
	}
}

// Run drives the session until it is closed. Cancelling ctx tears it down.
func (s *Session) Run(ctx context.Context) {
	s.logger.Infof("media stream connected")
	go s.readInbound(s.logger)

	for s.Phase() != PhaseClosed {
		var upstreamEvents <-chan internal_upstream.Event
		if s.upstream != nil {
			upstreamEvents = s.upstream.Events()
		}
		var readyTimeout <-chan time.Time
		if s.readyTimer != nil {
			readyTimeout = s.readyTimer.C
		}

		select {
		case ev := <-s.inboundEvents:
			s.apply(ctx, ev)
		case ev := <-upstreamEvents:
			s.apply(ctx, upstreamEvent(ev))
		case ev := <-s.connectResult:
			s.apply(ctx, ev)
		case <-readyTimeout:
			s.readyTimer = nil
			s.apply(ctx, Event{
				Kind: EventUpstreamFailed,
				Err:  fmt.Errorf("%w: no conversation metadata within %s", internal_type.ErrUpstreamUnavailable, s.opts.ConnectTimeout),
			})
		case <-ctx.Done():
			s.apply(ctx, Event{Kind: eventShutdown, Err: ctx.Err()})
		}
	}
}

// apply is the state transition function. It is only ever called from Run.
func (s *Session) apply(ctx context.Context, ev Event) {
	if s.Phase() >= PhaseEnding {
		if ev.Kind == EventUpstreamConnected && ev.Handle != nil {
			ev.Handle.Close()
		}
		s.logger.Debugf("ignoring %s after teardown", ev.Kind)
		return
	}

	switch ev.Kind {
	case EventStart:
		s.onStart(ctx, ev)
	case EventInboundAudio:
		s.onInboundAudio(ctx, ev)
	case EventUpstreamConnected:
		s.onUpstreamConnected(ev)
	case EventUpstreamReady:
		s.onUpstreamReady(ctx, ev)
	case EventUpstreamAudio:
		s.onUpstreamAudio(ctx, ev)
	case EventUpstreamInterruption:
		s.onUpstreamInterruption(ctx)
	case EventUpstreamPing:
		s.onUpstreamPing(ctx, ev)
	case EventUpstreamAgentResponse:
		s.logger.Infow("agent response", "text", ev.Text)
	case EventUpstreamUserTranscript:
		s.logger.Infow("user transcript", "text", ev.Text)
	default:
		if ev.Kind.terminal() || ev.Kind == eventShutdown {
			s.teardown(ctx, ev)
			return
		}
		s.logger.Warnf("unhandled session event %s", ev.Kind)
	}
}

func (s *Session) onStart(ctx context.Context, ev Event) {
	if s.Phase() != PhaseAwaitingStart {
		s.logger.Warnf("ignoring duplicate start for stream %s", ev.StreamSid)
		return
	}
	s.streamSid = ev.StreamSid
	s.callSid = ev.CallSid
	s.logger = s.logger.With("call_sid", s.callSid, "stream_sid", s.streamSid)
	s.logger.Infof("media stream started")

	cc := internal_callcontext.FromParameters(s.callSid, s.opts.Direction, ev.Parameters)
	if !utils.IsEmpty(s.callSid) {
		if err := s.contexts.Put(ctx, s.callSid, cc); err != nil {
			s.logger.Warnf("failed to store call context: %v", err)
		}
	}

	s.registryKey = utils.FirstNonEmpty(s.callSid, s.token)
	s.registry.Add(s.registryKey, s)
	s.setPhase(PhaseConnectingUpstream)

	// the deadline covers the dial and the wait for conversation metadata
	connectCtx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	s.cancelConnect = cancel
	s.readyTimer = time.NewTimer(s.opts.ConnectTimeout)
	go s.connect(connectCtx, internal_upstream.Request{
		AgentId:   s.opts.AgentId,
		CallId:    s.callSid,
		Variables: cc.DynamicVariables(),
	})
}

// connect runs off the event loop and reports back through connectResult.
func (s *Session) connect(ctx context.Context, req internal_upstream.Request) {
	handle, err := s.connector.Connect(ctx, req)
	ev := Event{Kind: EventUpstreamConnected, Handle: handle}
	if err != nil {
		ev = Event{Kind: EventUpstreamFailed, Err: err}
	}
	select {
	case s.connectResult <- ev:
	case <-s.closed:
		if handle != nil {
			handle.Close()
		}
	}
}

func (s *Session) onUpstreamConnected(ev Event) {
	if s.upstream != nil {
		s.logger.Warnf("closing surplus upstream connection")
		ev.Handle.Close()
		return
	}
	s.upstream = ev.Handle
	s.logger.Infof("upstream connected, waiting for conversation metadata")
}

func (s *Session) onUpstreamReady(ctx context.Context, ev Event) {
	if s.upstream == nil || s.upstreamReady {
		return
	}
	s.upstreamReady = true
	s.stopReadyTimer()
	s.conversationId = ev.ConversationId
	s.setPhase(PhaseActive)
	s.logger.Infof("upstream ready: conversation=%s, buffered=%d", s.conversationId, len(s.pending))

	// flush in arrival order, then retire the queue for good
	pending := s.pending
	s.pending = nil
	for _, payload := range pending {
		if !s.sendUpstream(ctx, payload) {
			return
		}
	}
}

func (s *Session) stopReadyTimer() {
	if s.readyTimer != nil {
		s.readyTimer.Stop()
		s.readyTimer = nil
	}
}

func (s *Session) onInboundAudio(ctx context.Context, ev Event) {
	switch {
	case s.Phase() == PhaseAwaitingStart:
		s.stats.dropped++
		s.logger.Debugf("dropping media received before start")
	case s.upstreamReady:
		s.sendUpstream(ctx, ev.Audio)
	default:
		s.enqueue(ev.Audio)
	}
}

// enqueue buffers audio until the upstream is ready, dropping the oldest
// frame once the limit is reached.
func (s *Session) enqueue(payload string) {
	if len(s.pending) >= s.opts.PendingAudioLimit {
		copy(s.pending, s.pending[1:])
		s.pending = s.pending[:len(s.pending)-1]
		s.stats.dropped++
		if s.stats.dropped == 1 || s.stats.dropped%50 == 0 {
			s.logger.Warnf("pending audio limit %d reached, dropped %d frames", s.opts.PendingAudioLimit, s.stats.dropped)
		}
	}
	s.pending = append(s.pending, payload)
}

func (s *Session) sendUpstream(ctx context.Context, payload string) bool {
	if err := s.upstream.SendAudio(payload); err != nil {
		s.teardown(ctx, Event{Kind: EventUpstreamError, Err: err})
		return false
	}
	s.stats.forwardedUpstream++
	return true
}

func (s *Session) writeInbound(ctx context.Context, frame []byte, err error) bool {
	if err != nil {
		s.logger.Errorf("failed to build media stream frame: %v", err)
		return true
	}
	if err := s.inbound.Write(frame); err != nil {
		s.teardown(ctx, Event{Kind: EventInboundError, Err: err})
		return false
	}
	return true
}

func (s *Session) onUpstreamAudio(ctx context.Context, ev Event) {
	frame, err := internal_telephony.MediaFrame(s.streamSid, ev.Audio)
	if s.writeInbound(ctx, frame, err) {
		s.stats.forwardedInbound++
	}
}

func (s *Session) onUpstreamInterruption(ctx context.Context) {
	s.logger.Debugf("caller interrupted, clearing playback")
	frame, err := internal_telephony.ClearFrame(s.streamSid)
	s.writeInbound(ctx, frame, err)
}

func (s *Session) onUpstreamPing(ctx context.Context, ev Event) {
	if s.upstream == nil {
		return
	}
	if err := s.upstream.SendPong(ev.EventId); err != nil {
		s.teardown(ctx, Event{Kind: EventUpstreamError, Err: err})
	}
}

// teardown runs at most once per session, whichever terminal event wins.
func (s *Session) teardown(ctx context.Context, cause Event) {
	if !s.tornDown.CompareAndSwap(false, true) {
		return
	}
	s.setPhase(PhaseEnding)
	if cause.Err != nil {
		s.logger.Warnw("tearing down session", "cause", cause.Kind.String(), "error", cause.Err.Error())
	} else {
		s.logger.Infow("tearing down session", "cause", cause.Kind.String())
	}

	if s.cancelConnect != nil {
		s.cancelConnect()
	}
	s.stopReadyTimer()
	if s.upstream != nil {
		if err := s.upstream.Close(); err != nil {
			s.logger.Debugf("upstream close: %v", err)
		}
	}

	if !cause.Kind.fromInbound() && !utils.IsEmpty(s.streamSid) {
		if frame, err := internal_telephony.StopFrame(s.streamSid); err == nil {
			if err := s.inbound.Write(frame); err != nil {
				s.logger.Debugf("failed to send stop: %v", err)
			}
		}
	}
	if err := s.inbound.Close(); err != nil {
		s.logger.Debugf("media stream close: %v", err)
	}

	if !utils.IsEmpty(s.callSid) {
		terminateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.TerminateTimeout)
		if err := s.terminator.Terminate(terminateCtx, s.callSid); err != nil {
			s.logger.Warnf("call termination failed: %v", err)
		}
		cancel()
	}

	if s.registryKey != "" {
		s.registry.Remove(s.registryKey, s)
	}
	s.setPhase(PhaseClosed)
	close(s.closed)

	s.logger.Infow("session closed",
		"conversation_id", s.conversationId,
		"forwarded_upstream", s.stats.forwardedUpstream,
		"forwarded_inbound", s.stats.forwardedInbound,
		"dropped", s.stats.dropped,
	)
	s.logger.Benchmark("Session.Run", time.Since(s.startedAt))
}

// readInbound is the single reader of the media stream socket. It gets its own
// logger since the event loop rebinds s.logger on start.
func (s *Session) readInbound(logger commons.Logger) {
	malformed := 0
	for {
		data, err := s.inbound.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.emit(Event{Kind: EventInboundClose})
			} else {
				s.emit(Event{Kind: EventInboundError, Err: err})
			}
			return
		}

		msg, err := internal_telephony.DecodeStreamMessage(data)
		if err != nil {
			malformed++
			logger.Warnf("dropping inbound frame: %v", err)
			if malformed >= s.opts.MalformedFrameLimit {
				s.emit(Event{Kind: EventInboundError, Err: fmt.Errorf("%d consecutive malformed frames: %w", malformed, err)})
				return
			}
			continue
		}
		malformed = 0

		ev, ok := inboundEvent(msg)
		if !ok {
			continue
		}
		if !s.emit(ev) {
			return
		}
	}
}

func (s *Session) emit(ev Event) bool {
	select {
	case s.inboundEvents <- ev:
		return true
	case <-s.closed:
		return false
	}
}

func inboundEvent(msg *internal_telephony.StreamMessage) (Event, bool) {
	switch msg.Event {
	case internal_telephony.EventStart:
		return Event{
			Kind:       EventStart,
			StreamSid:  msg.StreamSid,
			CallSid:    msg.Start.CallSid,
			Parameters: msg.Start.CustomParameters,
		}, true
	case internal_telephony.EventMedia:
		return Event{Kind: EventInboundAudio, Audio: msg.Media.Payload}, true
	case internal_telephony.EventStop:
		return Event{Kind: EventInboundStop}, true
	}
	return Event{}, false
}
