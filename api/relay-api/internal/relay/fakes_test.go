// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	internal_callcontext "github.com/rapidaai/intake-relay/api/relay-api/internal/callcontext"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	internal_upstream "github.com/rapidaai/intake-relay/api/relay-api/internal/upstream"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

func newTestLogger() commons.Logger {
	l, _ := commons.NewApplicationLogger(commons.Name("test-relay"), commons.Level("error"))
	return l
}

// =============================================================================
// Fake media stream
// =============================================================================

type fakeInbound struct {
	frames    chan []byte
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	written  []map[string]interface{}
	closes   int
	writeErr error
}

func newFakeInbound() *fakeInbound {
	return &fakeInbound{
		frames: make(chan []byte, 64),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (f *fakeInbound) Read() ([]byte, error) {
	select {
	case data, ok := <-f.frames:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case err := <-f.errs:
		return nil, err
	case <-f.closed:
		return nil, fmt.Errorf("%w: closed locally", internal_type.ErrTransport)
	}
}

func (f *fakeInbound) Write(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	f.written = append(f.written, msg)
	return nil
}

func (f *fakeInbound) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeInbound) send(raw string) {
	f.frames <- []byte(raw)
}

func (f *fakeInbound) sendStart(streamSid, callSid string, params map[string]string) {
	p, _ := json.Marshal(params)
	f.send(fmt.Sprintf(`{"event":"start","streamSid":%q,"start":{"streamSid":%q,"callSid":%q,"customParameters":%s}}`,
		streamSid, streamSid, callSid, p))
}

func (f *fakeInbound) sendMedia(payload string) {
	f.send(fmt.Sprintf(`{"event":"media","streamSid":"ST1","media":{"payload":%q}}`, payload))
}

func (f *fakeInbound) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.written))
	for _, m := range f.written {
		out = append(out, fmt.Sprint(m["event"]))
	}
	return out
}

func (f *fakeInbound) frame(i int) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written[i]
}

func (f *fakeInbound) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// =============================================================================
// Fake upstream
// =============================================================================

type fakeHandle struct {
	events chan internal_upstream.Event

	mu      sync.Mutex
	audio   []string
	pongs   []int
	closes  int
	sendErr error
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{events: make(chan internal_upstream.Event, 64)}
}

func (h *fakeHandle) SendAudio(payload string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return h.sendErr
	}
	h.audio = append(h.audio, payload)
	return nil
}

func (h *fakeHandle) SendPong(eventId int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pongs = append(h.pongs, eventId)
	return nil
}

func (h *fakeHandle) Events() <-chan internal_upstream.Event {
	return h.events
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return nil
}

func (h *fakeHandle) sentAudio() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.audio...)
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

type fakeConnector struct {
	handle *fakeHandle
	err    error
	gate   chan struct{}

	mu       sync.Mutex
	requests []internal_upstream.Request
}

func (c *fakeConnector) Connect(ctx context.Context, req internal_upstream.Request) (internal_upstream.Handle, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", internal_type.ErrUpstreamUnavailable, ctx.Err())
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.handle, nil
}

func (c *fakeConnector) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// =============================================================================
// Fake terminator
// =============================================================================

type fakeTerminator struct {
	mu   sync.Mutex
	sids []string
	err  error
}

func (f *fakeTerminator) Terminate(ctx context.Context, callSid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sids = append(f.sids, callSid)
	return f.err
}

func (f *fakeTerminator) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sids...)
}

// =============================================================================
// Harness
// =============================================================================

type harness struct {
	session    *Session
	inbound    *fakeInbound
	handle     *fakeHandle
	connector  *fakeConnector
	terminator *fakeTerminator
	contexts   internal_callcontext.Store
	registry   *Registry
	done       chan struct{}
}

func defaultOptions() Options {
	return Options{
		Direction:           internal_callcontext.DirectionInbound,
		AgentId:             "agent_inbound",
		PendingAudioLimit:   250,
		MalformedFrameLimit: 25,
		ConnectTimeout:      2 * time.Second,
		TerminateTimeout:    time.Second,
	}
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	opts := defaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	logger := newTestLogger()
	h := &harness{
		inbound:    newFakeInbound(),
		handle:     newFakeHandle(),
		terminator: &fakeTerminator{},
		contexts:   internal_callcontext.NewMemoryStore(logger, time.Minute),
		registry:   NewRegistry(),
		done:       make(chan struct{}),
	}
	h.connector = &fakeConnector{handle: h.handle}
	h.session = NewSession(logger, h.inbound, h.connector, h.terminator, h.contexts, h.registry, opts)
	return h
}

func (h *harness) run(ctx context.Context) {
	go func() {
		h.session.Run(ctx)
		close(h.done)
	}()
}

func (h *harness) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-h.done:
	case <-time.After(3 * time.Second):
		t.Fatalf("session did not close, phase=%s", h.session.Phase())
	}
}

// nextConnectResult receives the outcome of the connect goroutine started by
// applying EventStart directly.
func (h *harness) nextConnectResult(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-h.session.connectResult:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("connect never reported")
		return Event{}
	}
}

// activate drives a session straight to ACTIVE without Run.
func (h *harness) activate(t *testing.T, ctx context.Context) {
	t.Helper()
	h.session.apply(ctx, Event{Kind: EventStart, StreamSid: "ST1", CallSid: "CA1"})
	h.session.apply(ctx, h.nextConnectResult(t))
	h.session.apply(ctx, Event{Kind: EventUpstreamReady})
}
