// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_upstream

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

const eventBuffer = 64

// Handle is one open provider session.
type Handle interface {
	SendAudio(payload string) error
	SendPong(eventId int) error

	// Events yields provider events in arrival order. No events are delivered
	// after Close.
	Events() <-chan Event
	Close() error
}

type wsHandle struct {
	logger    commons.Logger
	conn      *websocket.Conn
	writeMu   sync.Mutex
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func newHandle(logger commons.Logger, conn *websocket.Conn) *wsHandle {
	conn.SetReadLimit(10 * 1024 * 1024)
	return &wsHandle{
		logger: logger,
		conn:   conn,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

func (h *wsHandle) Events() <-chan Event {
	return h.events
}

func (h *wsHandle) SendAudio(payload string) error {
	return h.writeJSON(&UserAudioChunk{UserAudioChunk: payload})
}

func (h *wsHandle) SendPong(eventId int) error {
	return h.writeJSON(&Pong{Type: TypePong, EventId: eventId})
}

func (h *wsHandle) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	select {
	case <-h.done:
		return fmt.Errorf("%w: upstream already closed", internal_type.ErrTransport)
	default:
	}
	if err := h.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: upstream write: %v", internal_type.ErrTransport, err)
	}
	return nil
}

// Close performs a normal closure. Safe to call more than once.
func (h *wsHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.writeMu.Lock()
		close(h.done)
		_ = h.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "relay closed"),
			time.Now().Add(time.Second),
		)
		h.writeMu.Unlock()
		err = h.conn.Close()
	})
	return err
}

// emit delivers ev unless the handle was closed locally.
func (h *wsHandle) emit(ev Event) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// listen is the single reader of the provider socket.
func (h *wsHandle) listen() {
	for {
		_, data, err := h.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debugf("upstream connection closed normally")
				h.emit(Event{Kind: EventClose})
				return
			}
			h.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: upstream read: %v", internal_type.ErrTransport, err)})
			return
		}

		ev, ok := h.decode(data)
		if !ok {
			continue
		}
		if !h.emit(ev) {
			return
		}
	}
}

// decode maps one provider frame to an Event. Unparseable and unknown frames
// are logged and skipped.
func (h *wsHandle) decode(data []byte) (Event, bool) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warnf("dropping upstream frame: %v: %v", internal_type.ErrMalformedFrame, err)
		return Event{}, false
	}

	switch msg.Type {
	case TypeConversationInitiationMetadata:
		ev := Event{Kind: EventReady}
		if msg.ConversationInitiationMetadata != nil {
			ev.ConversationId = msg.ConversationInitiationMetadata.ConversationId
		}
		return ev, true
	case TypeAudio:
		if msg.AudioEvent == nil {
			h.logger.Warnf("dropping upstream frame: %v: audio without audio_event", internal_type.ErrMalformedFrame)
			return Event{}, false
		}
		return Event{Kind: EventAudio, Audio: msg.AudioEvent.AudioBase64, EventId: msg.AudioEvent.EventId}, true
	case TypeInterruption:
		ev := Event{Kind: EventInterruption}
		if msg.InterruptionEvent != nil {
			ev.EventId = msg.InterruptionEvent.EventId
		}
		return ev, true
	case TypePing:
		ev := Event{Kind: EventPing}
		if msg.PingEvent != nil {
			ev.EventId = msg.PingEvent.EventId
		}
		return ev, true
	case TypeAgentResponse:
		ev := Event{Kind: EventAgentResponse}
		if msg.AgentResponseEvent != nil {
			ev.Text = msg.AgentResponseEvent.AgentResponse
		}
		return ev, true
	case TypeUserTranscript:
		ev := Event{Kind: EventUserTranscript}
		if msg.UserTranscriptionEvent != nil {
			ev.Text = msg.UserTranscriptionEvent.UserTranscript
		}
		return ev, true
	case TypeConversationEnd:
		return Event{Kind: EventConversationEnd}, true
	default:
		h.logger.Debugf("ignoring upstream message type=%s", msg.Type)
		return Event{}, false
	}
}
