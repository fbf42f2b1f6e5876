// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_telephony

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

// Upgrader accepts Twilio media stream connections. Twilio does not send an
// Origin header, so every origin is accepted.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamTransport wraps the websocket Twilio opened for one call. Reads happen
// on a single goroutine; writes are serialized.
type StreamTransport struct {
	logger    commons.Logger
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func NewStreamTransport(logger commons.Logger, conn *websocket.Conn) *StreamTransport {
	conn.SetReadLimit(1 << 20)
	return &StreamTransport{logger: logger, conn: conn}
}

// Read blocks for the next text frame. A normal close from Twilio returns io.EOF;
// anything else wraps ErrTransport.
func (t *StreamTransport) Read() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: media stream: %v", internal_type.ErrTransport, err)
	}
	return data, nil
}

func (t *StreamTransport) Write(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.closed {
		return fmt.Errorf("%w: write on closed media stream", internal_type.ErrTransport)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: media stream: %v", internal_type.ErrTransport, err)
	}
	return nil
}

// Close sends a close frame and releases the socket. Safe to call more than once.
func (t *StreamTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		t.closed = true
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
