// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_telephony

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() commons.Logger {
	l, _ := commons.NewApplicationLogger(commons.Name("test-telephony"), commons.Level("error"))
	return l
}

// newTransportPair returns the server-side transport and the client (Twilio) side socket.
func newTransportPair(t *testing.T) (*StreamTransport, *websocket.Conn) {
	t.Helper()
	accepted := make(chan *StreamTransport, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		accepted <- NewStreamTransport(newTestLogger(), conn)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case tr := <-accepted:
		return tr, client
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func TestStreamTransport_ReadWrite(t *testing.T) {
	tr, client := newTransportPair(t)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"event":"media"}`)))
	data, err := tr.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"event":"media"}`, string(data))

	require.NoError(t, tr.Write([]byte(`{"event":"clear","streamSid":"ST1"}`)))
	_, got, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"event":"clear","streamSid":"ST1"}`, string(got))
}

func TestStreamTransport_NormalCloseIsEOF(t *testing.T) {
	tr, client := newTransportPair(t)

	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))

	_, err := tr.Read()
	assert.Equal(t, io.EOF, err)
}

func TestStreamTransport_AbruptCloseIsTransportError(t *testing.T) {
	tr, client := newTransportPair(t)
	client.UnderlyingConn().Close()

	_, err := tr.Read()
	assert.True(t, errors.Is(err, internal_type.ErrTransport), "got %v", err)
}

func TestStreamTransport_CloseIsIdempotent(t *testing.T) {
	tr, _ := newTransportPair(t)

	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())

	err := tr.Write([]byte(`{}`))
	assert.True(t, errors.Is(err, internal_type.ErrTransport))
}
