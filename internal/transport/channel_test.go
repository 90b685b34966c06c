package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/boardsync/internal/wire"
)

func TestPolicyDelay(t *testing.T) {
	p := Policy{BaseDelay: 1500 * time.Millisecond, MaxAttempts: 5}
	for n := 1; n <= 5; n++ {
		want := 1500 * time.Millisecond * time.Duration(1<<uint(n))
		assert.Equal(t, want, p.Delay(n), "attempt %d", n)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		backend string
		room    string
		want    string
	}{
		{"http://localhost:8080", "", "ws://localhost:8080/ws"},
		{"https://board.example", "", "wss://board.example/ws"},
		{"https://board.example/", "", "wss://board.example/ws"},
		{"http://localhost:8080", "r42", "ws://localhost:8080/ws/room/r42"},
	}
	for _, tt := range tests {
		got, err := Endpoint(tt.backend, tt.room)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

// wsTestServer upgrades every request and hands the connection to fn.
func wsTestServer(t *testing.T, fn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fn(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestOpenSendsIdentifyAndDeliversEvents(t *testing.T) {
	identified := make(chan string, 1)
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		identified <- string(data)
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"new-question","payload":{"id":"q1","text":"Hi"}}`))
		// Malformed frame must be dropped silently, not kill the client.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"maintenance","payload":{"status":true}}`))
		time.Sleep(time.Second)
	})

	events := make(chan wire.Event, 8)
	ch := New(wsURL(srv), Options{
		Identify: func() interface{} { return wire.NewSetUsername("alice") },
	})
	ch.OnEvent(func(ev wire.Event) { events <- ev })
	defer ch.Close()

	require.NoError(t, ch.Open(context.Background()))

	select {
	case raw := <-identified:
		var msg wire.SetUsername
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))
		assert.Equal(t, "set-username", msg.Type)
		assert.Equal(t, "alice", msg.Username)
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the identify event")
	}

	want := []string{wire.TypeNewQuestion, wire.TypeMaintenance}
	for _, typ := range want {
		select {
		case ev := <-events:
			assert.Equal(t, typ, ev.Type)
		case <-time.After(5 * time.Second):
			t.Fatalf("event %s never arrived", typ)
		}
	}
}

func TestReconnectBackoffExhausts(t *testing.T) {
	var dials atomic.Int32
	// A plain HTTP server that refuses the upgrade: every dial fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		http.Error(w, "no", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	var mu sync.Mutex
	var transitions []Status
	ch := New(wsURL(srv), Options{
		Policy: Policy{BaseDelay: time.Millisecond, MaxAttempts: 3},
	})
	ch.OnStatus(func(s Status) {
		mu.Lock()
		transitions = append(transitions, s)
		mu.Unlock()
	})
	defer ch.Close()

	require.Error(t, ch.Open(context.Background()))

	require.Eventually(t, func() bool {
		return ch.Status() == StatusExhausted
	}, 5*time.Second, 10*time.Millisecond, "channel must reach the terminal exhausted state")

	// Initial dial plus exactly MaxAttempts retries, then nothing.
	assert.Equal(t, int32(4), dials.Load())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(4), dials.Load(), "no automatic attempt after the cap")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StatusExhausted, transitions[len(transitions)-1])
}

func TestAttemptCounterResetsOnSuccessfulOpen(t *testing.T) {
	var conns atomic.Int32
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if n == 1 {
			// Drop the first connection immediately to force a reconnect.
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	connected := make(chan struct{}, 4)
	ch := New(wsURL(srv), Options{
		Policy: Policy{BaseDelay: time.Millisecond, MaxAttempts: 5},
	})
	ch.OnStatus(func(s Status) {
		if s == StatusConnected {
			connected <- struct{}{}
		}
	})
	defer ch.Close()

	_ = ch.Open(context.Background())

	// Two successful opens: the initial one and the reconnect.
	for i := 0; i < 2; i++ {
		select {
		case <-connected:
		case <-time.After(5 * time.Second):
			t.Fatalf("connection %d never established", i+1)
		}
	}

	ch.mu.Lock()
	attempts := ch.attempts
	ch.mu.Unlock()
	assert.Zero(t, attempts, "attempt counter resets on every successful open")
}

func TestSendWhileDisconnected(t *testing.T) {
	ch := New("ws://127.0.0.1:1/ws", Options{Policy: Policy{BaseDelay: time.Minute, MaxAttempts: 1}})
	err := ch.Send(wire.NewSetUsername("alice"))
	assert.ErrorIs(t, err, ErrNotConnected)
	ch.Close()
}
