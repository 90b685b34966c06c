package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/boardsync/internal/api"
	"github.com/codefionn/boardsync/internal/wire"
)

// adminTestServer issues a token on login and accepts privileged calls
// only with it.
func adminTestServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
			return
		}
		requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNoCredentialPerformsNoRequest(t *testing.T) {
	var requests atomic.Int32
	srv := adminTestServer(t, &requests)

	g := New(api.New(srv.URL), nil, nil)

	err := g.DeleteQuestion(context.Background(), "q1")
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.ErrorIs(t, g.ClearAll(context.Background()), ErrNoCredential)
	_, err = g.SetMaintenance(context.Background(), api.MaintenanceRequest{Status: true})
	assert.ErrorIs(t, err, ErrNoCredential)

	assert.Zero(t, requests.Load(), "gateway must not issue durable requests without a credential")
}

func TestLoginThenPrivilegedCall(t *testing.T) {
	var requests atomic.Int32
	srv := adminTestServer(t, &requests)

	g := New(api.New(srv.URL), nil, nil)
	require.NoError(t, g.Login(context.Background(), "admin", "pw"))
	assert.True(t, g.HasCredential())

	require.NoError(t, g.DeleteQuestion(context.Background(), "q1"))
	assert.Equal(t, int32(1), requests.Load())
}

func TestUnauthorizedRevokesCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": "expired"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := New(api.New(srv.URL), nil, nil)
	revoked := 0
	g.OnRevoked(func() { revoked++ })

	require.NoError(t, g.Login(context.Background(), "admin", "pw"))

	err := g.DeleteQuestion(context.Background(), "q1")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, g.HasCredential(), "401 on any admin call must retract the credential")
	assert.Equal(t, 1, revoked)

	// Follow-up calls fail locally without touching the server.
	assert.ErrorIs(t, g.ClearAll(context.Background()), ErrNoCredential)
}

func TestForbiddenKeepsCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := New(api.New(srv.URL), nil, nil)
	revoked := 0
	g.OnRevoked(func() { revoked++ })

	require.NoError(t, g.Login(context.Background(), "admin", "pw"))

	err := g.DeleteQuestion(context.Background(), "q1")
	assert.ErrorIs(t, err, api.ErrForbidden)
	assert.True(t, g.HasCredential(), "a per-action 403 must not log the admin out")
	assert.Zero(t, revoked)
}

func TestLogoutFiresRevokedOnce(t *testing.T) {
	var requests atomic.Int32
	srv := adminTestServer(t, &requests)

	g := New(api.New(srv.URL), nil, nil)
	revoked := 0
	g.OnRevoked(func() { revoked++ })

	require.NoError(t, g.Login(context.Background(), "admin", "pw"))
	g.Logout()
	g.Logout()

	assert.False(t, g.HasCredential())
	assert.Equal(t, 1, revoked)
}

func TestRoomCommandsRequireCredential(t *testing.T) {
	var requests atomic.Int32
	srv := adminTestServer(t, &requests)

	var sent []interface{}
	g := New(api.New(srv.URL), func(v interface{}) error {
		sent = append(sent, v)
		return nil
	}, nil)

	assert.ErrorIs(t, g.KickUser("u1"), ErrNoCredential)
	assert.ErrorIs(t, g.LockRoom(), ErrNoCredential)
	assert.Empty(t, sent)

	require.NoError(t, g.Login(context.Background(), "admin", "pw"))
	require.NoError(t, g.KickUser("u1"))
	require.NoError(t, g.ToggleAI())

	require.Len(t, sent, 2)
	assert.Equal(t, wire.NewKickUser("u1"), sent[0])
	assert.Equal(t, wire.NewToggleAI(), sent[1])
}
