// Package admin gates privileged mutations behind possession of a bearer
// credential. The server is the sole authority: the gateway never verifies
// anything locally and never mutates state speculatively.
package admin

import (
	"context"
	"errors"
	"sync"

	"github.com/codefionn/boardsync/internal/api"
	"github.com/codefionn/boardsync/internal/logger"
	"github.com/codefionn/boardsync/internal/wire"
)

// ErrNoCredential is returned when a privileged action is attempted
// without a token. No request is issued in that case.
var ErrNoCredential = errors.New("admin: no credential")

// Sender transmits a signal over the push channel (room-variant admin
// commands travel there, not over REST).
type Sender func(v interface{}) error

// Gateway holds the admin credential and issues privileged requests.
// "Admin UI visible" is a pure projection of HasCredential; nothing else
// tracks permission.
type Gateway struct {
	mu        sync.Mutex
	token     string
	api       *api.Client
	send      Sender
	onRevoked func()
	log       *logger.Logger
}

// New creates a gateway with no credential. send may be nil for the board
// variant, which has no push-channel admin commands.
func New(client *api.Client, send Sender, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Global()
	}
	return &Gateway{api: client, send: send, log: log.WithPrefix("admin")}
}

// OnRevoked registers the hook fired when the credential is lost, whether
// by logout or by a 401 on any admin call. The hook retracts admin-only
// affordances.
func (g *Gateway) OnRevoked(fn func()) {
	g.mu.Lock()
	g.onRevoked = fn
	g.mu.Unlock()
}

// Login obtains the credential from the server.
func (g *Gateway) Login(ctx context.Context, username, password string) error {
	token, err := g.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
	g.log.Info("admin credential obtained")
	return nil
}

// Logout discards the credential and retracts admin affordances.
func (g *Gateway) Logout() {
	g.revoke()
}

// HasCredential reports whether a credential is held. Admin-only UI is
// rendered exactly when this is true.
func (g *Gateway) HasCredential() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token != ""
}

func (g *Gateway) credential() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == "" {
		return "", ErrNoCredential
	}
	return g.token, nil
}

// revoke clears the token and fires the hook, once.
func (g *Gateway) revoke() {
	g.mu.Lock()
	had := g.token != ""
	g.token = ""
	fn := g.onRevoked
	g.mu.Unlock()

	if had {
		g.log.Info("admin credential revoked")
		if fn != nil {
			fn()
		}
	}
}

// check revokes the credential when the server rejects it. Only 401 does:
// it means the token itself is no longer valid. A 403 is a per-action
// denial for a still-valid token and must not log the admin out.
func (g *Gateway) check(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		g.revoke()
	}
	return err
}

// DeleteQuestion deletes an item and its replies.
func (g *Gateway) DeleteQuestion(ctx context.Context, questionID string) error {
	token, err := g.credential()
	if err != nil {
		return err
	}
	return g.check(g.api.DeleteQuestion(ctx, token, questionID))
}

// DeleteReply deletes one reply.
func (g *Gateway) DeleteReply(ctx context.Context, questionID, replyID string) error {
	token, err := g.credential()
	if err != nil {
		return err
	}
	return g.check(g.api.DeleteReply(ctx, token, questionID, replyID))
}

// ClearAll deletes every item on the board.
func (g *Gateway) ClearAll(ctx context.Context) error {
	token, err := g.credential()
	if err != nil {
		return err
	}
	return g.check(g.api.ClearAll(ctx, token))
}

// SetMaintenance updates the maintenance state and returns the state the
// server settled on.
func (g *Gateway) SetMaintenance(ctx context.Context, req api.MaintenanceRequest) (wire.MaintenanceState, error) {
	token, err := g.credential()
	if err != nil {
		return wire.MaintenanceState{}, err
	}
	state, err := g.api.SetMaintenance(ctx, token, req)
	return state, g.check(err)
}

// Members fetches the roster summary.
func (g *Gateway) Members(ctx context.Context) (api.MembersSummary, error) {
	token, err := g.credential()
	if err != nil {
		return api.MembersSummary{}, err
	}
	sum, err := g.api.Members(ctx, token)
	return sum, g.check(err)
}

// signal sends a room-variant admin command over the push channel.
func (g *Gateway) signal(v interface{}) error {
	if _, err := g.credential(); err != nil {
		return err
	}
	if g.send == nil {
		return errors.New("admin: no push channel for room commands")
	}
	return g.send(v)
}

// KickUser removes a user from the room.
func (g *Gateway) KickUser(userID string) error {
	return g.signal(wire.NewKickUser(userID))
}

// LockRoom prevents new users from joining.
func (g *Gateway) LockRoom() error {
	return g.signal(wire.NewLockRoom())
}

// ToggleAI flips the room's AI-assistant feature.
func (g *Gateway) ToggleAI() error {
	return g.signal(wire.NewToggleAI())
}

// ClearChat empties the room timeline.
func (g *Gateway) ClearChat() error {
	return g.signal(wire.NewClearChat())
}
