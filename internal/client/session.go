// Package client ties the engine together: one Session owns the replica,
// the presence tracker, the push channel and the admin gateway, and
// reconciles locally-initiated writes with server-pushed broadcasts.
package client

import (
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/codefionn/boardsync/internal/admin"
	"github.com/codefionn/boardsync/internal/api"
	"github.com/codefionn/boardsync/internal/logger"
	"github.com/codefionn/boardsync/internal/presence"
	"github.com/codefionn/boardsync/internal/store"
	"github.com/codefionn/boardsync/internal/transport"
	"github.com/codefionn/boardsync/internal/wire"
)

const eventBuffer = 256

// Options configures a session.
type Options struct {
	BackendURL string
	Nickname   string
	// Room selects the chat-room variant; empty means the Q&A board.
	Room string

	Reconnect      transport.Policy
	TypingDecay    time.Duration
	TypingThrottle time.Duration

	Logger *logger.Logger
}

// Session is one client's view of one board or room. Its identifier tags
// the scope of in-flight writes: a response arriving after teardown is
// discarded rather than applied to the wrong scope.
type Session struct {
	id       string
	nickname string
	room     string

	api      *api.Client
	store    *store.Store
	typing   *presence.Tracker
	throttle *presence.Throttle
	gateway  *admin.Gateway
	channel  *transport.Channel
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	events chan wire.Event
	closed atomic.Bool

	aiAssist atomic.Bool

	onNotice func(text string)
	onKicked func(reason string)
	onStatus func(transport.Status)
}

// New creates a session. Start must be called to connect.
func New(opts Options) (*Session, error) {
	if opts.BackendURL == "" {
		return nil, errors.New("client: backend URL is required")
	}
	if opts.Nickname == "" {
		return nil, errors.New("client: nickname is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}

	s := &Session{
		id:       uuid.New().String(),
		nickname: opts.Nickname,
		room:     opts.Room,
		api:      api.New(opts.BackendURL),
		throttle: presence.NewThrottle(opts.TypingThrottle),
		log:      log.WithPrefix("session"),
		events:   make(chan wire.Event, eventBuffer),
	}
	s.typing = presence.NewTracker(opts.Nickname, opts.TypingDecay)
	s.store = store.New(s.resync, log)

	endpoint, err := transport.Endpoint(opts.BackendURL, opts.Room)
	if err != nil {
		return nil, err
	}
	s.channel = transport.New(endpoint, transport.Options{
		Policy:   opts.Reconnect,
		Identify: s.identify,
		Logger:   log,
	})
	s.gateway = admin.New(s.api, s.channel.Send, log)

	s.channel.OnEvent(s.enqueue)
	s.channel.OnStatus(func(st transport.Status) {
		if fn := s.onStatus; fn != nil {
			fn(st)
		}
	})
	return s, nil
}

// identify is sent on every successful open so the server can attribute
// presence to this session.
func (s *Session) identify() interface{} {
	if s.room != "" {
		return wire.NewJoin(s.nickname, "")
	}
	return wire.NewSetUsername(s.nickname)
}

// Accessors for the owned components. Views read through these; they never
// hold state of their own.

func (s *Session) Store() *store.Store        { return s.store }
func (s *Session) Typing() *presence.Tracker  { return s.typing }
func (s *Session) Gateway() *admin.Gateway    { return s.gateway }
func (s *Session) Nickname() string           { return s.nickname }
func (s *Session) Room() string               { return s.room }
func (s *Session) Status() transport.Status   { return s.channel.Status() }

// Context returns the session-scoped context; calls made with it are
// cancelled on Stop.
func (s *Session) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// OnNotice registers the hook for one-shot user-visible notices (server
// error events, system messages).
func (s *Session) OnNotice(fn func(string)) { s.onNotice = fn }

// OnKicked registers the hook fired when the server kicks this session.
// The session is already terminated when it fires.
func (s *Session) OnKicked(fn func(reason string)) { s.onKicked = fn }

// OnStatus registers the connection status hook.
func (s *Session) OnStatus(fn func(transport.Status)) { s.onStatus = fn }

// SetAIAssist toggles requesting a generated reply after each posted
// question (board variant).
func (s *Session) SetAIAssist(on bool) { s.aiAssist.Store(on) }

// AIAssist reports whether AI assist is on.
func (s *Session) AIAssist() bool { return s.aiAssist.Load() }

// Start loads the initial snapshot, opens the push channel and begins
// dispatching events. Snapshot failures are non-fatal: the client can
// still receive push events and resync later.
func (s *Session) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if items, err := s.api.Questions(s.ctx); err != nil {
		s.log.Warn("initial snapshot failed: %v", err)
	} else {
		s.store.ReplaceAll(items)
	}
	if maint, err := s.api.Maintenance(s.ctx); err != nil {
		s.log.Warn("initial maintenance fetch failed: %v", err)
	} else {
		s.store.SetMaintenance(maint)
	}

	go s.loop()
	_ = s.channel.Open(s.ctx)
	return nil
}

// Stop tears the session down. In-flight write responses arriving after
// this are discarded.
func (s *Session) Stop() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.channel.Close()
	s.typing.Stop()
}

func (s *Session) enqueue(ev wire.Event) {
	select {
	case s.events <- ev:
	default:
		// The loop is wedged or hopelessly behind; dropping is safer than
		// blocking the read pump, and the next resync heals the replica.
		s.log.Warn("event buffer full, dropping %s", ev.Type)
	}
}

// loop is the single dispatch turn: all store mutation from push events
// happens here, in arrival order.
func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			s.dispatch(ev)
		}
	}
}

// resync fetches a fresh item snapshot for the store's fallback path.
func (s *Session) resync() ([]wire.Item, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()
	return s.api.Questions(ctx)
}

// live reports whether a completed request still belongs to this scope.
func (s *Session) live() bool {
	return !s.closed.Load()
}

// PostQuestion submits a top-level item. The server's response is applied
// optimistically; the matching broadcast deduplicates by identifier. A
// maintenance rejection updates the replica's maintenance state and is
// returned as a distinguishable error.
func (s *Session) PostQuestion(ctx context.Context, text string) error {
	item, err := s.api.PostQuestion(ctx, text, s.nickname)
	if err != nil {
		return s.writeFailed(err)
	}
	if !s.live() {
		return nil
	}
	s.store.InsertAtHead(item)

	if s.aiAssist.Load() {
		go s.requestAI(item.ID, text)
	}
	return nil
}

// PostReply submits a reply under an item.
func (s *Session) PostReply(ctx context.Context, questionID, text string) error {
	reply, err := s.api.PostReply(ctx, questionID, text, s.nickname)
	if err != nil {
		return s.writeFailed(err)
	}
	if !s.live() {
		return nil
	}
	s.store.AppendReply(questionID, reply)
	return nil
}

// requestAI asks the backend for a generated reply. Failures are logged
// only; the posted question stands regardless.
func (s *Session) requestAI(questionID, prompt string) {
	ctx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
	defer cancel()

	reply, err := s.api.RequestAI(ctx, questionID, prompt)
	if err != nil {
		s.log.Warn("ai assist failed: %v", err)
		return
	}
	if !s.live() {
		return
	}
	s.store.AppendReply(reply.QuestionID, reply.Reply)
}

// writeFailed folds a rejected durable write into the replica where the
// rejection itself carries state (maintenance), and passes it on.
func (s *Session) writeFailed(err error) error {
	var maintErr *api.MaintenanceError
	if errors.As(err, &maintErr) && s.live() {
		s.store.SetMaintenance(maintErr.State)
	}
	return err
}

// EmitTyping signals that the local user is typing in the given thread
// (nil for the global composer). Sends are throttled per key; a dropped
// send is not an error. The connection check comes before the throttle so
// an emit while disconnected does not consume the slot and delay the
// first signal after reconnect.
func (s *Session) EmitTyping(questionID *string) {
	if s.channel.Status() != transport.StatusConnected {
		return
	}
	key := wire.GlobalKey
	if questionID != nil && *questionID != "" {
		key = *questionID
	}
	if !s.throttle.Allow(key) {
		return
	}
	if err := s.channel.Send(wire.NewTyping(questionID, s.nickname)); err != nil {
		s.log.Debug("typing send skipped: %v", err)
	}
}

// DeleteQuestion, DeleteReply and ClearAll are privileged; they go through
// the gateway and refetch the snapshot on success, matching the durable
// state without waiting for the broadcast.

func (s *Session) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := s.gateway.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	if s.live() {
		s.store.Resync()
	}
	return nil
}

func (s *Session) DeleteReply(ctx context.Context, questionID, replyID string) error {
	if err := s.gateway.DeleteReply(ctx, questionID, replyID); err != nil {
		return err
	}
	if s.live() {
		s.store.Resync()
	}
	return nil
}

func (s *Session) ClearAll(ctx context.Context) error {
	if err := s.gateway.ClearAll(ctx); err != nil {
		return err
	}
	if s.live() {
		s.store.ClearAll()
	}
	return nil
}

// SetMaintenance updates the maintenance state via the gateway and applies
// the server's authoritative answer.
func (s *Session) SetMaintenance(ctx context.Context, req api.MaintenanceRequest) error {
	state, err := s.gateway.SetMaintenance(ctx, req)
	if err != nil {
		return err
	}
	if s.live() {
		s.store.SetMaintenance(state)
	}
	return nil
}

var userIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// LocalUserID is the room-variant identifier the server uses for kicks.
func (s *Session) LocalUserID() string {
	return userIDSanitizer.ReplaceAllString(s.room+"_"+s.nickname, "_")
}

func (s *Session) notice(text string) {
	if fn := s.onNotice; fn != nil {
		fn(text)
	}
}
