// Package store holds the client's in-memory replica of the board: the
// ordered item list with nested replies, the online roster and the
// maintenance/lock state. The server is authoritative; the store only
// reconciles locally-initiated writes with server-pushed broadcasts.
package store

import (
	"sort"
	"sync"

	"github.com/codefionn/boardsync/internal/logger"
	"github.com/codefionn/boardsync/internal/wire"
)

// Resyncer fetches a fresh full snapshot of the items. The store falls
// back to it whenever an incremental event cannot be applied safely.
type Resyncer func() ([]wire.Item, error)

// Store is the replica. All mutation happens on whichever goroutine
// processes an inbound event or a completed request; the mutex only
// guards against the two racing, it does not impose ordering.
type Store struct {
	mu           sync.Mutex
	items        []wire.Item
	participants map[string]wire.Participant
	maint        wire.MaintenanceState
	room         wire.RoomInfo
	resync       Resyncer
	onChange     func()
	log          *logger.Logger
}

// New creates an empty store. The resyncer may be nil, in which case
// resync fallbacks are skipped (events needing one are dropped with a
// warning).
func New(resync Resyncer, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Global()
	}
	return &Store{
		participants: make(map[string]wire.Participant),
		resync:       resync,
		log:          log.WithPrefix("store"),
	}
}

// OnChange registers the projection hook, called after every observable
// mutation. Dependent views (empty-state, disabled inputs, roster) are
// recomputed there rather than tracked as separate state.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ReplaceAll replaces the whole item list with a fresh snapshot.
func (s *Store) ReplaceAll(items []wire.Item) {
	s.mu.Lock()
	s.items = append([]wire.Item(nil), items...)
	s.mu.Unlock()
	s.notify()
}

// InsertAtHead inserts a new top-level item in arrival order. If an item
// with the same identifier already exists the insert is a no-op:
// identifier equality is the deduplication key, so an author's own
// optimistic echo and the server broadcast of the same post collapse into
// one entry.
func (s *Store) InsertAtHead(item wire.Item) {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.mu.Unlock()
			return
		}
	}
	s.items = append([]wire.Item{item}, s.items...)
	s.mu.Unlock()
	s.notify()
}

// AppendReply appends a reply to the given item. If the item is unknown
// (the reply raced ahead of its question, or the view is stale) the store
// resynchronizes wholesale instead of dropping the reply.
func (s *Store) AppendReply(itemID string, reply wire.Reply) {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Replies = append(s.items[i].Replies, reply)
			s.mu.Unlock()
			s.notify()
			return
		}
	}
	s.mu.Unlock()

	s.log.Info("reply for unknown item %s, resyncing", itemID)
	s.Resync()
}

// RemoveItem deletes an item and its replies as a unit. Unknown ids are
// ignored.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.mu.Unlock()
			s.notify()
			return
		}
	}
	s.mu.Unlock()
}

// RemoveReply resynchronizes wholesale rather than splicing the reply out:
// the event carries no ordering guarantee relative to other concurrent
// reply mutations on the same item, so a full refetch is the safe default.
func (s *Store) RemoveReply(itemID, replyID string) {
	s.Resync()
}

// ClearAll empties the item list.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	s.notify()
}

// Resync discards the item replica and refetches it from the durable
// source. Fetch failures leave the store unchanged.
func (s *Store) Resync() {
	s.mu.Lock()
	resync := s.resync
	s.mu.Unlock()

	if resync == nil {
		s.log.Warn("resync needed but no resyncer configured")
		return
	}
	items, err := resync()
	if err != nil {
		s.log.Error("resync failed: %v", err)
		return
	}
	s.ReplaceAll(items)
}

// SetMaintenance replaces the maintenance state wholesale. It is never
// merged field by field across updates from different sources.
func (s *Store) SetMaintenance(m wire.MaintenanceState) {
	s.mu.Lock()
	s.maint = m
	s.mu.Unlock()
	s.notify()
}

// Maintenance returns the current maintenance state.
func (s *Store) Maintenance() wire.MaintenanceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maint
}

// InputsDisabled is the projection of maintenance state onto every
// rendered input and send control.
func (s *Store) InputsDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maint.Status
}

// Items returns a copy of the item list, most recent arrival first.
func (s *Store) Items() []wire.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]wire.Item, len(s.items))
	copy(items, s.items)
	return items
}

// Empty reports whether the board has no items (empty-state indicator).
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// SetParticipants replaces the roster wholesale from an authoritative
// snapshot.
func (s *Store) SetParticipants(users []wire.Participant) {
	s.mu.Lock()
	s.participants = make(map[string]wire.Participant, len(users))
	for _, u := range users {
		s.participants[u.ID] = u
	}
	s.mu.Unlock()
	s.notify()
}

// AddParticipant adds or refreshes one roster entry.
func (s *Store) AddParticipant(u wire.Participant) {
	s.mu.Lock()
	s.participants[u.ID] = u
	s.mu.Unlock()
	s.notify()
}

// RemoveParticipant removes a roster entry on leave or kick.
func (s *Store) RemoveParticipant(userID string) {
	s.mu.Lock()
	delete(s.participants, userID)
	s.mu.Unlock()
	s.notify()
}

// Participants returns the roster sorted by join time, then name.
func (s *Store) Participants() []wire.Participant {
	s.mu.Lock()
	users := make([]wire.Participant, 0, len(s.participants))
	for _, u := range s.participants {
		users = append(users, u)
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].JoinedAt.Before(users[j].JoinedAt)
		}
		return users[i].Username < users[j].Username
	})
	return users
}

// SetRoomInfo replaces the room settings pushed by the server.
func (s *Store) SetRoomInfo(info wire.RoomInfo) {
	s.mu.Lock()
	s.room = info
	s.mu.Unlock()
	s.notify()
}

// SetLocked flips the room lock flag.
func (s *Store) SetLocked(locked bool) {
	s.mu.Lock()
	s.room.Locked = locked
	s.mu.Unlock()
	s.notify()
}

// SetAIEnabled flips the room AI-assistant flag.
func (s *Store) SetAIEnabled(enabled bool) {
	s.mu.Lock()
	s.room.AIEnabled = enabled
	s.mu.Unlock()
	s.notify()
}

// RoomInfo returns the current room settings.
func (s *Store) RoomInfo() wire.RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}
