package wire

import "time"

// Item is a top-level posted question or chat message. The identifier is
// server-assigned and stable for the item's lifetime; replies are owned by
// their parent item and deleted with it.
type Item struct {
	ID        string    `json:"id"`
	User      string    `json:"user,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	Replies   []Reply   `json:"replies,omitempty"`
}

// Reply is a response nested under one item.
type Reply struct {
	ID        string    `json:"id"`
	User      string    `json:"user,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Participant is a user currently present in a room.
type Participant struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"isAdmin,omitempty"`
	JoinedAt time.Time `json:"joinedAt,omitempty"`
}

// MaintenanceState is the global maintenance/lock flag for the board.
// It is replaced wholesale on every update, never merged field by field.
type MaintenanceState struct {
	Status  bool       `json:"status"`
	Message string     `json:"message,omitempty"`
	LogoURL string     `json:"logoUrl,omitempty"`
	Until   *time.Time `json:"until,omitempty"`
}

// RoomInfo describes room-level settings pushed by the server.
type RoomInfo struct {
	CreatedAt time.Time `json:"createdAt,omitempty"`
	AIEnabled bool      `json:"aiEnabled"`
	Locked    bool      `json:"locked"`
}

// TypingSignal reports that a user is typing, either in the reply composer
// of one item (QuestionID set) or in the global composer (QuestionID nil).
type TypingSignal struct {
	QuestionID *string `json:"questionId"`
	Username   string  `json:"username"`
}

// Key returns the tracker key for the signal: the item identifier, or
// GlobalKey for the top-level composer.
func (s TypingSignal) Key() string {
	if s.QuestionID == nil || *s.QuestionID == "" {
		return GlobalKey
	}
	return *s.QuestionID
}

// GlobalKey is the typing-tracker key for the top-level composer.
const GlobalKey = "main"
