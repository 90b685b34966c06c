package wire

import (
	"encoding/json"
	"fmt"
)

// Event type tags consumed from the push channel. The server exists in two
// variants (Q&A board and chat room) that spell some tags differently; both
// spellings are part of the closed set. Tags outside this set are valid
// events that the router ignores, preserving forward compatibility.
const (
	TypeNewQuestion     = "new-question"
	TypeQuestionCreated = "question_created"
	TypeNewReply        = "new-reply"
	TypeReplyAdded      = "reply_added"
	TypeDeleteQuestion  = "delete-question"
	TypeQuestionDeleted = "question_deleted"
	TypeDeleteReply     = "delete-reply"
	TypeReplyDeleted    = "reply_deleted"
	TypeClearAll        = "clear-all"
	TypeCleared         = "cleared"
	TypeMaintenance     = "maintenance"
	TypeTyping          = "typing"

	// Room-variant tags.
	TypeJoin           = "join"
	TypeUserJoined     = "user_joined"
	TypeUserLeft       = "user_left"
	TypeOnlineUsers    = "online_users"
	TypeMessage        = "message"
	TypeMessageDeleted = "message_deleted"
	TypeChatCleared    = "chat_cleared"
	TypeUserKicked     = "user_kicked"
	TypeRoomLocked     = "room_locked"
	TypeAIToggled      = "ai_toggled"
	TypeRoomInfo       = "room_info"
	TypeError          = "error"
)

// Event is the inbound wire envelope. The board variant nests its data in
// a payload field; the room variant puts fields at the top level. One fat
// envelope covers both, with typed accessors below.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Room-variant top-level fields. The message key holds an object for
	// message events and a plain string for error events, so it stays raw
	// until the type tag picks an accessor.
	Username  string          `json:"username,omitempty"`
	User      *Participant    `json:"user,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Users     []Participant   `json:"users,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Enabled   bool            `json:"enabled,omitempty"`
	Room      *RoomInfo       `json:"room,omitempty"`
	Question  json.RawMessage `json:"questionId,omitempty"`
}

// ChatMessage decodes the message object of a room-variant message event.
func (e Event) ChatMessage() (Item, error) {
	var it Item
	if err := json.Unmarshal(e.Message, &it); err != nil {
		return Item{}, fmt.Errorf("%s message: %w", e.Type, err)
	}
	return it, nil
}

// ErrorMessage decodes the text of a room-variant error event.
func (e Event) ErrorMessage() string {
	var s string
	if err := json.Unmarshal(e.Message, &s); err != nil {
		return "server error"
	}
	return s
}

// Decode parses a raw push-channel frame into an Event. A parse failure is
// the caller's signal to drop the frame; it must never propagate further.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type tag")
	}
	return ev, nil
}

// ItemPayload decodes the payload of a new-question / question_created event.
func (e Event) ItemPayload() (Item, error) {
	var it Item
	if err := json.Unmarshal(e.Payload, &it); err != nil {
		return Item{}, fmt.Errorf("%s payload: %w", e.Type, err)
	}
	return it, nil
}

// NewReplyPayload carries a reply together with its parent item id.
type NewReplyPayload struct {
	QuestionID string `json:"questionId"`
	Reply      Reply  `json:"reply"`
}

func (e Event) NewReplyPayload() (NewReplyPayload, error) {
	var p NewReplyPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return NewReplyPayload{}, fmt.Errorf("%s payload: %w", e.Type, err)
	}
	return p, nil
}

// DeletedPayload identifies a deleted item, and for reply deletions the
// reply within it.
type DeletedPayload struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	ReplyID    string `json:"replyId"`
}

func (e Event) DeletedPayload() (DeletedPayload, error) {
	var p DeletedPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return DeletedPayload{}, fmt.Errorf("%s payload: %w", e.Type, err)
	}
	return p, nil
}

func (e Event) MaintenancePayload() (MaintenanceState, error) {
	var m MaintenanceState
	if err := json.Unmarshal(e.Payload, &m); err != nil {
		return MaintenanceState{}, fmt.Errorf("%s payload: %w", e.Type, err)
	}
	return m, nil
}

// TypingPayload decodes a typing event. The board variant nests the signal
// in the payload; the room variant sends it at the top level.
func (e Event) TypingPayload() (TypingSignal, error) {
	if len(e.Payload) > 0 {
		var s TypingSignal
		if err := json.Unmarshal(e.Payload, &s); err != nil {
			return TypingSignal{}, fmt.Errorf("%s payload: %w", e.Type, err)
		}
		return s, nil
	}
	s := TypingSignal{Username: e.Username}
	if len(e.Question) > 0 && string(e.Question) != "null" {
		var qid string
		if err := json.Unmarshal(e.Question, &qid); err == nil && qid != "" {
			s.QuestionID = &qid
		}
	}
	return s, nil
}
