package wire

// Outbound events are small standalone structs rather than the inbound
// envelope: each carries exactly the fields its server handler reads, and
// typing must emit an explicit null questionId for the global composer.

// SetUsername identifies the connection after every successful open so the
// server can attribute presence and typing.
type SetUsername struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func NewSetUsername(username string) SetUsername {
	return SetUsername{Type: "set-username", Username: username}
}

// Typing signals that the local user is typing in the given thread, or in
// the global composer when questionID is nil.
type Typing struct {
	Type       string  `json:"type"`
	QuestionID *string `json:"questionId"`
	Username   string  `json:"username"`
}

func NewTyping(questionID *string, username string) Typing {
	return Typing{Type: "typing", QuestionID: questionID, Username: username}
}

// Join announces the session to a room-variant server.
type Join struct {
	Type       string `json:"type"`
	Username   string `json:"username"`
	IsAdmin    bool   `json:"isAdmin,omitempty"`
	AdminToken string `json:"adminToken,omitempty"`
}

func NewJoin(username string, adminToken string) Join {
	return Join{
		Type:       "join",
		Username:   username,
		IsAdmin:    adminToken != "",
		AdminToken: adminToken,
	}
}

// RoomCommand is a room-variant signal with at most one argument: kick_user
// (userId), delete_message (messageId), lock_room, toggle_ai, clear_chat.
type RoomCommand struct {
	Type      string `json:"type"`
	UserID    string `json:"userId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

func NewKickUser(userID string) RoomCommand {
	return RoomCommand{Type: "kick_user", UserID: userID}
}

func NewDeleteMessage(messageID string) RoomCommand {
	return RoomCommand{Type: "delete_message", MessageID: messageID}
}

func NewLockRoom() RoomCommand { return RoomCommand{Type: "lock_room"} }

func NewToggleAI() RoomCommand { return RoomCommand{Type: "toggle_ai"} }

func NewClearChat() RoomCommand { return RoomCommand{Type: "clear_chat"} }
