package client

import (
	"github.com/codefionn/boardsync/internal/wire"
)

// dispatch routes one inbound event to the component that owns its state.
// The tag set is closed per server variant; unknown tags are valid events
// that are ignored, so a newer server never breaks an older client.
func (s *Session) dispatch(ev wire.Event) {
	if !s.live() {
		return
	}
	switch ev.Type {

	case wire.TypeNewQuestion, wire.TypeQuestionCreated:
		item, err := ev.ItemPayload()
		if err != nil {
			s.log.Debug("dropping %s: %v", ev.Type, err)
			return
		}
		s.store.InsertAtHead(item)

	case wire.TypeNewReply, wire.TypeReplyAdded:
		p, err := ev.NewReplyPayload()
		if err != nil {
			s.log.Debug("dropping %s: %v", ev.Type, err)
			return
		}
		s.store.AppendReply(p.QuestionID, p.Reply)

	case wire.TypeDeleteQuestion, wire.TypeQuestionDeleted:
		p, err := ev.DeletedPayload()
		if err != nil {
			s.log.Debug("dropping %s: %v", ev.Type, err)
			return
		}
		id := p.ID
		if id == "" {
			id = p.QuestionID
		}
		s.store.RemoveItem(id)

	case wire.TypeDeleteReply, wire.TypeReplyDeleted:
		p, err := ev.DeletedPayload()
		if err != nil {
			s.log.Debug("dropping %s: %v", ev.Type, err)
			return
		}
		s.store.RemoveReply(p.QuestionID, p.ReplyID)

	case wire.TypeClearAll, wire.TypeCleared, wire.TypeChatCleared:
		s.store.ClearAll()

	case wire.TypeMaintenance:
		m, err := ev.MaintenancePayload()
		if err != nil {
			s.log.Debug("dropping %s: %v", ev.Type, err)
			return
		}
		s.store.SetMaintenance(m)

	case wire.TypeTyping:
		sig, err := ev.TypingPayload()
		if err != nil {
			s.log.Debug("dropping %s: %v", ev.Type, err)
			return
		}
		s.typing.RecordTyping(sig.Key(), sig.Username)

	case wire.TypeMessage:
		item, err := ev.ChatMessage()
		if err != nil {
			s.log.Debug("dropping %s: %v", ev.Type, err)
			return
		}
		s.store.InsertAtHead(item)

	case wire.TypeMessageDeleted:
		s.store.RemoveItem(ev.MessageID)

	case wire.TypeOnlineUsers:
		s.store.SetParticipants(ev.Users)

	case wire.TypeJoin, wire.TypeUserJoined:
		if ev.User != nil {
			s.store.AddParticipant(*ev.User)
			s.notice(ev.User.Username + " joined")
		}

	case wire.TypeUserLeft:
		if ev.User != nil {
			s.store.RemoveParticipant(ev.User.ID)
			s.notice(ev.User.Username + " left")
		} else if ev.UserID != "" {
			s.store.RemoveParticipant(ev.UserID)
		}

	case wire.TypeUserKicked:
		s.handleKick(ev)

	case wire.TypeRoomLocked:
		s.store.SetLocked(true)
		s.notice("room locked")

	case wire.TypeAIToggled:
		s.store.SetAIEnabled(ev.Enabled)

	case wire.TypeRoomInfo:
		if ev.Room != nil {
			s.store.SetRoomInfo(*ev.Room)
		}

	case wire.TypeError:
		s.notice(ev.ErrorMessage())

	default:
		s.log.Debug("ignoring event type %q", ev.Type)
	}
}

// handleKick removes the kicked user from the roster; when the kicked user
// is this session, the session terminates instead of retrying.
func (s *Session) handleKick(ev wire.Event) {
	if ev.UserID == s.LocalUserID() {
		s.log.Info("kicked from room %s", s.room)
		s.Stop()
		if fn := s.onKicked; fn != nil {
			fn(ev.Username)
		}
		return
	}
	s.store.RemoveParticipant(ev.UserID)
	if ev.Username != "" {
		s.notice(ev.Username + " was kicked")
	}
}
