package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		wantErr  bool
	}{
		{
			name:     "board new question",
			raw:      `{"type":"new-question","payload":{"id":"q1","text":"Hi","user":"alice"}}`,
			wantType: TypeNewQuestion,
		},
		{
			name:     "room message",
			raw:      `{"type":"message","message":{"id":"m1","text":"hello"}}`,
			wantType: TypeMessage,
		},
		{
			name:     "unknown tag is still a valid event",
			raw:      `{"type":"reactions_changed","payload":{}}`,
			wantType: "reactions_changed",
		},
		{
			name:    "malformed json",
			raw:     `{"type":"new-question",`,
			wantErr: true,
		},
		{
			name:    "missing type tag",
			raw:     `{"payload":{"id":"q1"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ev.Type)
		})
	}
}

func TestEventPayloadAccessors(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"new-reply","payload":{"questionId":"q7","reply":{"id":"r1","text":"yes","user":"bob"}}}`))
	require.NoError(t, err)

	p, err := ev.NewReplyPayload()
	require.NoError(t, err)
	assert.Equal(t, "q7", p.QuestionID)
	assert.Equal(t, "r1", p.Reply.ID)
	assert.Equal(t, "bob", p.Reply.User)

	ev, err = Decode([]byte(`{"type":"delete-reply","payload":{"questionId":"q7","replyId":"r1"}}`))
	require.NoError(t, err)
	d, err := ev.DeletedPayload()
	require.NoError(t, err)
	assert.Equal(t, "q7", d.QuestionID)
	assert.Equal(t, "r1", d.ReplyID)

	ev, err = Decode([]byte(`{"type":"maintenance","payload":{"status":true,"message":"back soon"}}`))
	require.NoError(t, err)
	m, err := ev.MaintenancePayload()
	require.NoError(t, err)
	assert.True(t, m.Status)
	assert.Equal(t, "back soon", m.Message)
}

func TestTypingPayloadBothShapes(t *testing.T) {
	// Board variant: nested payload with explicit null questionId.
	ev, err := Decode([]byte(`{"type":"typing","payload":{"questionId":null,"username":"alice"}}`))
	require.NoError(t, err)
	s, err := ev.TypingPayload()
	require.NoError(t, err)
	assert.Nil(t, s.QuestionID)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, GlobalKey, s.Key())

	// Room variant: top-level fields.
	ev, err = Decode([]byte(`{"type":"typing","questionId":"q3","username":"bob"}`))
	require.NoError(t, err)
	s, err = ev.TypingPayload()
	require.NoError(t, err)
	require.NotNil(t, s.QuestionID)
	assert.Equal(t, "q3", *s.QuestionID)
	assert.Equal(t, "q3", s.Key())
}

func TestErrorMessageString(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"error","message":"room is locked"}`))
	require.NoError(t, err)
	assert.Equal(t, "room is locked", ev.ErrorMessage())
}

func TestOutboundTypingMarshalsNullThread(t *testing.T) {
	data, err := json.Marshal(NewTyping(nil, "alice"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"typing","questionId":null,"username":"alice"}`, string(data))

	qid := "q1"
	data, err = json.Marshal(NewTyping(&qid, "alice"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"typing","questionId":"q1","username":"alice"}`, string(data))
}
