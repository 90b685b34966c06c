package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTypingAndDecay(t *testing.T) {
	tr := NewTracker("me", 50*time.Millisecond)
	defer tr.Stop()

	tr.RecordTyping("q1", "alice")

	who, ok := tr.Typist("q1")
	require.True(t, ok)
	assert.Equal(t, "alice", who)

	assert.Eventually(t, func() bool {
		_, ok := tr.Typist("q1")
		return !ok
	}, time.Second, 5*time.Millisecond, "signal must decay after the timer fires")
}

func TestNewerSignalSupersedesWithoutStaleClear(t *testing.T) {
	tr := NewTracker("me", 80*time.Millisecond)
	defer tr.Stop()

	tr.RecordTyping("q1", "alice")
	time.Sleep(50 * time.Millisecond)
	// Bob supersedes alice before her timer fires; her timer must not
	// clear bob's signal when it would have expired.
	tr.RecordTyping("q1", "bob")
	time.Sleep(50 * time.Millisecond)

	who, ok := tr.Typist("q1")
	require.True(t, ok, "bob's signal must survive alice's original expiry time")
	assert.Equal(t, "bob", who)
}

func TestSelfSuppression(t *testing.T) {
	tr := NewTracker("me", time.Second)
	defer tr.Stop()

	tr.RecordTyping("q1", "me")
	tr.RecordTyping("main", "me")

	_, ok := tr.Typist("q1")
	assert.False(t, ok)
	_, ok = tr.Typist("main")
	assert.False(t, ok, "self-authored typing is never rendered locally, for any key")
}

func TestKeysAreIndependent(t *testing.T) {
	tr := NewTracker("me", time.Second)
	defer tr.Stop()

	tr.RecordTyping("q1", "alice")
	tr.RecordTyping("main", "bob")

	who, _ := tr.Typist("q1")
	assert.Equal(t, "alice", who)
	who, _ = tr.Typist("main")
	assert.Equal(t, "bob", who)
}

func TestOnChangeFiresOnRecordAndExpiry(t *testing.T) {
	tr := NewTracker("me", 30*time.Millisecond)
	defer tr.Stop()

	changes := make(chan string, 8)
	tr.OnChange(func(key string) { changes <- key })

	tr.RecordTyping("q1", "alice")
	assert.Equal(t, "q1", <-changes)

	select {
	case key := <-changes:
		assert.Equal(t, "q1", key)
	case <-time.After(time.Second):
		t.Fatal("expiry never fired the change hook")
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(time.Hour)
	now := time.Unix(1000, 0)
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("q1"))
	assert.False(t, th.Allow("q1"), "second signal within the interval is dropped")
	assert.True(t, th.Allow("main"), "keys are throttled independently")

	now = now.Add(2 * time.Hour)
	assert.True(t, th.Allow("q1"))
}
