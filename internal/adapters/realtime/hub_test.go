package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SinceAndOverrun(t *testing.T) {
	h := NewHub(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		h.Publish(TopicMembers, OpUpdate, id)
	}
	assert.EqualValues(t, 4, h.Head())

	b := h.Since(2)
	assert.False(t, b.Reset)
	require.Len(t, b.Events, 2)
	assert.Equal(t, "c", b.Events[0].ID)

	b = h.Since(0)
	assert.True(t, b.Reset, "event 1 fell out of history")

	b = h.Since(9)
	assert.True(t, b.Reset, "reader is ahead of a restarted hub")

	b = h.Since(4)
	assert.False(t, b.Reset)
	assert.Empty(t, b.Events)
}

func TestHub_WaitWakesOnPublish(t *testing.T) {
	h := NewHub(0)
	head := h.Head()

	done := make(chan Batch, 1)
	go func() {
		b, err := h.Wait(context.Background(), head)
		assert.NoError(t, err)
		done <- b
	}()

	time.Sleep(10 * time.Millisecond)
	h.Publish(TopicSessions, OpDelete, "s1")

	select {
	case b := <-done:
		require.Len(t, b.Events, 1)
		assert.Equal(t, TopicSessions, b.Events[0].Topic)
		assert.Equal(t, OpDelete, b.Events[0].Op)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestHub_WaitTimesOut(t *testing.T) {
	h := NewHub(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	b, err := h.Wait(ctx, h.Head())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, b.Events)
}

func TestHub_StreamClients(t *testing.T) {
	h := NewHub(0)
	c := &Client{ID: "c1", Phone: "+919595107293", Channel: make(chan Event, 1)}
	h.Register(c)
	assert.Equal(t, 1, h.ClientCount())

	h.Publish(TopicLogs, OpInsert, "l1")
	h.Publish(TopicLogs, OpInsert, "l2") // channel full, dropped

	ev := <-c.Channel
	assert.Equal(t, "l1", ev.ID)

	h.Unregister("c1")
	_, open := <-c.Channel
	assert.False(t, open)
	assert.Zero(t, h.ClientCount())
}
