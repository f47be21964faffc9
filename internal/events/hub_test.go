package events

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

type countingRecorder struct {
	mu      sync.Mutex
	last    int
	dropped int
}

func (r *countingRecorder) SubscribersChanged(n int) { r.mu.Lock(); r.last = n; r.mu.Unlock() }
func (r *countingRecorder) SubscriberDropped() { r.mu.Lock(); r.dropped++; r.mu.Unlock() }

func TestEventFrame(t *testing.T) {
	ev, err := NewEvent(Rooms, []map[string]int{{"id": 1}})
	require.NoError(t, err)
	assert.Equal(t, "event: rooms\ndata: [{\"id\":1}]\n\n", string(ev.Frame()))
}

func TestBroadcastDelivers(t *testing.T) {
	h := NewHub(4, nil)
	a, b := h.Subscribe(), h.Subscribe()
	require.Equal(t, 2, h.Count())

	require.NoError(t, h.Publish(Sensors, []int{1, 2}))
	for _, s := range []*Subscriber{a, b} {
		ev := <-s.Events()
		assert.Equal(t, Sensors, ev.Name)
		assert.Equal(t, "[1,2]", string(ev.Data))
	}

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Count())
	_, open := <-a.Events()
	assert.False(t, open)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	rec := &countingRecorder{}
	h := NewHub(1, nil).WithRecorder(rec)
	slow := h.Subscribe()
	fast := h.Subscribe()

	h.Broadcast(Event{Name: Rooms, Data: []byte("[]")})
	<-fast.Events()
	h.Broadcast(Event{Name: Rooms, Data: []byte("[1]")})

	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 1, rec.dropped)
	assert.Equal(t, 1, rec.last)

	ev, ok := <-slow.Events()
	require.True(t, ok, "queued event is still delivered")
	assert.Equal(t, "[]", string(ev.Data))
	_, ok = <-slow.Events()
	assert.False(t, ok)
}

func TestStreamWritesSnapshotThenUpdates(t *testing.T) {
	h := NewHub(4, nil)
	out := &safeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	initial := []Event{{Name: Rooms, Data: []byte("[]")}, {Name: Sensors, Data: []byte("[]")}}
	done := make(chan error, 1)
	go func() { done <- h.Stream(ctx, bufio.NewWriter(out), initial, time.Hour) }()

	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, h.Publish(Sensors, []string{"s1"}))

	want := "event: rooms\ndata: []\n\nevent: sensors\ndata: []\n\nevent: sensors\ndata: [\"s1\"]\n\n"
	require.Eventually(t, func() bool { return out.String() == want }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, h.Count())
}

func TestServeDeliversUpdatesPublishedBeforeSnapshot(t *testing.T) {
	h := NewHub(4, nil)
	sub := h.Subscribe()
	require.NoError(t, h.Publish(Rooms, []int{7}))

	out := &safeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	initial := []Event{{Name: Rooms, Data: []byte("[]")}}
	go func() { done <- h.Serve(ctx, bufio.NewWriter(out), sub, initial, 0) }()

	want := "event: rooms\ndata: []\n\nevent: rooms\ndata: [7]\n\n"
	require.Eventually(t, func() bool { return out.String() == want }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, h.Count())
}

func TestStreamHeartbeat(t *testing.T) {
	h := NewHub(4, nil)
	out := &safeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Stream(ctx, bufio.NewWriter(out), nil, 10*time.Millisecond)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), ": ping\n\n") }, time.Second, 5*time.Millisecond)
}

func TestStreamClientFailure(t *testing.T) {
	h := NewHub(4, nil)
	err := h.Stream(context.Background(), bufio.NewWriterSize(failingWriter{}, 16), []Event{{Name: Rooms, Data: []byte("[]")}}, 0)
	assert.Error(t, err)
	assert.Zero(t, h.Count())
}

func TestCloseEndsStreams(t *testing.T) {
	h := NewHub(4, nil)
	done := make(chan error, 1)
	go func() { done <- h.Stream(context.Background(), bufio.NewWriter(&safeBuffer{}), nil, 0) }()
	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 5*time.Millisecond)

	h.Close()
	assert.ErrorIs(t, <-done, ErrDropped)

	late := h.Subscribe()
	_, ok := <-late.Events()
	assert.False(t, ok)
	assert.Zero(t, h.Count())
}
