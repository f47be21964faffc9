package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	Rooms   = "rooms"
	Sensors = "sensors"
)

// ErrDropped is returned to a stream whose subscriber fell behind.
var ErrDropped = errors.New("subscriber dropped")

// Event is one named server-sent event.
type Event struct {
	Name string
	Data []byte
}

// Frame renders the event in text/event-stream format.
func (e Event) Frame() []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Name, e.Data))
}

// NewEvent marshals v as the event payload.
func NewEvent(name string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, errors.Wrapf(err, "failed to encode %s event", name)
	}
	return Event{Name: name, Data: data}, nil
}

// Recorder observes subscriber churn.
type Recorder interface {
	SubscribersChanged(n int)
	SubscriberDropped()
}

type Subscriber struct {
	id uint64
	ch chan Event
}

// Events yields queued events. The channel is closed when the subscriber is
// removed from the hub.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Hub fans events out to SSE subscribers. Broadcast never blocks: a
// subscriber whose queue is full is dropped.
type Hub struct {
	mu       sync.RWMutex
	subs     map[uint64]*Subscriber
	nextID   uint64
	buffer   int
	closed   bool
	logger   *zap.Logger
	recorder Recorder
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[uint64]*Subscriber), buffer: buffer, logger: logger}
}

func (h *Hub) WithRecorder(r Recorder) *Hub {
	h.recorder = r
	return h
}

func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &Subscriber{id: h.nextID, ch: make(chan Event, h.buffer)}
	h.nextID++
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s.id] = s
	h.changed()
	return s
}

// Unsubscribe removes s. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(s)
}

func (h *Hub) remove(s *Subscriber) bool {
	if cur, ok := h.subs[s.id]; !ok || cur != s {
		return false
	}
	delete(h.subs, s.id)
	close(s.ch)
	h.changed()
	return true
}

func (h *Hub) changed() {
	if h.recorder != nil {
		h.recorder.SubscribersChanged(len(h.subs))
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Broadcast(ev Event) {
	var slow []*Subscriber
	h.mu.RLock()
	for _, s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, s := range slow {
		if h.remove(s) {
			h.logger.Warn("dropping slow event subscriber", zap.Uint64("subscriber", s.id), zap.String("event", ev.Name))
			if h.recorder != nil {
				h.recorder.SubscriberDropped()
			}
		}
	}
	h.mu.Unlock()
}

// Publish marshals v and broadcasts it under name.
func (h *Hub) Publish(name string, v any) error {
	ev, err := NewEvent(name, v)
	if err != nil {
		return err
	}
	h.Broadcast(ev)
	return nil
}

// Close drops every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, s := range h.subs {
		h.remove(s)
	}
}

// Stream subscribes and then serves the subscription, see Serve.
func (h *Hub) Stream(ctx context.Context, w *bufio.Writer, initial []Event, heartbeat time.Duration) error {
	return h.Serve(ctx, w, h.Subscribe(), initial, heartbeat)
}

// Serve writes initial, then every event delivered to sub, flushing after
// each frame. Subscribe before building initial so no update published in
// between is lost. Comment pings are sent every heartbeat so a vanished
// client surfaces as a write error. Returns when ctx ends, the client fails
// or the subscriber is dropped; sub is always unsubscribed.
func (h *Hub) Serve(ctx context.Context, w *bufio.Writer, sub *Subscriber, initial []Event, heartbeat time.Duration) error {
	defer h.Unsubscribe(sub)

	for _, ev := range initial {
		if err := writeFrame(w, ev.Frame()); err != nil {
			return err
		}
	}

	var tick <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return ErrDropped
			}
			if err := writeFrame(w, ev.Frame()); err != nil {
				h.logger.Debug("event client went away", zap.Uint64("subscriber", sub.id), zap.Error(err))
				return err
			}
		case <-tick:
			if err := writeFrame(w, []byte(": ping\n\n")); err != nil {
				return err
			}
		}
	}
}

func writeFrame(w *bufio.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return err
	}
	return w.Flush()
}
