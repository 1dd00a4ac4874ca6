// Package hub serializes every connection's actions onto the single shared
// match and fans the resulting events out to per-connection queues.
package hub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"

	"bisca/internal/app"
	"bisca/internal/domain"
)

const defaultQueueSize = 64

// Conn is one registered player. Events for it are queued in generation order;
// the queue is closed when the hub drops the connection.
type Conn struct {
	id  string
	out chan app.Event

	// dropped is guarded by Hub.mu.
	dropped    bool
	detachOnce sync.Once
}

// ID returns the player id bound to the connection.
func (c *Conn) ID() string { return c.id }

// Events yields queued events. The channel is closed once the connection is
// dropped for falling behind or detached.
func (c *Conn) Events() <-chan app.Event { return c.out }

// Hub owns the match service and the player registry behind one mutex.
type Hub struct {
	mu        sync.Mutex
	svc       *app.Service
	conns     map[string]*Conn
	queueSize int
	logger    runtime.Logger
	label     app.Label
	onLabel   func(app.Label)
}

// Option configures a Hub.
type Option func(*Hub)

// WithQueueSize bounds the per-connection outbound queue.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithLabelListener is called, under the hub lock, whenever the match label changes.
// The callback must not call back into the hub.
func WithLabelListener(fn func(app.Label)) Option {
	return func(h *Hub) { h.onLabel = fn }
}

// New creates a hub serving svc.
func New(svc *app.Service, logger runtime.Logger, opts ...Option) *Hub {
	h := &Hub{
		svc:       svc,
		conns:     make(map[string]*Conn),
		queueSize: defaultQueueSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.label = svc.Label()
	return h
}

// Attach seats playerID and registers its queue. The welcome snapshot is the
// first queued event; everyone else is told about the new player.
func (h *Hub) Attach(playerID string) (*Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[playerID]; ok {
		return nil, domain.ErrDuplicatePlayer
	}
	c := &Conn{id: playerID, out: make(chan app.Event, h.queueSize)}
	h.conns[playerID] = c

	events, err := h.applyLocked("join", func() ([]app.Event, error) {
		return h.svc.Join(playerID)
	})
	if err != nil {
		delete(h.conns, playerID)
		return nil, err
	}
	h.dispatchLocked(events)
	h.logger.Info("player %s joined (%d connected)", playerID, len(h.conns))
	return c, nil
}

// Detach removes the connection's player and announces the departure. It runs
// at most once per connection.
func (h *Hub) Detach(c *Conn) {
	c.detachOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if h.conns[c.id] == c {
			delete(h.conns, c.id)
		}
		h.dropLocked(c)

		events, err := h.applyLocked("leave", func() ([]app.Event, error) {
			return h.svc.Leave(c.id)
		})
		h.dispatchLocked(events)
		if err != nil {
			h.logger.Warn("leave %s: %v", c.id, err)
		}
		h.logger.Info("player %s left (%d connected)", c.id, len(h.conns))
	})
}

// Handle applies one action from playerID. Failures are answered with an
// error event to that player only.
func (h *Hub) Handle(playerID string, action app.Action) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[playerID]; !ok {
		h.logger.Warn("dropping %s from unregistered player %s", app.ActionName(action), playerID)
		return
	}
	events, err := h.applyLocked(app.ActionName(action), func() ([]app.Event, error) {
		return h.svc.Handle(playerID, action)
	})
	h.dispatchLocked(events)
	if err != nil {
		h.rejectLocked(playerID, app.ActionName(action), err)
	}
}

// Reject answers playerID with an error event without touching the match.
func (h *Hub) Reject(playerID string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejectLocked(playerID, "decode", err)
}

// Label returns the current match label.
func (h *Hub) Label() app.Label {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.label
}

// Players returns the ids of the registered connections.
func (h *Hub) Players() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	return ids
}

// applyLocked runs one service call. A panic aborts only this request and is
// reported as an invariant violation. Nothing is rolled back, so every engine
// operation must finish validating before it mutates state.
func (h *Hub) applyLocked(op string, fn func() ([]app.Event, error)) (events []app.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			events = nil
			err = &domain.InvariantError{Op: op, Detail: fmt.Sprint(r)}
		}
		h.refreshLabelLocked()
	}()
	return fn()
}

func (h *Hub) rejectLocked(playerID, op string, err error) {
	if domain.IsValidation(err) {
		h.logger.Debug("%s rejected for %s: %v", op, playerID, err)
	} else {
		h.logger.Error("%s failed for %s: %v", op, playerID, err)
	}
	h.dispatchLocked([]app.Event{app.ErrorEvent(playerID, err)})
}

// dispatchLocked enqueues events without blocking. A full queue drops the
// connection; its writer then ends and the usual cleanup runs.
func (h *Hub) dispatchLocked(events []app.Event) {
	for _, ev := range events {
		if ev.Broadcast() {
			for _, c := range h.conns {
				h.pushLocked(c, ev)
			}
			continue
		}
		for _, id := range ev.Recipients {
			if c, ok := h.conns[id]; ok {
				h.pushLocked(c, ev)
			}
		}
	}
}

func (h *Hub) pushLocked(c *Conn, ev app.Event) {
	if c.dropped {
		return
	}
	select {
	case c.out <- ev:
	default:
		h.logger.Warn("outbound queue full for %s, dropping connection", c.id)
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *Conn) {
	if !c.dropped {
		c.dropped = true
		close(c.out)
	}
}

func (h *Hub) refreshLabelLocked() {
	label := h.svc.Label()
	if label == h.label {
		return
	}
	h.label = label
	if h.onLabel != nil {
		h.onLabel(label)
	}
}

// ErrQueueOverflow ends a connection whose outbound queue filled up.
var ErrQueueOverflow = errors.New("outbound queue overflow")
