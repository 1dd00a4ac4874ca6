package hub

import (
	"context"
	"io"
	"sync"

	"bisca/internal/app"
)

// Pipe is an in-process Transport. The hub side uses Receive/Send; the
// client side uses Submit/Events.
type Pipe struct {
	actions chan app.Action
	events  chan app.Event
	closed  chan struct{}
	once    sync.Once
}

// NewPipe returns a pipe whose directions each buffer up to buffer items.
func NewPipe(buffer int) *Pipe {
	return &Pipe{
		actions: make(chan app.Action, buffer),
		events:  make(chan app.Event, buffer),
		closed:  make(chan struct{}),
	}
}

func (p *Pipe) Receive(ctx context.Context) (app.Action, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed:
		return nil, io.EOF
	case a := <-p.actions:
		return a, nil
	}
}

func (p *Pipe) Send(ctx context.Context, ev app.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return io.ErrClosedPipe
	case p.events <- ev:
		return nil
	}
}

func (p *Pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

// Submit queues an action from the client side.
func (p *Pipe) Submit(ctx context.Context, a app.Action) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return io.ErrClosedPipe
	case p.actions <- a:
		return nil
	}
}

// Events is the client side's view of delivered events.
func (p *Pipe) Events() <-chan app.Event { return p.events }

// Done is closed once either side closes the pipe.
func (p *Pipe) Done() <-chan struct{} { return p.closed }
