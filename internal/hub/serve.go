package hub

import (
	"context"
	"errors"
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"bisca/internal/app"
	"bisca/internal/domain"
)

// Transport carries decoded actions in and events out for one client.
type Transport interface {
	// Receive blocks until the next action arrives. A validation error
	// (such as app.ErrMalformedAction) is answered and reading continues;
	// any other error ends the connection.
	Receive(ctx context.Context) (app.Action, error)
	// Send writes one event. Calls never overlap.
	Send(ctx context.Context, ev app.Event) error
	// Close unblocks pending Receive and Send calls.
	Close() error
}

var errClientGone = errors.New("client closed connection")

// Serve attaches playerID and runs the connection's reader and writer until
// either stops. Cleanup runs exactly once, whichever side ends first. A
// clean client close returns nil.
func (h *Hub) Serve(ctx context.Context, playerID string, t Transport) error {
	c, err := h.Attach(playerID)
	if err != nil {
		return err
	}
	defer h.Detach(c)
	logger := h.logger.WithField("player_id", playerID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return t.Close()
	})
	g.Go(func() error {
		for {
			action, err := t.Receive(gctx)
			if err != nil {
				if domain.IsValidation(err) {
					h.Reject(playerID, err)
					continue
				}
				if isDisconnect(err) {
					return errClientGone
				}
				return err
			}
			h.Handle(playerID, action)
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-c.Events():
				if !ok {
					return ErrQueueOverflow
				}
				if err := t.Send(gctx, ev); err != nil {
					if isDisconnect(err) {
						return errClientGone
					}
					return err
				}
			}
		}
	})

	err = g.Wait()
	switch {
	case errors.Is(err, errClientGone), ctx.Err() != nil:
		logger.Debug("connection closed")
		return nil
	case err != nil:
		logger.Warn("connection ended: %v", err)
		return err
	}
	return nil
}

// isDisconnect reports whether err means the client went away.
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed)
}
