package bot

import (
	"context"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"
	"golang.org/x/sync/errgroup"

	"bisca/internal/hub"
)

const pipeBuffer = 32

// Run feeds events from p to the agent and submits its answers until ctx
// ends or the pipe closes.
func Run(ctx context.Context, a *Agent, p *hub.Pipe) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.Done():
			return nil
		case ev := <-p.Events():
			action, ok := a.Observe(ev)
			if !ok {
				continue
			}
			if err := p.Submit(ctx, action); err != nil {
				if errors.Is(err, ctx.Err()) {
					return err
				}
				return nil
			}
		}
	}
}

// Spawn seats a on h over an in-process pipe and drives it in the
// background. The returned channel yields the outcome once the bot leaves.
func Spawn(ctx context.Context, h *hub.Hub, a *Agent, logger runtime.Logger) <-chan error {
	logger = logger.WithFields(map[string]interface{}{"bot_id": a.ID, "bot_name": a.Name})
	p := hub.NewPipe(pipeBuffer)
	done := make(chan error, 1)

	go func() {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer p.Close()
			return h.Serve(gctx, a.ID, p)
		})
		g.Go(func() error {
			defer p.Close()
			return Run(gctx, a, p)
		})
		err := g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("bot stopped: %v", err)
		} else {
			logger.Debug("bot stopped")
		}
		done <- err
	}()
	return done
}
