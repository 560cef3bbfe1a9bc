package resolver

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/scribble/pkg/core"
)

// Watch evicts cached renderers when their source scribble changes or goes
// away. It runs until ctx is cancelled.
func (r *Resolver) Watch(ctx context.Context) {
	events, cancel := r.src.Subscribe(64)
	r.watching.Store(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			cancel()
			r.watching.Store(false)
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				if ev.Type == core.EventModify || ev.Type == core.EventDelete {
					if n := r.Evict(ev.ID); n > 0 {
						r.logger.Debug("evicted renderers", "id", ev.ID, "count", n)
					}
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("resolver watch failed", "error", err)
	}))
}
