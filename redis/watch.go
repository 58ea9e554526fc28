package redis

import (
	"context"

	"github.com/dailyyoga/refreshkit/cache"
	"github.com/dailyyoga/refreshkit/logger"
	"github.com/dailyyoga/refreshkit/routine"
	"go.uber.org/zap"
)

// Watch subscribes to channel and forces a refresh of c for every message
// published on it, until ctx is cancelled. It returns once the subscription
// is confirmed; the returned Runner completes when the watch stops.
func Watch[T any](ctx context.Context, r Redis, channel string, c cache.Refresher[T], log logger.Logger) (routine.Runner, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	ps, err := r.Subscribe(ctx, channel)
	if err != nil {
		return nil, ErrSubscribe(channel, err)
	}

	runner := routine.New(log)
	runner.GoNamedWithContext(ctx, "redis-watch-"+channel, func(ctx context.Context) {
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if _, err := c.ForceRefresh(ctx); err != nil {
					log.Warn("refresh on invalidation failed",
						zap.String("channel", msg.Channel),
						zap.String("payload", msg.Payload),
						zap.Error(err),
					)
					continue
				}
				log.Debug("refreshed on invalidation", zap.String("channel", msg.Channel))
			}
		}
	})
	return runner, nil
}
