package kafka

import (
	"context"
	"slices"

	"github.com/dailyyoga/refreshkit/cache"
	"github.com/dailyyoga/refreshkit/logger"
	"go.uber.org/zap"
)

// RefreshHandler returns a handler that forces a refresh of r for every
// consumed message. When keys are given, only messages whose key is one of
// them trigger a refresh; the rest are acknowledged untouched.
//
// A refresh that fails while r still has no value is returned as an error,
// so the consumer retries it and leaves the offset uncommitted. Failures that
// r absorbs by serving its previous value are not errors here.
func RefreshHandler[T any](r cache.Refresher[T], log logger.Logger, keys ...string) ConsumerMsgHandler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(ctx context.Context, msg *Message) error {
		if len(keys) > 0 && !slices.Contains(keys, string(msg.Key)) {
			return nil
		}
		if _, err := r.ForceRefresh(ctx); err != nil {
			log.Warn("refresh triggered by kafka message failed",
				zap.ByteString("key", msg.Key),
				zap.Int64("offset", int64(msg.TopicPartition.Offset)),
				zap.Error(err),
			)
			return err
		}
		return nil
	}
}
