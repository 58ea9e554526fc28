package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dailyyoga/refreshkit/cache"
	"github.com/dailyyoga/refreshkit/logger"
	"go.uber.org/zap"
)

// Announcement is the JSON payload published for every completed refresh
type Announcement struct {
	Cache      string    `json:"cache"`
	Trigger    string    `json:"trigger"`
	Result     string    `json:"result"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// HeaderTrigger carries the refresh trigger on announcement messages
const HeaderTrigger = "refresh-trigger"

// Announcer publishes refresh outcomes to a topic, keyed by cache name.
// Register it with cache.WithHooks.
type Announcer struct {
	producer Producer
	topic    string
	logger   logger.Logger
}

var _ cache.Hooks = (*Announcer)(nil)

// NewAnnouncer creates an Announcer that publishes to topic through p
func NewAnnouncer(p Producer, topic string, log logger.Logger) *Announcer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Announcer{producer: p, topic: topic, logger: log}
}

// RefreshCompleted implements cache.Hooks. Publishing failures are logged.
func (a *Announcer) RefreshCompleted(ev cache.RefreshEvent) {
	if err := a.Announce(context.Background(), ev); err != nil {
		a.logger.Warn("failed to announce refresh",
			zap.String("cache", ev.Cache),
			zap.String("topic", a.topic),
			zap.Error(err),
		)
	}
}

// Announce publishes ev
func (a *Announcer) Announce(ctx context.Context, ev cache.RefreshEvent) error {
	payload := Announcement{
		Cache:      ev.Cache,
		Trigger:    string(ev.Trigger),
		Result:     ev.Result(),
		StartedAt:  ev.Started,
		DurationMs: ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		payload.Error = ev.Err.Error()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return ErrEncode(err)
	}

	topic := a.topic
	return a.producer.Produce(ctx, &Message{
		Key:   []byte(ev.Cache),
		Value: value,
		TopicPartition: TopicPartition{
			Topic:     &topic,
			Partition: PartitionAny,
		},
		Headers: []Header{{Key: HeaderTrigger, Value: []byte(ev.Trigger)}},
	})
}
