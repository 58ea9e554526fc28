package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/refreshkit/logger"
	"github.com/dailyyoga/refreshkit/routine"
	"go.uber.org/zap"
)

// pollClient is the part of *kafka.Consumer the consume loop uses
type pollClient interface {
	Poll(timeoutMs int) kafka.Event
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Close() error
}

// consumeInstance represents a single kafka consumer instance
type consumeInstance struct {
	logger logger.Logger
	runner routine.Runner

	config *ConsumerConfig
	name   string
	c      pollClient

	cancel  context.CancelFunc
	started atomic.Bool
	closed  atomic.Bool
}

func newConsumeInstance(name string, config *ConsumerConfig, log logger.Logger) (*consumeInstance, error) {
	consumer, err := kafka.NewConsumer(config.BuildConfigMap())
	if err != nil {
		return nil, ErrConnection(err)
	}

	if err := consumer.SubscribeTopics(config.Topics, nil); err != nil {
		consumer.Close()
		return nil, ErrSubscribe(config.Topics, err)
	}

	return &consumeInstance{
		config: config,
		name:   name,
		c:      consumer,
		logger: log,
		runner: routine.New(log),
	}, nil
}

// Start starts the consume loop on its own goroutine.
func (c *consumeInstance) Start(ctx context.Context, handler ConsumerMsgHandler) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted(c.name)
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.runner.GoNamedWithContext(ctx, c.name, func(ctx context.Context) {
		if err := c.consumeLoop(ctx, handler); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka consumer loop exited with error",
				zap.String("instance_name", c.name),
				zap.Error(err))
		}
	})
	c.logger.Info("kafka consumer instance started", zap.String("instance_name", c.name))
	return nil
}

// Close stops the consume loop and closes the consumer once the loop has
// returned, so Poll is never called on a closed handle.
func (c *consumeInstance) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.runner.Wait()

	if err := c.c.Close(); err != nil {
		return ErrConnection(err)
	}
	c.logger.Info("kafka consumer instance closed", zap.String("instance_name", c.name))
	return nil
}

// consumeLoop polls until ctx is done. Poll is bounded by PollTimeout so
// cancellation is noticed promptly.
func (c *consumeInstance) consumeLoop(ctx context.Context, handler ConsumerMsgHandler) error {
	pollMs := int(c.config.PollTimeout.Milliseconds())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev := c.c.Poll(pollMs)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if err := c.handlerMessage(ctx, e, handler); err != nil {
				c.logger.Error("kafka consumer handle message failed",
					zap.String("topic", topicOf(e)),
					zap.Int32("partition", e.TopicPartition.Partition),
					zap.Int64("offset", int64(e.TopicPartition.Offset)),
					zap.Error(err),
				)
			}
		case kafka.Error:
			c.logger.Error("kafka consumer error", zap.Int("code", int(e.Code())), zap.String("error", e.String()))

			if e.Code() == kafka.ErrAllBrokersDown {
				c.logger.Error("all kafka brokers are down", zap.Error(e))
				return ErrConsume(e)
			}
		case kafka.OffsetsCommitted:
			if e.Error != nil {
				c.logger.Error("failed to commit offsets", zap.Error(e.Error))
			}
		default:
			c.logger.Debug("received unknown event", zap.String("type", fmt.Sprintf("%T", e)))
		}
	}
}

func topicOf(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}

// toMessage converts a confluent message into the package's Message
func toMessage(msg *kafka.Message) *Message {
	message := &Message{
		Value:     msg.Value,
		Key:       msg.Key,
		Timestamp: msg.Timestamp,
		TopicPartition: TopicPartition{
			Topic:     msg.TopicPartition.Topic,
			Partition: msg.TopicPartition.Partition,
			Offset:    Offset(msg.TopicPartition.Offset),
		},
		Headers: make([]Header, len(msg.Headers)),
	}

	for i, header := range msg.Headers {
		message.Headers[i] = Header{
			Key:   header.Key,
			Value: header.Value,
		}
	}

	return message
}

// handlerMessage runs handler up to MaxRetries times and commits the offset
// once it succeeds. A message that keeps failing is not committed.
func (c *consumeInstance) handlerMessage(ctx context.Context, msg *kafka.Message, handler ConsumerMsgHandler) error {
	startTime := time.Now()

	var runError error
	for i := 1; i <= c.config.MaxRetries; i++ {
		if runError = handler(ctx, toMessage(msg)); runError == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if runError != nil {
		return runError
	}

	if !c.config.EnableAutoCommit {
		if _, err := c.c.CommitMessage(msg); err != nil {
			return ErrCommit(err)
		}
	}

	c.logger.Debug("kafka consumer instance processed message successfully",
		zap.String("topic", topicOf(msg)),
		zap.Int32("partition", msg.TopicPartition.Partition),
		zap.Int64("offset", int64(msg.TopicPartition.Offset)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}
