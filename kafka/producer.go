package kafka

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/refreshkit/logger"
	"github.com/dailyyoga/refreshkit/routine"
	"go.uber.org/zap"
)

type defaultProducer struct {
	logger logger.Logger
	runner routine.Runner
	config *ProducerConfig

	p *kafka.Producer

	done     chan struct{}
	stopOnce sync.Once
	closed   atomic.Bool
}

// NewProducer creates a new kafka producer
func NewProducer(log logger.Logger, config *ProducerConfig) (Producer, error) {
	if config == nil {
		config = DefaultProducerConfig()
	} else {
		config = config.MergeDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	if err := validateKafkaCluster(log, config.Brokers); err != nil {
		return nil, err
	}

	configMap := config.BuildConfigMap()

	var producer *kafka.Producer
	var err error

	maxRetries := 3
	retryDelay := 3 * time.Second
	for i := 0; i < maxRetries; i++ {
		producer, err = kafka.NewProducer(configMap)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Warn("failed to create kafka producer, retrying...",
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("max_retries", maxRetries),
			)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, ErrConnection(fmt.Errorf("create producer after %d retries: %w", maxRetries, err))
	}

	kp := &defaultProducer{
		p:      producer,
		logger: log,
		runner: routine.New(log),
		config: config,
		done:   make(chan struct{}),
	}

	kp.runner.GoNamed("kafka-delivery-reports", kp.handleDeliveryReports)

	log.Info("kafka producer initialized and validated", zap.Strings("brokers", config.Brokers))
	return kp, nil
}

func (kp *defaultProducer) stop() {
	kp.stopOnce.Do(func() { close(kp.done) })
}

// handleDeliveryReports logs the outcome of every produced message
func (kp *defaultProducer) handleDeliveryReports() {
	for {
		select {
		case <-kp.done:
			return
		case e := <-kp.p.Events():
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					kp.logger.Error("failed to deliver message",
						zap.Error(ev.TopicPartition.Error),
						zap.String("topic", topicOf(ev)),
					)
				} else {
					kp.logger.Debug("message delivered",
						zap.String("topic", topicOf(ev)),
						zap.Int32("partition", ev.TopicPartition.Partition),
						zap.Int64("offset", int64(ev.TopicPartition.Offset)),
					)
				}
			case kafka.Error:
				kp.logger.Error("kafka producer error",
					zap.Int("code", int(ev.Code())),
					zap.String("error", ev.String()),
				)
				if ev.Code() == kafka.ErrAllBrokersDown {
					kp.logger.Error("all kafka brokers are down", zap.Error(ev))
					kp.stop()
					return
				}
			default:
				kp.logger.Debug("received unknown event", zap.String("type", fmt.Sprintf("%T", ev)))
			}
		}
	}
}

// Produce enqueues a message for delivery. It does not wait for the broker;
// delivery failures are logged by the report loop.
func (kp *defaultProducer) Produce(ctx context.Context, msg *Message) error {
	if kp.closed.Load() {
		return ErrProducerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	message, err := toKafkaMessage(msg)
	if err != nil {
		return err
	}
	if err := kp.p.Produce(message, nil); err != nil {
		return ErrProduce(err)
	}
	return nil
}

func toKafkaMessage(msg *Message) (*kafka.Message, error) {
	if msg.TopicPartition.Topic == nil {
		return nil, ErrInvalidConfig("topic is required")
	}
	if msg.Value == nil {
		return nil, ErrInvalidConfig("value is required")
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     msg.TopicPartition.Topic,
			Partition: kafka.PartitionAny,
		},
		Value:     msg.Value,
		Key:       msg.Key,
		Timestamp: msg.Timestamp,
	}

	if msg.TopicPartition.Partition != PartitionAny {
		message.TopicPartition.Partition = msg.TopicPartition.Partition
	}
	for _, header := range msg.Headers {
		message.Headers = append(message.Headers, kafka.Header{Key: header.Key, Value: header.Value})
	}
	return message, nil
}

// Close flushes outstanding messages and closes the producer
func (kp *defaultProducer) Close() error {
	if !kp.closed.CompareAndSwap(false, true) {
		return nil
	}

	remaining := kp.p.Flush(int(kp.config.FlushTimeout.Milliseconds()))
	if remaining > 0 {
		kp.logger.Warn("messages left undelivered at shutdown", zap.Int("remaining", remaining))
	}

	kp.stop()
	kp.runner.Wait()
	kp.p.Close()
	return nil
}
