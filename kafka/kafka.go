// Package kafka connects proactive caches to Kafka in both directions.
//
// A Consumer with RefreshHandler forces a cache refresh whenever an upstream
// change notification arrives. An Announcer registered as cache hooks
// publishes every completed refresh, keyed by cache name, so other services
// can follow what their peers serve.
package kafka

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Message is a kafka record, independent of the client library
type Message struct {
	Value          []byte
	Key            []byte
	Timestamp      time.Time
	TopicPartition TopicPartition
	Headers        []Header
}

// GetHeader returns the value of the first header named k, nil if absent
func (m *Message) GetHeader(k string) []byte {
	for _, header := range m.Headers {
		if header.Key == k {
			return header.Value
		}
	}
	return nil
}

// PartitionAny lets the producer's partitioner choose
const PartitionAny = kafka.PartitionAny

type TopicPartition struct {
	Topic     *string
	Partition int32
	Offset    Offset
}

type Offset int64

type Header struct {
	Key   string
	Value []byte
}

// ConsumerMsgHandler handles one consumed message. A non-nil error makes the
// consumer retry the message and leave its offset uncommitted.
type ConsumerMsgHandler func(ctx context.Context, msg *Message) error

// Consumer runs consume loops until it is closed
type Consumer interface {
	// Start launches the consume loops and returns immediately
	Start(ctx context.Context, handler ConsumerMsgHandler) error
	// Close stops the loops, waits for them and releases the connections
	Close() error
}

// Producer enqueues messages for asynchronous delivery
type Producer interface {
	Produce(ctx context.Context, msg *Message) error
	Close() error
}
