package kafka

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dailyyoga/refreshkit/logger"
)

type defaultConsumer struct {
	consumerInstances []*consumeInstance

	closed atomic.Bool
}

// NewConsumer creates a new kafka consumer with config.InstanceNum instances
// in the same consumer group.
func NewConsumer(log logger.Logger, config *ConsumerConfig) (Consumer, error) {
	if config == nil {
		config = DefaultConsumerConfig()
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

	consumerInstances := make([]*consumeInstance, 0, config.InstanceNum)
	for i := 0; i < config.InstanceNum; i++ {
		instanceName := fmt.Sprintf("%s-instance-%d", config.GroupID, i+1)
		instance, err := newConsumeInstance(instanceName, config, log)
		if err != nil {
			for _, started := range consumerInstances {
				_ = started.Close()
			}
			return nil, err
		}
		consumerInstances = append(consumerInstances, instance)
	}

	return &defaultConsumer{consumerInstances: consumerInstances}, nil
}

// Start starts every instance's consume loop. It does not block.
func (c *defaultConsumer) Start(ctx context.Context, handler ConsumerMsgHandler) error {
	if c.closed.Load() {
		return ErrConsumerClosed
	}
	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}

	for _, instance := range c.consumerInstances {
		if err := instance.Start(ctx, handler); err != nil {
			return err
		}
	}
	return nil
}

// Close stops every consume loop, waits for it to return and closes the
// underlying consumers.
func (c *defaultConsumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}

	var firstErr error
	for _, instance := range c.consumerInstances {
		if err := instance.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
