// Package kafka produces order lifecycle events. Producing is best-effort:
// callers log failures and carry on, an unavailable broker never fails a
// checkout or a payment selection.
package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

type Conf struct {
	client *kgo.Client
}

// NewConf connects to the brokers given as a comma separated list.
func NewConf(brokers string) (*Conf, error) {
	if strings.TrimSpace(brokers) == "" {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

// ProduceMessage synchronously publishes one record.
func (c *Conf) ProduceMessage(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (c *Conf) Close() {
	c.client.Close()
}
