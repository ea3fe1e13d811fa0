package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
)

const (
	// FetchBatchSize is how many messages one fetch pulls at most
	FetchBatchSize = 10

	// FetchMaxWait bounds how long a fetch blocks when the stream is idle
	FetchMaxWait = 5 * time.Second
)

// pullFetcher is the slice of *nats.Subscription the consume loop uses
type pullFetcher interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
}

// Consumer handles consuming review events from NATS JetStream
type Consumer struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
	sub    *nats.Subscription
	quit   chan struct{}
	done   chan struct{}
}

// NewConsumer creates a new NATS JetStream consumer
func NewConsumer(cfg *config.Config, log *logger.Logger) (*Consumer, error) {
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.Infof("Connected to NATS at %s", cfg.NATS.URL)

	return &Consumer{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// JetStream exposes the JetStream context for stream/consumer setup
func (c *Consumer) JetStream() nats.JetStreamContext {
	return c.js
}

// SubscribeDurable binds a pull subscription to a durable JetStream consumer
// and processes messages in a background fetch loop. The consumers created by
// EnsureConsumer carry no DeliverSubject, so they are pull consumers and must
// be drained with Fetch rather than a push subscription.
//
// Messages are acked only after the handler succeeds; failed messages are
// nak'd and redelivered by the server up to the consumer's MaxDeliver.
func (c *Consumer) SubscribeDurable(subject, durable string, handler func(data []byte) error) error {
	sub, err := c.js.PullSubscribe(subject, durable, nats.ManualAck(), nats.Bind(StreamName, durable))
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	c.sub = sub
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	go c.consume(sub, subject, handler)

	c.logger.Infof("Subscribed to NATS subject %s as durable %s", subject, durable)
	return nil
}

func (c *Consumer) consume(sub pullFetcher, subject string, handler func(data []byte) error) {
	defer close(c.done)

	for {
		select {
		case <-c.quit:
			return
		default:
		}

		msgs, err := sub.Fetch(FetchBatchSize, nats.MaxWait(FetchMaxWait))
		if err != nil {
			if err == nats.ErrTimeout {
				// No messages available, keep polling
				continue
			}
			if err == nats.ErrConnectionClosed || err == nats.ErrBadSubscription {
				return
			}
			c.logger.Errorf(err, "Failed to fetch messages on subject %s", subject)
			select {
			case <-c.quit:
				return
			case <-time.After(FetchMaxWait):
			}
			continue
		}

		for _, msg := range msgs {
			c.logger.Debugf("Received message on subject %s", subject)

			if err := handler(msg.Data); err != nil {
				c.logger.Errorf(err, "Failed to handle message on subject %s", subject)
				if nakErr := msg.Nak(); nakErr != nil {
					c.logger.Warnf("Failed to nak message: %v", nakErr)
				}
				continue
			}

			if err := msg.Ack(); err != nil {
				c.logger.Warnf("Failed to ack message: %v", err)
			}
		}
	}
}

// Close stops the fetch loop and closes the NATS connection
func (c *Consumer) Close() {
	if c.quit != nil {
		close(c.quit)
		select {
		case <-c.done:
		case <-time.After(FetchMaxWait + time.Second):
			c.logger.Warn("Timed out waiting for fetch loop to stop")
		}
	}
	if c.sub != nil {
		// Drain instead of Unsubscribe so the durable consumer survives restarts
		if err := c.sub.Drain(); err != nil {
			c.logger.Warnf("Failed to drain NATS subscription: %v", err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}
