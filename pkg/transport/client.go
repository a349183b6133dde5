// Package transport provides the optional NATS bridge pkg/comm uses to
// fan communicator events out to out-of-process subscribers.
//
// # Usage
//
//	transport.Init(rawConfig)
//	transport.Connect()
//
//	client := transport.GetClient()
//	client.Subscribe("evalcore.info", func(subject string, data []byte) {
//	    fmt.Printf("received: %s\n", data)
//	})
//
//	client.Publish("evalcore.info", []byte("hello"))
//
// # Thread Safety
//
// All Client methods are safe for concurrent use.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/NOAA-OWP/evalcore/pkg/comm"
	"github.com/NOAA-OWP/evalcore/pkg/log"
)

var (
	clientOnce     sync.Once
	clientInstance *Client
)

var _ comm.Bridge = (*Client)(nil)

// Client wraps a NATS connection with subscription management.
type Client struct {
	conn          *nats.Conn
	subscriptions []*nats.Subscription
	mu            sync.Mutex
}

// MessageHandler is a callback function for processing received messages.
type MessageHandler func(subject string, data []byte)

// Connect initializes the singleton transport client using the global
// Keys config.
func Connect() {
	clientOnce.Do(func() {
		if Keys.Address == "" {
			log.Warn("transport: no address configured, skipping connection")
			return
		}

		client, err := NewClient(nil)
		if err != nil {
			log.Warnf("transport: connection failed: %v", err)
			return
		}

		clientInstance = client
	})
}

// GetClient returns the singleton transport client instance.
func GetClient() *Client {
	if clientInstance == nil {
		log.Warn("transport: client not initialized")
	}
	return clientInstance
}

// AttachBridge wires the singleton client into group as its publish
// bridge, so fan-out writes reach out-of-process subscribers. When no
// client is connected the group is returned unchanged.
func AttachBridge(group *comm.Group) *comm.Group {
	if clientInstance == nil {
		log.Warn("transport: no client connected, group writes stay in-process")
		return group
	}
	return group.WithBridge(clientInstance)
}

// NewClient creates a new transport client. If cfg is nil, uses the
// global Keys config.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Keys
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("transport: address is required")
	}

	var opts []nats.Option

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}

	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			log.Warnf("transport: disconnected: %v", err)
		}
	}))

	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		log.Infof("transport: reconnected to %s", nc.ConnectedUrl())
	}))

	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		log.Errorf("transport: error: %v", err)
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("transport: connect failed: %w", err)
	}

	log.Infof("transport: connected to %s", cfg.Address)

	return &Client{
		conn:          nc,
		subscriptions: make([]*nats.Subscription, 0),
	}, nil
}

// Subscribe registers a handler for messages on the given subject.
func (c *Client) Subscribe(subject string, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("transport: subscribe to %q failed: %w", subject, err)
	}

	c.subscriptions = append(c.subscriptions, sub)
	log.Infof("transport: subscribed to %q", subject)
	return nil
}

// SubscribeQueue registers a handler with a queue group for
// load-balanced message processing.
func (c *Client) SubscribeQueue(subject, queue string, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, err := c.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("transport: queue subscribe to %q (queue %q) failed: %w", subject, queue, err)
	}

	c.subscriptions = append(c.subscriptions, sub)
	log.Infof("transport: queue subscribed to %q (queue %q)", subject, queue)
	return nil
}

// Publish sends data to the specified subject. Satisfies comm.Bridge so a
// Client can be handed directly to comm.Group.WithBridge.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("transport: publish to %q failed: %w", subject, err)
	}
	return nil
}

// Request sends a request and waits for a response, bounded by ctx.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("transport: request to %q failed: %w", subject, err)
	}
	return msg.Data, nil
}

// Flush flushes the connection buffer to ensure all published messages
// are sent.
func (c *Client) Flush() error {
	return c.conn.Flush()
}

// Close unsubscribes all subscriptions and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			log.Warnf("transport: unsubscribe failed: %v", err)
		}
	}
	c.subscriptions = nil

	if c.conn != nil {
		c.conn.Close()
		log.Info("transport: connection closed")
	}
}

// IsConnected reports whether the client has an active connection.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Connection returns the underlying NATS connection for advanced usage.
func (c *Client) Connection() *nats.Conn {
	return c.conn
}
