package nats

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	ClientID      string
}

type Client struct {
	conn   *nats.Conn
	closed chan struct{}
}

// ErrDrainTimeout is returned when the connection is still draining after the
// allotted time.
var ErrDrainTimeout = errors.New("timed out draining NATS connection")

func NewClient(cfg Config) (*Client, error) {
	closed := make(chan struct{})
	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Msgf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
			close(closed)
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Msgf("Connected to NATS at %s", conn.ConnectedUrl())
	return &Client{conn: conn, closed: closed}, nil
}

func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Healthy reports whether the connection is currently established.
func (c *Client) Healthy() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Drain flushes pending publishes and blocks until the connection has closed
// or timeout elapses.
func (c *Client) Drain(timeout time.Duration) error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return waitClosed(c.closed, timeout)
}

func waitClosed(closed <-chan struct{}, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-closed:
		return nil
	case <-timer.C:
		return ErrDrainTimeout
	}
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
