package wsclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler turns one inbound frame into the frame written back.
type Handler func(ctx context.Context, frame []byte) ([]byte, error)

type Config struct {
	Protocol       string
	Host           string
	Port           int
	APIKey         string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// URL is the endpoint the client dials: {protocol}://{host}:{port}/{apiKey}.
func (c Config) URL() string {
	return fmt.Sprintf("%s://%s:%d/%s", c.Protocol, c.Host, c.Port, c.APIKey)
}

// Client keeps a websocket connection to the front-end open and answers
// every text frame it receives.
type Client struct {
	cfg     Config
	handler Handler
	logger  *zap.Logger
	dialer  *websocket.Dialer
}

func NewClient(cfg Config, handler Handler, logger *zap.Logger) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		handler: handler,
		logger:  logger.Named("wsclient"),
		dialer:  websocket.DefaultDialer,
	}
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	b.Reset()
	return b
}

// Run connects and serves frames, reconnecting with exponential backoff,
// until ctx is done. It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	url := c.cfg.URL()
	b := c.newBackOff()

	for {
		conn, _, err := c.dialer.DialContext(ctx, url, nil)
		if err == nil {
			c.logger.Info("connected", zap.String("host", c.cfg.Host), zap.Int("port", c.cfg.Port))
			b.Reset()
			err = c.serve(ctx, conn)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := b.NextBackOff()
		c.logger.Warn("connection lost, reconnecting", zap.Error(err), zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		kind, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("server closed the connection")
			}
			return err
		}
		if kind != websocket.TextMessage {
			continue
		}

		reply, err := c.handler(ctx, frame)
		if err != nil {
			c.logger.Warn("skipping frame", zap.Error(err), zap.Int("bytes", len(frame)))
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			return err
		}
	}
}
