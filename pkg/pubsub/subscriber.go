package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-nedvision/internal/log"
)

// Subscriber reads detection records from the vision server's /ws/sub
// endpoint.
type Subscriber struct {
	conn   *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// SubscribeURL builds the websocket URL for base (http(s) or ws(s)) and
// topic.
func SubscribeURL(base, topic string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws/sub"
	}
	q := u.Query()
	q.Set("topic", topic)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial connects to base and subscribes to topic. A nil logger uses the
// global one.
func Dial(ctx context.Context, base, topic string, logger *slog.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = log.L()
	}
	target, err := SubscribeURL(base, topic)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	logger.Info("subscribed", "url", target)

	s := &Subscriber{conn: conn, logger: logger}
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	return s, nil
}

// Next blocks until the next message arrives or ctx is done.
func (s *Subscriber) Next(ctx context.Context) (Message, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Message{}, ErrClosed
	}
	if s.conn == nil {
		s.mu.Unlock()
		return Message{}, ErrNotConnected
	}
	conn := s.conn
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, fmt.Errorf("read: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		msg, err := DecodeEnvelope(data)
		if err != nil {
			s.logger.Warn("skipping malformed message", "error", err)
			continue
		}
		return msg, nil
	}
}

// Close sends a close frame and releases the connection.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.conn == nil {
		return nil
	}
	s.closed = true
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
