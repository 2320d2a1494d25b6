package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketSource subscribes to a websocket endpoint. Each text or binary
// frame becomes one message.
type WebSocketSource struct {
	URL    string
	Dialer *websocket.Dialer
	Logger *slog.Logger
}

// Open dials the endpoint. The returned subscription ends when the remote
// side closes, ctx ends or Close is called.
func (w *WebSocketSource) Open(ctx context.Context) (Subscription, error) {
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, _, err := dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", w.URL, err)
	}
	logger.Info("websocket connected", "url", w.URL)

	sub := &wsSubscription{conn: conn, ch: make(chan string), done: make(chan struct{})}

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
		}
		// Unblocks ReadMessage.
		conn.Close()
	}()

	go func() {
		defer close(sub.ch)
		defer sub.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-sub.done:
				default:
					logger.Debug("websocket read ended", "url", w.URL, "error", err)
				}
				return
			}
			if len(data) == 0 {
				continue
			}
			select {
			case sub.ch <- string(data):
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

type wsSubscription struct {
	conn *websocket.Conn
	ch   chan string
	done chan struct{}
	once sync.Once
}

func (s *wsSubscription) Messages() <-chan string { return s.ch }

func (s *wsSubscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
