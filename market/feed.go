package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Feed receives live coin snapshots from a price publisher over a websocket.
type Feed struct {
	conn    *websocket.Conn
	updates chan Coin

	mu   sync.Mutex
	err  error
	once sync.Once
	done chan struct{}
}

// Dial connects to a price publisher such as ws://localhost:8000/ws/prices.
// The feed stops when ctx is cancelled or Close is called.
func Dial(ctx context.Context, url string) (*Feed, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial price feed: %w", err)
	}

	f := &Feed{
		conn:    conn,
		updates: make(chan Coin, 16),
		done:    make(chan struct{}),
	}
	go f.read()
	go func() {
		select {
		case <-ctx.Done():
			_ = f.Close()
		case <-f.done:
		}
	}()
	return f, nil
}

// Updates delivers snapshots until the connection ends.
func (f *Feed) Updates() <-chan Coin {
	return f.updates
}

// Err reports why the feed ended; nil after a clean close.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) read() {
	defer close(f.updates)
	for {
		var c Coin
		if err := f.conn.ReadJSON(&c); err != nil {
			select {
			case <-f.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					f.mu.Lock()
					f.err = err
					f.mu.Unlock()
				}
			}
			return
		}
		select {
		case f.updates <- c:
		case <-f.done:
			return
		}
	}
}

func (f *Feed) Close() error {
	var err error
	f.once.Do(func() {
		close(f.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		// best effort; the peer may already be gone
		_ = f.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = f.conn.Close()
	})
	return err
}
