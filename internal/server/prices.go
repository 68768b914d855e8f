package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KANG-Hyeong-uk/coin/market"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local dev tool; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	conn *websocket.Conn
	send chan market.Coin
}

// PriceHub moves every coin on the board once per tick and fans the new
// snapshots out to websocket subscribers. A subscriber that falls behind
// is dropped.
type PriceHub struct {
	board    *market.Board
	gen      *market.Generator
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func NewPriceHub(board *market.Board, gen *market.Generator, interval time.Duration, logger *zap.Logger) *PriceHub {
	return &PriceHub{
		board:    board,
		gen:      gen,
		interval: interval,
		logger:   logger,
		subs:     make(map[*subscriber]struct{}),
	}
}

// Run ticks until ctx is cancelled, then disconnects every subscriber.
func (h *PriceHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Tick()
		}
	}
}

// Tick applies one price update to every coin and broadcasts the results.
func (h *PriceHub) Tick() {
	for _, c := range h.board.All() {
		next := h.gen.UpdatePrice(c)
		h.board.Set(next)
		h.broadcast(next)
	}
}

func (h *PriceHub) broadcast(c market.Coin) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.send <- c:
		default:
			h.logger.Warn("price subscriber too slow, dropping", zap.String("remote", s.conn.RemoteAddr().String()))
			delete(h.subs, s)
			close(s.send)
		}
	}
}

// closeAll disconnects every subscriber and refuses new ones.
func (h *PriceHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.send)
	}
}

func (h *PriceHub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
}

func (h *PriceHub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Subscribers reports how many clients are connected.
func (h *PriceHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeWS upgrades the request, sends the current board and then streams
// updates.
func (h *PriceHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "price feed stopped", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	coins := h.board.All()
	s := &subscriber{conn: conn, send: make(chan market.Coin, sendBuffer+len(coins))}
	for _, c := range coins {
		s.send <- c
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "price feed stopped"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("price subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writePump(s)
	go h.readPump(s)
}

func (h *PriceHub) writePump(s *subscriber) {
	defer s.conn.Close()
	for c := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(c); err != nil {
			h.remove(s)
			return
		}
	}
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// readPump only watches for the client going away.
func (h *PriceHub) readPump(s *subscriber) {
	defer h.remove(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("price subscriber read error", zap.Error(err))
			}
			return
		}
	}
}
