package market

import (
	"errors"
	"sort"
	"sync"
)

var ErrUnknownCoin = errors.New("coin not found")

// Board holds the latest snapshot of every coin being published.
type Board struct {
	mu    sync.RWMutex
	coins map[string]Coin
}

func NewBoard(coins []Coin) *Board {
	b := &Board{coins: make(map[string]Coin, len(coins))}
	for _, c := range coins {
		b.coins[c.ID] = c
	}
	return b
}

func (b *Board) Set(c Coin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.coins[c.ID] = c
}

func (b *Board) Get(id string) (Coin, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.coins[id]
	if !ok {
		return Coin{}, ErrUnknownCoin
	}
	return c, nil
}

// All returns the coins sorted by id.
func (b *Board) All() []Coin {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Coin, 0, len(b.coins))
	for _, c := range b.coins {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
