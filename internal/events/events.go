package events

import (
	"sync"
	"sync/atomic"
	"time"
)

type Kind string

const (
	KindPlayerJoined  Kind = "player_joined"
	KindPlayerLeft    Kind = "player_left"
	KindRoundStarted  Kind = "round_started"
	KindGameEnded     Kind = "game_ended"
	KindGameRestarted Kind = "game_restarted"
)

// Lifecycle is a server-side notification about a game transition. It is
// never sent to players.
type Lifecycle struct {
	Kind        Kind                 `json:"kind"`
	Room        string               `json:"room"`
	GameID      string               `json:"gameId"`
	Player      string               `json:"player,omitempty"`
	Round       int                  `json:"round"`
	TotalRounds int                  `json:"totalRounds"`
	Image       string               `json:"image,omitempty"`
	Duration    int                  `json:"duration,omitempty"`
	Scores      map[string][]float64 `json:"scores,omitempty"`
	Completed   bool                 `json:"completed,omitempty"`
	StartedAt   time.Time            `json:"startedAt,omitzero"`
	At          time.Time            `json:"at"`
}

type Bus struct {
	Events  chan Lifecycle
	dropped atomic.Int64
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

func NewBus() *Bus {
	return &Bus{
		Events: make(chan Lifecycle, 256),
	}
}

// Publish never blocks. Events are dropped when the buffer is full or the
// bus is closed; the return value reports delivery. A nil bus drops
// everything.
func (b *Bus) Publish(ev Lifecycle) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.Events <- ev:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Dropped counts events lost to a full buffer.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Bus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.Events)
		b.mu.Unlock()
	})
}
