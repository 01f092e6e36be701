package broadcast

import (
	"poseparty/internal/events"
	"poseparty/internal/logging"
	"sync"
)

// Broadcaster fans lifecycle events out to server-side subscribers such as
// the archive writer and the NATS publisher.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan events.Lifecycle]bool
	done    chan struct{}
}

// NewBroadcaster forwards everything published on bus until the bus is
// closed, then closes every subscriber channel.
func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan events.Lifecycle]bool),
		done:    make(chan struct{}),
	}
	go func() {
		for ev := range bus.Events {
			b.Broadcast(ev)
		}
		b.closeAll()
	}()
	return b
}

func (b *Broadcaster) Subscribe(buffer int) chan events.Lifecycle {
	ch := make(chan events.Lifecycle, buffer)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan events.Lifecycle) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.Clients[ch] {
		delete(b.Clients, ch)
		close(ch)
	}
}

func (b *Broadcaster) Broadcast(ev events.Lifecycle) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- ev:
		default:
			l := logging.For("broadcast")
			l.Warn().Str("kind", string(ev.Kind)).Str("room", ev.Room).Msg("subscriber full, event skipped")
		}
	}
}

// Done is closed once the bus has been drained and subscribers closed.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

func (b *Broadcaster) closeAll() {
	b.Mu.Lock()
	for ch := range b.Clients {
		delete(b.Clients, ch)
		close(ch)
	}
	b.Mu.Unlock()
	close(b.done)
}
