package images

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrPoolExhausted = errors.New("image pool exhausted")

// Selector picks round images and durations. It is shared by every game
// and safe for concurrent use.
type Selector struct {
	mu     sync.Mutex
	rng    *rand.Rand
	pool   []string
	minDur int
	maxDur int
}

// NewSelector builds a selector over pool. Durations are drawn from
// [minDur, maxDur]. Duplicate images are ignored. A nil src seeds from the
// clock.
func NewSelector(pool []string, minDur, maxDur int, src rand.Source) *Selector {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if maxDur < minDur {
		maxDur = minDur
	}
	seen := make(map[string]struct{}, len(pool))
	distinct := make([]string, 0, len(pool))
	for _, img := range pool {
		if _, ok := seen[img]; !ok {
			seen[img] = struct{}{}
			distinct = append(distinct, img)
		}
	}
	return &Selector{
		rng:    rand.New(src),
		pool:   distinct,
		minDur: minDur,
		maxDur: maxDur,
	}
}

// Size is the number of distinct images in the pool.
func (s *Selector) Size() int {
	return len(s.pool)
}

// Pick returns an image not present in used, uniformly over the remaining
// ones.
func (s *Selector) Pick(used map[string]struct{}) (string, error) {
	remaining := make([]string, 0, len(s.pool))
	for _, img := range s.pool {
		if _, ok := used[img]; !ok {
			remaining = append(remaining, img)
		}
	}
	if len(remaining) == 0 {
		return "", ErrPoolExhausted
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return remaining[s.rng.Intn(len(remaining))], nil
}

// Duration returns a round length in seconds.
func (s *Selector) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(s.maxDur-s.minDur+1) + s.minDur
}
