package rooms

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"poseparty/internal/game"
	"poseparty/internal/images"
)

type stubConn struct{ id string }

func (c stubConn) ID() string         { return c.id }
func (c stubConn) Send(_ []byte) bool { return true }

func testFactory(id string) *game.Game {
	sel := images.NewSelector([]string{"a.png", "b.png", "c.png"}, 10, 20, nil)
	return game.New(id, 3, sel, nil)
}

func mustAdd(t *testing.T, g *game.Game, connID, name string) {
	t.Helper()
	if err := g.AddPlayer(stubConn{connID}, name); err != nil {
		t.Fatalf("AddPlayer(%q): %v", name, err)
	}
}

func TestNewStore(t *testing.T) {
	s := NewStore(testFactory)
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if len(s.List()) != 0 || s.Count() != 0 {
		t.Errorf("new store should be empty, got %d rooms", s.Count())
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	s := NewStore(testFactory)

	room, created := s.GetOrCreate("1")
	if room == nil {
		t.Fatal("GetOrCreate returned nil")
	}
	if !created {
		t.Error("first GetOrCreate should create the room")
	}
	if room.ID != "1" || room.Game.Room() != "1" {
		t.Errorf("room ID = %q, game room = %q, want 1", room.ID, room.Game.Room())
	}
	if room.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	again, created := s.GetOrCreate("1")
	if created {
		t.Error("second GetOrCreate should not create")
	}
	if again != room {
		t.Error("second GetOrCreate returned a different room")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestStore_GetOrCreate_ConcurrentSameRoom(t *testing.T) {
	s := NewStore(testFactory)

	var wg sync.WaitGroup
	results := make([]*Room, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.GetOrCreate("party")
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r.Game != results[0].Game {
			t.Fatalf("caller %d got a different game", i)
		}
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestStore_GetOrCreate_ReplacesClosedGame(t *testing.T) {
	s := NewStore(testFactory)
	room, _ := s.GetOrCreate("1")
	mustAdd(t, room.Game, "c1", "A")
	if _, empty := room.Game.RemovePlayer("c1"); !empty {
		t.Fatal("game should be empty after its only player left")
	}

	fresh, created := s.GetOrCreate("1")
	if !created {
		t.Error("a closed game should be replaced")
	}
	if fresh.Game == room.Game {
		t.Error("replacement reused the closed game")
	}

	// The stale game can no longer remove the fresh one.
	if s.Remove("1", room.Game) {
		t.Error("Remove with a stale game succeeded")
	}
	if s.Get("1") != fresh {
		t.Error("fresh room was displaced")
	}
}

func TestStore_Get(t *testing.T) {
	s := NewStore(testFactory)
	room, _ := s.GetOrCreate("1")

	if s.Get("1") != room {
		t.Error("Get returned a different room")
	}
	if s.Get("missing") != nil {
		t.Error("Get should return nil for a missing room")
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore(testFactory)
	room, _ := s.GetOrCreate("1")
	mustAdd(t, room.Game, "c1", "A")

	if s.Remove("1", room.Game) {
		t.Error("occupied room must stay")
	}
	if s.Remove("missing", room.Game) {
		t.Error("Remove of a missing room succeeded")
	}

	room.Game.RemovePlayer("c1")
	if !s.Remove("1", room.Game) {
		t.Error("Remove of an empty room failed")
	}
	if s.Get("1") != nil {
		t.Error("room still present after Remove")
	}
	if s.Remove("1", room.Game) {
		t.Error("second Remove succeeded")
	}
}

func TestStore_List(t *testing.T) {
	s := NewStore(testFactory)
	s.GetOrCreate("b")
	s.GetOrCreate("a")
	s.GetOrCreate("c")

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List returned %d rooms, want 3", len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].ID != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].ID, want)
		}
	}
}

func TestStore_ConnectionIndex(t *testing.T) {
	s := NewStore(testFactory)

	s.Bind("c1", "1")
	if roomID, ok := s.RoomOf("c1"); !ok || roomID != "1" {
		t.Errorf("RoomOf = %q, %v; want 1, true", roomID, ok)
	}

	s.Bind("c1", "2")
	if roomID, _ := s.RoomOf("c1"); roomID != "2" {
		t.Errorf("RoomOf after rebind = %q, want 2", roomID)
	}

	if roomID, ok := s.Unbind("c1"); !ok || roomID != "2" {
		t.Errorf("Unbind = %q, %v; want 2, true", roomID, ok)
	}
	if _, ok := s.Unbind("c1"); ok {
		t.Error("second unbind must report nothing")
	}
	if _, ok := s.RoomOf("c1"); ok {
		t.Error("RoomOf after unbind should report nothing")
	}
}

func TestStore_UnbindExactlyOnceConcurrently(t *testing.T) {
	s := NewStore(testFactory)
	s.Bind("c1", "1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Unbind("c1"); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("Unbind succeeded %d times, want 1", wins)
	}
}

func TestStore_RoomIsolation(t *testing.T) {
	s := NewStore(testFactory)
	room1, _ := s.GetOrCreate("1")
	room2, _ := s.GetOrCreate("2")

	mustAdd(t, room1.Game, "p1", "Alice")
	mustAdd(t, room2.Game, "p2", "Bob")

	r1 := room1.Game.Snapshot().Players
	r2 := room2.Game.Snapshot().Players
	if len(r1) != 1 || len(r2) != 1 {
		t.Fatalf("room sizes = %d, %d; want 1, 1", len(r1), len(r2))
	}
	if r1[0].Name != "Alice" || r2[0].Name != "Bob" {
		t.Errorf("rooms hold %q and %q, want Alice and Bob", r1[0].Name, r2[0].Name)
	}
}

func TestStore_SweepStale(t *testing.T) {
	s := NewStore(testFactory)
	empty, _ := s.GetOrCreate("empty")
	busy, _ := s.GetOrCreate("busy")
	mustAdd(t, busy.Game, "p1", "Alice")

	if n := s.sweepStale(time.Now()); n != 0 {
		t.Errorf("fresh rooms get a grace period, swept %d", n)
	}

	if n := s.sweepStale(empty.CreatedAt.Add(emptyGrace + time.Second)); n != 1 {
		t.Errorf("swept %d rooms, want 1", n)
	}
	if s.Get("empty") != nil {
		t.Error("stale empty room survived the sweep")
	}
	if s.Get("busy") == nil {
		t.Error("occupied room was swept")
	}
}

func TestStore_SweepStopsOnCancel(t *testing.T) {
	s := NewStore(testFactory)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Sweep(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sweep did not stop")
	}
}

func TestStore_ConcurrentRooms(t *testing.T) {
	s := NewStore(testFactory)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.GetOrCreate(fmt.Sprintf("room-%d", i))
		}(i)
	}
	wg.Wait()

	if n := len(s.List()); n != 50 {
		t.Errorf("List returned %d rooms, want 50", n)
	}
}
