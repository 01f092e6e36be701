package players

import (
	"slices"
	"testing"
)

func TestNewStore(t *testing.T) {
	s := NewStore()
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if n := len(s.GetList()); n != 0 {
		t.Errorf("new store should be empty, got %d players", n)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
}

func TestStore_Add(t *testing.T) {
	s := NewStore()
	p := s.Add("id1", "Alice", 0)

	if p.ID != "id1" {
		t.Errorf("player ID = %q, want %q", p.ID, "id1")
	}
	if p.Name != "Alice" {
		t.Errorf("player Name = %q, want %q", p.Name, "Alice")
	}
	if len(p.RoundScores) != 0 {
		t.Errorf("new player has scores %v", p.RoundScores)
	}
	if p.Ready {
		t.Error("player Ready should be false")
	}
	if p.JoinedAt.IsZero() {
		t.Error("player JoinedAt should be set")
	}
}

func TestStore_Add_Backfill(t *testing.T) {
	s := NewStore()
	p := s.Add("id1", "Carol", 2)
	if !slices.Equal(p.RoundScores, []float64{0, 0}) {
		t.Errorf("backfilled scores = %v, want [0 0]", p.RoundScores)
	}

	q := s.Add("id2", "Dave", -1)
	if len(q.RoundScores) != 0 {
		t.Errorf("negative backfill gave scores %v", q.RoundScores)
	}
}

func TestStore_Get(t *testing.T) {
	s := NewStore()
	s.Add("id1", "Alice", 0)

	p := s.Get("id1")
	if p == nil {
		t.Fatal("Get returned nil for existing player")
	}
	if p.Name != "Alice" {
		t.Errorf("Name = %q, want %q", p.Name, "Alice")
	}
	if s.Get("nonexistent") != nil {
		t.Error("Get should return nil for nonexistent player")
	}
}

func TestStore_GetList_JoinOrder(t *testing.T) {
	s := NewStore()
	s.Add("c", "Carol", 0)
	s.Add("a", "Alice", 0)
	s.Add("b", "Bob", 0)

	list := s.GetList()
	if len(list) != 3 {
		t.Fatalf("GetList returned %d players, want 3", len(list))
	}
	for i, want := range []string{"Carol", "Alice", "Bob"} {
		if list[i].Name != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, want)
		}
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Add("id1", "Alice", 0)
	s.Add("id2", "Bob", 0)

	if !s.Remove("id1") {
		t.Error("Remove should report an existing player")
	}
	if s.Get("id1") != nil {
		t.Error("removed player is still present")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
	if s.Remove("nonexistent") {
		t.Error("Remove should report false for nonexistent player")
	}
}

func TestStore_SetReady(t *testing.T) {
	s := NewStore()
	s.Add("id1", "Alice", 0)

	p := s.SetReady("id1", true)
	if p == nil {
		t.Fatal("SetReady returned nil for existing player")
	}
	if !p.Ready {
		t.Error("player should be ready")
	}
	if p = s.SetReady("id1", false); p.Ready {
		t.Error("player should no longer be ready")
	}
	if s.SetReady("nonexistent", true) != nil {
		t.Error("SetReady should return nil for nonexistent player")
	}
}

func TestStore_AllReady(t *testing.T) {
	s := NewStore()
	if s.AllReady() {
		t.Error("empty store is never ready")
	}

	s.Add("id1", "Alice", 0)
	s.Add("id2", "Bob", 0)
	if s.AllReady() {
		t.Error("AllReady with nobody ready")
	}

	s.SetReady("id1", true)
	if s.AllReady() {
		t.Error("AllReady with one of two ready")
	}

	s.SetReady("id2", true)
	if !s.AllReady() {
		t.Error("AllReady should be true once everyone is ready")
	}

	s.ResetReady()
	if s.AllReady() {
		t.Error("AllReady after ResetReady")
	}
}

func TestStore_AllSubmitted(t *testing.T) {
	s := NewStore()
	if s.AllSubmitted(0) {
		t.Error("empty store has never submitted")
	}

	a := s.Add("id1", "Alice", 0)
	b := s.Add("id2", "Bob", 0)
	if s.AllSubmitted(0) {
		t.Error("AllSubmitted with no scores")
	}

	a.RoundScores = append(a.RoundScores, 5)
	if s.AllSubmitted(0) {
		t.Error("AllSubmitted with one score missing")
	}

	b.RoundScores = append(b.RoundScores, 3)
	if !s.AllSubmitted(0) {
		t.Error("AllSubmitted(0) should be true")
	}
	if s.AllSubmitted(1) {
		t.Error("AllSubmitted(1) should be false")
	}
}

func TestStore_ResetAll(t *testing.T) {
	s := NewStore()
	a := s.Add("id1", "Alice", 0)
	b := s.Add("id2", "Bob", 1)
	a.RoundScores = append(a.RoundScores, 100)
	s.SetReady("id1", true)
	s.SetReady("id2", true)

	s.ResetAll()

	for _, p := range []*Player{a, b} {
		if len(p.RoundScores) != 0 {
			t.Errorf("%s scores = %v after reset", p.Name, p.RoundScores)
		}
		if p.Ready {
			t.Errorf("%s still ready after reset", p.Name)
		}
	}
	if s.Count() != 2 {
		t.Errorf("ResetAll should keep players, Count() = %d", s.Count())
	}
}

func TestStore_Scores(t *testing.T) {
	s := NewStore()
	a := s.Add("id1", "A", 0)
	s.Add("id2", "B", 0)
	a.RoundScores = []float64{5, 2}

	scores := s.Scores()
	if len(scores) != 2 || !slices.Equal(scores["A"], []float64{5, 2}) {
		t.Errorf("Scores() = %v", scores)
	}
	if b, ok := scores["B"]; !ok || b == nil || len(b) != 0 {
		t.Errorf("scores[B] = %v, want an empty non-nil slice", b)
	}

	scores["A"][0] = 99
	if a.RoundScores[0] != 5 {
		t.Error("Scores must return a copy")
	}
}

func TestPlayer_HasSubmittedAndTotal(t *testing.T) {
	p := &Player{RoundScores: []float64{1.5, 2.5}}
	if !p.HasSubmitted(1) {
		t.Error("HasSubmitted(1) should be true")
	}
	if p.HasSubmitted(2) {
		t.Error("HasSubmitted(2) should be false")
	}
	if p.Total() != 4 {
		t.Errorf("Total() = %v, want 4", p.Total())
	}
}
