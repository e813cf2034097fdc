package rules

import (
	"testing"
)

// songWatcher flags when any song is sung.
type songWatcher struct {
	*BaseWatcher
}

func (w *songWatcher) Watch(event Event) {
	if event.Type == EventSongSung {
		w.SetCondition(true)
	}
}

func TestWatcherRegistry(t *testing.T) {
	registry := NewWatcherRegistry()

	w := &songWatcher{BaseWatcher: NewBaseWatcher(WatcherScopeGame)}
	w.SetKey("SongWatcher")
	registry.AddWatcher(w)

	if registry.GetWatcher("SongWatcher") == nil {
		t.Fatal("should retrieve SongWatcher")
	}
	if got := len(registry.GetWatchersByScope(WatcherScopeGame)); got != 1 {
		t.Fatalf("expected 1 game watcher, got %d", got)
	}

	registry.NotifyWatchers(NewEvent(EventQuested, "c1", "c1", "p1"))
	if w.ConditionMet() {
		t.Fatal("quest must not satisfy the song watcher")
	}

	registry.NotifyWatchers(NewEvent(EventSongSung, "song1", "singer1", "p1"))
	if !w.ConditionMet() {
		t.Fatal("watcher should have condition met")
	}

	registry.ResetWatchers()
	if w.ConditionMet() {
		t.Fatal("watcher should not have condition met after reset")
	}

	registry.RemoveWatcher("SongWatcher")
	if registry.GetWatcher("SongWatcher") != nil {
		t.Fatal("watcher should be removed")
	}
}

func TestWatcherRegistryGeneratesKeys(t *testing.T) {
	registry := NewWatcherRegistry()

	w := &songWatcher{BaseWatcher: NewBaseWatcher(WatcherScopePlayer)}
	w.SetControllerID("p1")
	registry.AddWatcher(w)

	if w.GetKey() != "p1_rules.songWatcher" {
		t.Fatalf("unexpected generated key %q", w.GetKey())
	}
	if registry.GetWatcher(w.GetKey()) == nil {
		t.Fatal("watcher should be stored under its generated key")
	}
}

func TestWatcherScope(t *testing.T) {
	if WatcherScopeGame.String() != "GAME" {
		t.Fatalf("expected GAME, got %s", WatcherScopeGame.String())
	}
	if WatcherScopePlayer.String() != "PLAYER" {
		t.Fatalf("expected PLAYER, got %s", WatcherScopePlayer.String())
	}
	if WatcherScopeCard.String() != "CARD" {
		t.Fatalf("expected CARD, got %s", WatcherScopeCard.String())
	}
}

func TestBaseWatcher(t *testing.T) {
	bw := NewBaseWatcher(WatcherScopeCard)
	bw.SetSourceID("card1")
	bw.SetCondition(true)
	if !bw.ConditionMet() {
		t.Fatal("should have condition met after SetCondition")
	}
	bw.Reset()
	if bw.ConditionMet() {
		t.Fatal("should not have condition met after reset")
	}
	if bw.GetSourceID() != "card1" {
		t.Fatalf("expected card1, got %s", bw.GetSourceID())
	}
}
