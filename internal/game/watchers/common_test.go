package watchers

import (
	"testing"
	"time"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
)

func playedEvent(cardID, playerID, cardType, subtypes string) rules.Event {
	evt := rules.NewEvent(rules.EventCardPlayed, cardID, cardID, playerID)
	evt.Metadata[rules.MetaCardType] = cardType
	evt.Metadata[rules.MetaSubtypes] = subtypes
	return evt
}

func TestCardsPlayedWatcher(t *testing.T) {
	watcher := NewCardsPlayedWatcher()

	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met initially")
	}

	watcher.Watch(playedEvent("song1", "player1", "action", "Song"))
	watcher.Watch(playedEvent("hero1", "player1", "character", "Hero,Storyborn"))
	watcher.Watch(playedEvent("hero2", "player2", "character", ""))

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after a card was played")
	}
	if got := watcher.GetCount("player1", "", ""); got != 2 {
		t.Fatalf("expected 2 cards played, got %d", got)
	}
	if got := watcher.GetCount("player1", "action", "song"); got != 1 {
		t.Fatalf("expected 1 song played, got %d", got)
	}
	if got := watcher.GetCount("player1", "character", "storyborn"); got != 1 {
		t.Fatalf("expected 1 storyborn character, got %d", got)
	}
	if got := watcher.GetPlayed("player2"); len(got) != 1 || got[0] != "hero2" {
		t.Fatalf("unexpected played list %v", got)
	}

	copied := watcher.Copy().(*CardsPlayedWatcher)
	watcher.Reset()
	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met after reset")
	}
	if got := watcher.GetCount("player1", "", ""); got != 0 {
		t.Fatalf("expected 0 cards after reset, got %d", got)
	}
	if got := copied.GetCount("player1", "", ""); got != 2 {
		t.Fatalf("copy should keep its state, got %d", got)
	}
}

func TestBanishedWatcher(t *testing.T) {
	watcher := NewBanishedWatcher()

	event := rules.Event{
		Type:       rules.EventBanished,
		TargetID:   "char1",
		SourceID:   "attacker",
		Controller: "player1",
		PlayerID:   "player2",
		Timestamp:  time.Now(),
		Metadata: map[string]string{
			rules.MetaOwnerID: "player2",
		},
	}
	watcher.Watch(event)
	watcher.Watch(rules.NewEvent(rules.EventQuested, "char2", "char2", "player1"))

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after a banish")
	}
	if got := watcher.GetAmountByOwner("player2"); got != 1 {
		t.Fatalf("expected 1 banished for owner, got %d", got)
	}
	if got := watcher.GetAmountBy("player1"); got != 1 {
		t.Fatalf("expected 1 banished by player1, got %d", got)
	}
	if got := watcher.GetTotalAmount(); got != 1 {
		t.Fatalf("expected total 1, got %d", got)
	}
}

func TestCardsDrawnAndLoreWatchers(t *testing.T) {
	drawn := NewCardsDrawnWatcher()
	lore := NewLoreGainedWatcher()

	for i := 0; i < 3; i++ {
		drawn.Watch(rules.NewEvent(rules.EventCardDrawn, "c", "", "player1"))
	}
	lore.Watch(rules.NewEventWithAmount(rules.EventLoreGained, "player1", "c", "player1", 2))
	lore.Watch(rules.NewEventWithAmount(rules.EventLoreGained, "player1", "c", "player1", 0))

	if got := drawn.GetCount("player1"); got != 3 {
		t.Fatalf("expected 3 draws, got %d", got)
	}
	if got := lore.GetAmount("player1"); got != 2 {
		t.Fatalf("expected 2 lore, got %d", got)
	}
	if lore.Copy().(*LoreGainedWatcher).GetAmount("player1") != 2 {
		t.Fatal("copy should carry lore totals")
	}
}

func TestTracker(t *testing.T) {
	tracker := NewTracker()
	tracker.Watch(playedEvent("song1", "p1", "action", "Song"))
	banish := rules.NewEvent(rules.EventBanished, "x", "y", "p1")
	banish.Metadata[rules.MetaOwnerID] = "p2"
	tracker.Watch(banish)
	tracker.Watch(rules.NewEvent(rules.EventCardDrawn, "d", "", "p2"))
	tracker.Watch(rules.NewEventWithAmount(rules.EventLoreGained, "p1", "q", "p1", 3))

	if got := tracker.PlayedThisTurn("p1", state.TypeAction, "song"); got != 1 {
		t.Fatalf("expected 1 song, got %d", got)
	}
	if got := tracker.BanishedThisTurn("p2"); got != 1 {
		t.Fatalf("expected 1 banished, got %d", got)
	}
	if tracker.DrawnThisTurn("p2") != 1 || tracker.LoreGainedThisTurn("p1") != 3 {
		t.Fatal("draw and lore totals not tracked")
	}
	if len(tracker.Registry().GetWatchersByScope(rules.WatcherScopeGame)) != 4 {
		t.Fatal("expected 4 game-scoped watchers")
	}

	tracker.Reset()
	if tracker.PlayedThisTurn("p1", "", "") != 0 || tracker.BanishedThisTurn("p2") != 0 {
		t.Fatal("tracker should be empty after reset")
	}
}
