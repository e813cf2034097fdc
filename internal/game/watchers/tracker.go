// Package watchers accumulates per-turn facts from game events so that
// conditions like "if you played a song this turn" can read them back.
package watchers

import (
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
)

// Tracker bundles the turn watchers behind a registry. It is reset at the
// end of every turn.
type Tracker struct {
	registry *rules.WatcherRegistry
	played   *CardsPlayedWatcher
	banished *BanishedWatcher
	drawn    *CardsDrawnWatcher
	lore     *LoreGainedWatcher
}

// NewTracker registers the standard turn watchers.
func NewTracker() *Tracker {
	t := &Tracker{
		registry: rules.NewWatcherRegistry(),
		played:   NewCardsPlayedWatcher(),
		banished: NewBanishedWatcher(),
		drawn:    NewCardsDrawnWatcher(),
		lore:     NewLoreGainedWatcher(),
	}
	t.registry.AddWatcher(t.played)
	t.registry.AddWatcher(t.banished)
	t.registry.AddWatcher(t.drawn)
	t.registry.AddWatcher(t.lore)
	return t
}

// Registry exposes the underlying registry for additional watchers.
func (t *Tracker) Registry() *rules.WatcherRegistry {
	return t.registry
}

// Watch feeds an event to every watcher.
func (t *Tracker) Watch(event rules.Event) {
	t.registry.NotifyWatchers(event)
}

// Reset clears every watcher.
func (t *Tracker) Reset() {
	t.registry.ResetWatchers()
}

// PlayedThisTurn counts cards a player played this turn matching type and subtype.
func (t *Tracker) PlayedThisTurn(playerID string, cardType state.CardType, subtype string) int {
	return t.played.GetCount(playerID, string(cardType), subtype)
}

// BanishedThisTurn counts an owner's cards banished this turn.
func (t *Tracker) BanishedThisTurn(ownerID string) int {
	return t.banished.GetAmountByOwner(ownerID)
}

// DrawnThisTurn counts cards a player drew this turn.
func (t *Tracker) DrawnThisTurn(playerID string) int {
	return t.drawn.GetCount(playerID)
}

// LoreGainedThisTurn returns the lore a player gained this turn.
func (t *Tracker) LoreGainedThisTurn(playerID string) int {
	return t.lore.GetAmount(playerID)
}
