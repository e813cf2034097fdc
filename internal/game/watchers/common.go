package watchers

import (
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
)

// playedCard is one card played this turn.
type playedCard struct {
	id       string
	cardType string
	subtypes []string
}

// CardsPlayedWatcher tracks cards played by players.
type CardsPlayedWatcher struct {
	*rules.BaseWatcher
	played map[string][]playedCard // playerID -> cards played
}

// NewCardsPlayedWatcher creates a new cards played watcher.
func NewCardsPlayedWatcher() *CardsPlayedWatcher {
	w := &CardsPlayedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		played:      make(map[string][]playedCard),
	}
	w.SetKey("CardsPlayedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *CardsPlayedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardPlayed {
		return
	}
	playerID := event.PlayerID
	if playerID == "" {
		playerID = event.Controller
	}
	if playerID == "" || event.TargetID == "" {
		return
	}
	pc := playedCard{id: event.TargetID, cardType: event.Metadata[rules.MetaCardType]}
	if raw := event.Metadata[rules.MetaSubtypes]; raw != "" {
		pc.subtypes = strings.Split(raw, ",")
	}
	w.played[playerID] = append(w.played[playerID], pc)
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *CardsPlayedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.played = make(map[string][]playedCard)
}

// GetCount returns how many cards a player played that match the type and
// subtype. Empty values match anything.
func (w *CardsPlayedWatcher) GetCount(playerID, cardType, subtype string) int {
	n := 0
	for _, pc := range w.played[playerID] {
		if cardType != "" && !strings.EqualFold(pc.cardType, cardType) {
			continue
		}
		if subtype != "" && !containsFold(pc.subtypes, subtype) {
			continue
		}
		n++
	}
	return n
}

// GetPlayed returns the ids of cards a player played.
func (w *CardsPlayedWatcher) GetPlayed(playerID string) []string {
	ids := make([]string, 0, len(w.played[playerID]))
	for _, pc := range w.played[playerID] {
		ids = append(ids, pc.id)
	}
	return ids
}

// Copy creates a copy of this watcher.
func (w *CardsPlayedWatcher) Copy() rules.Watcher {
	copy := NewCardsPlayedWatcher()
	copy.SetControllerID(w.GetControllerID())
	copy.SetSourceID(w.GetSourceID())
	copy.SetCondition(w.ConditionMet())
	for k, v := range w.played {
		cards := make([]playedCard, len(v))
		for i, pc := range v {
			cards[i] = playedCard{id: pc.id, cardType: pc.cardType, subtypes: append([]string(nil), pc.subtypes...)}
		}
		copy.played[k] = cards
	}
	return copy
}

// BanishedWatcher tracks cards banished from play.
type BanishedWatcher struct {
	*rules.BaseWatcher
	banishedByOwner map[string]int // ownerID -> count
	banishedBy      map[string]int // player whose effect or challenge banished -> count
}

// NewBanishedWatcher creates a new banished watcher.
func NewBanishedWatcher() *BanishedWatcher {
	w := &BanishedWatcher{
		BaseWatcher:     rules.NewBaseWatcher(rules.WatcherScopeGame),
		banishedByOwner: make(map[string]int),
		banishedBy:      make(map[string]int),
	}
	w.SetKey("BanishedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *BanishedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventBanished {
		return
	}
	ownerID := event.Metadata[rules.MetaOwnerID]
	if ownerID == "" {
		ownerID = event.PlayerID
	}
	if ownerID != "" {
		w.banishedByOwner[ownerID]++
	}
	if event.Controller != "" {
		w.banishedBy[event.Controller]++
	}
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *BanishedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.banishedByOwner = make(map[string]int)
	w.banishedBy = make(map[string]int)
}

// GetAmountByOwner returns how many of an owner's cards were banished.
func (w *BanishedWatcher) GetAmountByOwner(ownerID string) int {
	return w.banishedByOwner[ownerID]
}

// GetAmountBy returns how many cards a player's actions and effects banished.
func (w *BanishedWatcher) GetAmountBy(playerID string) int {
	return w.banishedBy[playerID]
}

// GetTotalAmount returns the total number of banished cards.
func (w *BanishedWatcher) GetTotalAmount() int {
	total := 0
	for _, count := range w.banishedByOwner {
		total += count
	}
	return total
}

// Copy creates a copy of this watcher.
func (w *BanishedWatcher) Copy() rules.Watcher {
	copy := NewBanishedWatcher()
	copy.SetControllerID(w.GetControllerID())
	copy.SetSourceID(w.GetSourceID())
	copy.SetCondition(w.ConditionMet())
	for k, v := range w.banishedByOwner {
		copy.banishedByOwner[k] = v
	}
	for k, v := range w.banishedBy {
		copy.banishedBy[k] = v
	}
	return copy
}

// CardsDrawnWatcher tracks cards drawn by players.
type CardsDrawnWatcher struct {
	*rules.BaseWatcher
	cardsDrawn map[string]int // playerID -> count
}

// NewCardsDrawnWatcher creates a new cards drawn watcher.
func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	w := &CardsDrawnWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		cardsDrawn:  make(map[string]int),
	}
	w.SetKey("CardsDrawnWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardDrawn {
		return
	}
	playerID := event.PlayerID
	if playerID == "" {
		playerID = event.Controller
	}
	if playerID == "" {
		return
	}
	w.cardsDrawn[playerID]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *CardsDrawnWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.cardsDrawn = make(map[string]int)
}

// GetCount returns the number of cards drawn by a player.
func (w *CardsDrawnWatcher) GetCount(playerID string) int {
	return w.cardsDrawn[playerID]
}

// Copy creates a copy of this watcher.
func (w *CardsDrawnWatcher) Copy() rules.Watcher {
	copy := NewCardsDrawnWatcher()
	copy.SetControllerID(w.GetControllerID())
	copy.SetSourceID(w.GetSourceID())
	copy.SetCondition(w.ConditionMet())
	for k, v := range w.cardsDrawn {
		copy.cardsDrawn[k] = v
	}
	return copy
}

// LoreGainedWatcher tracks lore gained by players.
type LoreGainedWatcher struct {
	*rules.BaseWatcher
	loreGained map[string]int // playerID -> lore
}

// NewLoreGainedWatcher creates a new lore gained watcher.
func NewLoreGainedWatcher() *LoreGainedWatcher {
	w := &LoreGainedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		loreGained:  make(map[string]int),
	}
	w.SetKey("LoreGainedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *LoreGainedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventLoreGained || event.Amount <= 0 {
		return
	}
	if event.PlayerID == "" {
		return
	}
	w.loreGained[event.PlayerID] += event.Amount
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *LoreGainedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.loreGained = make(map[string]int)
}

// GetAmount returns the lore a player gained.
func (w *LoreGainedWatcher) GetAmount(playerID string) int {
	return w.loreGained[playerID]
}

// Copy creates a copy of this watcher.
func (w *LoreGainedWatcher) Copy() rules.Watcher {
	copy := NewLoreGainedWatcher()
	copy.SetControllerID(w.GetControllerID())
	copy.SetSourceID(w.GetSourceID())
	copy.SetCondition(w.ConditionMet())
	for k, v := range w.loreGained {
		copy.loreGained[k] = v
	}
	return copy
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
