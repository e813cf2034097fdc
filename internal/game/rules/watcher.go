package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WatcherScope defines the scope of a watcher's tracking.
type WatcherScope int

const (
	// WatcherScopeGame tracks events for the entire game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopePlayer tracks events for a specific player.
	WatcherScopePlayer
	// WatcherScopeCard tracks events for a specific card.
	WatcherScopeCard
)

func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopePlayer:
		return "PLAYER"
	case WatcherScopeCard:
		return "CARD"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes game events and accumulates per-turn facts
// that conditions such as "if you played a song this turn" read back.
type Watcher interface {
	// Watch is called for every published event.
	Watch(event Event)
	// Reset clears the tracked state, typically at end of turn.
	Reset()
	// ConditionMet returns true once the tracked condition has happened.
	ConditionMet() bool
	GetScope() WatcherScope
	// GetKey returns a unique key for this watcher instance.
	GetKey() string
}

// BaseWatcher provides the bookkeeping shared by all watchers.
type BaseWatcher struct {
	scope        WatcherScope
	controllerID string
	sourceID     string
	condition    bool
	key          string
}

// NewBaseWatcher creates a new base watcher with the specified scope.
func NewBaseWatcher(scope WatcherScope) *BaseWatcher {
	return &BaseWatcher{scope: scope}
}

func (bw *BaseWatcher) GetScope() WatcherScope { return bw.scope }

func (bw *BaseWatcher) SetControllerID(id string) { bw.controllerID = id }

func (bw *BaseWatcher) GetControllerID() string { return bw.controllerID }

func (bw *BaseWatcher) SetSourceID(id string) { bw.sourceID = id }

func (bw *BaseWatcher) GetSourceID() string { return bw.sourceID }

func (bw *BaseWatcher) ConditionMet() bool { return bw.condition }

func (bw *BaseWatcher) SetCondition(condition bool) { bw.condition = condition }

// Reset clears the condition.
func (bw *BaseWatcher) Reset() { bw.condition = false }

func (bw *BaseWatcher) GetKey() string { return bw.key }

func (bw *BaseWatcher) SetKey(key string) { bw.key = key }

// WatcherRegistry manages the watchers of one game.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{watchers: make(map[string]Watcher)}
}

// AddWatcher adds a watcher, generating a key from its scope and type when it has none.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}
	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.GetKey()
	if key == "" {
		key = generateKey(watcher)
		if setter, ok := watcher.(interface{ SetKey(string) }); ok {
			setter.SetKey(key)
		}
	}
	wr.watchers[key] = watcher
}

// RemoveWatcher removes a watcher from the registry.
func (wr *WatcherRegistry) RemoveWatcher(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	delete(wr.watchers, key)
}

// GetWatcher retrieves a watcher by key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// GetWatchersByScope returns all watchers for a given scope, ordered by key.
func (wr *WatcherRegistry) GetWatchersByScope(scope WatcherScope) []Watcher {
	var result []Watcher
	for _, w := range wr.ordered() {
		if w.GetScope() == scope {
			result = append(result, w)
		}
	}
	return result
}

// ResetWatchers resets all watchers.
func (wr *WatcherRegistry) ResetWatchers() {
	for _, w := range wr.ordered() {
		w.Reset()
	}
}

// NotifyWatchers notifies all watchers of an event in key order.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	for _, w := range wr.ordered() {
		w.Watch(event)
	}
}

func (wr *WatcherRegistry) ordered() []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	keys := make([]string, 0, len(wr.watchers))
	for k := range wr.watchers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]Watcher, 0, len(keys))
	for _, k := range keys {
		result = append(result, wr.watchers[k])
	}
	return result
}

func generateKey(watcher Watcher) string {
	typeName := strings.TrimPrefix(fmt.Sprintf("%T", watcher), "*")
	switch watcher.GetScope() {
	case WatcherScopePlayer:
		if getter, ok := watcher.(interface{ GetControllerID() string }); ok && getter.GetControllerID() != "" {
			return getter.GetControllerID() + "_" + typeName
		}
	case WatcherScopeCard:
		if getter, ok := watcher.(interface{ GetSourceID() string }); ok && getter.GetSourceID() != "" {
			return getter.GetSourceID() + "_" + typeName
		}
	}
	return typeName
}
