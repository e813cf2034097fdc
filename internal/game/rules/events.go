package rules

import (
	"sort"
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Turn structure
	EventTurnStart    EventType = "TURN_START"
	EventTurnEnd      EventType = "TURN_END"
	EventPhaseChanged EventType = "PHASE_CHANGED"

	// Card movement
	EventZoneChange     EventType = "ZONE_CHANGE"
	EventCardDrawn      EventType = "CARD_DRAWN"
	EventCardInked      EventType = "CARD_INKED"
	EventCardPlayed     EventType = "CARD_PLAYED"
	EventCardShifted    EventType = "CARD_SHIFTED"
	EventDiscarded      EventType = "DISCARDED"
	EventBanished       EventType = "BANISHED"
	EventReturnedToHand EventType = "RETURNED_TO_HAND"
	EventMovedToLoc     EventType = "MOVED_TO_LOCATION"

	// Character actions
	EventQuested    EventType = "QUESTED"
	EventChallenges EventType = "CHALLENGES"
	EventChallenged EventType = "CHALLENGED"
	EventSongSung   EventType = "SONG_SUNG"
	EventReadied    EventType = "READIED"
	EventExerted    EventType = "EXERTED"
	EventActivated  EventType = "ABILITY_ACTIVATED"

	// Damage
	EventDamaged       EventType = "DAMAGED"
	EventDamageRemoved EventType = "DAMAGE_REMOVED"

	// Players
	EventLoreGained EventType = "LORE_GAINED"
	EventLoreLost   EventType = "LORE_LOST"
	EventPlayerLost EventType = "PLAYER_LOST"
	EventGameWon    EventType = "GAME_WON"
)

// Metadata keys carried by card events.
const (
	MetaCardType = "card_type"
	MetaSubtypes = "subtypes"
	MetaOwnerID  = "owner_id"
	MetaCardName = "card_name"
)

// IsZoneMove reports whether the event describes a card changing zones.
func (et EventType) IsZoneMove() bool {
	switch et {
	case EventZoneChange, EventCardDrawn, EventCardInked, EventDiscarded,
		EventBanished, EventReturnedToHand:
		return true
	}
	return false
}

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	ID          string            // Unique event ID
	TargetID    string            // Subject of the event (card or player)
	SourceID    string            // Card whose action or effect caused the event
	Controller  string            // Player controlling the source
	PlayerID    string            // Player the event happened to
	Amount      int               // Numeric value (damage, lore, cards)
	Flag        bool              // Boolean flag (e.g. damage dealt in a challenge)
	Data        string            // Additional string data
	FromZone    string            // Zone the subject left, for zone moves
	ToZone      string            // Zone the subject entered, for zone moves
	Targets     []string          // Multiple subjects
	Timestamp   time.Time         // When the event occurred
	Metadata    map[string]string // Additional metadata
	Description string            // Human-readable description
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
// It feeds observers (watchers, UIs, loggers); card abilities are matched by the trigger bus instead.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle, typed or not.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// Catch-all listeners run in subscription order, then typed listeners.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for h := range bus.listeners {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	all := make([]Listener, 0, len(handles))
	for _, h := range handles {
		all = append(all, bus.listeners[h])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, targetID, sourceID, controllerID string) Event {
	return Event{
		Type:       eventType,
		TargetID:   targetID,
		SourceID:   sourceID,
		Controller: controllerID,
		PlayerID:   controllerID,
		Timestamp:  time.Now(),
		Metadata:   make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, targetID, sourceID, controllerID string, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, controllerID)
	evt.Amount = amount
	return evt
}

// NewZoneEvent creates an event describing a card moving between zones.
func NewZoneEvent(eventType EventType, cardID, sourceID, playerID, from, to string) Event {
	evt := NewEvent(eventType, cardID, sourceID, playerID)
	evt.FromZone = from
	evt.ToZone = to
	return evt
}

// EventQueue is a FIFO of events raised while an action resolves.
// Events appended during resolution are processed after those already queued.
type EventQueue struct {
	items []Event
}

// Push appends an event to the back of the queue.
func (q *EventQueue) Push(evt Event) {
	q.items = append(q.items, evt)
}

// Next pops the oldest event.
func (q *EventQueue) Next() (Event, bool) {
	if len(q.items) == 0 {
		return Event{}, false
	}
	evt := q.items[0]
	q.items = q.items[1:]
	return evt, true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.items)
}

// Drop discards everything still queued and returns how many events were dropped.
func (q *EventQueue) Drop() int {
	n := len(q.items)
	q.items = nil
	return n
}
