package targeting

import (
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
)

// Well-known context variables.
const (
	VarEventAmount   = "event_amount"
	VarDamageRemoved = "damage_removed"
	VarDamageDealt   = "damage_dealt"
	VarCardsDrawn    = "cards_drawn"
	VarApplied       = "applied"
	DefaultBinding   = "it"
)

// TurnStats answers "this turn" questions. It is implemented by the
// watcher tracker.
type TurnStats interface {
	PlayedThisTurn(playerID string, cardType state.CardType, subtype string) int
	BanishedThisTurn(ownerID string) int
}

// Context is everything an ability resolution reads besides the state:
// who controls it, which card it comes from, the event that triggered it,
// and the loop and result bindings accumulated so far.
type Context struct {
	State    *state.GameState
	PlayerID string
	SourceID string
	Event    *rules.Event

	Bindings map[string]state.Ref
	Vars     map[string]int
	// Last holds the targets of the most recently resolved effect.
	Last []state.Ref

	Events *rules.EventQueue
	Stats  TurnStats
	// Static is set while re-deriving static abilities.
	Static bool
}

// NewContext creates a context for an ability controlled by playerID.
func NewContext(gs *state.GameState, playerID, sourceID string) *Context {
	return &Context{
		State:    gs,
		PlayerID: playerID,
		SourceID: sourceID,
		Bindings: make(map[string]state.Ref),
		Vars:     make(map[string]int),
	}
}

// Source returns the source card, if it still exists.
func (c *Context) Source() (*state.CardInstance, bool) {
	if c.State == nil || c.SourceID == "" {
		return nil, false
	}
	return c.State.Card(c.SourceID)
}

// Bind returns a child context with name bound to ref. The parent is unchanged.
func (c *Context) Bind(name string, ref state.Ref) *Context {
	if name == "" {
		name = DefaultBinding
	}
	child := *c
	child.Bindings = make(map[string]state.Ref, len(c.Bindings)+1)
	for k, v := range c.Bindings {
		child.Bindings[k] = v
	}
	child.Bindings[name] = ref
	child.Vars = make(map[string]int, len(c.Vars))
	for k, v := range c.Vars {
		child.Vars[k] = v
	}
	child.Last = []state.Ref{ref}
	return &child
}

// ForPlayer returns a child context that sees the board from playerID's
// side, for choices another player makes on the ability's behalf. Events
// raised through it reach the same queue.
func (c *Context) ForPlayer(playerID string) *Context {
	child := *c
	child.PlayerID = playerID
	child.Vars = make(map[string]int, len(c.Vars))
	for k, v := range c.Vars {
		child.Vars[k] = v
	}
	child.Last = nil
	return &child
}

// SetVar records a named value for later expressions.
func (c *Context) SetVar(name string, v int) {
	if c.Vars == nil {
		c.Vars = make(map[string]int)
	}
	c.Vars[name] = v
}

// Var reads a named value. event_amount falls back to the triggering event.
func (c *Context) Var(name string) (int, bool) {
	if v, ok := c.Vars[name]; ok {
		return v, true
	}
	if name == VarEventAmount && c.Event != nil {
		return c.Event.Amount, true
	}
	return 0, false
}

// Emit queues an event for the trigger bus.
func (c *Context) Emit(evt rules.Event) {
	if c.Events != nil {
		c.Events.Push(evt)
	}
}

// CardIDs returns the card ids among refs, in order.
func CardIDs(refs []state.Ref) []string {
	var ids []string
	for _, r := range refs {
		if r.Kind == state.RefCard {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// PlayerIDs returns the player ids among refs, in order.
func PlayerIDs(refs []state.Ref) []string {
	var ids []string
	for _, r := range refs {
		if r.Kind == state.RefPlayer {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
