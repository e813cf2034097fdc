// Package triggers matches queued game events against the triggered
// abilities of the cards on the board and resolves them in a fixed order.
package triggers

import (
	"context"
	"fmt"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/effects"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// DefaultMaxCascade bounds how many events one drain processes.
const DefaultMaxCascade = 100

// AbilitySource returns the compiled abilities of a card.
type AbilitySource interface {
	Abilities(card *state.CardInstance) []*ast.Ability
}

// Match is one triggered ability that responds to an event.
type Match struct {
	Card       *state.CardInstance
	Ability    *ast.Ability
	Index      int
	Controller string
}

// Bus resolves triggered abilities. It keeps no subscriptions: every event
// is matched against the current board when it is drained.
type Bus struct {
	logger     *zap.Logger
	abilities  AbilitySource
	interp     *effects.Interpreter
	observers  *rules.EventBus
	stats      targeting.TurnStats
	maxCascade int
	oneShot    map[abilityKey]bool
}

// NewBus creates a trigger bus.
func NewBus(logger *zap.Logger, abilities AbilitySource, interp *effects.Interpreter) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:     logger,
		abilities:  abilities,
		interp:     interp,
		observers:  rules.NewEventBus(),
		maxCascade: DefaultMaxCascade,
	}
}

// SetMaxCascade changes the drain limit. Values below one are ignored.
func (b *Bus) SetMaxCascade(n int) {
	if n > 0 {
		b.maxCascade = n
	}
}

// SetStats attaches the turn statistics conditions read.
func (b *Bus) SetStats(stats targeting.TurnStats) {
	b.stats = stats
}

// Observers is published every drained event before abilities are matched.
func (b *Bus) Observers() *rules.EventBus {
	return b.observers
}

// Drain processes queued events in FIFO order until the queue is empty or
// the cascade limit is hit. Once the game is over events only reach observers. Events raised while resolving
// are appended to the same queue. It returns the number of events processed.
func (b *Bus) Drain(ctx context.Context, gs *state.GameState, queue *rules.EventQueue) int {
	processed := 0
	b.RefreshStatics(ctx, gs)
	for {
		evt, ok := queue.Next()
		if !ok {
			return processed
		}
		if processed >= b.maxCascade {
			dropped := queue.Drop() + 1
			b.logger.Warn("trigger cascade hit iteration limit",
				zap.Int("iterations", b.maxCascade),
				zap.Int("dropped_events", dropped),
			)
			return processed
		}
		processed++
		b.observers.Publish(evt)
		if gs.Over {
			continue
		}
		for _, m := range b.Matches(ctx, gs, evt) {
			if gs.Over {
				break
			}
			b.resolve(ctx, gs, m, evt, queue)
			ec := targeting.NewContext(gs, gs.ActivePlayer, "")
			ec.Events = queue
			b.interp.SweepBanished(ec)
			b.RefreshStatics(ctx, gs)
		}
	}
}

// Matches returns the abilities responding to evt in resolution order:
// the active player's first, then the other players in turn order; within
// a player by board order, then by ability index.
func (b *Bus) Matches(ctx context.Context, gs *state.GameState, evt rules.Event) []Match {
	var out []Match
	for _, pid := range gs.PlayersFrom(gs.ActivePlayer) {
		for _, card := range b.candidates(gs, pid, evt) {
			for i, ab := range b.abilities.Abilities(card) {
				if ab == nil || ab.Kind != ast.AbilityTriggered || ab.Trigger == nil {
					continue
				}
				if !b.listening(card, ab, evt) {
					continue
				}
				m := Match{Card: card, Ability: ab, Index: i, Controller: card.OwnerID}
				if !b.matches(ctx, gs, m, evt) {
					continue
				}
				out = append(out, m)
			}
		}
	}
	return out
}

// candidates lists a player's cards that may respond: cards in play in
// board order, the event's subject if it just left play, then cards in
// other zones. Action cards never trigger.
func (b *Bus) candidates(gs *state.GameState, playerID string, evt rules.Event) []*state.CardInstance {
	seen := make(map[string]bool)
	var out []*state.CardInstance
	add := func(c *state.CardInstance) {
		if c == nil || seen[c.ID] || c.Type == state.TypeAction {
			return
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	for _, c := range targeting.OrderedZone(gs, playerID, state.ZonePlay) {
		add(c)
	}
	if subject, ok := gs.Card(evt.TargetID); ok && subject.OwnerID == playerID {
		add(subject)
	}
	for _, z := range []state.Zone{state.ZoneHand, state.ZoneDiscard, state.ZoneInkwell} {
		for _, c := range gs.CardsInZone(playerID, z) {
			add(c)
		}
	}
	return out
}

// listening reports whether the ability is active in the zone its card is
// in. A card that the event itself moved out of play still answers its own
// self-subject abilities.
func (b *Bus) listening(card *state.CardInstance, ab *ast.Ability, evt rules.Event) bool {
	if ab.Trigger.MonitorsZone(string(card.Zone)) {
		return true
	}
	return card.ID == evt.TargetID &&
		ab.Trigger.Subject == ast.SubjectSelf &&
		evt.FromZone != "" &&
		ab.Trigger.MonitorsZone(evt.FromZone)
}

func (b *Bus) matches(ctx context.Context, gs *state.GameState, m Match, evt rules.Event) bool {
	t := m.Ability.Trigger
	if t.Event != evt.Type {
		return false
	}
	if !subjectMatches(gs, t.Subject, m.Card, evt) {
		return false
	}
	ec := b.contextFor(gs, m, evt, nil)
	if t.Filter != nil {
		subject, ok := gs.Card(evt.TargetID)
		if !ok || !targeting.Matches(ec, subject, t.Filter) {
			return false
		}
	}
	if m.Ability.Condition != nil && !b.interp.Evaluator().Check(ctx, m.Ability.Condition, ec) {
		return false
	}
	return true
}

func subjectMatches(gs *state.GameState, subject ast.Subject, card *state.CardInstance, evt rules.Event) bool {
	owner := card.OwnerID
	switch subject {
	case ast.SubjectSelf, "":
		return evt.TargetID == card.ID
	case ast.SubjectYou:
		return evt.PlayerID == owner
	case ast.SubjectOpponent:
		return evt.PlayerID != "" && evt.PlayerID != owner
	case ast.SubjectAny:
		return true
	}

	subjectOwner, subjectType := evt.Metadata[rules.MetaOwnerID], evt.Metadata[rules.MetaCardType]
	if c, ok := gs.Card(evt.TargetID); ok {
		if subjectOwner == "" {
			subjectOwner = c.OwnerID
		}
		if subjectType == "" {
			subjectType = string(c.Type)
		}
	}
	if subjectType != string(state.TypeCharacter) {
		return false
	}
	switch subject {
	case ast.SubjectYourCharacter:
		return subjectOwner == owner
	case ast.SubjectYourOther:
		return subjectOwner == owner && evt.TargetID != card.ID
	case ast.SubjectOpposingCharacter:
		return subjectOwner != owner
	case ast.SubjectAnyCharacter:
		return true
	}
	return false
}

func (b *Bus) contextFor(gs *state.GameState, m Match, evt rules.Event, queue *rules.EventQueue) *targeting.Context {
	ec := targeting.NewContext(gs, m.Controller, m.Card.ID)
	ec.Event = &evt
	ec.Events = queue
	ec.Stats = b.stats
	return ec
}

func (b *Bus) resolve(ctx context.Context, gs *state.GameState, m Match, evt rules.Event, queue *rules.EventQueue) {
	ec := b.contextFor(gs, m, evt, queue)
	if m.Ability.Optional {
		prompt := fmt.Sprintf("Use %s?", abilityLabel(m))
		if !b.interp.Resolver().Broker().Confirm(ctx, gs, m.Controller, m.Card.ID, prompt) {
			b.logger.Debug("optional trigger declined",
				zap.String("card_id", m.Card.ID),
				zap.String("ability", abilityLabel(m)),
			)
			return
		}
	}
	res := b.interp.Execute(ctx, m.Ability.Effect, ec)
	gs.Log(m.Controller, "trigger", 1, res.Applied, m.Card.ID, abilityLabel(m))
	b.logger.Debug("triggered ability resolved",
		zap.String("card_id", m.Card.ID),
		zap.String("ability", abilityLabel(m)),
		zap.String("event", string(evt.Type)),
		zap.Int("applied", res.Applied),
	)
}

func abilityLabel(m Match) string {
	switch {
	case m.Ability.Name != "":
		return m.Ability.Name
	case m.Ability.ID != "":
		return m.Ability.ID
	}
	return fmt.Sprintf("%s#%d", m.Card.Name, m.Index)
}
