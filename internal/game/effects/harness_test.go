package effects

import (
	"context"
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// harness wires an interpreter to a two-player game with scripted choices.
type harness struct {
	t      *testing.T
	gs     *state.GameState
	in     *Interpreter
	events *rules.EventQueue
	p1     *choice.ScriptedDecider
	p2     *choice.ScriptedDecider
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithLogger(t, zaptest.NewLogger(t))
}

func newHarnessWithLogger(t *testing.T, logger *zap.Logger) *harness {
	t.Helper()
	gs := state.NewGameState("g1", []string{"p1", "p2"}, 20, 3)
	gs.Turn = 2
	broker := choice.NewBroker(logger, nil)
	p1 := &choice.ScriptedDecider{Fallback: choice.BotDecider{}}
	p2 := &choice.ScriptedDecider{Fallback: choice.BotDecider{}}
	broker.SetDecider("p1", p1)
	broker.SetDecider("p2", p2)
	resolver := targeting.NewResolver(logger, broker)
	return &harness{
		t:      t,
		gs:     gs,
		in:     NewInterpreter(logger, resolver, nil),
		events: &rules.EventQueue{},
		p1:     p1,
		p2:     p2,
	}
}

func (h *harness) card(id, owner string, zone state.Zone, mods ...func(*state.CardInstance)) *state.CardInstance {
	h.t.Helper()
	c := &state.CardInstance{
		ID:        id,
		Name:      id,
		OwnerID:   owner,
		Type:      state.TypeCharacter,
		Cost:      3,
		Strength:  2,
		Willpower: 3,
		Lore:      1,
	}
	for _, mod := range mods {
		mod(c)
	}
	require.NoError(h.t, h.gs.AddCard(c, zone))
	return c
}

func (h *harness) ctx(sourceID string) *targeting.Context {
	ec := targeting.NewContext(h.gs, "p1", sourceID)
	ec.Events = h.events
	return ec
}

func (h *harness) run(sourceID string, raw map[string]any) (Result, *targeting.Context) {
	h.t.Helper()
	ec := h.ctx(sourceID)
	return h.in.Execute(context.Background(), effect(h.t, raw), ec), ec
}

func (h *harness) checksum() string {
	h.t.Helper()
	sum, err := h.gs.Snapshot().Checksum()
	require.NoError(h.t, err)
	return sum
}

// drain returns the types of every queued event and empties the queue.
func (h *harness) drain() []rules.EventType {
	var out []rules.EventType
	for {
		evt, ok := h.events.Next()
		if !ok {
			return out
		}
		out = append(out, evt.Type)
	}
}

func effect(t *testing.T, raw map[string]any) *ast.Effect {
	t.Helper()
	e, err := ast.DecodeEffect(raw)
	require.NoError(t, err)
	return e
}

func withDamage(n int) func(*state.CardInstance) {
	return func(c *state.CardInstance) { c.Damage = n }
}

func withKeyword(name string, n int) func(*state.CardInstance) {
	return func(c *state.CardInstance) {
		if c.Keywords == nil {
			c.Keywords = make(map[string]int)
		}
		c.Keywords[name] = n
	}
}

func asType(typ state.CardType) func(*state.CardInstance) {
	return func(c *state.CardInstance) { c.Type = typ }
}
