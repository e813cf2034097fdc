package effects

import (
	"context"
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSequenceRunsEveryChild(t *testing.T) {
	h := newHarness(t)
	h.card("hero", "p1", state.ZonePlay)
	h.card("d1", "p1", state.ZoneDeck)

	res, _ := h.run("hero", map[string]any{
		"type": "sequence",
		"effects": []any{
			map[string]any{"type": "opponent_choice_discard"},
			map[string]any{"type": "draw", "amount": 1},
			map[string]any{"type": "gain_lore", "amount": 2},
		},
	})

	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, []string{"d1"}, h.gs.Players["p1"].Hand)
	assert.Equal(t, 2, h.gs.Players["p1"].Lore)
}

func TestConditionalBranches(t *testing.T) {
	raw := map[string]any{
		"type":      "conditional",
		"condition": map[string]any{"type": "lore", "player": "you", "compare": ">=3"},
		"then":      map[string]any{"type": "gain_lore", "amount": 5},
		"else":      map[string]any{"type": "gain_lore", "amount": 1},
	}

	h := newHarness(t)
	h.card("hero", "p1", state.ZonePlay)
	h.run("hero", raw)
	assert.Equal(t, 1, h.gs.Players["p1"].Lore)
	h.run("hero", raw)
	h.run("hero", raw)
	assert.Equal(t, 3, h.gs.Players["p1"].Lore)
	h.run("hero", raw)
	assert.Equal(t, 8, h.gs.Players["p1"].Lore)

	res, _ := h.run("hero", map[string]any{
		"type":      "conditional",
		"condition": "self_is_exerted",
		"then":      map[string]any{"type": "gain_lore"},
	})
	assert.Equal(t, 0, res.Applied, "missing else is a no-op")
}

func TestForEachBindsEachTarget(t *testing.T) {
	h := newHarness(t)
	h.card("hero", "p1", state.ZonePlay)
	h.card("pal", "p1", state.ZonePlay)
	h.card("foe", "p2", state.ZonePlay)

	res, _ := h.run("hero", map[string]any{
		"type":   "for_each",
		"target": "your_characters",
		"effect": map[string]any{"type": "exert", "target": map[string]any{"type": "bound"}},
	})

	assert.Equal(t, 2, res.Applied)
	assert.True(t, h.gs.Cards["hero"].Exerted)
	assert.True(t, h.gs.Cards["pal"].Exerted)
	assert.False(t, h.gs.Cards["foe"].Exerted)
}

func TestModalRunsOnlyChosenBranch(t *testing.T) {
	h := newHarness(t)
	h.card("hero", "p1", state.ZonePlay)
	h.card("d1", "p1", state.ZoneDeck)
	raw := map[string]any{
		"type": "choose_one",
		"modes": []any{
			map[string]any{"label": "Draw a card", "effect": map[string]any{"type": "draw"}},
			map[string]any{"label": "Gain 2 lore", "effect": map[string]any{"type": "gain_lore", "amount": 2}},
		},
	}

	h.p1.Push("1")
	h.run("hero", raw)
	assert.Equal(t, 2, h.gs.Players["p1"].Lore)
	assert.Empty(t, h.gs.Players["p1"].Hand)

	reqs := h.p1.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"0", "1"}, reqs[0].OptionIDs())
	assert.Equal(t, "Gain 2 lore", reqs[0].Options[1].Label)

	h.p1.Push()
	res, _ := h.run("hero", raw)
	assert.Equal(t, 0, res.Applied, "declining a modal does nothing")
}

func TestOptionalAsksFirst(t *testing.T) {
	h := newHarness(t)
	h.card("hero", "p1", state.ZonePlay)
	raw := map[string]any{"type": "may", "effect": map[string]any{"type": "gain_lore"}}

	h.p1.PushYesNo(false)
	h.run("hero", raw)
	assert.Equal(t, 0, h.gs.Players["p1"].Lore)

	h.p1.PushYesNo(true)
	h.run("hero", raw)
	assert.Equal(t, 1, h.gs.Players["p1"].Lore)
}

func TestRepeatAndCascade(t *testing.T) {
	h := newHarness(t)
	h.card("hero", "p1", state.ZonePlay)
	h.card("d1", "p1", state.ZoneDeck)

	res, _ := h.run("hero", map[string]any{
		"type":   "repeat",
		"amount": 3,
		"effect": map[string]any{"type": "gain_lore"},
	})
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 3, h.gs.Players["p1"].Lore)

	res, _ = h.run("hero", map[string]any{
		"type": "cascade",
		"effects": []any{
			map[string]any{"type": "discard"},
			map[string]any{"type": "draw"},
		},
	})
	assert.Equal(t, 0, res.Applied)
	assert.Empty(t, h.gs.Players["p1"].Hand, "cascade stops after a step that did nothing")
}

func TestUnknownEffectIsNoop(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newHarnessWithLogger(t, zap.New(core))
	h.card("hero", "p1", state.ZonePlay)
	before := h.checksum()

	res := h.in.Execute(context.Background(), &ast.Effect{Type: "summon_dragon"}, h.ctx("hero"))

	assert.Equal(t, Result{}, res)
	assert.Equal(t, before, h.checksum())
	assert.Equal(t, 1, logs.FilterMessage("unknown effect type").Len())
}

func TestPanickingHandlerIsContained(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newHarnessWithLogger(t, zap.New(core))
	h.card("hero", "p1", state.ZonePlay)
	h.in.RegisterHandler("explode", func(context.Context, *ast.Effect, *targeting.Context) Result {
		panic("boom")
	})

	seq := &ast.Effect{Type: ast.EffectSequence, Effects: []*ast.Effect{
		{Type: "explode"},
		{Type: ast.EffectGainLore, Amount: ast.Const(1)},
	}}
	var res Result
	require.NotPanics(t, func() { res = h.in.Execute(context.Background(), seq, h.ctx("hero")) })

	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, h.gs.Players["p1"].Lore, "later steps still run")
	assert.Equal(t, 1, logs.FilterMessage("effect handler panicked").Len())
}

type fixedFamily struct{ calls *int }

func (f fixedFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectDraw: func(context.Context, *ast.Effect, *targeting.Context) Result {
			*f.calls++
			return Result{Applied: 7}
		},
	}
}

func TestRegisterReplacesHandlers(t *testing.T) {
	h := newHarness(t)
	calls := 0
	h.in.Register(fixedFamily{calls: &calls})

	res, ec := h.run("", map[string]any{"type": "draw"})

	assert.Equal(t, 7, res.Applied)
	assert.Equal(t, 1, calls)
	applied, _ := ec.Var(targeting.VarApplied)
	assert.Equal(t, 7, applied)
}
