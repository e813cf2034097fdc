package targeting

import (
	"context"
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newBoard(t *testing.T) *state.GameState {
	t.Helper()
	gs := state.NewGameState("g1", []string{"p1", "p2"}, 20, 7)
	gs.Turn = 3
	return gs
}

func addCard(t *testing.T, gs *state.GameState, id, owner string, typ state.CardType, zone state.Zone, opts ...func(*state.CardInstance)) *state.CardInstance {
	t.Helper()
	c := &state.CardInstance{
		ID:        id,
		Name:      id,
		OwnerID:   owner,
		Type:      typ,
		Cost:      2,
		Strength:  2,
		Willpower: 3,
		Lore:      1,
	}
	for _, opt := range opts {
		opt(c)
	}
	require.NoError(t, gs.AddCard(c, zone))
	return c
}

func target(t *testing.T, raw any) *ast.Target {
	t.Helper()
	tg, err := ast.DecodeTarget(raw)
	require.NoError(t, err)
	return tg
}

func ids(refs []state.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

func TestResolveAllUsesBoardOrder(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "a1", "p1", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "b1", "p2", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "a2", "p1", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "b2", "p2", state.TypeItem, state.ZonePlay)
	gs.ActivePlayer = "p2"

	r := NewResolver(zaptest.NewLogger(t), nil)
	ec := NewContext(gs, "p1", "a1")

	refs, err := r.Resolve(context.Background(), target(t, "all_characters"), ec)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "a1", "a2"}, ids(refs), "active player's cards first, then play order")

	again, _ := r.Resolve(context.Background(), target(t, "all_characters"), ec)
	assert.Equal(t, refs, again, "resolution is deterministic")

	refs, _ = r.Resolve(context.Background(), target(t, "your_other_characters"), ec)
	assert.Equal(t, []string{"a2"}, ids(refs))

	refs, _ = r.Resolve(context.Background(), target(t, "all_opposing_damaged_characters"), ec)
	assert.Empty(t, refs)
}

func TestResolveFilters(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "big", "p2", state.TypeCharacter, state.ZonePlay, func(c *state.CardInstance) { c.Cost = 5 })
	addCard(t, gs, "small", "p2", state.TypeCharacter, state.ZonePlay, func(c *state.CardInstance) {
		c.Exerted = true
		c.Damage = 1
		c.Subtypes = []string{"Hero"}
	})
	addCard(t, gs, "disc", "p1", state.TypeCharacter, state.ZoneDiscard)
	r := NewResolver(zaptest.NewLogger(t), nil)
	ec := NewContext(gs, "p1", "")

	refs, _ := r.Resolve(context.Background(), target(t, map[string]any{
		"type":   "all",
		"filter": map[string]any{"cost": "<=3", "subtypes": "hero"},
	}), ec)
	assert.Equal(t, []string{"small"}, ids(refs))

	refs, _ = r.Resolve(context.Background(), target(t, "all_opposing_exerted_characters"), ec)
	assert.Equal(t, []string{"small"}, ids(refs))

	gs.AddEffect(&state.ActiveEffect{TargetID: "big", Kind: state.KindStatModifier, Stat: state.StatStrength, Value: 3, Duration: state.DurationEndOfTurn})
	refs, _ = r.Resolve(context.Background(), target(t, map[string]any{
		"type":   "all",
		"filter": map[string]any{"strength": ">=4"},
	}), ec)
	assert.Equal(t, []string{"big"}, ids(refs), "filters read effective stats")

	refs, _ = r.Resolve(context.Background(), target(t, "your_discard"), ec)
	assert.Equal(t, []string{"disc"}, ids(refs))
}

func TestResolveChosen(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "mine", "p1", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "theirs", "p2", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "warded", "p2", state.TypeCharacter, state.ZonePlay, func(c *state.CardInstance) {
		c.Keywords = map[string]int{state.KeywordWard: 0}
	})

	broker := choice.NewBroker(zaptest.NewLogger(t), nil)
	script := choice.NewScriptedDecider().Push("theirs")
	broker.SetDecider("p1", script)
	r := NewResolver(zaptest.NewLogger(t), broker)
	ec := NewContext(gs, "p1", "mine")

	refs, err := r.Resolve(context.Background(), target(t, "chosen_character"), ec)
	require.NoError(t, err)
	assert.Equal(t, []string{"theirs"}, ids(refs))

	reqs := script.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"mine", "theirs"}, reqs[0].OptionIDs(), "ward hides opposing cards")
	assert.Equal(t, 1, reqs[0].Min)
	assert.Equal(t, "Choose a character", reqs[0].Prompt)

	// The owner of a warded card may still choose it.
	ec2 := NewContext(gs, "p2", "")
	cands := r.Candidates(target(t, "chosen_character"), ec2)
	assert.Contains(t, ids(cands), "warded")

	// An exhausted script declines, which is an empty result.
	refs, err = r.Resolve(context.Background(), target(t, "chosen_opposing_character"), ec)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestResolveChosenCounts(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "only", "p2", state.TypeCharacter, state.ZonePlay)

	broker := choice.NewBroker(zaptest.NewLogger(t), nil)
	script := choice.NewScriptedDecider().Push("only").Push()
	broker.SetDecider("p1", script)
	r := NewResolver(zaptest.NewLogger(t), broker)
	ec := NewContext(gs, "p1", "")

	refs, _ := r.Resolve(context.Background(), target(t, map[string]any{"type": "chosen_opposing_character", "count": 2}), ec)
	assert.Equal(t, []string{"only"}, ids(refs))
	assert.Equal(t, 1, script.Requests()[0].Max, "exactly-N clamps to the candidates available")

	refs, _ = r.Resolve(context.Background(), target(t, map[string]any{"type": "chosen_opposing_character", "count": 2, "up_to": true}), ec)
	assert.Empty(t, refs)
	assert.Equal(t, 0, script.Requests()[1].Min)
}

func TestResolveEmptyCandidatesSkipsChoice(t *testing.T) {
	gs := newBoard(t)
	broker := choice.NewBroker(zaptest.NewLogger(t), nil)
	script := choice.NewScriptedDecider()
	broker.SetDecider("p1", script)
	r := NewResolver(zaptest.NewLogger(t), broker)

	refs, err := r.Resolve(context.Background(), target(t, "chosen_opposing_character"), NewContext(gs, "p1", ""))
	require.NoError(t, err)
	assert.Empty(t, refs)
	assert.Empty(t, script.Requests())
}

func TestResolvePlayersAndEvents(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "c1", "p2", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "d1", "p1", state.TypeCharacter, state.ZoneDeck)
	addCard(t, gs, "d2", "p1", state.TypeCharacter, state.ZoneDeck)
	r := NewResolver(zaptest.NewLogger(t), nil)
	ec := NewContext(gs, "p1", "src")
	evt := rules.NewEvent(rules.EventBanished, "c1", "x", "p2")
	ec.Event = &evt
	ctx := context.Background()

	refs, _ := r.Resolve(ctx, target(t, "opponent"), ec)
	assert.Equal(t, []state.Ref{state.PlayerRef("p2")}, refs)

	refs, _ = r.Resolve(ctx, target(t, "each_player"), ec)
	assert.Equal(t, []string{"p1", "p2"}, PlayerIDs(refs))

	refs, _ = r.Resolve(ctx, target(t, "that_character"), ec)
	assert.Equal(t, []string{"c1"}, CardIDs(refs))

	refs, _ = r.Resolve(ctx, target(t, "its_owner"), ec)
	assert.Equal(t, []string{"p2"}, PlayerIDs(refs))

	refs, _ = r.Resolve(ctx, target(t, "event_player"), ec)
	assert.Equal(t, []string{"p2"}, PlayerIDs(refs))

	refs, _ = r.Resolve(ctx, target(t, map[string]any{"type": "top_of_deck", "count": 3}), ec)
	assert.Equal(t, []string{"d1", "d2"}, CardIDs(refs))

	refs, _ = r.Resolve(ctx, target(t, "self"), ec)
	assert.Empty(t, refs, "a missing source resolves to nothing")

	gs.MarkLost("p2")
	refs, _ = r.Resolve(ctx, target(t, "each_opponent"), ec)
	assert.Empty(t, refs)
}

func TestResolveBoundAndPeek(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "c1", "p2", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "c2", "p2", state.TypeCharacter, state.ZonePlay)
	r := NewResolver(zaptest.NewLogger(t), nil)
	ec := NewContext(gs, "p1", "")

	child := ec.Bind("target", state.CardRef("c2"))
	refs, _ := r.Resolve(context.Background(), &ast.Target{Type: ast.TargetBound, Variable: "target"}, child)
	assert.Equal(t, []string{"c2"}, ids(refs))
	assert.Empty(t, ec.Bindings, "binding does not leak into the parent")

	assert.Nil(t, r.Peek(target(t, "chosen_opposing_character"), ec), "peek never prompts")
	ec.Last = []state.Ref{state.CardRef("c1")}
	assert.Equal(t, []string{"c1"}, ids(r.Peek(target(t, "chosen_opposing_character"), ec)))
	refs, _ = r.Resolve(context.Background(), &ast.Target{Type: ast.TargetBound}, ec)
	assert.Equal(t, []string{"c1"}, ids(refs), "unbound names fall back to the last targets")
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver(zaptest.NewLogger(t), nil)
	ec := NewContext(newBoard(t), "p1", "")
	_, err := r.Resolve(context.Background(), nil, ec)
	assert.ErrorIs(t, err, ErrNoTarget)
	_, err = r.Resolve(context.Background(), &ast.Target{Type: "sideboard"}, ec)
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestTargetSelection(t *testing.T) {
	req := RequirementFor(&ast.Target{Type: ast.TargetChosen, Count: 3}, 2)
	assert.Equal(t, 2, req.MinTargets)
	assert.Equal(t, 2, req.MaxTargets)

	sel := &TargetSelection{Targets: []string{"a"}, Requirement: req}
	assert.False(t, sel.IsComplete())
	assert.Error(t, sel.Validate())

	sel.Targets = nil
	assert.NoError(t, sel.Validate(), "an empty selection is a decline")

	var nilSel *TargetSelection
	assert.Error(t, nilSel.Validate())
	assert.Equal(t, "a,player:p1", FormatRefs([]state.Ref{state.CardRef("a"), state.PlayerRef("p1")}))
}

func TestResolveDeclinedChoiceIsEmpty(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "c1", "p2", state.TypeCharacter, state.ZonePlay)
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	broker := choice.NewBroker(logger, nil)
	broker.SetDecider("p1", choice.NewScriptedDecider().Push())
	r := NewResolver(logger, broker)

	refs, err := r.Resolve(context.Background(), target(t, "chosen_opposing_character"), NewContext(gs, "p1", "src"))
	require.NoError(t, err)
	assert.Empty(t, refs)

	declined := logs.FilterMessage("target selection declined")
	require.Equal(t, 1, declined.Len())
	assert.Equal(t, int64(1), declined.All()[0].ContextMap()["min_targets"])
	assert.Zero(t, logs.FilterMessage("target selection rejected").Len())
}

func TestResolveCardsUnder(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "top", "p1", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "other", "p1", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "base", "p1", state.TypeCharacter, state.ZoneHand)
	addCard(t, gs, "extra", "p1", state.TypeCharacter, state.ZoneDeck)
	require.NoError(t, gs.MoveCard("base", state.ZoneAttached, state.MoveOptions{Host: "top"}))
	require.NoError(t, gs.MoveCard("extra", state.ZoneAttached, state.MoveOptions{Host: "top"}))
	r := NewResolver(zaptest.NewLogger(t), nil)

	refs, err := r.Resolve(context.Background(), target(t, "cards_under_self"), NewContext(gs, "p1", "top"))
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "extra"}, ids(refs))

	ec := NewContext(gs, "p1", "other").Bind("host", state.CardRef("top"))
	refs, _ = r.Resolve(context.Background(), &ast.Target{Type: ast.TargetCardsUnder, Variable: "host"}, ec)
	assert.Equal(t, []string{"base", "extra"}, ids(refs), "a binding names the host")

	refs, _ = r.Resolve(context.Background(), target(t, "cards_under"), NewContext(gs, "p1", "other"))
	assert.Empty(t, refs)
}

func TestResolveLocationTargets(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "harbor", "p1", state.TypeLocation, state.ZonePlay)
	addCard(t, gs, "sailor", "p1", state.TypeCharacter, state.ZonePlay, func(c *state.CardInstance) { c.AtLocation = "harbor" })
	addCard(t, gs, "raider", "p2", state.TypeCharacter, state.ZonePlay, func(c *state.CardInstance) { c.AtLocation = "harbor" })
	addCard(t, gs, "wanderer", "p1", state.TypeCharacter, state.ZonePlay)
	r := NewResolver(zaptest.NewLogger(t), nil)

	refs, _ := r.Resolve(context.Background(), target(t, "this_location"), NewContext(gs, "p1", "harbor"))
	assert.Equal(t, []string{"harbor"}, ids(refs))
	refs, _ = r.Resolve(context.Background(), target(t, "this_location"), NewContext(gs, "p1", "sailor"))
	assert.Equal(t, []string{"harbor"}, ids(refs), "a character reads the location it is at")
	refs, _ = r.Resolve(context.Background(), target(t, "this_location"), NewContext(gs, "p1", "wanderer"))
	assert.Empty(t, refs)

	refs, _ = r.Resolve(context.Background(), target(t, "characters_at_this_location"), NewContext(gs, "p1", "harbor"))
	assert.ElementsMatch(t, []string{"sailor", "raider"}, ids(refs))
	refs, _ = r.Resolve(context.Background(), target(t, map[string]any{
		"type":   "characters_here",
		"filter": map[string]any{"owner": "opponent"},
	}), NewContext(gs, "p1", "harbor"))
	assert.Equal(t, []string{"raider"}, ids(refs))
}

func TestResolveRandomPicksDistinctCandidates(t *testing.T) {
	gs := newBoard(t)
	addCard(t, gs, "r1", "p2", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "r2", "p2", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "r3", "p2", state.TypeCharacter, state.ZonePlay)
	addCard(t, gs, "mine", "p1", state.TypeCharacter, state.ZonePlay)
	broker := choice.NewBroker(zaptest.NewLogger(t), nil)
	script := choice.NewScriptedDecider()
	broker.SetDecider("p1", script)
	r := NewResolver(zaptest.NewLogger(t), broker)
	ec := NewContext(gs, "p1", "mine")

	refs, err := r.Resolve(context.Background(), target(t, "random_opposing_character"), ec)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Contains(t, []string{"r1", "r2", "r3"}, refs[0].ID)

	refs, _ = r.Resolve(context.Background(), target(t, map[string]any{
		"type":   "random",
		"count":  5,
		"filter": map[string]any{"card_type": "character", "owner": "opponent"},
	}), ec)
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, ids(refs), "never picks a card twice")
	assert.Empty(t, script.Requests(), "nobody is asked")
}
