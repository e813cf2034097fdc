package effects

import (
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutUnderAndReturn(t *testing.T) {
	h := newHarness(t)
	hero := h.card("hero", "p1", state.ZonePlay)
	h.card("d1", "p1", state.ZoneDeck)
	h.card("d2", "p1", state.ZoneDeck)

	res, _ := h.run("hero", map[string]any{"type": "put_under_self"})
	assert.Equal(t, 1, res.Applied)
	res, _ = h.run("hero", map[string]any{"type": "put_under", "target": map[string]any{"type": "top_of_deck"}})
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, []string{"d1", "d2"}, hero.Under)
	assert.Equal(t, state.ZoneAttached, h.gs.Cards["d1"].Zone)
	assert.Empty(t, h.gs.Players["p1"].Deck)
	assert.Equal(t, []rules.EventType{rules.EventZoneChange, rules.EventZoneChange}, h.drain())
	require.NoError(t, h.gs.CheckInvariants())

	res, _ = h.run("hero", map[string]any{"type": "return_under_to_hand"})
	assert.Equal(t, 2, res.Applied)
	assert.Empty(t, hero.Under)
	assert.Equal(t, []string{"d1", "d2"}, h.gs.Players["p1"].Hand)
	require.NoError(t, h.gs.CheckInvariants())
}

func TestDiscardUnder(t *testing.T) {
	h := newHarness(t)
	hero := h.card("hero", "p1", state.ZonePlay)
	h.card("d1", "p1", state.ZoneDeck)
	h.run("hero", map[string]any{"type": "put_under_self"})

	res, _ := h.run("hero", map[string]any{"type": "discard_under"})

	assert.Equal(t, 1, res.Applied)
	assert.Empty(t, hero.Under)
	assert.Equal(t, []string{"d1"}, h.gs.Players["p1"].Discard)
}

func TestPutUnderNeedsAHostInPlay(t *testing.T) {
	h := newHarness(t)
	h.card("held", "p1", state.ZoneHand)
	h.card("d1", "p1", state.ZoneDeck)

	res, _ := h.run("held", map[string]any{"type": "put_under_self"})

	assert.Zero(t, res.Applied)
	assert.Equal(t, []string{"d1"}, h.gs.Players["p1"].Deck)
}
