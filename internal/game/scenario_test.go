package game

import (
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSevenTurnGame plays both sides through seven turns using only
// submitted actions: one ink per turn, characters drying before they
// quest, a challenge back and forth, and damage carrying across turns.
func TestSevenTurnGame(t *testing.T) {
	h := newHarness(t)
	gs := h.state()
	inkOne := func(pid string) {
		t.Helper()
		card := h.put(pid, "filler", state.ZoneHand)
		h.do(Action{Type: ActionInk, PlayerID: pid, CardID: card.ID})
	}
	p1Hero := h.put("p1", "hero", state.ZoneHand)
	p1Brute := h.put("p1", "brute", state.ZoneHand)
	p2Hero := h.put("p2", "hero", state.ZoneHand)

	// 1-2: both players ink.
	inkOne("p1")
	_, err := h.submit(Action{Type: ActionPlayCard, PlayerID: "p1", CardID: p1Hero.ID})
	assert.ErrorIs(t, err, rules.ErrResourceShortfall)
	h.pass("p1")
	inkOne("p2")
	h.pass("p2")

	// 3-4: both players reach two ink and play their heroes.
	inkOne("p1")
	h.do(Action{Type: ActionPlayCard, PlayerID: "p1", CardID: p1Hero.ID})
	h.pass("p1")
	inkOne("p2")
	h.do(Action{Type: ActionPlayCard, PlayerID: "p2", CardID: p2Hero.ID})
	_, err = h.submit(Action{Type: ActionChallenge, PlayerID: "p2", CardID: p2Hero.ID, TargetID: p1Hero.ID})
	assert.ErrorIs(t, err, rules.ErrInvalidAction, "a hero played this turn is still drying")
	h.pass("p2")

	// 5: p1 quests and plays the brute with three ink.
	require.Equal(t, 5, gs.Turn)
	snap := h.do(Action{Type: ActionQuest, PlayerID: "p1", CardID: p1Hero.ID})
	assert.Equal(t, 2, snap.Player("p1").Lore)
	inkOne("p1")
	snap = h.do(Action{Type: ActionPlayCard, PlayerID: "p1", CardID: p1Brute.ID})
	assert.Empty(t, gs.ReadyInk("p1"))
	h.pass("p1")

	// 6: p1's hero is still exerted from questing, so p2 challenges it.
	snap = h.do(Action{Type: ActionChallenge, PlayerID: "p2", CardID: p2Hero.ID, TargetID: p1Hero.ID})
	assert.Equal(t, 2, snap.Card(p1Hero.ID).Damage)
	assert.Equal(t, 2, snap.Card(p2Hero.ID).Damage)
	h.pass("p2")

	// 7: the brute finishes off the damaged hero and p1 quests again.
	require.Equal(t, 7, gs.Turn)
	assert.False(t, gs.Cards[p1Hero.ID].Exerted)
	assert.True(t, gs.Cards[p2Hero.ID].Exerted, "challenging exerted the attacker")
	snap = h.do(Action{Type: ActionChallenge, PlayerID: "p1", CardID: p1Brute.ID, TargetID: p2Hero.ID})
	assert.Equal(t, state.ZoneDiscard, snap.Card(p2Hero.ID).Zone)
	assert.Equal(t, 2, snap.Card(p1Brute.ID).Damage)
	snap = h.do(Action{Type: ActionQuest, PlayerID: "p1", CardID: p1Hero.ID})
	assert.Equal(t, 4, snap.Player("p1").Lore)
	assert.Equal(t, 2, snap.Card(p1Hero.ID).Damage, "damage stays until healed")

	assert.Len(t, gs.JournalFor("challenge"), 2)
	assert.Len(t, gs.JournalFor("quest"), 2)
	assert.Len(t, gs.JournalFor("pass_turn"), 6)
	require.NoError(t, gs.CheckInvariants())
}
