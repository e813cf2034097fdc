package ink

import "github.com/inkwell-labs/lorcana-engine/internal/game/state"

// Cost is a play or ability cost after reductions.
type Cost struct {
	Base      int
	Reduction int
	Total     int
	Consumed  []string
}

// Flat is a cost no reduction applies to, such as an activated ability's ink.
func Flat(amount int) Cost {
	if amount < 0 {
		amount = 0
	}
	return Cost{Base: amount, Total: amount}
}

// CostFor applies the player's live cost reductions for card to base, never
// going below zero. Reductions only ever apply to playing cards.
func CostFor(gs *state.GameState, playerID string, card *state.CardInstance, base int) Cost {
	reduction, consumed := gs.CostReduction(playerID, card)
	total := base - reduction
	if total < 0 {
		total = 0
	}
	return Cost{Base: base, Reduction: reduction, Total: total, Consumed: consumed}
}

// CanAfford reports whether the player's ready ink covers the cost.
func CanAfford(gs *state.GameState, playerID string, cost Cost) bool {
	return len(gs.ReadyInk(playerID)) >= cost.Total
}
