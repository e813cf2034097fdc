// Package ink plans and pays ink costs from a player's inkwell.
package ink

import (
	"fmt"

	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
)

// PaymentPlan lists the inkwell cards to exert and the reductions a payment uses up.
type PaymentPlan struct {
	Ink      []string
	Consumed []string // single-use cost reductions
}

// PaymentResult represents the result of a payment attempt.
type PaymentResult struct {
	Success   bool
	Plan      *PaymentPlan
	Remaining int // ink still missing if payment failed
	Reason    string
}

// CalculatePayment plans paying cost with a player's ready ink, in inkwell
// order. It only reads state.
func CalculatePayment(gs *state.GameState, playerID string, cost Cost) *PaymentResult {
	if cost.Total <= 0 {
		return &PaymentResult{
			Success: true,
			Plan:    &PaymentPlan{Consumed: cost.Consumed},
		}
	}
	ready := gs.ReadyInk(playerID)
	if len(ready) < cost.Total {
		return &PaymentResult{
			Success:   false,
			Remaining: cost.Total - len(ready),
			Reason:    fmt.Sprintf("insufficient ink (need %d, have %d)", cost.Total, len(ready)),
		}
	}
	return &PaymentResult{
		Success: true,
		Plan: &PaymentPlan{
			Ink:      append([]string(nil), ready[:cost.Total]...),
			Consumed: cost.Consumed,
		},
	}
}

// ExecutePayment exerts the planned ink and retires consumed reductions.
// It fails without changing anything if a planned card is no longer ready ink.
func ExecutePayment(gs *state.GameState, playerID string, plan *PaymentPlan) error {
	if plan == nil {
		return nil
	}
	cards := make([]*state.CardInstance, 0, len(plan.Ink))
	for _, id := range plan.Ink {
		c, ok := gs.Card(id)
		if !ok || c.Zone != state.ZoneInkwell || c.OwnerID != playerID || c.Exerted {
			return fmt.Errorf("ink %s is not ready in %s's inkwell", id, playerID)
		}
		cards = append(cards, c)
	}
	for _, c := range cards {
		c.Exerted = true
	}
	if len(plan.Consumed) > 0 {
		consumed := make(map[string]bool, len(plan.Consumed))
		for _, id := range plan.Consumed {
			consumed[id] = true
		}
		gs.RemoveEffects(func(e *state.ActiveEffect) bool { return consumed[e.ID] })
	}
	if len(plan.Ink) > 0 {
		gs.Log(playerID, "pay_ink", len(plan.Ink), len(cards), plan.Ink...)
	}
	return nil
}

// Pay plans and executes in one step.
func Pay(gs *state.GameState, playerID string, cost Cost) (*PaymentResult, error) {
	result := CalculatePayment(gs, playerID, cost)
	if !result.Success {
		return result, nil
	}
	if err := ExecutePayment(gs, playerID, result.Plan); err != nil {
		return nil, err
	}
	return result, nil
}
