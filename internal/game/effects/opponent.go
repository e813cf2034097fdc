package effects

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
)

// targetOwnChar is resolved from the choosing player's side, so "you" is
// the opponent picking one of their own characters.
var targetOwnChar = &ast.Target{Type: ast.TargetChosen, Filter: &ast.Filter{CardType: string(state.TypeCharacter), Owner: ast.OwnerYou}}

// OpponentFamily covers "each opponent chooses one of their characters"
// effects. Every opponent picks in turn order; the result lands on all
// the picks together.
type OpponentFamily struct {
	in     *Interpreter
	combat *CombatFamily
}

// Handlers implements Family.
func (o *OpponentFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectOpponentChoiceBanish: o.each(func(_ context.Context, _ *ast.Effect, ec *targeting.Context, cards []*state.CardInstance) int {
			return o.in.Banish(ec, cards...)
		}),
		ast.EffectOpponentChoiceExert: o.each(func(_ context.Context, _ *ast.Effect, ec *targeting.Context, cards []*state.CardInstance) int {
			return o.in.SetExerted(ec, cards, true)
		}),
		ast.EffectOpponentChoiceReturnToHand: o.each(func(_ context.Context, _ *ast.Effect, ec *targeting.Context, cards []*state.CardInstance) int {
			return o.in.MoveCards(ec, cards, state.ZoneHand, state.MoveOptions{}, rules.EventReturnedToHand, "return_to_hand")
		}),
		ast.EffectOpponentChoiceDamage: o.each(func(ctx context.Context, e *ast.Effect, ec *targeting.Context, cards []*state.CardInstance) int {
			return o.combat.apply(ec, cards, o.in.amount(ctx, e, ec, 1), true, "deal_damage")
		}),
	}
}

type pickedFunc func(ctx context.Context, e *ast.Effect, ec *targeting.Context, cards []*state.CardInstance) int

func (o *OpponentFamily) each(apply pickedFunc) Handler {
	return func(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
		var picked []*state.CardInstance
		for _, pid := range ec.State.Opponents(ec.PlayerID) {
			if p, ok := ec.State.Player(pid); !ok || p.Lost {
				continue
			}
			picked = append(picked, o.in.cards(ctx, e.Target, ec.ForPlayer(pid), targetOwnChar)...)
		}
		if len(picked) == 0 {
			return Result{}
		}
		ec.Last = refsOf(picked)
		return Result{Applied: apply(ctx, e, ec, picked)}
	}
}
