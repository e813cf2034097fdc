package effects

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
)

var (
	targetTopCard    = &ast.Target{Type: ast.TargetTopOfDeck}
	targetCardsUnder = &ast.Target{Type: ast.TargetCardsUnder}
)

// UnderFamily handles the stack of cards under a card in play, the one
// Shift builds.
type UnderFamily struct {
	in *Interpreter
}

// Handlers implements Family.
func (u *UnderFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectPutUnder:          u.putUnder,
		ast.EffectReturnUnderToHand: u.returnUnderToHand,
		ast.EffectDiscardUnder:      u.discardUnder,
	}
}

// putUnder puts the target cards (the top card of the controller's deck
// by default) under Destination, the source by default.
func (u *UnderFamily) putUnder(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	var host *state.CardInstance
	for _, c := range u.in.cards(ctx, e.Destination, ec, targetSelf) {
		if c.InPlay() {
			host = c
			break
		}
	}
	if host == nil {
		return Result{}
	}
	var cards []*state.CardInstance
	for _, c := range u.in.cards(ctx, e.Target, ec, targetTopCard) {
		if c.ID != host.ID {
			cards = append(cards, c)
		}
	}
	opts := state.MoveOptions{Host: host.ID}
	return Result{Applied: u.in.MoveCards(ec, cards, state.ZoneAttached, opts, rules.EventZoneChange, "put_under")}
}

func (u *UnderFamily) returnUnderToHand(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cards := u.in.cards(ctx, e.Target, ec, targetCardsUnder)
	return Result{Applied: u.in.MoveCards(ec, cards, state.ZoneHand, state.MoveOptions{}, rules.EventReturnedToHand, "return_under_to_hand")}
}

func (u *UnderFamily) discardUnder(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cards := u.in.cards(ctx, e.Target, ec, targetCardsUnder)
	return Result{Applied: u.in.MoveCards(ec, cards, state.ZoneDiscard, state.MoveOptions{}, rules.EventDiscarded, "discard_under")}
}
