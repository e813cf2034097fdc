package triggers

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// RefreshStatics drops every static contribution and re-derives them from
// the static abilities of the cards in play, so continuous effects follow
// the board. Conditions are re-checked each time. Refreshing twice in a row
// leaves the state unchanged.
func (b *Bus) RefreshStatics(ctx context.Context, gs *state.GameState) {
	gs.ClearStatic()
	for _, pid := range gs.PlayersFrom(gs.ActivePlayer) {
		for _, card := range targeting.OrderedZone(gs, pid, state.ZonePlay) {
			for i, ab := range b.abilities.Abilities(card) {
				if ab == nil || ab.Kind != ast.AbilityStatic {
					continue
				}
				if asksForChoice(ab.Effect) {
					b.logger.Debug("static ability with chosen target skipped",
						zap.String("card_id", card.ID),
						zap.String("ability", ab.Name),
					)
					continue
				}
				if n := ab.Effect.OneShot(); n != nil {
					b.warnOneShot(card, i, ab, n)
					continue
				}
				ec := targeting.NewContext(gs, card.OwnerID, card.ID)
				ec.Stats = b.stats
				ec.Static = true
				if ab.Condition != nil && !b.interp.Evaluator().Check(ctx, ab.Condition, ec) {
					continue
				}
				b.interp.Execute(ctx, ab.Effect, ec)
			}
		}
	}
}

// warnOneShot reports a static ability holding a one-time effect. Such an
// ability would apply again on every refresh, so it is never run. Each
// ability is reported once per bus.
func (b *Bus) warnOneShot(card *state.CardInstance, index int, ab *ast.Ability, n *ast.Effect) {
	key := abilityKey{card: card.ID, index: index}
	if b.oneShot[key] {
		return
	}
	if b.oneShot == nil {
		b.oneShot = make(map[abilityKey]bool)
	}
	b.oneShot[key] = true
	b.logger.Warn("static ability with one-shot effect ignored",
		zap.String("card_id", card.ID),
		zap.String("ability", ab.Name),
		zap.String("effect", string(n.Type)),
	)
}

type abilityKey struct {
	card  string
	index int
}

// asksForChoice reports whether any part of the effect prompts a player or
// picks at random. Either would make the result differ between refreshes.
func asksForChoice(e *ast.Effect) bool {
	found := false
	e.Walk(func(n *ast.Effect) {
		switch {
		case n.Target.IsChosen(), n.Source.IsChosen(), n.Destination.IsChosen():
			found = true
		case n.Target != nil && n.Target.Type == ast.TargetRandom:
			found = true
		case n.Type == ast.EffectModal, n.Type == ast.EffectOptional:
			found = true
		}
	})
	return found
}
