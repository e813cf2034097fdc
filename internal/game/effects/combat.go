package effects

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
)

// CombatFamily places, removes and moves damage.
type CombatFamily struct {
	in *Interpreter
}

// Handlers implements Family.
func (c *CombatFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectDealDamage:          c.damage(true),
		ast.EffectPutDamage:           c.damage(false),
		ast.EffectRemoveDamage:        c.removeDamage,
		ast.EffectMoveDamage:          c.moveDamage,
		ast.EffectBanishDamaged:       c.banishDamaged,
		ast.EffectDamageEqualStrength: c.damageEqualToStrength,
	}
}

// damage deals (Resist applies) or puts (it does not) damage on each
// target, then banishes targets whose damage reached their willpower.
func (c *CombatFamily) damage(dealt bool) Handler {
	action := "put_damage"
	if dealt {
		action = "deal_damage"
	}
	return func(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
		n := c.in.amount(ctx, e, ec, 1)
		cards := c.in.cards(ctx, e.Target, ec, targetChosenChar)
		return Result{Applied: c.apply(ec, cards, n, dealt, action)}
	}
}

func (c *CombatFamily) apply(ec *targeting.Context, cards []*state.CardInstance, n int, dealt bool, action string) int {
	total := 0
	for _, card := range cards {
		placed := c.in.DealDamage(ec, card, n, dealt)
		c.in.record(ec, action, n, placed, card.ID)
		total += placed
		if placed > 0 {
			c.in.CheckBanish(ec, card)
		}
	}
	ec.SetVar(targeting.VarDamageDealt, total)
	return total
}

// removeDamage heals up to N damage from each target, never below zero.
// The total removed is bound to damage_removed for follow-up effects.
func (c *CombatFamily) removeDamage(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := c.in.amount(ctx, e, ec, 1)
	total := 0
	for _, card := range c.in.cards(ctx, e.Target, ec, targetChosenChar) {
		removed := min(n, card.Damage)
		if removed > 0 && card.InPlay() {
			card.Damage -= removed
			evt := CardEvent(rules.EventDamageRemoved, card, ec.SourceID, ec.PlayerID)
			evt.Amount = removed
			ec.Emit(evt)
		} else {
			removed = 0
		}
		c.in.record(ec, "remove_damage", n, removed, card.ID)
		total += removed
	}
	ec.SetVar(targeting.VarDamageRemoved, total)
	return Result{Applied: total}
}

// moveDamage moves up to N damage from Source to Target. It never moves
// more than the source has.
func (c *CombatFamily) moveDamage(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := c.in.amount(ctx, e, ec, 1)
	from := c.in.cards(ctx, e.Source, ec, targetChosenChar)
	if len(from) == 0 {
		return Result{}
	}
	src := from[0]
	to := c.in.cards(ctx, e.Target, ec, &ast.Target{Type: ast.TargetChosen, Filter: &ast.Filter{CardType: string(state.TypeCharacter), Owner: ast.OwnerOpponent}})
	if len(to) == 0 || to[0].ID == src.ID || !canTakeDamage(to[0]) {
		return Result{}
	}
	dst := to[0]
	moved := min(n, src.Damage)
	if moved <= 0 {
		c.in.record(ec, "move_damage", n, 0, src.ID, dst.ID)
		return Result{}
	}
	src.Damage -= moved
	removed := CardEvent(rules.EventDamageRemoved, src, ec.SourceID, ec.PlayerID)
	removed.Amount = moved
	ec.Emit(removed)
	dst.Damage += moved
	damaged := CardEvent(rules.EventDamaged, dst, ec.SourceID, ec.PlayerID)
	damaged.Amount = moved
	ec.Emit(damaged)
	c.in.record(ec, "move_damage", n, moved, src.ID, dst.ID)
	c.in.CheckBanish(ec, dst)
	return Result{Applied: moved}
}

func (c *CombatFamily) banishDamaged(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	var damaged []*state.CardInstance
	for _, card := range c.in.cards(ctx, e.Target, ec, targetChosenChar) {
		if card.Damage > 0 {
			damaged = append(damaged, card)
		}
	}
	return Result{Applied: c.in.Banish(ec, damaged...)}
}

// damageEqualToStrength deals damage equal to the Source's strength (this
// card by default) to the target.
func (c *CombatFamily) damageEqualToStrength(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	from := c.in.cards(ctx, e.Source, ec, targetSelf)
	if len(from) == 0 {
		return Result{}
	}
	n := ec.State.Strength(from[0].ID)
	cards := c.in.cards(ctx, e.Target, ec, targetChosenChar)
	return Result{Applied: c.apply(ec, cards, n, true, "deal_damage")}
}
