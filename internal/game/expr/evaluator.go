// Package expr evaluates numeric expressions and conditions against game
// state. Evaluation only reads: it never prompts a player and never mutates.
package expr

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// Evaluator computes expressions and conditions.
type Evaluator struct {
	logger   *zap.Logger
	resolver *targeting.Resolver
}

// NewEvaluator creates an evaluator. Targets inside expressions are peeked
// through resolver, never chosen.
func NewEvaluator(logger *zap.Logger, resolver *targeting.Resolver) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = targeting.NewResolver(logger, nil)
	}
	return &Evaluator{logger: logger, resolver: resolver}
}

// Evaluate returns the value of x. A nil expression is 0; unknown tags log
// a warning and evaluate to 0.
func (e *Evaluator) Evaluate(ctx context.Context, x *ast.Expr, ec *targeting.Context) int {
	if x == nil {
		return 0
	}
	switch x.Type {
	case ast.ExprConstant:
		return x.Value

	case ast.ExprVariable:
		v, ok := ec.Var(x.Name)
		if !ok {
			e.logger.Debug("unbound variable reads as zero", zap.String("name", x.Name))
		}
		return v

	case ast.ExprCount:
		if x.Target != nil {
			return len(e.resolver.Peek(x.Target, ec))
		}
		return CountMatching(ec, x.Filter)

	case ast.ExprAttribute:
		t := x.Target
		if t == nil {
			t = &ast.Target{Type: ast.TargetSelf}
		}
		ids := targeting.CardIDs(e.resolver.Peek(t, ec))
		if len(ids) == 0 {
			return 0
		}
		return attribute(ec.State, ids[0], x.Stat)

	case ast.ExprLoreOf:
		total := 0
		for _, pid := range players(ec, x.Player) {
			if p, ok := ec.State.Player(pid); ok {
				total += p.Lore
			}
		}
		return total

	case ast.ExprHandSize:
		total := 0
		for _, pid := range players(ec, x.Player) {
			if p, ok := ec.State.Player(pid); ok {
				total += len(p.Hand)
			}
		}
		return total

	case ast.ExprSum:
		total := 0
		for _, arg := range x.Args {
			total += e.Evaluate(ctx, arg, ec)
		}
		return total

	case ast.ExprDifference:
		if len(x.Args) == 0 {
			return 0
		}
		total := e.Evaluate(ctx, x.Args[0], ec)
		for _, arg := range x.Args[1:] {
			total -= e.Evaluate(ctx, arg, ec)
		}
		return total

	case ast.ExprMultiply:
		if len(x.Args) == 0 {
			return 0
		}
		total := 1
		for _, arg := range x.Args {
			total *= e.Evaluate(ctx, arg, ec)
		}
		return total
	}
	e.logger.Warn("unknown expression type", zap.String("type", string(x.Type)))
	return 0
}

// CountMatching counts the cards of every player that pass f, in the zone f names.
func CountMatching(ec *targeting.Context, f *ast.Filter) int {
	zone := targeting.ZoneOf(f)
	n := 0
	for _, pid := range ec.State.Order {
		for _, card := range ec.State.CardsInZone(pid, zone) {
			if targeting.Matches(ec, card, f) {
				n++
			}
		}
	}
	return n
}

func attribute(gs *state.GameState, cardID, stat string) int {
	card, ok := gs.Card(cardID)
	if !ok {
		return 0
	}
	switch stat {
	case "damage":
		return card.Damage
	case "", string(state.StatStrength):
		return gs.Strength(cardID)
	case "under":
		return len(card.Under)
	}
	return gs.EffectiveStat(cardID, state.Stat(stat))
}

// players maps a player selector to ids: you (default), opponent, opponents or all.
func players(ec *targeting.Context, selector string) []string {
	gs := ec.State
	switch selector {
	case "opponent":
		for _, id := range gs.Opponents(ec.PlayerID) {
			if p, ok := gs.Player(id); ok && !p.Lost {
				return []string{id}
			}
		}
		return nil
	case "opponents", "each_opponent":
		return gs.Opponents(ec.PlayerID)
	case "all", "any", "each_player":
		return gs.PlayersFrom(gs.ActivePlayer)
	}
	return []string{ec.PlayerID}
}
