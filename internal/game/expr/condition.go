package expr

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// Check evaluates a condition. A nil condition holds; unknown tags log a
// warning and are false.
func (e *Evaluator) Check(ctx context.Context, c *ast.Condition, ec *targeting.Context) bool {
	if c == nil {
		return true
	}
	gs := ec.State
	switch c.Type {
	case ast.CondAlways:
		return true

	case ast.CondAnd:
		for _, sub := range c.Conditions {
			if !e.Check(ctx, sub, ec) {
				return false
			}
		}
		return true

	case ast.CondOr:
		for _, sub := range c.Conditions {
			if e.Check(ctx, sub, ec) {
				return true
			}
		}
		return false

	case ast.CondNot:
		if c.Condition == nil {
			return true
		}
		return !e.Check(ctx, c.Condition, ec)

	case ast.CondCountCompare:
		var n int
		if c.Target != nil {
			n = len(e.resolver.Peek(c.Target, ec))
		} else {
			n = CountMatching(ec, c.Filter)
		}
		return compare(c.Compare, n)

	case ast.CondLoreCompare:
		return compare(c.Compare, e.Evaluate(ctx, &ast.Expr{Type: ast.ExprLoreOf, Player: c.Player}, ec))

	case ast.CondHandSizeCompare:
		return compare(c.Compare, e.Evaluate(ctx, &ast.Expr{Type: ast.ExprHandSize, Player: c.Player}, ec))

	case ast.CondSelfExerted:
		src, ok := ec.Source()
		return ok && src.Exerted

	case ast.CondSelfDamaged:
		src, ok := ec.Source()
		return ok && src.Damage > 0

	case ast.CondSelfAtLocation:
		src, ok := ec.Source()
		return ok && src.AtLocation != ""

	case ast.CondTargetHasKeyword:
		t := c.Target
		if t == nil {
			t = &ast.Target{Type: ast.TargetSelf}
		}
		for _, id := range targeting.CardIDs(e.resolver.Peek(t, ec)) {
			if gs.HasKeyword(id, c.Keyword) {
				return true
			}
		}
		return false

	case ast.CondIsYourTurn:
		return gs.ActivePlayer == ec.PlayerID

	case ast.CondEventAmountCompare:
		amount := 0
		if ec.Event != nil {
			amount = ec.Event.Amount
		}
		return compare(c.Compare, amount)

	case ast.CondPlayedThisTurn:
		if ec.Stats == nil {
			return compare(c.Compare, 0)
		}
		var cardType state.CardType
		var subtype string
		if c.Filter != nil {
			cardType = state.CardType(c.Filter.CardType)
			if len(c.Filter.Subtypes) > 0 {
				subtype = c.Filter.Subtypes[0]
			}
		}
		n := 0
		for _, pid := range players(ec, c.Player) {
			n += ec.Stats.PlayedThisTurn(pid, cardType, subtype)
		}
		return compare(c.Compare, n)

	case ast.CondBanishedThisTurn:
		if ec.Stats == nil {
			return compare(c.Compare, 0)
		}
		selector := c.Player
		if selector == "" {
			selector = "all"
		}
		n := 0
		for _, pid := range players(ec, selector) {
			n += ec.Stats.BanishedThisTurn(pid)
		}
		return compare(c.Compare, n)

	case ast.CondVariableCompare:
		v, _ := ec.Var(c.Name)
		return compare(c.Compare, v)
	}
	e.logger.Warn("unknown condition type", zap.String("type", string(c.Type)))
	return false
}

// compare applies cmp to n; without a comparison the condition asks "any at all".
func compare(cmp *ast.Compare, n int) bool {
	if cmp == nil {
		return n > 0
	}
	return cmp.Match(n)
}
