package effects

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/ink"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// ResourceFamily spends and moves ink and lore. The pay effects report
// whether they were paid, so a cascade can make the rest conditional.
type ResourceFamily struct {
	in *Interpreter
}

// Handlers implements Family.
func (r *ResourceFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectReadyInk:  r.readyInk,
		ast.EffectStealLore: r.stealLore,
		ast.EffectPayInk:    r.payInk,
		ast.EffectPayLore:   r.payLore,
	}
}

// PayInk exerts n of the controller's ready ink. It pays all or nothing;
// a cost of zero or less is always paid.
func (in *Interpreter) PayInk(ec *targeting.Context, n int) bool {
	if n <= 0 {
		return true
	}
	res, err := ink.Pay(ec.State, ec.PlayerID, ink.Flat(n))
	if err != nil {
		in.logger.Warn("ink payment failed",
			zap.String("player_id", ec.PlayerID),
			zap.String("source_id", ec.SourceID),
			zap.Error(err),
		)
		return false
	}
	return res.Success
}

func (r *ResourceFamily) readyInk(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := r.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range r.in.players(ctx, e.Target, ec, targetYou) {
		var readied []string
		for _, c := range ec.State.CardsInZone(pid, state.ZoneInkwell) {
			if len(readied) >= n {
				break
			}
			if c.Exerted {
				c.Exerted = false
				readied = append(readied, c.ID)
			}
		}
		r.in.record(ec, "ready_ink", n, len(readied), readied...)
		total += len(readied)
	}
	return Result{Applied: total}
}

// stealLore moves up to N lore from each target player to the controller.
func (r *ResourceFamily) stealLore(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := r.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range r.in.players(ctx, e.Target, ec, targetOpponent) {
		if pid == ec.PlayerID {
			continue
		}
		lost := ec.State.LoseLore(pid, n)
		if lost == 0 {
			r.in.record(ec, "steal_lore", n, 0, pid)
			continue
		}
		evt := rules.NewEventWithAmount(rules.EventLoreLost, pid, ec.SourceID, ec.PlayerID, lost)
		evt.PlayerID = pid
		ec.Emit(evt)
		gained := ec.State.AddLore(ec.PlayerID, lost)
		if gained > 0 {
			evt := rules.NewEventWithAmount(rules.EventLoreGained, ec.PlayerID, ec.SourceID, ec.PlayerID, gained)
			evt.PlayerID = ec.PlayerID
			ec.Emit(evt)
		}
		r.in.record(ec, "steal_lore", n, lost, pid, ec.PlayerID)
		total += lost
	}
	return Result{Applied: total}
}

// payInk applies the amount paid, or nothing when the controller is short.
func (r *ResourceFamily) payInk(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := r.in.amount(ctx, e, ec, 1)
	if !r.in.PayInk(ec, n) {
		r.in.record(ec, "pay_ink", n, 0, ec.PlayerID)
		return Result{}
	}
	return Result{Applied: max(n, 1)}
}

// payLore spends N of the controller's lore only if they have all of it.
func (r *ResourceFamily) payLore(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := r.in.amount(ctx, e, ec, 1)
	p, ok := ec.State.Player(ec.PlayerID)
	if !ok || n <= 0 || p.Lore < n {
		r.in.record(ec, "pay_lore", n, 0, ec.PlayerID)
		return Result{}
	}
	lost := ec.State.LoseLore(ec.PlayerID, n)
	evt := rules.NewEventWithAmount(rules.EventLoreLost, ec.PlayerID, ec.SourceID, ec.PlayerID, lost)
	evt.PlayerID = ec.PlayerID
	ec.Emit(evt)
	r.in.record(ec, "pay_lore", n, lost, ec.PlayerID)
	return Result{Applied: lost}
}
