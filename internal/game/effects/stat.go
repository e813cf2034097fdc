package effects

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// StatFamily changes stats, keywords, restrictions and costs. Permanent
// changes rewrite the card; everything else is an active effect layered
// over the printed values.
type StatFamily struct {
	in *Interpreter
}

// Handlers implements Family.
func (s *StatFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectModifyStat:    s.modifyStat,
		ast.EffectGrantKeyword:  s.grantKeyword,
		ast.EffectRemoveKeyword: s.removeKeyword,
		ast.EffectCostReduction: s.costReduction,
		ast.EffectRestrict:      s.restrict,
		ast.EffectSetBaseStat:   s.setBaseStat,
	}
}

// duration maps the effect's duration tag, forcing static when the effect
// comes from a static ability being re-derived.
func duration(e *ast.Effect, ec *targeting.Context, def state.Duration) state.Duration {
	if ec.Static {
		return state.DurationStatic
	}
	if e.Duration == "" {
		return def
	}
	return state.ParseDuration(e.Duration)
}

// defaultSubject is a chosen character, except for static abilities, which
// never prompt and apply to their source.
func defaultSubject(ec *targeting.Context) *ast.Target {
	if ec.Static {
		return targetSelf
	}
	return targetChosenChar
}

func parseStat(name string) (state.Stat, bool) {
	switch state.Stat(name) {
	case state.StatStrength, state.StatWillpower, state.StatLore, state.StatCost, state.StatMoveCost:
		return state.Stat(name), true
	}
	return "", false
}

func (s *StatFamily) modifyStat(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	stat, ok := parseStat(e.Stat)
	if !ok {
		s.in.logger.Warn("modify_stat: unknown stat", zap.String("stat", e.Stat), zap.String("source_id", ec.SourceID))
		return Result{}
	}
	n := s.in.amount(ctx, e, ec, 0)
	if n == 0 {
		return Result{}
	}
	d := duration(e, ec, state.DurationEndOfTurn)
	cards := s.in.cards(ctx, e.Target, ec, targetSelf)
	for _, card := range cards {
		if d == state.DurationPermanent {
			card.AddBase(stat, n)
		} else {
			ec.State.AddEffect(&state.ActiveEffect{
				SourceID:     ec.SourceID,
				TargetID:     card.ID,
				ControllerID: ec.PlayerID,
				Kind:         state.KindStatModifier,
				Stat:         stat,
				Value:        n,
				Duration:     d,
			})
		}
	}
	if !ec.Static {
		s.in.record(ec, "modify_"+string(stat), n, len(cards), cardIDs(cards)...)
	}
	return Result{Applied: len(cards)}
}

func (s *StatFamily) grantKeyword(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	if e.Keyword == "" {
		return Result{}
	}
	n := s.in.amount(ctx, e, ec, 0)
	d := duration(e, ec, state.DurationEndOfTurn)
	cards := s.in.cards(ctx, e.Target, ec, targetSelf)
	for _, card := range cards {
		if d == state.DurationPermanent {
			if card.Granted == nil {
				card.Granted = make(map[string]int)
			}
			card.Granted[e.Keyword] += n
			continue
		}
		ec.State.AddEffect(&state.ActiveEffect{
			SourceID:     ec.SourceID,
			TargetID:     card.ID,
			ControllerID: ec.PlayerID,
			Kind:         state.KindKeyword,
			Keyword:      e.Keyword,
			Value:        n,
			Duration:     d,
		})
	}
	if !ec.Static {
		s.in.record(ec, "grant_"+e.Keyword, n, len(cards), cardIDs(cards)...)
	}
	return Result{Applied: len(cards)}
}

func (s *StatFamily) removeKeyword(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	if e.Keyword == "" {
		return Result{}
	}
	d := duration(e, ec, state.DurationEndOfTurn)
	cards := s.in.cards(ctx, e.Target, ec, defaultSubject(ec))
	for _, card := range cards {
		if d == state.DurationPermanent {
			delete(card.Keywords, e.Keyword)
			delete(card.Granted, e.Keyword)
			continue
		}
		ec.State.AddEffect(&state.ActiveEffect{
			SourceID:     ec.SourceID,
			TargetID:     card.ID,
			ControllerID: ec.PlayerID,
			Kind:         state.KindRemoveKeyword,
			Keyword:      e.Keyword,
			Duration:     d,
		})
	}
	if !ec.Static {
		s.in.record(ec, "remove_"+e.Keyword, 0, len(cards), cardIDs(cards)...)
	}
	return Result{Applied: len(cards)}
}

// costReduction makes the target players' next matching card (or every
// matching card this turn) cheaper.
func (s *StatFamily) costReduction(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := s.in.amount(ctx, e, ec, 1)
	if n <= 0 {
		return Result{}
	}
	d := duration(e, ec, state.DurationNextPlay)
	pids := s.in.players(ctx, e.Target, ec, targetYou)
	for _, pid := range pids {
		ec.State.AddEffect(&state.ActiveEffect{
			SourceID:     ec.SourceID,
			TargetID:     pid,
			ControllerID: ec.PlayerID,
			Kind:         state.KindCostReduction,
			Value:        n,
			Duration:     d,
			CardType:     state.CardType(e.CardType),
			Subtype:      e.Subtype,
		})
	}
	if !ec.Static {
		s.in.record(ec, "cost_reduction", n, len(pids), pids...)
	}
	return Result{Applied: len(pids)}
}

func (s *StatFamily) restrict(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	if e.Restriction == "" {
		return Result{}
	}
	d := duration(e, ec, state.DurationEndOfTurn)
	if d == state.DurationPermanent {
		d = state.DurationWhileSourceInPlay
	}
	cards := s.in.cards(ctx, e.Target, ec, defaultSubject(ec))
	for _, card := range cards {
		ec.State.AddEffect(&state.ActiveEffect{
			SourceID:     ec.SourceID,
			TargetID:     card.ID,
			ControllerID: ec.PlayerID,
			Kind:         state.KindRestriction,
			Restriction:  e.Restriction,
			Duration:     d,
		})
	}
	if !ec.Static {
		s.in.record(ec, e.Restriction, 0, len(cards), cardIDs(cards)...)
	}
	return Result{Applied: len(cards)}
}

// setBaseStat permanently rewrites a base stat.
func (s *StatFamily) setBaseStat(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	stat, ok := parseStat(e.Stat)
	if !ok {
		s.in.logger.Warn("set_base_stat: unknown stat", zap.String("stat", e.Stat), zap.String("source_id", ec.SourceID))
		return Result{}
	}
	n := max(s.in.amount(ctx, e, ec, 0), 0)
	cards := s.in.cards(ctx, e.Target, ec, targetSelf)
	for _, card := range cards {
		card.AddBase(stat, n-card.BaseStat(stat))
	}
	s.in.record(ec, "set_base_"+string(stat), n, len(cards), cardIDs(cards)...)
	return Result{Applied: len(cards)}
}
