package game

import (
	"context"
	"runtime"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
)

// LegalActions lists every action the player could submit right now. It
// returns nothing while another action is resolving or when it is not the
// player's main phase.
func (e *Engine) LegalActions(ctx context.Context, gameID, playerID string) ([]Action, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	// A resolution holds the lock until it finishes, choices included, so
	// only wait out other readers.
	for !s.mu.TryLock() {
		if s.busy.Load() {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runtime.Gosched()
	}
	defer s.mu.Unlock()
	// busy is set before the lock is taken: an action may be about to resolve.
	if s.busy.Load() {
		return nil, nil
	}
	return s.legalActions(ctx, playerID), nil
}

func (s *session) legalActions(ctx context.Context, pid string) []Action {
	gs := s.state
	if gs.Over || gs.ActivePlayer != pid || !s.turns.IsMain() {
		return nil
	}
	var out []Action
	try := func(a Action) {
		if _, err := s.prepare(ctx, a); err == nil {
			out = append(out, a)
		}
	}

	hand := gs.CardsInZone(pid, state.ZoneHand)
	mine := gs.CardsInZone(pid, state.ZonePlay)
	var theirs []*state.CardInstance
	for _, opp := range gs.Opponents(pid) {
		theirs = append(theirs, gs.CardsInZone(opp, state.ZonePlay)...)
	}

	for _, c := range hand {
		try(Action{Type: ActionInk, PlayerID: pid, CardID: c.ID})
		try(Action{Type: ActionPlayCard, PlayerID: pid, CardID: c.ID})
		for _, base := range mine {
			if _, ok := c.Keywords[state.KeywordShift]; ok {
				try(Action{Type: ActionPlayCard, PlayerID: pid, CardID: c.ID, TargetID: base.ID})
			}
			if c.IsSong() {
				try(Action{Type: ActionSing, PlayerID: pid, CardID: c.ID, TargetID: base.ID})
			}
		}
	}
	for _, c := range mine {
		try(Action{Type: ActionQuest, PlayerID: pid, CardID: c.ID})
		for _, target := range theirs {
			try(Action{Type: ActionChallenge, PlayerID: pid, CardID: c.ID, TargetID: target.ID})
		}
		for _, loc := range mine {
			if loc.Type == state.TypeLocation {
				try(Action{Type: ActionMove, PlayerID: pid, CardID: c.ID, TargetID: loc.ID})
			}
		}
		for _, ab := range s.catalog.Abilities(c) {
			if ab.Kind == ast.AbilityActivated {
				try(Action{Type: ActionActivate, PlayerID: pid, CardID: c.ID, AbilityID: ab.ID})
			}
		}
	}
	return append(out, Action{Type: ActionPassTurn, PlayerID: pid})
}
