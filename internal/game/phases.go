package game

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"go.uber.org/zap"
)

// beginTurn runs the Ready, Set and Draw phases of the active player's
// turn and stops in Main.
func (s *session) beginTurn(ctx context.Context) {
	gs := s.state
	pid := s.turns.ActivePlayer()
	s.syncTurn()
	s.logger.Debug("turn started",
		zap.String("player_id", pid),
		zap.Int("turn", gs.Turn),
	)

	s.readyPhase(pid)
	s.settle(ctx)

	s.enterPhase(rules.PhaseSet)
	s.setPhase(pid)
	s.settle(ctx)
	if gs.Over {
		return
	}

	s.enterPhase(rules.PhaseDraw)
	if !(s.opts.SkipFirstDraw && gs.Turn == 1) {
		s.drawPhase(pid)
		s.settle(ctx)
	}
	if gs.Over {
		return
	}
	if gs.Players[pid].Lost {
		s.passTurn(ctx)
		return
	}

	s.enterPhase(rules.PhaseMain)
}

// readyPhase readies the active player's cards. Effects that lasted until
// the start of their turn end first.
func (s *session) readyPhase(pid string) {
	gs := s.state
	gs.ExpireStartOfTurn(pid)
	var exerted []*state.CardInstance
	for _, c := range gs.CardsInZone(pid, state.ZonePlay) {
		if c.Exerted && !gs.HasRestriction(c.ID, state.RestrictCantReady) {
			exerted = append(exerted, c)
		}
	}
	s.interp.SetExerted(s.context(pid, ""), exerted, false)
	readied := 0
	for _, c := range gs.CardsInZone(pid, state.ZoneInkwell) {
		if c.Exerted {
			c.Exerted = false
			readied++
		}
	}
	if readied > 0 {
		gs.Log(pid, "ready_ink", readied, readied)
	}
	gs.Players[pid].InkedThisTurn = false
}

// setPhase collects lore from the active player's locations and raises TURN_START.
func (s *session) setPhase(pid string) {
	gs := s.state
	for _, loc := range gs.CardsInZone(pid, state.ZonePlay) {
		if loc.Type != state.TypeLocation {
			continue
		}
		lore := gs.LoreValue(loc.ID)
		gained := gs.AddLore(pid, lore)
		if gained > 0 {
			evt := rules.NewEventWithAmount(rules.EventLoreGained, pid, loc.ID, pid, gained)
			evt.PlayerID = pid
			s.queue.Push(evt)
			gs.Log(pid, "location_lore", lore, gained, loc.ID)
		}
		if gs.Over {
			return
		}
	}
	start := rules.NewEvent(rules.EventTurnStart, pid, "", pid)
	start.PlayerID = pid
	start.Amount = gs.Turn
	s.queue.Push(start)
}

// drawPhase draws the turn's card. A player who has to draw from an empty
// deck loses.
func (s *session) drawPhase(pid string) {
	gs := s.state
	drawn := gs.Draw(pid, 1)
	if len(drawn) == 0 {
		gs.Log(pid, "draw", 1, 0, pid)
		gs.MarkLost(pid)
		lost := rules.NewEvent(rules.EventPlayerLost, pid, "", pid)
		lost.PlayerID = pid
		lost.Data = "empty deck"
		s.queue.Push(lost)
		s.logger.Info("player lost",
			zap.String("player_id", pid),
			zap.String("reason", "empty deck"),
		)
		return
	}
	for _, id := range drawn {
		evt := rules.NewZoneEvent(rules.EventCardDrawn, id, "", pid, string(state.ZoneDeck), string(state.ZoneHand))
		evt.PlayerID = pid
		s.queue.Push(evt)
	}
	gs.Log(pid, "draw", 1, len(drawn), append([]string{pid}, drawn...)...)
}

// passTurn ends the active player's turn and begins the next player's.
func (s *session) passTurn(ctx context.Context) {
	gs := s.state
	pid := gs.ActivePlayer

	s.enterPhase(rules.PhaseEnd)
	end := rules.NewEvent(rules.EventTurnEnd, pid, "", pid)
	end.PlayerID = pid
	end.Amount = gs.Turn
	s.queue.Push(end)
	s.settle(ctx)

	gs.ExpireEndOfTurn()
	s.tracker.Reset()
	s.bus.RefreshStatics(ctx, gs)
	gs.Log(pid, "pass_turn", 1, 1)
	if gs.Over {
		return
	}

	s.turns.AdvancePhase(gs.NextPlayer(pid))
	s.beginTurn(ctx)
}

// enterPhase moves the turn manager forward to phase and mirrors it into state.
func (s *session) enterPhase(phase rules.Phase) {
	s.turns.AdvanceTo(phase)
	s.syncTurn()
	evt := rules.NewEvent(rules.EventPhaseChanged, s.state.ActivePlayer, "", s.state.ActivePlayer)
	evt.Data = phase.String()
	s.queue.Push(evt)
}

func (s *session) syncTurn() {
	s.state.Turn = s.turns.TurnNumber()
	s.state.ActivePlayer = s.turns.ActivePlayer()
	s.state.Phase = s.turns.CurrentPhase()
}

// settle drains pending events and banishes characters whose damage became
// lethal until the board is stable. Statics are re-derived on every drain.
func (s *session) settle(ctx context.Context) {
	gs := s.state
	for {
		s.bus.Drain(ctx, gs, s.queue)
		if s.interp.SweepBanished(s.context(gs.ActivePlayer, "")) == 0 {
			break
		}
	}
	s.announceResult()
}

// announceResult tells observers about the winner once.
func (s *session) announceResult() {
	gs := s.state
	if !gs.Over || s.announced {
		return
	}
	s.announced = true
	if gs.Winner == "" {
		return
	}
	evt := rules.NewEvent(rules.EventGameWon, gs.Winner, "", gs.Winner)
	evt.PlayerID = gs.Winner
	s.bus.Observers().Publish(evt)
	gs.Log(gs.Winner, "game_won", gs.WinThreshold, gs.Players[gs.Winner].Lore, gs.Winner)
}
