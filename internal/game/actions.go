package game

import (
	"context"
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/effects"
	"github.com/inkwell-labs/lorcana-engine/internal/game/ink"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// ActionType names a player action.
type ActionType string

const (
	ActionInk       ActionType = "INK"
	ActionPlayCard  ActionType = "PLAY_CARD"
	ActionQuest     ActionType = "QUEST"
	ActionChallenge ActionType = "CHALLENGE"
	ActionSing      ActionType = "SING"
	ActionActivate  ActionType = "ACTIVATE"
	ActionMove      ActionType = "MOVE"
	ActionPassTurn  ActionType = "PASS_TURN"

	// ActionStart only appears in replays, for the frame taken after setup.
	ActionStart ActionType = "START"
)

// Action is one player decision.
//
//	INK, QUEST:     CardID
//	PLAY_CARD:      CardID, TargetID for the character a Shift card goes on
//	CHALLENGE:      CardID attacks TargetID
//	SING:           CardID is the song, TargetID the singer
//	ACTIVATE:       CardID, AbilityID
//	MOVE:           CardID moves to location TargetID
type Action struct {
	Type      ActionType `json:"type"`
	PlayerID  string     `json:"player_id"`
	CardID    string     `json:"card_id,omitempty"`
	TargetID  string     `json:"target_id,omitempty"`
	AbilityID string     `json:"ability_id,omitempty"`
}

// applyFunc mutates state for an action that was already validated.
type applyFunc func(ctx context.Context)

func (s *session) submit(ctx context.Context, a Action) error {
	apply, err := s.prepare(ctx, a)
	if err != nil {
		return err
	}
	apply(ctx)
	s.settle(ctx)
	return nil
}

// prepare validates an action against the current state without changing
// it and returns the mutation to run.
func (s *session) prepare(ctx context.Context, a Action) (applyFunc, error) {
	gs := s.state
	action := string(a.Type)
	if gs.Over {
		return nil, &rules.ActionError{Action: action, PlayerID: a.PlayerID, Reason: "game is over", Err: rules.ErrGameOver}
	}
	p, ok := gs.Players[a.PlayerID]
	if !ok {
		return nil, rules.Invalid(action, a.PlayerID, "unknown player")
	}
	if p.Lost {
		return nil, rules.Invalid(action, a.PlayerID, "player has lost")
	}
	if gs.ActivePlayer != a.PlayerID {
		return nil, rules.Invalid(action, a.PlayerID, "not your turn")
	}
	if !s.turns.IsMain() {
		return nil, rules.Invalid(action, a.PlayerID, "actions are only allowed in the main phase (current: %s)", s.turns.CurrentPhase())
	}

	switch a.Type {
	case ActionInk:
		return s.prepareInk(a)
	case ActionPlayCard:
		if a.TargetID != "" {
			return s.prepareShift(a)
		}
		return s.preparePlay(a)
	case ActionQuest:
		return s.prepareQuest(a)
	case ActionChallenge:
		return s.prepareChallenge(a)
	case ActionSing:
		return s.prepareSing(a)
	case ActionActivate:
		return s.prepareActivate(ctx, a)
	case ActionMove:
		return s.prepareMove(a)
	case ActionPassTurn:
		return s.passTurn, nil
	}
	return nil, rules.Invalid(action, a.PlayerID, "unknown action type %q", a.Type)
}

// context builds the execution context actions and phases resolve with.
func (s *session) context(playerID, sourceID string) *targeting.Context {
	ec := targeting.NewContext(s.state, playerID, sourceID)
	ec.Events = s.queue
	ec.Stats = s.tracker
	return ec
}

func (s *session) handCard(a Action, id string) (*state.CardInstance, error) {
	card, ok := s.state.Card(id)
	if !ok {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "card %s not found", id)
	}
	if card.OwnerID != a.PlayerID || card.Zone != state.ZoneHand {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s is not in your hand", card.Name)
	}
	return card, nil
}

func (s *session) boardCharacter(a Action, id string) (*state.CardInstance, error) {
	card, ok := s.state.Card(id)
	if !ok {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "card %s not found", id)
	}
	if card.OwnerID != a.PlayerID || !card.InPlay() {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s is not one of your cards in play", card.Name)
	}
	if !card.IsCharacter() {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s is not a character", card.Name)
	}
	return card, nil
}

// readyAndDry checks the two conditions questing, challenging and singing
// share. A character is dry once it has been in play since the start of its
// controller's turn. Rush is the one exception: with rush set (challenges
// only) a Rush character may act the turn it is played. Quests and songs
// still need a dry character.
func (s *session) readyAndDry(a Action, card *state.CardInstance, rush bool) error {
	if card.Exerted {
		return rules.Invalid(string(a.Type), a.PlayerID, "%s is exerted", card.Name)
	}
	if !card.IsDry(s.state.Turn) && !(rush && s.state.HasKeyword(card.ID, state.KeywordRush)) {
		return rules.Invalid(string(a.Type), a.PlayerID, "%s was played this turn", card.Name)
	}
	return nil
}

func (s *session) prepareInk(a Action) (applyFunc, error) {
	gs := s.state
	p := gs.Players[a.PlayerID]
	if p.InkedThisTurn {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "already inked a card this turn")
	}
	card, err := s.handCard(a, a.CardID)
	if err != nil {
		return nil, err
	}
	if !card.Inkable {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s is not inkable", card.Name)
	}
	return func(ctx context.Context) {
		ec := s.context(a.PlayerID, card.ID)
		opts := state.MoveOptions{Exerted: s.opts.InkEntersExerted}
		s.interp.MoveCards(ec, []*state.CardInstance{card}, state.ZoneInkwell, opts, rules.EventCardInked, "ink")
		p.InkedThisTurn = true
	}, nil
}

func (s *session) preparePlay(a Action) (applyFunc, error) {
	gs := s.state
	card, err := s.handCard(a, a.CardID)
	if err != nil {
		return nil, err
	}
	cost := ink.CostFor(gs, a.PlayerID, card, gs.EffectiveStat(card.ID, state.StatCost))
	payment := ink.CalculatePayment(gs, a.PlayerID, cost)
	if !payment.Success {
		return nil, rules.Shortfall(string(a.Type), a.PlayerID, "%s: %s", card.Name, payment.Reason)
	}
	return func(ctx context.Context) {
		if !s.pay(a, payment.Plan) {
			return
		}
		ec := s.context(a.PlayerID, card.ID)
		gs.Log(a.PlayerID, "play_card", cost.Total, len(payment.Plan.Ink), card.ID)
		if card.Type == state.TypeAction {
			s.resolveActionCard(ctx, a.PlayerID, card)
			return
		}
		s.interp.EnterPlay(ec, card, false)
	}, nil
}

// prepareShift plays a card with Shift on top of a same-named character.
func (s *session) prepareShift(a Action) (applyFunc, error) {
	gs := s.state
	card, err := s.handCard(a, a.CardID)
	if err != nil {
		return nil, err
	}
	shiftCost, ok := card.Keywords[state.KeywordShift]
	if !ok || !card.IsCharacter() {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s has no Shift", card.Name)
	}
	base, err := s.boardCharacter(a, a.TargetID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(base.Name, card.Name) {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s can only shift onto %s", card.Name, card.Name)
	}
	cost := ink.CostFor(gs, a.PlayerID, card, shiftCost)
	payment := ink.CalculatePayment(gs, a.PlayerID, cost)
	if !payment.Success {
		return nil, rules.Shortfall(string(a.Type), a.PlayerID, "shift %s: %s", card.Name, payment.Reason)
	}
	return func(ctx context.Context) {
		if !s.pay(a, payment.Plan) {
			return
		}
		ec := s.context(a.PlayerID, card.ID)
		played := effects.CardEvent(rules.EventCardPlayed, card, card.ID, a.PlayerID)
		played.FromZone = string(card.Zone)
		if err := gs.ShiftOnto(card.ID, base.ID); err != nil {
			s.logger.Error("shift failed after validation", zap.String("card_id", card.ID), zap.Error(err))
			return
		}
		played.ToZone = string(state.ZonePlay)
		shifted := effects.CardEvent(rules.EventCardShifted, card, card.ID, a.PlayerID)
		shifted.Data = base.ID
		ec.Emit(shifted)
		ec.Emit(played)
		gs.Log(a.PlayerID, "shift", cost.Total, len(payment.Plan.Ink), card.ID, base.ID)
	}, nil
}

func (s *session) prepareQuest(a Action) (applyFunc, error) {
	gs := s.state
	card, err := s.boardCharacter(a, a.CardID)
	if err != nil {
		return nil, err
	}
	if err := s.readyAndDry(a, card, false); err != nil {
		return nil, err
	}
	if gs.HasKeyword(card.ID, state.KeywordReckless) {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s is Reckless and can't quest", card.Name)
	}
	if gs.HasRestriction(card.ID, state.RestrictCantQuest) {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s can't quest", card.Name)
	}
	return func(ctx context.Context) {
		ec := s.context(a.PlayerID, card.ID)
		s.interp.SetExerted(ec, []*state.CardInstance{card}, true)
		lore := gs.LoreValue(card.ID)
		quested := effects.CardEvent(rules.EventQuested, card, card.ID, a.PlayerID)
		quested.Amount = lore
		ec.Emit(quested)
		gained := gs.AddLore(a.PlayerID, lore)
		if gained > 0 {
			evt := rules.NewEventWithAmount(rules.EventLoreGained, a.PlayerID, card.ID, a.PlayerID, gained)
			evt.PlayerID = a.PlayerID
			ec.Emit(evt)
		}
		gs.Log(a.PlayerID, "quest", lore, gained, card.ID)
		if !gs.Over && gs.HasKeyword(card.ID, state.KeywordSupport) {
			s.support(ctx, ec, card)
		}
	}, nil
}

// support lets the questing character's controller add its strength to
// another of their characters this turn.
func (s *session) support(ctx context.Context, ec *targeting.Context, card *state.CardInstance) {
	strength := s.state.Strength(card.ID)
	if strength <= 0 {
		return
	}
	s.interp.Execute(ctx, &ast.Effect{
		Type:  ast.EffectOptional,
		Label: "Use Support?",
		Effect: &ast.Effect{
			Type:     ast.EffectModifyStat,
			Stat:     string(state.StatStrength),
			Amount:   ast.Const(strength),
			Duration: string(state.DurationEndOfTurn),
			Target: &ast.Target{
				Type:  ast.TargetChosen,
				Count: 1,
				Filter: &ast.Filter{
					Zone:     string(state.ZonePlay),
					Owner:    ast.OwnerYou,
					CardType: string(state.TypeCharacter),
					Other:    true,
				},
			},
		},
	}, ec)
}

func (s *session) prepareChallenge(a Action) (applyFunc, error) {
	gs := s.state
	action := string(a.Type)
	attacker, err := s.boardCharacter(a, a.CardID)
	if err != nil {
		return nil, err
	}
	if err := s.readyAndDry(a, attacker, true); err != nil {
		return nil, err
	}
	if gs.HasRestriction(attacker.ID, state.RestrictCantChallenge) {
		return nil, rules.Invalid(action, a.PlayerID, "%s can't challenge", attacker.Name)
	}
	defender, ok := gs.Card(a.TargetID)
	if !ok || !defender.InPlay() || defender.OwnerID == a.PlayerID {
		return nil, rules.Invalid(action, a.PlayerID, "challenge target must be an opposing card in play")
	}
	switch defender.Type {
	case state.TypeCharacter:
		if !defender.Exerted && !gs.HasRestriction(attacker.ID, state.PermitChallengeReady) {
			return nil, rules.Invalid(action, a.PlayerID, "%s is not exerted", defender.Name)
		}
		if gs.HasKeyword(defender.ID, state.KeywordEvasive) && !gs.HasKeyword(attacker.ID, state.KeywordEvasive) {
			return nil, rules.Invalid(action, a.PlayerID, "%s is Evasive", defender.Name)
		}
		if !gs.HasKeyword(defender.ID, state.KeywordBodyguard) && s.exertedBodyguard(defender.OwnerID) {
			return nil, rules.Invalid(action, a.PlayerID, "an exerted Bodyguard must be challenged first")
		}
	case state.TypeLocation:
	default:
		return nil, rules.Invalid(action, a.PlayerID, "%s can't be challenged", defender.Name)
	}
	if gs.HasRestriction(defender.ID, state.RestrictCantBeChallenged) {
		return nil, rules.Invalid(action, a.PlayerID, "%s can't be challenged", defender.Name)
	}

	return func(ctx context.Context) {
		ec := s.context(a.PlayerID, attacker.ID)
		s.interp.SetExerted(ec, []*state.CardInstance{attacker}, true)

		challenges := effects.CardEvent(rules.EventChallenges, attacker, attacker.ID, a.PlayerID)
		challenges.Data = defender.ID
		ec.Emit(challenges)
		challenged := effects.CardEvent(rules.EventChallenged, defender, attacker.ID, a.PlayerID)
		challenged.Data = attacker.ID
		ec.Emit(challenged)

		toDefender := gs.Strength(attacker.ID) + gs.KeywordValue(attacker.ID, state.KeywordChallenger)
		toAttacker := 0
		if defender.IsCharacter() {
			toAttacker = gs.Strength(defender.ID)
		}
		dealt := s.interp.DealDamage(ec, defender, toDefender, true)
		back := s.interp.DealDamage(s.context(defender.OwnerID, defender.ID), attacker, toAttacker, true)
		gs.Log(a.PlayerID, "challenge", toDefender, dealt, attacker.ID, defender.ID)
		if back > 0 {
			gs.Log(defender.OwnerID, "challenge_damage", toAttacker, back, defender.ID, attacker.ID)
		}
		s.interp.CheckBanish(ec, defender)
		s.interp.CheckBanish(ec, attacker)
	}, nil
}

func (s *session) exertedBodyguard(ownerID string) bool {
	for _, c := range s.state.CardsInZone(ownerID, state.ZonePlay) {
		if c.IsCharacter() && c.Exerted && s.state.HasKeyword(c.ID, state.KeywordBodyguard) &&
			!s.state.HasRestriction(c.ID, state.RestrictCantBeChallenged) {
			return true
		}
	}
	return false
}

func (s *session) prepareSing(a Action) (applyFunc, error) {
	gs := s.state
	song, err := s.handCard(a, a.CardID)
	if err != nil {
		return nil, err
	}
	if !song.IsSong() {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s is not a song", song.Name)
	}
	singer, err := s.boardCharacter(a, a.TargetID)
	if err != nil {
		return nil, err
	}
	if err := s.readyAndDry(a, singer, false); err != nil {
		return nil, err
	}
	if gs.HasRestriction(singer.ID, state.RestrictCantSing) {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s can't sing", singer.Name)
	}
	songCost := gs.EffectiveStat(song.ID, state.StatCost)
	if voice := singingCost(gs, singer); voice < songCost {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s (%d) can't sing %s (%d)", singer.Name, voice, song.Name, songCost)
	}
	return func(ctx context.Context) {
		ec := s.context(a.PlayerID, singer.ID)
		s.interp.SetExerted(ec, []*state.CardInstance{singer}, true)
		sung := effects.CardEvent(rules.EventSongSung, singer, song.ID, a.PlayerID)
		sung.Data = song.ID
		ec.Emit(sung)
		gs.Log(a.PlayerID, "sing", songCost, 1, singer.ID, song.ID)
		s.resolveActionCard(ctx, a.PlayerID, song)
	}, nil
}

// singingCost is the highest song cost a character can sing.
func singingCost(gs *state.GameState, singer *state.CardInstance) int {
	n := gs.EffectiveStat(singer.ID, state.StatCost)
	if gs.HasKeyword(singer.ID, state.KeywordSinger) {
		n = max(n, gs.KeywordValue(singer.ID, state.KeywordSinger))
	}
	return n
}

func (s *session) prepareActivate(ctx context.Context, a Action) (applyFunc, error) {
	gs := s.state
	action := string(a.Type)
	card, ok := gs.Card(a.CardID)
	if !ok || card.OwnerID != a.PlayerID || !card.InPlay() {
		return nil, rules.Invalid(action, a.PlayerID, "card %s is not one of your cards in play", a.CardID)
	}
	var ab *ast.Ability
	for _, candidate := range s.catalog.Abilities(card) {
		if candidate.Kind == ast.AbilityActivated && candidate.ID == a.AbilityID {
			ab = candidate
			break
		}
	}
	if ab == nil {
		return nil, rules.Invalid(action, a.PlayerID, "%s has no activated ability %q", card.Name, a.AbilityID)
	}
	cost := ab.Cost
	if cost == nil {
		cost = &ast.Cost{}
	}
	if cost.Exert {
		if card.Exerted {
			return nil, rules.Invalid(action, a.PlayerID, "%s is exerted", card.Name)
		}
		if card.IsCharacter() && !card.IsDry(gs.Turn) {
			return nil, rules.Invalid(action, a.PlayerID, "%s was played this turn", card.Name)
		}
	}
	var payment *ink.PaymentResult
	if cost.Ink > 0 {
		payment = ink.CalculatePayment(gs, a.PlayerID, ink.Flat(cost.Ink))
		if !payment.Success {
			return nil, rules.Shortfall(action, a.PlayerID, "%s: %s", ab.ID, payment.Reason)
		}
	}
	if hand := len(gs.Players[a.PlayerID].Hand); cost.Discard > hand {
		return nil, rules.Shortfall(action, a.PlayerID, "%s needs %d card(s) to discard, hand has %d", ab.ID, cost.Discard, hand)
	}
	if ab.Condition != nil {
		ec := s.context(a.PlayerID, card.ID)
		if !s.interp.Evaluator().Check(ctx, ab.Condition, ec) {
			return nil, rules.Invalid(action, a.PlayerID, "condition of %s is not met", ab.ID)
		}
	}

	return func(ctx context.Context) {
		ec := s.context(a.PlayerID, card.ID)
		if payment != nil && !s.pay(a, payment.Plan) {
			return
		}
		if cost.Exert {
			s.interp.SetExerted(ec, []*state.CardInstance{card}, true)
		}
		if cost.Discard > 0 {
			s.interp.Execute(ctx, &ast.Effect{Type: ast.EffectDiscard, Amount: ast.Const(cost.Discard)}, ec)
		}
		if cost.BanishSelf {
			s.interp.Banish(ec, card)
		}
		activated := effects.CardEvent(rules.EventActivated, card, card.ID, a.PlayerID)
		activated.Data = ab.ID
		ec.Emit(activated)
		res := s.interp.Execute(ctx, ab.Effect, ec)
		gs.Log(a.PlayerID, "activate", 1, res.Applied, card.ID, ab.ID)
	}, nil
}

func (s *session) prepareMove(a Action) (applyFunc, error) {
	gs := s.state
	character, err := s.boardCharacter(a, a.CardID)
	if err != nil {
		return nil, err
	}
	location, ok := gs.Card(a.TargetID)
	if !ok || !effects.CanMoveTo(character, location) {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s can't move to %s", character.Name, a.TargetID)
	}
	if gs.HasRestriction(character.ID, state.RestrictCantMove) {
		return nil, rules.Invalid(string(a.Type), a.PlayerID, "%s can't move", character.Name)
	}
	cost := ink.Flat(gs.EffectiveStat(location.ID, state.StatMoveCost))
	payment := ink.CalculatePayment(gs, a.PlayerID, cost)
	if !payment.Success {
		return nil, rules.Shortfall(string(a.Type), a.PlayerID, "move to %s: %s", location.Name, payment.Reason)
	}
	return func(ctx context.Context) {
		if !s.pay(a, payment.Plan) {
			return
		}
		s.interp.MoveToLocation(s.context(a.PlayerID, character.ID), character, location)
	}, nil
}

// pay executes a payment planned during validation.
func (s *session) pay(a Action, plan *ink.PaymentPlan) bool {
	if err := ink.ExecutePayment(s.state, a.PlayerID, plan); err != nil {
		s.logger.Error("payment failed after validation",
			zap.String("player_id", a.PlayerID),
			zap.String("action", string(a.Type)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// resolveActionCard puts an action into its owner's discard and resolves
// its effect. The card is in the discard while it resolves so it never
// targets itself in hand.
func (s *session) resolveActionCard(ctx context.Context, controller string, card *state.CardInstance) {
	gs := s.state
	played := effects.CardEvent(rules.EventCardPlayed, card, card.ID, controller)
	played.FromZone = string(card.Zone)
	if err := gs.MoveCard(card.ID, state.ZoneDiscard, state.MoveOptions{}); err != nil {
		s.logger.Error("action card could not be discarded", zap.String("card_id", card.ID), zap.Error(err))
		return
	}
	played.ToZone = string(state.ZoneDiscard)

	for _, ab := range s.catalog.Abilities(card) {
		if !resolvesOnPlay(ab) {
			continue
		}
		ec := s.context(controller, card.ID)
		ec.Event = &played
		if ab.Condition != nil && !s.interp.Evaluator().Check(ctx, ab.Condition, ec) {
			continue
		}
		if ab.Optional && !s.broker.Confirm(ctx, gs, controller, card.ID, "Use "+card.Name+"?") {
			continue
		}
		res := s.interp.Execute(ctx, ab.Effect, ec)
		gs.Log(controller, "resolve_action", 1, res.Applied, card.ID)
	}
	s.queue.Push(played)
}

// resolvesOnPlay reports whether an action card's ability is its effect:
// an on-play trigger on itself or an ability without a trigger.
func resolvesOnPlay(ab *ast.Ability) bool {
	if ab == nil {
		return false
	}
	switch ab.Kind {
	case ast.AbilityStatic:
		return true
	case ast.AbilityTriggered:
		return ab.Trigger != nil && ab.Trigger.Event == rules.EventCardPlayed &&
			(ab.Trigger.Subject == ast.SubjectSelf || ab.Trigger.Subject == "")
	}
	return false
}

// PlayFree plays a card without paying ink, for effects that play cards.
func (s *session) PlayFree(ctx context.Context, ec *targeting.Context, cardID string) bool {
	card, ok := s.state.Card(cardID)
	if !ok || card.InPlay() {
		return false
	}
	s.state.Log(ec.PlayerID, "play_free", 1, 1, card.ID)
	if card.Type == state.TypeAction {
		s.resolveActionCard(ctx, ec.PlayerID, card)
		return true
	}
	return s.interp.EnterPlay(ec, card, false)
}
