package effects

import (
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// MoveCards moves cards to a zone, raising evtType for each card moved.
// The event is built before the move so it carries what the card was.
func (in *Interpreter) MoveCards(ec *targeting.Context, cards []*state.CardInstance, to state.Zone, opts state.MoveOptions, evtType rules.EventType, action string) int {
	var moved []string
	for _, c := range cards {
		from := c.Zone
		if from == to && to != state.ZoneDeck {
			continue
		}
		evt := CardEvent(evtType, c, ec.SourceID, ec.PlayerID)
		if err := ec.State.MoveCard(c.ID, to, opts); err != nil {
			in.logger.Warn("card move failed",
				zap.String("card_id", c.ID),
				zap.String("to", string(to)),
				zap.Error(err),
			)
			continue
		}
		evt.FromZone = string(from)
		evt.ToZone = string(to)
		ec.Emit(evt)
		moved = append(moved, c.ID)
	}
	in.record(ec, action, len(cards), len(moved), moved...)
	return len(moved)
}

// Draw draws up to n cards for a player and raises CARD_DRAWN for each.
func (in *Interpreter) Draw(ec *targeting.Context, playerID string, n int) []string {
	drawn := ec.State.Draw(playerID, n)
	for _, id := range drawn {
		evt := rules.NewZoneEvent(rules.EventCardDrawn, id, ec.SourceID, ec.PlayerID, string(state.ZoneDeck), string(state.ZoneHand))
		evt.PlayerID = playerID
		ec.Emit(evt)
	}
	in.record(ec, "draw", n, len(drawn), append([]string{playerID}, drawn...)...)
	return drawn
}

// Banish puts cards in play into their owners' discard piles.
func (in *Interpreter) Banish(ec *targeting.Context, cards ...*state.CardInstance) int {
	var inPlay []*state.CardInstance
	for _, c := range cards {
		if c != nil && c.InPlay() {
			inPlay = append(inPlay, c)
		}
	}
	if len(inPlay) == 0 {
		return 0
	}
	return in.MoveCards(ec, inPlay, state.ZoneDiscard, state.MoveOptions{}, rules.EventBanished, "banish")
}

// DealDamage puts damage on a character or location in play. Dealt damage
// is reduced by Resist; put damage is not. It returns the damage placed.
func (in *Interpreter) DealDamage(ec *targeting.Context, card *state.CardInstance, amount int, dealt bool) int {
	if !canTakeDamage(card) || amount <= 0 {
		return 0
	}
	if dealt {
		if ec.State.HasRestriction(card.ID, state.RestrictCantBeDealtDamage) {
			return 0
		}
		amount -= ec.State.KeywordValue(card.ID, state.KeywordResist)
	}
	if amount <= 0 {
		return 0
	}
	card.Damage += amount
	evt := CardEvent(rules.EventDamaged, card, ec.SourceID, ec.PlayerID)
	evt.Amount = amount
	evt.Flag = dealt
	ec.Emit(evt)
	return amount
}

// CheckBanish banishes card if its damage reached its willpower.
func (in *Interpreter) CheckBanish(ec *targeting.Context, card *state.CardInstance) bool {
	if !lethal(ec.State, card) {
		return false
	}
	return in.Banish(ec, card) > 0
}

// SweepBanished banishes every character and location whose damage reached
// its willpower, in board order. Lowered willpower can make damage lethal
// without any new damage being dealt.
func (in *Interpreter) SweepBanished(ec *targeting.Context) int {
	gs := ec.State
	var doomed []*state.CardInstance
	for _, pid := range gs.PlayersFrom(gs.ActivePlayer) {
		for _, c := range targeting.OrderedZone(gs, pid, state.ZonePlay) {
			if lethal(gs, c) {
				doomed = append(doomed, c)
			}
		}
	}
	if len(doomed) == 0 {
		return 0
	}
	return in.Banish(ec, doomed...)
}

// EnterPlay puts a card from any zone into play under its owner and raises CARD_PLAYED.
func (in *Interpreter) EnterPlay(ec *targeting.Context, card *state.CardInstance, exerted bool) bool {
	evt := CardEvent(rules.EventCardPlayed, card, card.ID, card.OwnerID)
	evt.FromZone = string(card.Zone)
	if err := ec.State.MoveCard(card.ID, state.ZonePlay, state.MoveOptions{Exerted: exerted}); err != nil {
		in.logger.Warn("card could not enter play", zap.String("card_id", card.ID), zap.Error(err))
		return false
	}
	evt.ToZone = string(state.ZonePlay)
	ec.Emit(evt)
	in.record(ec, "enter_play", 1, 1, card.ID)
	return true
}

// SetExerted readies or exerts cards in play and reports how many changed.
func (in *Interpreter) SetExerted(ec *targeting.Context, cards []*state.CardInstance, exerted bool) int {
	evtType, action := rules.EventReadied, "ready"
	if exerted {
		evtType, action = rules.EventExerted, "exert"
	}
	var changed []string
	for _, c := range cards {
		if !c.InPlay() || c.Exerted == exerted {
			continue
		}
		c.Exerted = exerted
		ec.Emit(CardEvent(evtType, c, ec.SourceID, ec.PlayerID))
		changed = append(changed, c.ID)
	}
	in.record(ec, action, len(cards), len(changed), changed...)
	return len(changed)
}

func canTakeDamage(card *state.CardInstance) bool {
	return card != nil && card.InPlay() && (card.Type == state.TypeCharacter || card.Type == state.TypeLocation)
}

func lethal(gs *state.GameState, card *state.CardInstance) bool {
	return canTakeDamage(card) && card.Damage >= gs.Willpower(card.ID)
}
