package effects

import (
	"context"
	"fmt"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
)

// DeckFamily works on whole hands, decks and discard piles.
type DeckFamily struct {
	in *Interpreter
}

// Handlers implements Family.
func (d *DeckFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectDrawUntil:              d.drawUntil,
		ast.EffectDiscardHand:            d.discardHand,
		ast.EffectInkTopOfDeck:           d.inkTopOfDeck,
		ast.EffectShuffleDiscardIntoDeck: d.shuffleDiscardIntoDeck,
		ast.EffectSearchDeck:             d.searchDeck,
		ast.EffectRevealTopCard:          d.revealTopCard,
		ast.EffectRevealHand:             d.revealHand,
	}
}

// drawUntil draws until each target player holds N cards.
func (d *DeckFamily) drawUntil(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := d.in.amount(ctx, e, ec, 0)
	total := 0
	for _, pid := range d.in.players(ctx, e.Target, ec, targetYou) {
		p, ok := ec.State.Player(pid)
		if !ok || len(p.Hand) >= n {
			continue
		}
		total += len(d.in.Draw(ec, pid, n-len(p.Hand)))
	}
	ec.SetVar(targeting.VarCardsDrawn, total)
	return Result{Applied: total}
}

func (d *DeckFamily) discardHand(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	total := 0
	for _, pid := range d.in.players(ctx, e.Target, ec, targetYou) {
		hand := ec.State.CardsInZone(pid, state.ZoneHand)
		total += d.in.MoveCards(ec, hand, state.ZoneDiscard, state.MoveOptions{}, rules.EventDiscarded, "discard_hand")
	}
	return Result{Applied: total}
}

// inkTopOfDeck puts the top N cards of each target player's deck into
// their inkwell.
func (d *DeckFamily) inkTopOfDeck(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := d.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range d.in.players(ctx, e.Target, ec, targetYou) {
		deck := ec.State.CardsInZone(pid, state.ZoneDeck)
		if len(deck) > n {
			deck = deck[:n]
		}
		opts := state.MoveOptions{Exerted: e.Exerted}
		total += d.in.MoveCards(ec, deck, state.ZoneInkwell, opts, rules.EventCardInked, "ink_top_of_deck")
	}
	return Result{Applied: total}
}

// shuffleDiscardIntoDeck shuffles each target player's discard pile, or
// only its cards of CardType, into their deck.
func (d *DeckFamily) shuffleDiscardIntoDeck(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	total := 0
	for _, pid := range d.in.players(ctx, e.Target, ec, targetYou) {
		var cards []*state.CardInstance
		for _, c := range ec.State.CardsInZone(pid, state.ZoneDiscard) {
			if e.CardType == "" || string(c.Type) == e.CardType {
				cards = append(cards, c)
			}
		}
		moved := d.in.MoveCards(ec, cards, state.ZoneDeck, state.MoveOptions{}, rules.EventZoneChange, "shuffle_discard_into_deck")
		if moved > 0 {
			ec.State.Shuffle(pid)
		}
		total += moved
	}
	return Result{Applied: total}
}

// searchDeck lets the controller take up to Target.Count cards matching
// Target.Filter from their deck into the destination zone (hand by
// default), then shuffles the deck.
func (d *DeckFamily) searchDeck(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	deck := ec.State.CardsInZone(ec.PlayerID, state.ZoneDeck)
	if len(deck) == 0 {
		return Result{}
	}
	var filter *ast.Filter
	take := 1
	if e.Target != nil {
		filter = e.Target.Filter
		if e.Target.Count > 0 {
			take = e.Target.Count
		}
	}
	var options []choice.Option
	byID := make(map[string]*state.CardInstance)
	for _, c := range deck {
		if filter == nil || matchesIgnoringZone(ec, c, filter) {
			options = append(options, choice.Option{ID: c.ID, Label: c.Name})
			byID[c.ID] = c
		}
	}
	var picked []*state.CardInstance
	if len(options) > 0 {
		resp := d.in.resolver.Broker().Request(ctx, ec.State, choice.Request{
			PlayerID: ec.PlayerID,
			Kind:     choice.KindSelectTargets,
			Prompt:   fmt.Sprintf("Search your deck for up to %d card(s)", take),
			SourceID: ec.SourceID,
			Options:  options,
			Max:      min(take, len(options)),
		})
		for _, id := range resp.Selected {
			if c, ok := byID[id]; ok && len(picked) < take {
				picked = append(picked, c)
			}
		}
	}
	applied := d.in.MoveCards(ec, picked, destination(e), state.MoveOptions{}, rules.EventZoneChange, "search_deck")
	if len(picked) > 0 {
		ec.Last = refsOf(picked)
	}
	ec.State.Shuffle(ec.PlayerID)
	return Result{Applied: applied}
}

// revealTopCard reveals the top card of the controller's deck. A card
// passing Target.Filter goes to the destination zone (hand by default);
// anything else stays on top.
func (d *DeckFamily) revealTopCard(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	deck := ec.State.CardsInZone(ec.PlayerID, state.ZoneDeck)
	if len(deck) == 0 {
		return Result{}
	}
	top := deck[0]
	ec.Last = []state.Ref{state.CardRef(top.ID)}
	if e.Target != nil && e.Target.Filter != nil && !matchesIgnoringZone(ec, top, e.Target.Filter) {
		d.in.record(ec, "reveal_top_card", 1, 0, top.ID)
		return Result{}
	}
	return Result{Applied: d.in.MoveCards(ec, []*state.CardInstance{top}, destination(e), state.MoveOptions{}, rules.EventZoneChange, "reveal_top_card")}
}

// revealHand shows each target player's hand. Nothing moves; the revealed
// cards become the last targets.
func (d *DeckFamily) revealHand(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	var shown []*state.CardInstance
	for _, pid := range d.in.players(ctx, e.Target, ec, targetOpponent) {
		hand := ec.State.CardsInZone(pid, state.ZoneHand)
		d.in.record(ec, "reveal_hand", len(hand), len(hand), append([]string{pid}, cardIDs(hand)...)...)
		shown = append(shown, hand...)
	}
	if len(shown) > 0 {
		ec.Last = refsOf(shown)
	}
	return Result{Applied: len(shown)}
}

// destination is the zone named by e.Zone, hand when unset or unusable.
func destination(e *ast.Effect) state.Zone {
	if zone, ok := state.ParseZone(e.Zone); ok && zone != state.ZoneAttached && zone != state.ZoneNone {
		return zone
	}
	return state.ZoneHand
}
