package effects

import (
	"context"
	"fmt"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// Default targets for effects that leave theirs out.
var (
	targetSelf         = &ast.Target{Type: ast.TargetSelf}
	targetYou          = &ast.Target{Type: ast.TargetController}
	targetOpponent     = &ast.Target{Type: ast.TargetOpponent}
	targetEachOpponent = &ast.Target{Type: ast.TargetEachOpponent}
	targetChosenChar   = &ast.Target{Type: ast.TargetChosen, Filter: &ast.Filter{CardType: string(state.TypeCharacter)}}
	targetYourHand     = &ast.Target{Type: ast.TargetChosen, Filter: &ast.Filter{Zone: string(state.ZoneHand), Owner: ast.OwnerYou}}
	targetYourDiscard  = &ast.Target{Type: ast.TargetChosen, Filter: &ast.Filter{Zone: string(state.ZoneDiscard), Owner: ast.OwnerYou}}
)

// ZoneFamily moves cards between zones and changes lore.
type ZoneFamily struct {
	in *Interpreter
}

// Handlers implements Family.
func (z *ZoneFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectDraw:                  z.draw,
		ast.EffectDiscard:               z.discard,
		ast.EffectOpponentChoiceDiscard: z.opponentChoiceDiscard,
		ast.EffectRandomDiscard:         z.randomDiscard,
		ast.EffectMill:                  z.mill,
		ast.EffectBanish:                z.banish,
		ast.EffectReturnToHand:          z.returnToHand,
		ast.EffectMoveToZone:            z.moveToZone,
		ast.EffectPutIntoInkwell:        z.putIntoInkwell,
		ast.EffectShuffleIntoDeck:       z.shuffleIntoDeck,
		ast.EffectPutOnTopOfDeck:        z.deckPlacer(true),
		ast.EffectPutOnBottomOfDeck:     z.deckPlacer(false),
		ast.EffectReturnFromDiscard:     z.returnFromDiscard,
		ast.EffectPlayForFree:           z.playForFree,
		ast.EffectLookAtTop:             z.lookAtTop,
		ast.EffectReady:                 z.ready,
		ast.EffectExert:                 z.exert,
		ast.EffectGainLore:              z.gainLore,
		ast.EffectLoseLore:              z.loseLore,
		ast.EffectNoop:                  func(context.Context, *ast.Effect, *targeting.Context) Result { return Result{} },
	}
}

// draw draws min(requested, cards left) for each target player. Drawing
// from an empty deck through an effect is not a loss.
func (z *ZoneFamily) draw(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := z.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range z.in.players(ctx, e.Target, ec, targetYou) {
		total += len(z.in.Draw(ec, pid, n))
	}
	ec.SetVar(targeting.VarCardsDrawn, total)
	return Result{Applied: total}
}

// discard discards the targeted cards, or has each targeted player choose
// cards from their own hand.
func (z *ZoneFamily) discard(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	if e.Target != nil && !e.Target.IsPlayerTarget() {
		cards := z.in.cards(ctx, e.Target, ec, nil)
		return Result{Applied: z.in.MoveCards(ec, cards, state.ZoneDiscard, state.MoveOptions{}, rules.EventDiscarded, "discard")}
	}
	n := z.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range z.in.players(ctx, e.Target, ec, targetYou) {
		total += z.chooseDiscard(ctx, ec, pid, n)
	}
	return Result{Applied: total}
}

func (z *ZoneFamily) opponentChoiceDiscard(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := z.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range z.in.players(ctx, e.Target, ec, targetEachOpponent) {
		total += z.chooseDiscard(ctx, ec, pid, n)
	}
	return Result{Applied: total}
}

// chooseDiscard has playerID pick n cards of their hand to discard. The
// discard is mandatory: cards the player leaves unpicked are taken from
// the front of the hand. An empty hand discards nothing.
func (z *ZoneFamily) chooseDiscard(ctx context.Context, ec *targeting.Context, playerID string, n int) int {
	hand := ec.State.CardsInZone(playerID, state.ZoneHand)
	if len(hand) == 0 || n <= 0 {
		z.in.record(ec, "discard", n, 0, playerID)
		return 0
	}
	n = min(n, len(hand))
	options := make([]choice.Option, len(hand))
	byID := make(map[string]*state.CardInstance, len(hand))
	for i, c := range hand {
		options[i] = choice.Option{ID: c.ID, Label: c.Name}
		byID[c.ID] = c
	}
	resp := z.in.resolver.Broker().Request(ctx, ec.State, choice.Request{
		PlayerID: playerID,
		Kind:     choice.KindSelectTargets,
		Prompt:   fmt.Sprintf("Choose %d card(s) to discard", n),
		SourceID: ec.SourceID,
		Options:  options,
		Min:      n,
		Max:      n,
	})
	picked := make([]*state.CardInstance, 0, n)
	taken := make(map[string]bool, n)
	for _, id := range resp.Selected {
		picked = append(picked, byID[id])
		taken[id] = true
	}
	if len(picked) < n {
		z.in.logger.Debug("discard filled from front of hand",
			zap.String("player_id", playerID),
			zap.String("source_id", ec.SourceID),
			zap.Int("requested", n),
			zap.Int("chosen", len(picked)),
		)
	}
	for _, c := range hand {
		if len(picked) >= n {
			break
		}
		if !taken[c.ID] {
			picked = append(picked, c)
		}
	}
	return z.in.MoveCards(ec, picked, state.ZoneDiscard, state.MoveOptions{}, rules.EventDiscarded, "discard")
}

func (z *ZoneFamily) randomDiscard(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := z.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range z.in.players(ctx, e.Target, ec, targetOpponent) {
		hand := ec.State.CardsInZone(pid, state.ZoneHand)
		var picked []*state.CardInstance
		for i := 0; i < n && len(hand) > 0; i++ {
			idx := ec.State.Rand().Intn(len(hand))
			picked = append(picked, hand[idx])
			hand = append(hand[:idx], hand[idx+1:]...)
		}
		if len(picked) == 0 {
			z.in.record(ec, "random_discard", n, 0, pid)
			continue
		}
		total += z.in.MoveCards(ec, picked, state.ZoneDiscard, state.MoveOptions{}, rules.EventDiscarded, "random_discard")
	}
	return Result{Applied: total}
}

func (z *ZoneFamily) mill(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := z.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range z.in.players(ctx, e.Target, ec, targetYou) {
		deck := ec.State.CardsInZone(pid, state.ZoneDeck)
		if len(deck) > n {
			deck = deck[:n]
		}
		total += z.in.MoveCards(ec, deck, state.ZoneDiscard, state.MoveOptions{}, rules.EventZoneChange, "mill")
	}
	return Result{Applied: total}
}

func (z *ZoneFamily) banish(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cards := z.in.cards(ctx, e.Target, ec, targetChosenChar)
	return Result{Applied: z.in.Banish(ec, cards...)}
}

func (z *ZoneFamily) returnToHand(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cards := z.in.cards(ctx, e.Target, ec, targetChosenChar)
	return Result{Applied: z.in.MoveCards(ec, cards, state.ZoneHand, state.MoveOptions{}, rules.EventReturnedToHand, "return_to_hand")}
}

func (z *ZoneFamily) moveToZone(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	zone, ok := state.ParseZone(e.Zone)
	if !ok || zone == state.ZoneAttached {
		z.in.logger.Warn("move_to_zone: unusable zone", zap.String("zone", e.Zone), zap.String("source_id", ec.SourceID))
		return Result{}
	}
	cards := z.in.cards(ctx, e.Target, ec, targetSelf)
	evtType := rules.EventZoneChange
	switch zone {
	case state.ZoneHand:
		evtType = rules.EventReturnedToHand
	case state.ZoneDiscard:
		evtType = rules.EventDiscarded
	}
	opts := state.MoveOptions{Top: e.Top, Exerted: e.Exerted}
	return Result{Applied: z.in.MoveCards(ec, cards, zone, opts, evtType, "move_to_zone")}
}

func (z *ZoneFamily) putIntoInkwell(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cards := z.in.cards(ctx, e.Target, ec, targetSelf)
	opts := state.MoveOptions{Exerted: e.Exerted}
	return Result{Applied: z.in.MoveCards(ec, cards, state.ZoneInkwell, opts, rules.EventCardInked, "put_into_inkwell")}
}

func (z *ZoneFamily) shuffleIntoDeck(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cards := z.in.cards(ctx, e.Target, ec, targetChosenChar)
	applied := z.in.MoveCards(ec, cards, state.ZoneDeck, state.MoveOptions{}, rules.EventZoneChange, "shuffle_into_deck")
	shuffled := make(map[string]bool)
	for _, c := range cards {
		if !shuffled[c.OwnerID] {
			shuffled[c.OwnerID] = true
			ec.State.Shuffle(c.OwnerID)
		}
	}
	return Result{Applied: applied}
}

func (z *ZoneFamily) deckPlacer(top bool) Handler {
	action := "put_on_bottom_of_deck"
	if top {
		action = "put_on_top_of_deck"
	}
	return func(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
		cards := z.in.cards(ctx, e.Target, ec, targetChosenChar)
		return Result{Applied: z.in.MoveCards(ec, cards, state.ZoneDeck, state.MoveOptions{Top: top}, rules.EventZoneChange, action)}
	}
}

func (z *ZoneFamily) returnFromDiscard(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cards := z.in.cards(ctx, e.Target, ec, targetYourDiscard)
	var fromDiscard []*state.CardInstance
	for _, c := range cards {
		if c.Zone == state.ZoneDiscard {
			fromDiscard = append(fromDiscard, c)
		}
	}
	return Result{Applied: z.in.MoveCards(ec, fromDiscard, state.ZoneHand, state.MoveOptions{}, rules.EventReturnedToHand, "return_from_discard")}
}

// playForFree plays cards without paying ink. Without a card player set,
// cards other than actions simply enter play.
func (z *ZoneFamily) playForFree(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	applied := 0
	for _, c := range z.in.cards(ctx, e.Target, ec, targetYourHand) {
		if c.InPlay() {
			continue
		}
		if z.in.player != nil {
			if z.in.player.PlayFree(ctx, ec, c.ID) {
				applied++
			}
			continue
		}
		if c.Type == state.TypeAction {
			z.in.logger.Warn("play_for_free: no card player to resolve action", zap.String("card_id", c.ID))
			continue
		}
		if z.in.EnterPlay(ec, c, e.Exerted) {
			applied++
		}
	}
	return Result{Applied: applied}
}

// lookAtTop looks at the top N cards of the controller's deck, lets the
// controller take up to Target.Count matching cards into the destination
// zone (hand by default) and puts the rest on the bottom in order.
func (z *ZoneFamily) lookAtTop(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := z.in.amount(ctx, e, ec, 1)
	deck := ec.State.CardsInZone(ec.PlayerID, state.ZoneDeck)
	if len(deck) > n {
		deck = deck[:n]
	}
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
	for _, c := range deck {
		if filter == nil || matchesIgnoringZone(ec, c, filter) {
			options = append(options, choice.Option{ID: c.ID, Label: c.Name})
		}
	}
	resp := z.in.resolver.Broker().Request(ctx, ec.State, choice.Request{
		PlayerID: ec.PlayerID,
		Kind:     choice.KindSelectTargets,
		Prompt:   fmt.Sprintf("Choose up to %d card(s) to take", take),
		SourceID: ec.SourceID,
		Options:  options,
		Max:      take,
	})
	dest := state.ZoneHand
	if zone, ok := state.ParseZone(e.Zone); ok && zone != state.ZoneAttached {
		dest = zone
	}
	taken := make(map[string]bool, len(resp.Selected))
	var picked, rest []*state.CardInstance
	for _, id := range resp.Selected {
		taken[id] = true
	}
	for _, c := range deck {
		if taken[c.ID] {
			picked = append(picked, c)
		} else {
			rest = append(rest, c)
		}
	}
	applied := z.in.MoveCards(ec, picked, dest, state.MoveOptions{}, rules.EventZoneChange, "look_at_top")
	if len(picked) > 0 {
		ec.Last = refsOf(picked)
	}
	z.in.MoveCards(ec, rest, state.ZoneDeck, state.MoveOptions{}, rules.EventZoneChange, "put_on_bottom_of_deck")
	return Result{Applied: applied}
}

func (z *ZoneFamily) ready(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	return Result{Applied: z.in.SetExerted(ec, z.in.cards(ctx, e.Target, ec, targetSelf), false)}
}

func (z *ZoneFamily) exert(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	return Result{Applied: z.in.SetExerted(ec, z.in.cards(ctx, e.Target, ec, targetChosenChar), true)}
}

func (z *ZoneFamily) gainLore(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := z.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range z.in.players(ctx, e.Target, ec, targetYou) {
		gained := ec.State.AddLore(pid, n)
		if gained > 0 {
			evt := rules.NewEventWithAmount(rules.EventLoreGained, pid, ec.SourceID, ec.PlayerID, gained)
			evt.PlayerID = pid
			ec.Emit(evt)
		}
		z.in.record(ec, "gain_lore", n, gained, pid)
		total += gained
	}
	return Result{Applied: total}
}

func (z *ZoneFamily) loseLore(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := z.in.amount(ctx, e, ec, 1)
	total := 0
	for _, pid := range z.in.players(ctx, e.Target, ec, targetOpponent) {
		lost := ec.State.LoseLore(pid, n)
		if lost > 0 {
			evt := rules.NewEventWithAmount(rules.EventLoreLost, pid, ec.SourceID, ec.PlayerID, lost)
			evt.PlayerID = pid
			ec.Emit(evt)
		}
		z.in.record(ec, "lose_lore", n, lost, pid)
		total += lost
	}
	return Result{Applied: total}
}

// matchesIgnoringZone applies a filter to a card that is not where the
// filter would look, such as a card being looked at on top of the deck.
func matchesIgnoringZone(ec *targeting.Context, c *state.CardInstance, f *ast.Filter) bool {
	cp := *f
	cp.Zone = ""
	return targeting.Matches(ec, c, &cp)
}

func refsOf(cards []*state.CardInstance) []state.Ref {
	refs := make([]state.Ref, len(cards))
	for i, c := range cards {
		refs[i] = state.CardRef(c.ID)
	}
	return refs
}
