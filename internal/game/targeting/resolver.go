// Package targeting turns abstract target descriptions into ordered
// card and player references.
package targeting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"go.uber.org/zap"
)

var (
	// ErrNoTarget is returned when an effect that needs a target has none specified.
	ErrNoTarget = errors.New("no target specified")
	// ErrUnknownTarget is returned for target tags the resolver does not know.
	ErrUnknownTarget = errors.New("unknown target type")
)

// Resolver resolves targets. Chosen targets are asked through the broker;
// everything else is computed from state in a deterministic order.
type Resolver struct {
	logger *zap.Logger
	broker *choice.Broker
}

// NewResolver creates a resolver. A nil broker answers every choice with the bot policy.
func NewResolver(logger *zap.Logger, broker *choice.Broker) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if broker == nil {
		broker = choice.NewBroker(logger, nil)
	}
	return &Resolver{logger: logger, broker: broker}
}

// Broker returns the choice broker used for chosen targets.
func (r *Resolver) Broker() *choice.Broker {
	return r.broker
}

// Resolve returns the entities t designates. An empty result is not an error.
func (r *Resolver) Resolve(ctx context.Context, t *ast.Target, ec *Context) ([]state.Ref, error) {
	return r.resolve(ctx, t, ec, true)
}

// Peek resolves t without prompting. Chosen targets read the first target
// already bound in the context.
func (r *Resolver) Peek(t *ast.Target, ec *Context) []state.Ref {
	refs, err := r.resolve(context.Background(), t, ec, false)
	if err != nil {
		r.logger.Debug("peek target failed", zap.Error(err))
		return nil
	}
	return refs
}

func (r *Resolver) resolve(ctx context.Context, t *ast.Target, ec *Context, prompt bool) ([]state.Ref, error) {
	if t == nil {
		return nil, ErrNoTarget
	}
	gs := ec.State
	switch t.Type {
	case ast.TargetSelf:
		if _, ok := gs.Card(ec.SourceID); ok {
			return []state.Ref{state.CardRef(ec.SourceID)}, nil
		}
		return nil, nil

	case ast.TargetEventSource:
		if ec.Event == nil || ec.Event.SourceID == "" {
			return nil, nil
		}
		return cardRefIfExists(gs, ec.Event.SourceID), nil

	case ast.TargetEventTarget:
		if ec.Event == nil {
			return nil, nil
		}
		if ec.Event.TargetID != "" {
			return cardRefIfExists(gs, ec.Event.TargetID), nil
		}
		var refs []state.Ref
		for _, id := range ec.Event.Targets {
			refs = append(refs, cardRefIfExists(gs, id)...)
		}
		return refs, nil

	case ast.TargetBound:
		name := t.Variable
		if name == "" {
			name = DefaultBinding
		}
		if ref, ok := ec.Bindings[name]; ok {
			return []state.Ref{ref}, nil
		}
		return append([]state.Ref(nil), ec.Last...), nil

	case ast.TargetTopOfDeck:
		n := max(t.Count, 1)
		var refs []state.Ref
		for _, pid := range r.ownersOf(t, ec) {
			p, ok := gs.Player(pid)
			if !ok {
				continue
			}
			for i := 0; i < n && i < len(p.Deck); i++ {
				refs = append(refs, state.CardRef(p.Deck[i]))
			}
		}
		return refs, nil

	case ast.TargetAll:
		return r.Candidates(t, ec), nil

	case ast.TargetChosen:
		cands := r.Candidates(t, ec)
		if !prompt {
			return peekChosen(ec, cands), nil
		}
		return r.choose(ctx, t, ec, cands)

	case ast.TargetController:
		return []state.Ref{state.PlayerRef(ec.PlayerID)}, nil

	case ast.TargetOpponent:
		for _, id := range gs.Opponents(ec.PlayerID) {
			if p, ok := gs.Player(id); ok && !p.Lost {
				return []state.Ref{state.PlayerRef(id)}, nil
			}
		}
		return nil, nil

	case ast.TargetEachOpponent:
		return playerRefs(gs, gs.Opponents(ec.PlayerID)), nil

	case ast.TargetEachPlayer:
		return playerRefs(gs, gs.PlayersFrom(gs.ActivePlayer)), nil

	case ast.TargetEventPlayer:
		if ec.Event == nil || ec.Event.PlayerID == "" {
			return nil, nil
		}
		return []state.Ref{state.PlayerRef(ec.Event.PlayerID)}, nil

	case ast.TargetOwnerOf:
		if id := r.ownerOf(t, ec); id != "" {
			return []state.Ref{state.PlayerRef(id)}, nil
		}
		return nil, nil

	case ast.TargetChosenPlayer:
		cands := r.Candidates(t, ec)
		if !prompt {
			return peekChosen(ec, cands), nil
		}
		return r.choose(ctx, t, ec, cands)

	case ast.TargetCardsUnder:
		host, ok := gs.Card(r.hostOf(t, ec))
		if !ok {
			return nil, nil
		}
		var refs []state.Ref
		for _, id := range host.Under {
			refs = append(refs, cardRefIfExists(gs, id)...)
		}
		return refs, nil

	case ast.TargetSourceLocation:
		if loc := sourceLocation(gs, ec.SourceID); loc != "" {
			return []state.Ref{state.CardRef(loc)}, nil
		}
		return nil, nil

	case ast.TargetCharactersHere:
		loc := sourceLocation(gs, ec.SourceID)
		if loc == "" {
			return nil, nil
		}
		var refs []state.Ref
		for _, pid := range gs.PlayersFrom(gs.ActivePlayer) {
			for _, card := range OrderedZone(gs, pid, state.ZonePlay) {
				if card.AtLocation == loc && Matches(ec, card, t.Filter) {
					refs = append(refs, state.CardRef(card.ID))
				}
			}
		}
		return refs, nil

	case ast.TargetRandom:
		cands := r.Candidates(t, ec)
		if !prompt {
			return peekChosen(ec, cands), nil
		}
		n := min(max(t.Count, 1), len(cands))
		picked := make([]state.Ref, 0, n)
		for range n {
			i := gs.Rand().Intn(len(cands))
			picked = append(picked, cands[i])
			cands = append(cands[:i:i], cands[i+1:]...)
		}
		return picked, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, t.Type)
}

// hostOf names the card whose stack a cards_under target reads: the named
// binding when one is set, else the source.
func (r *Resolver) hostOf(t *ast.Target, ec *Context) string {
	if t.Variable != "" {
		if ref, ok := ec.Bindings[t.Variable]; ok && ref.Kind == state.RefCard {
			return ref.ID
		}
	}
	return ec.SourceID
}

// sourceLocation is the source itself when it is a location, else the
// location it is at.
func sourceLocation(gs *state.GameState, sourceID string) string {
	src, ok := gs.Card(sourceID)
	if !ok {
		return ""
	}
	if src.Type == state.TypeLocation {
		if src.InPlay() {
			return src.ID
		}
		return ""
	}
	return src.AtLocation
}

// Candidates lists every entity a chosen or all target may pick from, in
// board order: players from the active player, then play order within a
// player. Ward hides opposing cards from chosen targets.
func (r *Resolver) Candidates(t *ast.Target, ec *Context) []state.Ref {
	gs := ec.State
	if t != nil && t.Type == ast.TargetChosenPlayer {
		var refs []state.Ref
		for _, pid := range gs.PlayersFrom(gs.ActivePlayer) {
			p := gs.Players[pid]
			if p.Lost || !ownerMatches(ownerFilter(t.Filter), pid, ec.PlayerID) {
				continue
			}
			refs = append(refs, state.PlayerRef(pid))
		}
		return refs
	}

	var f *ast.Filter
	if t != nil {
		f = t.Filter
	}
	zone := ZoneOf(f)
	chooser := r.chooserOf(t, ec)
	var refs []state.Ref
	for _, pid := range gs.PlayersFrom(gs.ActivePlayer) {
		for _, card := range OrderedZone(gs, pid, zone) {
			if !Matches(ec, card, f) {
				continue
			}
			if t != nil && t.Type == ast.TargetChosen && card.OwnerID != chooser &&
				zone == state.ZonePlay && gs.HasKeyword(card.ID, state.KeywordWard) {
				continue
			}
			refs = append(refs, state.CardRef(card.ID))
		}
	}
	return refs
}

// OrderedZone returns a player's cards in a zone. Play is ordered by
// PlayOrder; other zones keep their collection order.
func OrderedZone(gs *state.GameState, playerID string, zone state.Zone) []*state.CardInstance {
	cards := gs.CardsInZone(playerID, zone)
	if zone == state.ZonePlay {
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].PlayOrder < cards[j].PlayOrder
		})
	}
	return cards
}

// ZoneOf returns the zone a filter looks in, defaulting to play.
func ZoneOf(f *ast.Filter) state.Zone {
	if f == nil || f.Zone == "" {
		return state.ZonePlay
	}
	if z, ok := state.ParseZone(f.Zone); ok {
		return z
	}
	return state.ZonePlay
}

func (r *Resolver) choose(ctx context.Context, t *ast.Target, ec *Context, cands []state.Ref) ([]state.Ref, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	req := RequirementFor(t, len(cands))
	options := make([]choice.Option, len(cands))
	byID := make(map[string]state.Ref, len(cands))
	for i, ref := range cands {
		label := ref.ID
		if ref.Kind == state.RefCard {
			if card, ok := ec.State.Card(ref.ID); ok {
				label = card.Name
			}
		}
		options[i] = choice.Option{ID: ref.ID, Label: label}
		byID[ref.ID] = ref
	}
	resp := r.broker.Request(ctx, ec.State, choice.Request{
		PlayerID: r.chooserOf(t, ec),
		Kind:     choice.KindSelectTargets,
		Prompt:   "Choose " + req.Description,
		SourceID: ec.SourceID,
		Options:  options,
		Min:      req.MinTargets,
		Max:      req.MaxTargets,
	})
	sel := TargetSelection{Targets: resp.Selected, Requirement: req}
	if err := sel.Validate(); err != nil {
		r.logger.Warn("target selection rejected", zap.String("source_id", ec.SourceID), zap.Error(err))
		return nil, nil
	}
	if !sel.IsComplete() {
		r.logger.Debug("target selection declined",
			zap.String("source_id", ec.SourceID),
			zap.Int("min_targets", req.MinTargets),
		)
		return nil, nil
	}
	refs := make([]state.Ref, 0, len(resp.Selected))
	for _, id := range resp.Selected {
		refs = append(refs, byID[id])
	}
	r.logger.Debug("targets chosen",
		zap.String("source_id", ec.SourceID),
		zap.String("targets", FormatRefs(refs)),
	)
	return refs, nil
}

func (r *Resolver) chooserOf(t *ast.Target, ec *Context) string {
	if t != nil && t.Chooser == ast.OwnerOpponent {
		for _, id := range ec.State.Opponents(ec.PlayerID) {
			if p, ok := ec.State.Player(id); ok && !p.Lost {
				return id
			}
		}
	}
	return ec.PlayerID
}

// ownersOf lists whose deck a top-of-deck target reads.
func (r *Resolver) ownersOf(t *ast.Target, ec *Context) []string {
	switch ownerFilter(t.Filter) {
	case ast.OwnerOpponent:
		return ec.State.Opponents(ec.PlayerID)
	case ast.OwnerAny:
		return ec.State.PlayersFrom(ec.State.ActivePlayer)
	}
	return []string{ec.PlayerID}
}

// ownerOf finds the owner of the card an owner_of target refers to: the
// named binding, else the last resolved target, else the event subject.
func (r *Resolver) ownerOf(t *ast.Target, ec *Context) string {
	var ref *state.Ref
	if t.Variable != "" {
		if b, ok := ec.Bindings[t.Variable]; ok {
			ref = &b
		}
	}
	if ref == nil && len(ec.Last) > 0 {
		ref = &ec.Last[0]
	}
	if ref == nil && ec.Event != nil && ec.Event.TargetID != "" {
		ev := state.CardRef(ec.Event.TargetID)
		ref = &ev
	}
	if ref == nil {
		return ""
	}
	if ref.Kind == state.RefPlayer {
		return ref.ID
	}
	if card, ok := ec.State.Card(ref.ID); ok {
		return card.OwnerID
	}
	return ""
}

// Matches reports whether a card passes a filter from the point of view of
// the context's controller. A nil filter matches everything.
func Matches(ec *Context, card *state.CardInstance, f *ast.Filter) bool {
	if card == nil {
		return false
	}
	if f == nil {
		return true
	}
	gs := ec.State
	if f.Zone != "" && card.Zone != ZoneOf(f) {
		return false
	}
	if !ownerMatches(f.Owner, card.OwnerID, ec.PlayerID) {
		return false
	}
	if f.CardType != "" && string(card.Type) != f.CardType {
		return false
	}
	for _, st := range f.Subtypes {
		if !card.HasSubtype(st) {
			return false
		}
	}
	if f.Name != "" && !strings.EqualFold(card.Name, f.Name) {
		return false
	}
	if !f.Cost.Match(gs.EffectiveStat(card.ID, state.StatCost)) {
		return false
	}
	if !f.Strength.Match(gs.Strength(card.ID)) {
		return false
	}
	if !f.Willpower.Match(gs.Willpower(card.ID)) {
		return false
	}
	if f.Exerted != nil && card.Exerted != *f.Exerted {
		return false
	}
	if f.Damaged != nil && (card.Damage > 0) != *f.Damaged {
		return false
	}
	if f.Keyword != "" && !gs.HasKeyword(card.ID, f.Keyword) {
		return false
	}
	if f.Other && card.ID == ec.SourceID {
		return false
	}
	if f.AtLocation != nil && (card.AtLocation != "") != *f.AtLocation {
		return false
	}
	return true
}

func ownerFilter(f *ast.Filter) string {
	if f == nil {
		return ""
	}
	return f.Owner
}

func ownerMatches(owner, cardOwner, controller string) bool {
	switch owner {
	case ast.OwnerYou:
		return cardOwner == controller
	case ast.OwnerOpponent:
		return cardOwner != controller
	}
	return true
}

func peekChosen(ec *Context, cands []state.Ref) []state.Ref {
	if len(ec.Last) > 0 {
		return []state.Ref{ec.Last[0]}
	}
	if len(cands) == 1 {
		return cands
	}
	return nil
}

func cardRefIfExists(gs *state.GameState, id string) []state.Ref {
	if _, ok := gs.Card(id); ok {
		return []state.Ref{state.CardRef(id)}
	}
	return nil
}

func playerRefs(gs *state.GameState, ids []string) []state.Ref {
	var refs []state.Ref
	for _, id := range ids {
		if p, ok := gs.Player(id); ok && !p.Lost {
			refs = append(refs, state.PlayerRef(id))
		}
	}
	return refs
}
