package state

import (
	"strings"

	"github.com/google/uuid"
)

// EffectKind is what an active effect modifies.
type EffectKind string

const (
	KindStatModifier  EffectKind = "stat_modifier"
	KindKeyword       EffectKind = "keyword"
	KindRemoveKeyword EffectKind = "remove_keyword"
	KindRestriction   EffectKind = "restriction"
	KindCostReduction EffectKind = "cost_reduction"
)

// Duration is the lifetime of an active effect.
type Duration string

const (
	DurationPermanent         Duration = "permanent"
	DurationEndOfTurn         Duration = "until_end_of_turn"
	DurationThisTurn          Duration = "this_turn"
	DurationUntilYourNextTurn Duration = "until_start_of_your_next_turn"
	DurationWhileSourceInPlay Duration = "while_source_in_play"
	DurationNextPlay          Duration = "next_play"
	// DurationStatic marks contributions of static abilities; they are
	// stripped and re-derived after every resolution step.
	DurationStatic Duration = "static"
)

// ParseDuration maps a duration tag to a Duration. Empty means end of turn.
func ParseDuration(tag string) Duration {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "until_end_of_turn", "end_of_turn", "eot":
		return DurationEndOfTurn
	case "this_turn":
		return DurationThisTurn
	case "permanent", "permanently":
		return DurationPermanent
	case "until_start_of_your_next_turn", "until_your_next_turn":
		return DurationUntilYourNextTurn
	case "while_source_in_play", "while_in_play":
		return DurationWhileSourceInPlay
	case "next_play":
		return DurationNextPlay
	case "static":
		return DurationStatic
	}
	return Duration(tag)
}

// Restrictions a card can be placed under.
const (
	RestrictCantQuest        = "cant_quest"
	RestrictCantChallenge    = "cant_challenge"
	RestrictCantReady        = "cant_ready"
	RestrictCantBeChallenged = "cant_be_challenged"
	RestrictCantSing         = "cant_sing"
	RestrictCantMove         = "cant_move"
	// RestrictCantBeDealtDamage stops dealt damage. Put damage still lands.
	RestrictCantBeDealtDamage = "cant_be_dealt_damage"
	// PermitChallengeReady lets a character challenge ready characters.
	PermitChallengeReady = "can_challenge_ready"
)

// ActiveEffect is a duration-scoped modifier. Effective values are
// always base plus the live effects; nothing is reverted in place.
type ActiveEffect struct {
	ID           string     `json:"id"`
	SourceID     string     `json:"source_id"`
	TargetID     string     `json:"target_id"`
	ControllerID string     `json:"controller_id"`
	Kind         EffectKind `json:"kind"`
	Stat         Stat       `json:"stat,omitempty"`
	Keyword      string     `json:"keyword,omitempty"`
	Restriction  string     `json:"restriction,omitempty"`
	Value        int        `json:"value"`
	Duration     Duration   `json:"duration"`
	CreatedTurn  int        `json:"created_turn"`

	// Cost reductions only apply to matching cards.
	CardType CardType `json:"card_type,omitempty"`
	Subtype  string   `json:"subtype,omitempty"`
}

// AddEffect records a new active effect and returns it.
func (gs *GameState) AddEffect(e *ActiveEffect) *ActiveEffect {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedTurn = gs.Turn
	gs.ActiveEffects = append(gs.ActiveEffects, e)
	return e
}

// RemoveEffects retires every effect matching the predicate and returns them.
// Each retired effect is journaled unless it is a static contribution.
func (gs *GameState) RemoveEffects(match func(*ActiveEffect) bool) []*ActiveEffect {
	var kept, removed []*ActiveEffect
	for _, e := range gs.ActiveEffects {
		if match(e) {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	gs.ActiveEffects = kept
	for _, e := range removed {
		if e.Duration != DurationStatic {
			gs.Log(e.ControllerID, "effect_expired", 0, 0, e.ID, e.TargetID)
		}
	}
	return removed
}

// ExpireEndOfTurn retires effects bounded by the turn that is ending.
func (gs *GameState) ExpireEndOfTurn() []*ActiveEffect {
	return gs.RemoveEffects(func(e *ActiveEffect) bool {
		switch e.Duration {
		case DurationEndOfTurn, DurationThisTurn, DurationNextPlay:
			return true
		}
		return false
	})
}

// ExpireStartOfTurn retires "until the start of your next turn" effects of a player.
func (gs *GameState) ExpireStartOfTurn(playerID string) []*ActiveEffect {
	return gs.RemoveEffects(func(e *ActiveEffect) bool {
		return e.Duration == DurationUntilYourNextTurn && e.ControllerID == playerID
	})
}

// ExpireForCard retires effects on a card that left play and effects lasting
// only while that card stays in play.
func (gs *GameState) ExpireForCard(cardID string) []*ActiveEffect {
	return gs.RemoveEffects(func(e *ActiveEffect) bool {
		if e.TargetID == cardID {
			return true
		}
		return e.SourceID == cardID && (e.Duration == DurationWhileSourceInPlay || e.Duration == DurationStatic)
	})
}

// ClearStatic drops all static contributions before they are re-derived.
func (gs *GameState) ClearStatic() {
	gs.RemoveEffects(func(e *ActiveEffect) bool { return e.Duration == DurationStatic })
}

// EffectsOn returns the live effects targeting an entity.
func (gs *GameState) EffectsOn(targetID string) []*ActiveEffect {
	var out []*ActiveEffect
	for _, e := range gs.ActiveEffects {
		if e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out
}

// EffectiveStat is the base stat plus all live modifiers, never below zero.
func (gs *GameState) EffectiveStat(cardID string, stat Stat) int {
	card, ok := gs.Cards[cardID]
	if !ok {
		return 0
	}
	v := card.BaseStat(stat)
	for _, e := range gs.ActiveEffects {
		if e.Kind == KindStatModifier && e.TargetID == cardID && e.Stat == stat {
			v += e.Value
		}
	}
	return clamp(v)
}

// Strength returns the effective strength.
func (gs *GameState) Strength(cardID string) int { return gs.EffectiveStat(cardID, StatStrength) }

// Willpower returns the effective willpower.
func (gs *GameState) Willpower(cardID string) int { return gs.EffectiveStat(cardID, StatWillpower) }

// LoreValue returns the effective lore value.
func (gs *GameState) LoreValue(cardID string) int { return gs.EffectiveStat(cardID, StatLore) }

// HasKeyword reports whether a card currently has a keyword, printed, granted
// or from a live effect, and no live effect removes it.
func (gs *GameState) HasKeyword(cardID, keyword string) bool {
	card, ok := gs.Cards[cardID]
	if !ok {
		return false
	}
	keyword = strings.ToLower(keyword)
	has := false
	if _, ok := card.Keywords[keyword]; ok {
		has = true
	}
	if _, ok := card.Granted[keyword]; ok {
		has = true
	}
	for _, e := range gs.ActiveEffects {
		if e.TargetID != cardID || e.Keyword != keyword {
			continue
		}
		switch e.Kind {
		case KindRemoveKeyword:
			return false
		case KindKeyword:
			has = true
		}
	}
	return has
}

// KeywordValue sums the +N values of a keyword from every source.
func (gs *GameState) KeywordValue(cardID, keyword string) int {
	if !gs.HasKeyword(cardID, keyword) {
		return 0
	}
	card := gs.Cards[cardID]
	keyword = strings.ToLower(keyword)
	total := card.Keywords[keyword] + card.Granted[keyword]
	for _, e := range gs.ActiveEffects {
		if e.Kind == KindKeyword && e.TargetID == cardID && e.Keyword == keyword {
			total += e.Value
		}
	}
	return total
}

// HasRestriction reports whether a live effect restricts the card.
func (gs *GameState) HasRestriction(cardID, restriction string) bool {
	for _, e := range gs.ActiveEffects {
		if e.Kind == KindRestriction && e.TargetID == cardID && e.Restriction == restriction {
			return true
		}
	}
	return false
}

// CostReduction totals the reductions a player has for a card and returns
// the ids of single-use reductions that paying would consume.
func (gs *GameState) CostReduction(playerID string, card *CardInstance) (int, []string) {
	total := 0
	var consumed []string
	for _, e := range gs.ActiveEffects {
		if e.Kind != KindCostReduction || e.TargetID != playerID {
			continue
		}
		if e.CardType != "" && e.CardType != card.Type {
			continue
		}
		if e.Subtype != "" && !card.HasSubtype(e.Subtype) {
			continue
		}
		total += e.Value
		if e.Duration == DurationNextPlay {
			consumed = append(consumed, e.ID)
		}
	}
	return total, consumed
}
