package ast

import (
	"fmt"
	"strings"
)

// TargetType is the tag of a target description.
type TargetType string

const (
	TargetSelf         TargetType = "self"
	TargetChosen       TargetType = "chosen"
	TargetAll          TargetType = "all"
	TargetEventSource  TargetType = "event_source"
	TargetEventTarget  TargetType = "event_target"
	TargetBound        TargetType = "bound"
	TargetTopOfDeck    TargetType = "top_of_deck"
	TargetController   TargetType = "controller"
	TargetOpponent     TargetType = "opponent"
	TargetEachOpponent TargetType = "each_opponent"
	TargetEachPlayer   TargetType = "each_player"
	TargetChosenPlayer TargetType = "chosen_player"
	TargetEventPlayer  TargetType = "event_player"
	TargetOwnerOf      TargetType = "owner_of"
	// TargetCardsUnder is the stack under the source, or under the bound card.
	TargetCardsUnder TargetType = "cards_under"
	// TargetSourceLocation is the location the source is at.
	TargetSourceLocation TargetType = "source_location"
	// TargetCharactersHere are the characters at the source location.
	TargetCharactersHere TargetType = "characters_here"
	// TargetRandom picks Count candidates at random.
	TargetRandom TargetType = "random"
)

// Owner values used in filters.
const (
	OwnerYou      = "you"
	OwnerOpponent = "opponent"
	OwnerAny      = "any"
)

// Target describes who or what an effect acts on. It is resolved at
// execution time, never when the ability is decoded.
type Target struct {
	Type   TargetType `mapstructure:"type"`
	Filter *Filter    `mapstructure:"filter"`
	Count  int        `mapstructure:"count"`
	UpTo   bool       `mapstructure:"up_to"`

	// Variable names the binding read by "bound" targets.
	Variable string `mapstructure:"variable"`
	// Chooser overrides who picks a "chosen" target: you (default) or opponent.
	Chooser string `mapstructure:"chooser"`
}

// IsPlayerTarget reports whether the target resolves to players rather than cards.
func (t *Target) IsPlayerTarget() bool {
	if t == nil {
		return false
	}
	switch t.Type {
	case TargetController, TargetOpponent, TargetEachOpponent, TargetEachPlayer,
		TargetChosenPlayer, TargetEventPlayer, TargetOwnerOf:
		return true
	}
	return false
}

// IsChosen reports whether resolving the target asks a player to pick.
func (t *Target) IsChosen() bool {
	return t != nil && (t.Type == TargetChosen || t.Type == TargetChosenPlayer)
}

func (t *Target) normalize() error {
	if t == nil {
		return nil
	}
	if t.Type == "" {
		return errMissingType("target")
	}
	t.Type = TargetType(lower(string(t.Type)))
	if alias, ok := targetAliases[t.Type]; ok {
		t.Type = alias.Type
		t.Filter = t.Filter.merge(alias.Filter)
		if t.Count == 0 {
			t.Count = alias.Count
		}
	}
	t.Filter.normalize()
	return nil
}

// Filter narrows the entities a target or count expression considers.
// Zero fields do not constrain.
type Filter struct {
	Zone       string   `mapstructure:"zone"`
	Owner      string   `mapstructure:"owner"`
	CardType   string   `mapstructure:"card_type"`
	Subtypes   []string `mapstructure:"subtypes"`
	Name       string   `mapstructure:"name"`
	Cost       *Compare `mapstructure:"cost"`
	Strength   *Compare `mapstructure:"strength"`
	Willpower  *Compare `mapstructure:"willpower"`
	Exerted    *bool    `mapstructure:"exerted"`
	Damaged    *bool    `mapstructure:"damaged"`
	Keyword    string   `mapstructure:"keyword"`
	Other      bool     `mapstructure:"other"`
	AtLocation *bool    `mapstructure:"at_location"`
}

func (f *Filter) normalize() {
	if f == nil {
		return
	}
	f.Owner = lower(f.Owner)
	f.CardType = lower(f.CardType)
	f.Zone = lower(f.Zone)
	f.Keyword = lower(f.Keyword)
}

// merge returns f with unset fields taken from def. Neither input is modified.
func (f *Filter) merge(def *Filter) *Filter {
	if def == nil {
		return f
	}
	if f == nil {
		cp := *def
		return &cp
	}
	out := *f
	if out.Zone == "" {
		out.Zone = def.Zone
	}
	if out.Owner == "" {
		out.Owner = def.Owner
	}
	if out.CardType == "" {
		out.CardType = def.CardType
	}
	if len(out.Subtypes) == 0 {
		out.Subtypes = def.Subtypes
	}
	if out.Name == "" {
		out.Name = def.Name
	}
	if out.Cost == nil {
		out.Cost = def.Cost
	}
	if out.Strength == nil {
		out.Strength = def.Strength
	}
	if out.Willpower == nil {
		out.Willpower = def.Willpower
	}
	if out.Exerted == nil {
		out.Exerted = def.Exerted
	}
	if out.Damaged == nil {
		out.Damaged = def.Damaged
	}
	if out.Keyword == "" {
		out.Keyword = def.Keyword
	}
	if !out.Other {
		out.Other = def.Other
	}
	if out.AtLocation == nil {
		out.AtLocation = def.AtLocation
	}
	return &out
}

// Compare is a numeric comparison such as ">= 3".
type Compare struct {
	Op    string `mapstructure:"op"`
	Value int    `mapstructure:"value"`
}

// Match applies the comparison to v. A nil comparison matches everything.
func (c *Compare) Match(v int) bool {
	if c == nil {
		return true
	}
	switch c.Op {
	case "", "=", "==", "eq":
		return v == c.Value
	case "!=", "ne":
		return v != c.Value
	case "<", "lt":
		return v < c.Value
	case "<=", "lte":
		return v <= c.Value
	case ">", "gt":
		return v > c.Value
	case ">=", "gte":
		return v >= c.Value
	}
	return false
}

func (c *Compare) String() string {
	if c == nil {
		return "any"
	}
	return fmt.Sprintf("%s%d", c.Op, c.Value)
}

// parseCompare reads shorthand like ">=3", "<2" or "4".
func parseCompare(s string) (map[string]any, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	op := "=="
	for _, candidate := range []string{">=", "<=", "!=", "==", ">", "<", "="} {
		if strings.HasPrefix(s, candidate) {
			op = candidate
			s = s[len(candidate):]
			break
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return nil, fmt.Errorf("invalid comparison %q: %w", s, err)
	}
	return map[string]any{"op": op, "value": n}, nil
}

type targetAlias struct {
	Type   TargetType
	Filter *Filter
	Count  int
}

func yes() *bool {
	v := true
	return &v
}

func no() *bool {
	v := false
	return &v
}

var (
	characters         = &Filter{CardType: "character"}
	opposingCharacters = &Filter{CardType: "character", Owner: OwnerOpponent}
	yourCharacters     = &Filter{CardType: "character", Owner: OwnerYou}
)

// targetAliases are the named targets the compiler emits.
var targetAliases = map[TargetType]targetAlias{
	"this_character":  {Type: TargetSelf},
	"this_card":       {Type: TargetSelf},
	"it":              {Type: TargetSelf},
	"that_character":  {Type: TargetEventTarget},
	"triggering_card": {Type: TargetEventTarget},

	"you":              {Type: TargetController},
	"player":           {Type: TargetController},
	"opposing_player":  {Type: TargetOpponent},
	"opponents":        {Type: TargetEachOpponent},
	"all_players":      {Type: TargetEachPlayer},
	"everyone":         {Type: TargetEachPlayer},
	"its_owner":        {Type: TargetOwnerOf},
	"chosen_opponent":  {Type: TargetChosenPlayer, Filter: &Filter{Owner: OwnerOpponent}},
	"top_card_of_deck": {Type: TargetTopOfDeck},

	"chosen_character":          {Type: TargetChosen, Filter: characters},
	"chosen_opposing_character": {Type: TargetChosen, Filter: opposingCharacters},
	"chosen_character_of_yours": {Type: TargetChosen, Filter: yourCharacters},
	"chosen_other_character":    {Type: TargetChosen, Filter: &Filter{CardType: "character", Other: true}},
	"chosen_damaged_character":  {Type: TargetChosen, Filter: &Filter{CardType: "character", Damaged: yes()}},
	"chosen_exerted_character":  {Type: TargetChosen, Filter: &Filter{CardType: "character", Exerted: yes()}},
	"chosen_item":               {Type: TargetChosen, Filter: &Filter{CardType: "item"}},
	"chosen_opposing_item":      {Type: TargetChosen, Filter: &Filter{CardType: "item", Owner: OwnerOpponent}},
	"chosen_location":           {Type: TargetChosen, Filter: &Filter{CardType: "location"}},
	"chosen_opposing_location":  {Type: TargetChosen, Filter: &Filter{CardType: "location", Owner: OwnerOpponent}},
	"chosen_location_of_yours":  {Type: TargetChosen, Filter: &Filter{CardType: "location", Owner: OwnerYou}},
	"chosen_card":               {Type: TargetChosen},
	"chosen_card_in_your_hand":  {Type: TargetChosen, Filter: &Filter{Zone: "hand", Owner: OwnerYou}},
	"chosen_card_in_your_discard": {
		Type: TargetChosen, Filter: &Filter{Zone: "discard", Owner: OwnerYou},
	},
	"chosen_character_in_your_discard": {
		Type: TargetChosen, Filter: &Filter{Zone: "discard", Owner: OwnerYou, CardType: "character"},
	},
	"chosen_item_in_your_discard":   {Type: TargetChosen, Filter: &Filter{Zone: "discard", Owner: OwnerYou, CardType: "item"}},
	"chosen_action_in_your_discard": {Type: TargetChosen, Filter: &Filter{Zone: "discard", Owner: OwnerYou, CardType: "action"}},
	"chosen_song_in_your_discard": {
		Type: TargetChosen, Filter: &Filter{Zone: "discard", Owner: OwnerYou, CardType: "action", Subtypes: []string{"Song"}},
	},
	"chosen_character_in_your_hand":     {Type: TargetChosen, Filter: &Filter{Zone: "hand", Owner: OwnerYou, CardType: "character"}},
	"chosen_item_of_yours":              {Type: TargetChosen, Filter: &Filter{CardType: "item", Owner: OwnerYou}},
	"chosen_ready_character":            {Type: TargetChosen, Filter: &Filter{CardType: "character", Exerted: no()}},
	"chosen_opposing_damaged_character": {Type: TargetChosen, Filter: &Filter{CardType: "character", Owner: OwnerOpponent, Damaged: yes()}},
	"chosen_opposing_exerted_character": {Type: TargetChosen, Filter: &Filter{CardType: "character", Owner: OwnerOpponent, Exerted: yes()}},
	"chosen_opposing_ready_character":   {Type: TargetChosen, Filter: &Filter{CardType: "character", Owner: OwnerOpponent, Exerted: no()}},
	"chosen_damaged_character_of_yours": {Type: TargetChosen, Filter: &Filter{CardType: "character", Owner: OwnerYou, Damaged: yes()}},
	"chosen_character_at_a_location":    {Type: TargetChosen, Filter: &Filter{CardType: "character", AtLocation: yes()}},

	"all_characters":                  {Type: TargetAll, Filter: characters},
	"all_opposing_characters":         {Type: TargetAll, Filter: opposingCharacters},
	"all_damaged_characters":          {Type: TargetAll, Filter: &Filter{CardType: "character", Damaged: yes()}},
	"all_opposing_damaged_characters": {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerOpponent, Damaged: yes()}},
	"all_opposing_exerted_characters": {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerOpponent, Exerted: yes()}},
	"your_characters":                 {Type: TargetAll, Filter: yourCharacters},
	"your_other_characters":           {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerYou, Other: true}},
	"your_items":                      {Type: TargetAll, Filter: &Filter{CardType: "item", Owner: OwnerYou}},
	"your_locations":                  {Type: TargetAll, Filter: &Filter{CardType: "location", Owner: OwnerYou}},
	"all_locations":                   {Type: TargetAll, Filter: &Filter{CardType: "location"}},
	"your_hand":                       {Type: TargetAll, Filter: &Filter{Zone: "hand", Owner: OwnerYou}},
	"your_discard":                    {Type: TargetAll, Filter: &Filter{Zone: "discard", Owner: OwnerYou}},
	"your_characters_at_locations":    {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerYou, AtLocation: yes()}},
	"your_exerted_characters":         {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerYou, Exerted: yes()}},
	"your_ready_characters":           {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerYou, Exerted: no()}},
	"your_damaged_characters":         {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerYou, Damaged: yes()}},
	"all_opposing_ready_characters":   {Type: TargetAll, Filter: &Filter{CardType: "character", Owner: OwnerOpponent, Exerted: no()}},
	"all_items":                       {Type: TargetAll, Filter: &Filter{CardType: "item"}},
	"all_opposing_items":              {Type: TargetAll, Filter: &Filter{CardType: "item", Owner: OwnerOpponent}},
	"all_opposing_locations":          {Type: TargetAll, Filter: &Filter{CardType: "location", Owner: OwnerOpponent}},

	"challenger":           {Type: TargetEventSource},
	"challenged_character": {Type: TargetEventTarget},
	"your_top_card":        {Type: TargetTopOfDeck, Filter: &Filter{Owner: OwnerYou}},
	"opponent_top_card":    {Type: TargetTopOfDeck, Filter: &Filter{Owner: OwnerOpponent}},

	"cards_under_self":             {Type: TargetCardsUnder},
	"this_location":                {Type: TargetSourceLocation},
	"characters_at_this_location":  {Type: TargetCharactersHere},
	"random_opposing_character":    {Type: TargetRandom, Filter: opposingCharacters, Count: 1},
	"random_card_in_opponent_hand": {Type: TargetRandom, Filter: &Filter{Zone: "hand", Owner: OwnerOpponent}, Count: 1},
	"random_character_in_your_discard": {
		Type: TargetRandom, Filter: &Filter{Zone: "discard", Owner: OwnerYou, CardType: "character"}, Count: 1,
	},
}

// TargetVocabulary lists every target tag the decoder accepts.
func TargetVocabulary() []TargetType {
	out := []TargetType{
		TargetSelf, TargetChosen, TargetAll, TargetEventSource, TargetEventTarget, TargetBound,
		TargetTopOfDeck, TargetController, TargetOpponent, TargetEachOpponent, TargetEachPlayer,
		TargetChosenPlayer, TargetEventPlayer, TargetOwnerOf, TargetCardsUnder, TargetSourceLocation,
		TargetCharactersHere, TargetRandom,
	}
	for t := range targetAliases {
		out = append(out, t)
	}
	return out
}
