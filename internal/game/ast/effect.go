// Package ast holds the declarative ability language: effect, target,
// expression and condition trees as emitted by the ability compiler.
// Nodes are immutable once decoded.
package ast

// EffectType is the tag of an effect node.
type EffectType string

// Composite effects.
const (
	EffectSequence    EffectType = "sequence"
	EffectConditional EffectType = "conditional"
	EffectForEach     EffectType = "for_each"
	EffectModal       EffectType = "modal"
	EffectOptional    EffectType = "optional"
	EffectRepeat      EffectType = "repeat"
	EffectCascade     EffectType = "cascade"
	// EffectPayCost runs Effect only if Cost ink could be paid.
	EffectPayCost EffectType = "pay_cost"
)

// Zone and core effects.
const (
	EffectDraw                   EffectType = "draw"
	EffectDrawUntil              EffectType = "draw_until"
	EffectDiscard                EffectType = "discard"
	EffectDiscardHand            EffectType = "discard_hand"
	EffectOpponentChoiceDiscard  EffectType = "opponent_choice_discard"
	EffectRandomDiscard          EffectType = "random_discard"
	EffectMill                   EffectType = "mill"
	EffectBanish                 EffectType = "banish"
	EffectReturnToHand           EffectType = "return_to_hand"
	EffectMoveToZone             EffectType = "move_to_zone"
	EffectPutIntoInkwell         EffectType = "put_into_inkwell"
	EffectInkTopOfDeck           EffectType = "ink_top_of_deck"
	EffectReadyInk               EffectType = "ready_ink"
	EffectShuffleIntoDeck        EffectType = "shuffle_into_deck"
	EffectShuffleDiscardIntoDeck EffectType = "shuffle_discard_into_deck"
	EffectPutOnTopOfDeck         EffectType = "put_on_top_of_deck"
	EffectPutOnBottomOfDeck      EffectType = "put_on_bottom_of_deck"
	EffectReturnFromDiscard      EffectType = "return_from_discard"
	EffectPlayForFree            EffectType = "play_for_free"
	EffectLookAtTop              EffectType = "look_at_top"
	EffectSearchDeck             EffectType = "search_deck"
	EffectRevealTopCard          EffectType = "reveal_top_card"
	EffectRevealHand             EffectType = "reveal_hand"
	EffectReady                  EffectType = "ready"
	EffectExert                  EffectType = "exert"
	EffectGainLore               EffectType = "gain_lore"
	EffectLoseLore               EffectType = "lose_lore"
	EffectStealLore              EffectType = "steal_lore"
	EffectPayInk                 EffectType = "pay_ink"
	EffectPayLore                EffectType = "pay_lore"
	EffectNoop                   EffectType = "noop"
)

// Effects on the cards under a character.
const (
	EffectPutUnder          EffectType = "put_under"
	EffectReturnUnderToHand EffectType = "return_under_to_hand"
	EffectDiscardUnder      EffectType = "discard_under"
)

// Effects where each opponent picks one of their own cards.
const (
	EffectOpponentChoiceBanish       EffectType = "opponent_choice_banish"
	EffectOpponentChoiceExert        EffectType = "opponent_choice_exert"
	EffectOpponentChoiceReturnToHand EffectType = "opponent_choice_return_to_hand"
	EffectOpponentChoiceDamage       EffectType = "opponent_choice_damage"
)

// Combat effects.
const (
	EffectDealDamage          EffectType = "deal_damage"
	EffectPutDamage           EffectType = "put_damage"
	EffectRemoveDamage        EffectType = "remove_damage"
	EffectMoveDamage          EffectType = "move_damage"
	EffectBanishDamaged       EffectType = "banish_damaged"
	EffectDamageEqualStrength EffectType = "deal_damage_equal_to_strength"
)

// Stat effects.
const (
	EffectModifyStat    EffectType = "modify_stat"
	EffectGrantKeyword  EffectType = "grant_keyword"
	EffectRemoveKeyword EffectType = "remove_keyword"
	EffectCostReduction EffectType = "cost_reduction"
	EffectRestrict      EffectType = "restrict"
	EffectSetBaseStat   EffectType = "set_base_stat"
)

// Location effects.
const (
	EffectMoveToLocation    EffectType = "move_to_location"
	EffectMoveAllToLocation EffectType = "move_all_to_location"
	EffectBanishLocation    EffectType = "banish_location"
)

// Effect is a single tagged node. Which fields are meaningful depends on Type.
type Effect struct {
	Type EffectType `mapstructure:"type"`

	Target      *Target `mapstructure:"target"`
	Source      *Target `mapstructure:"source"`
	Destination *Target `mapstructure:"destination"`
	Amount      *Expr   `mapstructure:"amount"`

	// Per multiplies the amount by the number of cards matching it.
	Per *Filter `mapstructure:"per"`

	// Cost is the ink a pay_cost effect asks for.
	Cost *Expr `mapstructure:"cost"`

	Stat        string `mapstructure:"stat"`
	Keyword     string `mapstructure:"keyword"`
	Restriction string `mapstructure:"restriction"`
	Duration    string `mapstructure:"duration"`
	Zone        string `mapstructure:"zone"`
	Top         bool   `mapstructure:"top"`
	Exerted     bool   `mapstructure:"exerted"`
	CardType    string `mapstructure:"card_type"`
	Subtype     string `mapstructure:"subtype"`
	Chooser     string `mapstructure:"chooser"`
	Label       string `mapstructure:"label"`

	// Variable names the loop binding of for_each.
	Variable string `mapstructure:"variable"`

	Condition *Condition `mapstructure:"condition"`
	Effects   []*Effect  `mapstructure:"effects"`
	Effect    *Effect    `mapstructure:"effect"`
	Then      *Effect    `mapstructure:"then"`
	Else      *Effect    `mapstructure:"else"`
	Modes     []Mode     `mapstructure:"modes"`
}

// Mode is one branch of a modal effect.
type Mode struct {
	Label  string  `mapstructure:"label"`
	Effect *Effect `mapstructure:"effect"`
}

type effectAlias struct {
	Type        EffectType
	Stat        string
	Keyword     string
	Restriction string
	Duration    string
	Target      string

	// Negate flips the sign of the amount.
	Negate bool
}

// effectAliases expands compiler shorthands into canonical tags.
var effectAliases = map[EffectType]effectAlias{
	"heal":                     {Type: EffectRemoveDamage},
	"remove_damage_from":       {Type: EffectRemoveDamage},
	"heal_self":                {Type: EffectRemoveDamage, Target: "self"},
	"heal_all_yours":           {Type: EffectRemoveDamage, Target: "your_characters"},
	"discard_chosen":           {Type: EffectDiscard},
	"discard_random":           {Type: EffectRandomDiscard},
	"discard_entire_hand":      {Type: EffectDiscardHand},
	"draw_cards":               {Type: EffectDraw},
	"draw_up_to":               {Type: EffectDrawUntil},
	"each_opponent_loses_lore": {Type: EffectLoseLore, Target: "each_opponent"},
	"opponent_loses_lore":      {Type: EffectLoseLore, Target: "opponent"},
	"each_opponent_discards":   {Type: EffectOpponentChoiceDiscard},
	"drain_lore":               {Type: EffectStealLore},
	"pay":                      {Type: EffectPayCost},

	"each_opponent_mills":                {Type: EffectMill, Target: "each_opponent"},
	"each_opponent_draws":                {Type: EffectDraw, Target: "each_opponent"},
	"each_opponent_discards_random":      {Type: EffectRandomDiscard, Target: "each_opponent"},
	"each_player_draws":                  {Type: EffectDraw, Target: "each_player"},
	"each_player_discards":               {Type: EffectDiscard, Target: "each_player"},
	"each_player_mills":                  {Type: EffectMill, Target: "each_player"},
	"each_player_gains_lore":             {Type: EffectGainLore, Target: "each_player"},
	"each_opponent_chooses_and_banishes": {Type: EffectOpponentChoiceBanish},
	"each_opponent_chooses_and_exerts":   {Type: EffectOpponentChoiceExert},
	"each_opponent_chooses_and_returns":  {Type: EffectOpponentChoiceReturnToHand},
	"each_opponent_chooses_and_damages":  {Type: EffectOpponentChoiceDamage},
	"mill_opponent":                      {Type: EffectMill, Target: "opponent"},

	"modify_strength":  {Type: EffectModifyStat, Stat: "strength"},
	"modify_willpower": {Type: EffectModifyStat, Stat: "willpower"},
	"modify_lore":      {Type: EffectModifyStat, Stat: "lore"},
	"modify_move_cost": {Type: EffectModifyStat, Stat: "move_cost"},
	"reduce_strength":  {Type: EffectModifyStat, Stat: "strength", Negate: true},
	"reduce_willpower": {Type: EffectModifyStat, Stat: "willpower", Negate: true},
	"reduce_lore":      {Type: EffectModifyStat, Stat: "lore", Negate: true},
	"set_strength":     {Type: EffectSetBaseStat, Stat: "strength"},
	"set_willpower":    {Type: EffectSetBaseStat, Stat: "willpower"},
	"set_lore":         {Type: EffectSetBaseStat, Stat: "lore"},
	"set_cost":         {Type: EffectSetBaseStat, Stat: "cost"},

	// The *_per tags expect a per filter; the amount is scaled by its count.
	"modify_strength_per":  {Type: EffectModifyStat, Stat: "strength"},
	"modify_willpower_per": {Type: EffectModifyStat, Stat: "willpower"},
	"modify_lore_per":      {Type: EffectModifyStat, Stat: "lore"},
	"gain_lore_per":        {Type: EffectGainLore},
	"lose_lore_per":        {Type: EffectLoseLore},
	"draw_per":             {Type: EffectDraw},
	"deal_damage_per":      {Type: EffectDealDamage},
	"cost_reduction_per":   {Type: EffectCostReduction},

	"gain_keyword":     {Type: EffectGrantKeyword},
	"lose_keyword":     {Type: EffectRemoveKeyword},
	"gain_evasive":     {Type: EffectGrantKeyword, Keyword: "evasive"},
	"gain_rush":        {Type: EffectGrantKeyword, Keyword: "rush"},
	"gain_resist":      {Type: EffectGrantKeyword, Keyword: "resist"},
	"gain_challenger":  {Type: EffectGrantKeyword, Keyword: "challenger"},
	"gain_bodyguard":   {Type: EffectGrantKeyword, Keyword: "bodyguard"},
	"gain_reckless":    {Type: EffectGrantKeyword, Keyword: "reckless"},
	"gain_support":     {Type: EffectGrantKeyword, Keyword: "support"},
	"gain_ward":        {Type: EffectGrantKeyword, Keyword: "ward"},
	"gain_singer":      {Type: EffectGrantKeyword, Keyword: "singer"},
	"challenge_bonus":  {Type: EffectGrantKeyword, Keyword: "challenger"},
	"damage_reduction": {Type: EffectGrantKeyword, Keyword: "resist"},
	"lose_evasive":     {Type: EffectRemoveKeyword, Keyword: "evasive"},
	"lose_rush":        {Type: EffectRemoveKeyword, Keyword: "rush"},
	"lose_resist":      {Type: EffectRemoveKeyword, Keyword: "resist"},
	"lose_challenger":  {Type: EffectRemoveKeyword, Keyword: "challenger"},
	"lose_bodyguard":   {Type: EffectRemoveKeyword, Keyword: "bodyguard"},
	"lose_reckless":    {Type: EffectRemoveKeyword, Keyword: "reckless"},
	"lose_support":     {Type: EffectRemoveKeyword, Keyword: "support"},
	"lose_ward":        {Type: EffectRemoveKeyword, Keyword: "ward"},

	"cant_quest":           {Type: EffectRestrict, Restriction: "cant_quest"},
	"cant_challenge":       {Type: EffectRestrict, Restriction: "cant_challenge"},
	"cant_ready":           {Type: EffectRestrict, Restriction: "cant_ready", Duration: "until_start_of_your_next_turn"},
	"cant_be_challenged":   {Type: EffectRestrict, Restriction: "cant_be_challenged"},
	"cant_sing":            {Type: EffectRestrict, Restriction: "cant_sing"},
	"cant_move":            {Type: EffectRestrict, Restriction: "cant_move"},
	"cant_be_dealt_damage": {Type: EffectRestrict, Restriction: "cant_be_dealt_damage"},
	"can_challenge_ready":  {Type: EffectRestrict, Restriction: "can_challenge_ready", Target: "self"},

	"return_chosen_to_hand":          {Type: EffectReturnToHand, Target: "chosen_character"},
	"bounce":                         {Type: EffectReturnToHand},
	"return_all_opposing_to_hand":    {Type: EffectReturnToHand, Target: "all_opposing_characters"},
	"banish_chosen":                  {Type: EffectBanish, Target: "chosen_character"},
	"banish_chosen_item":             {Type: EffectBanish, Target: "chosen_item"},
	"banish_chosen_location":         {Type: EffectBanishLocation},
	"banish_all_characters":          {Type: EffectBanish, Target: "all_characters"},
	"banish_all_opposing_characters": {Type: EffectBanish, Target: "all_opposing_characters"},
	"exert_chosen":                   {Type: EffectExert, Target: "chosen_opposing_character"},
	"exert_self":                     {Type: EffectExert, Target: "self"},
	"exert_all_opposing":             {Type: EffectExert, Target: "all_opposing_characters"},
	"ready_chosen":                   {Type: EffectReady, Target: "chosen_character_of_yours"},
	"ready_self":                     {Type: EffectReady, Target: "self"},
	"ready_all_yours":                {Type: EffectReady, Target: "your_characters"},
	"deal_damage_to_each_opposing":   {Type: EffectDealDamage, Target: "all_opposing_characters"},
	"deal_damage_to_all":             {Type: EffectDealDamage, Target: "all_characters"},
	"play_free":                      {Type: EffectPlayForFree},
	"play_from_hand":                 {Type: EffectPlayForFree, Target: "chosen_card_in_your_hand"},
	"play_from_discard":              {Type: EffectPlayForFree, Target: "chosen_card_in_your_discard"},
	"return_character_from_discard":  {Type: EffectReturnFromDiscard, Target: "chosen_character_in_your_discard"},
	"ink_from_hand":                  {Type: EffectPutIntoInkwell, Target: "chosen_card_in_your_hand"},
	"ink_from_discard":               {Type: EffectPutIntoInkwell, Target: "chosen_card_in_your_discard"},
	"ramp":                           {Type: EffectInkTopOfDeck},
	"shuffle_chosen_into_deck":       {Type: EffectShuffleIntoDeck, Target: "chosen_character"},
	"shuffle_discard":                {Type: EffectShuffleDiscardIntoDeck},
	"tuck":                           {Type: EffectPutOnBottomOfDeck},
	"search":                         {Type: EffectSearchDeck},
	"tutor":                          {Type: EffectSearchDeck},
	"scry":                           {Type: EffectLookAtTop},
	"look_at_top_cards":              {Type: EffectLookAtTop},
	"reveal_top":                     {Type: EffectRevealTopCard},
	"look_at_opponent_hand":          {Type: EffectRevealHand, Target: "opponent"},
	"put_under_self":                 {Type: EffectPutUnder},
	"move_to_chosen_location":        {Type: EffectMoveToLocation},
	"move_all_yours":                 {Type: EffectMoveAllToLocation},

	"may":        {Type: EffectOptional},
	"choose_one": {Type: EffectModal},
	"if":         {Type: EffectConditional},
	"each":       {Type: EffectForEach},
	"all_of":     {Type: EffectSequence},
	"then":       {Type: EffectCascade},
	"do_nothing": {Type: EffectNoop},
}

// effectMacros rewrite a shorthand into a small tree of canonical effects.
// The input node keeps its target and amount, which the macro distributes.
var effectMacros = map[EffectType]func(e *Effect) *Effect{
	// loot: draw, then discard the same number.
	"loot": func(e *Effect) *Effect {
		return &Effect{Type: EffectSequence, Effects: []*Effect{
			{Type: EffectDraw, Amount: e.Amount},
			{Type: EffectDiscard, Amount: e.Amount},
		}}
	},
	"draw_then_discard": func(e *Effect) *Effect {
		return &Effect{Type: EffectSequence, Effects: []*Effect{
			{Type: EffectDraw, Amount: e.Amount},
			{Type: EffectDiscard, Amount: e.Amount},
		}}
	},
	// may_pay offers to pay Cost ink for Effect.
	"may_pay": func(e *Effect) *Effect {
		return &Effect{Type: EffectOptional, Label: e.Label, Effect: &Effect{
			Type: EffectPayCost, Cost: e.Cost, Effect: e.Effect,
		}}
	},
	"ready_and_cant_quest": func(e *Effect) *Effect {
		return &Effect{Type: EffectSequence, Effects: []*Effect{
			{Type: EffectReady, Target: orTarget(e.Target, "chosen_character_of_yours")},
			{Type: EffectRestrict, Restriction: "cant_quest", Target: &Target{Type: TargetBound}},
		}}
	},
	"exert_and_cant_ready": func(e *Effect) *Effect {
		return &Effect{Type: EffectSequence, Effects: []*Effect{
			{Type: EffectExert, Target: orTarget(e.Target, "chosen_opposing_character")},
			{
				Type: EffectRestrict, Restriction: "cant_ready", Duration: "until_start_of_your_next_turn",
				Target: &Target{Type: TargetBound},
			},
		}}
	},
}

func orTarget(t *Target, def TargetType) *Target {
	if t != nil {
		return t
	}
	return &Target{Type: def}
}

func (e *Effect) normalize() error {
	if e == nil {
		return nil
	}
	if e.Type == "" {
		return errMissingType("effect")
	}
	e.Type = EffectType(lower(string(e.Type)))
	if macro, ok := effectMacros[e.Type]; ok {
		*e = *macro(e)
	}
	if alias, ok := effectAliases[e.Type]; ok {
		e.Type = alias.Type
		if e.Stat == "" {
			e.Stat = alias.Stat
		}
		if e.Keyword == "" {
			e.Keyword = alias.Keyword
		}
		if e.Restriction == "" {
			e.Restriction = alias.Restriction
		}
		if e.Duration == "" {
			e.Duration = alias.Duration
		}
		if e.Target == nil && alias.Target != "" {
			e.Target = &Target{Type: TargetType(alias.Target)}
		}
		if alias.Negate {
			amount := e.Amount
			if amount == nil {
				amount = Const(1)
			}
			e.Amount = &Expr{Type: ExprMultiply, Args: []*Expr{amount, Const(-1)}}
		}
	}
	e.Stat = lower(e.Stat)
	e.Keyword = lower(e.Keyword)
	e.Restriction = lower(e.Restriction)

	for _, t := range []*Target{e.Target, e.Source, e.Destination} {
		if err := t.normalize(); err != nil {
			return err
		}
	}
	e.Per.normalize()
	for _, x := range []*Expr{e.Amount, e.Cost} {
		if err := x.normalize(); err != nil {
			return err
		}
	}
	if err := e.Condition.normalize(); err != nil {
		return err
	}
	for _, child := range append([]*Effect{e.Effect, e.Then, e.Else}, e.Effects...) {
		if err := child.normalize(); err != nil {
			return err
		}
	}
	for i := range e.Modes {
		if err := e.Modes[i].Effect.normalize(); err != nil {
			return err
		}
	}
	return nil
}

// continuous are the leaves a static ability may hold: they describe a
// standing modification that is re-derived from the board, not a one-shot
// change applied each time statics are refreshed.
var continuous = map[EffectType]bool{
	EffectModifyStat:    true,
	EffectGrantKeyword:  true,
	EffectRemoveKeyword: true,
	EffectRestrict:      true,
	EffectCostReduction: true,
	EffectNoop:          true,
	EffectSequence:      true,
	EffectConditional:   true,
	EffectForEach:       true,
}

// OneShot returns the first node of the tree that changes the game once
// rather than continuously, or nil when the whole tree is continuous.
func (e *Effect) OneShot() *Effect {
	var found *Effect
	e.Walk(func(n *Effect) {
		if found == nil && !continuous[n.Type] {
			found = n
		}
	})
	return found
}

// Children returns the direct sub-effects of a node.
func (e *Effect) Children() []*Effect {
	if e == nil {
		return nil
	}
	var out []*Effect
	for _, c := range append([]*Effect{e.Effect, e.Then, e.Else}, e.Effects...) {
		if c != nil {
			out = append(out, c)
		}
	}
	for _, m := range e.Modes {
		if m.Effect != nil {
			out = append(out, m.Effect)
		}
	}
	return out
}

// Walk visits the node and all descendants depth first.
func (e *Effect) Walk(fn func(*Effect)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.Children() {
		c.Walk(fn)
	}
}

// Vocabulary lists every effect tag the decoder accepts: canonical tags,
// aliases and macros.
func Vocabulary() []EffectType {
	seen := make(map[EffectType]bool)
	var out []EffectType
	add := func(t EffectType) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range canonicalEffects {
		add(t)
	}
	for t := range effectAliases {
		add(t)
	}
	for t := range effectMacros {
		add(t)
	}
	return out
}

var canonicalEffects = []EffectType{
	EffectSequence, EffectConditional, EffectForEach, EffectModal, EffectOptional, EffectRepeat, EffectCascade, EffectPayCost,
	EffectDraw, EffectDrawUntil, EffectDiscard, EffectDiscardHand, EffectOpponentChoiceDiscard, EffectRandomDiscard,
	EffectMill, EffectBanish, EffectReturnToHand, EffectMoveToZone, EffectPutIntoInkwell, EffectInkTopOfDeck,
	EffectReadyInk, EffectShuffleIntoDeck, EffectShuffleDiscardIntoDeck, EffectPutOnTopOfDeck, EffectPutOnBottomOfDeck,
	EffectReturnFromDiscard, EffectPlayForFree, EffectLookAtTop, EffectSearchDeck, EffectRevealTopCard, EffectRevealHand,
	EffectReady, EffectExert, EffectGainLore, EffectLoseLore, EffectStealLore, EffectPayInk, EffectPayLore, EffectNoop,
	EffectPutUnder, EffectReturnUnderToHand, EffectDiscardUnder,
	EffectOpponentChoiceBanish, EffectOpponentChoiceExert, EffectOpponentChoiceReturnToHand, EffectOpponentChoiceDamage,
	EffectDealDamage, EffectPutDamage, EffectRemoveDamage, EffectMoveDamage, EffectBanishDamaged, EffectDamageEqualStrength,
	EffectModifyStat, EffectGrantKeyword, EffectRemoveKeyword, EffectCostReduction, EffectRestrict, EffectSetBaseStat,
	EffectMoveToLocation, EffectMoveAllToLocation, EffectBanishLocation,
}
