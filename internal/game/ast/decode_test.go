package ast

import (
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEffectShorthand(t *testing.T) {
	eff, err := DecodeEffect(map[string]any{
		"type":   "deal_damage",
		"target": "chosen_opposing_character",
		"amount": 2,
	})
	require.NoError(t, err)

	assert.Equal(t, EffectDealDamage, eff.Type)
	require.NotNil(t, eff.Target)
	assert.Equal(t, TargetChosen, eff.Target.Type)
	assert.Equal(t, "character", eff.Target.Filter.CardType)
	assert.Equal(t, OwnerOpponent, eff.Target.Filter.Owner)
	require.NotNil(t, eff.Amount)
	assert.Equal(t, ExprConstant, eff.Amount.Type)
	assert.Equal(t, 2, eff.Amount.Value)
}

func TestDecodeEffectAliases(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    EffectType
		stat    string
		keyword string
		target  TargetType
	}{
		{name: "heal", raw: map[string]any{"type": "heal", "target": "self", "amount": 3}, want: EffectRemoveDamage, target: TargetSelf},
		{name: "each opponent loses lore", raw: map[string]any{"type": "each_opponent_loses_lore", "amount": 1}, want: EffectLoseLore, target: TargetEachOpponent},
		{name: "modify strength", raw: map[string]any{"type": "modify_strength", "target": "self", "amount": 2}, want: EffectModifyStat, stat: "strength", target: TargetSelf},
		{name: "gain evasive", raw: map[string]any{"type": "Gain_Evasive", "target": "self"}, want: EffectGrantKeyword, keyword: "evasive", target: TargetSelf},
		{name: "bare string", raw: "noop", want: EffectNoop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff, err := DecodeEffect(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eff.Type)
			assert.Equal(t, tt.stat, eff.Stat)
			assert.Equal(t, tt.keyword, eff.Keyword)
			if tt.target != "" {
				require.NotNil(t, eff.Target)
				assert.Equal(t, tt.target, eff.Target.Type)
			}
		})
	}
}

func TestDecodeNestedComposite(t *testing.T) {
	eff, err := DecodeEffect(map[string]any{
		"type":    "sequence",
		"effects": []any{
			map[string]any{"type": "draw", "amount": "2"},
			map[string]any{
				"type":      "conditional",
				"condition": map[string]any{"type": "count_compare", "filter": map[string]any{"owner": "You", "card_type": "character"}, "compare": ">=3"},
				"then":      map[string]any{"type": "gain_lore", "amount": 1},
			},
			map[string]any{
				"type":     "for_each",
				"target":   map[string]any{"type": "your_other_characters"},
				"variable": "it",
				"effect":   map[string]any{"type": "ready", "target": map[string]any{"type": "bound", "variable": "it"}},
			},
			map[string]any{
				"type":  "modal",
				"modes": []any{
					map[string]any{"label": "draw", "effect": "draw"},
					map[string]any{"label": "lore", "effect": map[string]any{"type": "gain_lore", "amount": 2}},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, eff.Effects, 4)

	assert.Equal(t, 2, eff.Effects[0].Amount.Value, "numeric strings become constants")

	cond := eff.Effects[1].Condition
	require.NotNil(t, cond)
	assert.Equal(t, CondCountCompare, cond.Type)
	assert.Equal(t, OwnerYou, cond.Filter.Owner)
	assert.Equal(t, ">=", cond.Compare.Op)
	assert.Equal(t, 3, cond.Compare.Value)
	assert.True(t, cond.Compare.Match(3))
	assert.False(t, cond.Compare.Match(2))

	loop := eff.Effects[2]
	assert.Equal(t, TargetAll, loop.Target.Type)
	assert.True(t, loop.Target.Filter.Other)
	assert.Equal(t, TargetBound, loop.Effect.Target.Type)

	modal := eff.Effects[3]
	require.Len(t, modal.Modes, 2)
	assert.Equal(t, EffectDraw, modal.Modes[0].Effect.Type)

	var seen []EffectType
	eff.Walk(func(e *Effect) { seen = append(seen, e.Type) })
	assert.Len(t, seen, 9)
}

func TestDecodeVariableExpression(t *testing.T) {
	eff, err := DecodeEffect(map[string]any{"type": "draw", "amount": "damage_removed"})
	require.NoError(t, err)
	assert.Equal(t, ExprVariable, eff.Amount.Type)
	assert.Equal(t, "damage_removed", eff.Amount.Name)
}

func TestDecodeRejectsMissingTypes(t *testing.T) {
	_, err := DecodeEffect(map[string]any{"amount": 1})
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = DecodeEffect(map[string]any{"type": "draw", "target": map[string]any{"count": 1}})
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = DecodeEffect(map[string]any{"type": "draw", "condition": map[string]any{}})
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestUnknownTagsSurviveDecoding(t *testing.T) {
	eff, err := DecodeEffect(map[string]any{"type": "summon_dragon"})
	require.NoError(t, err)
	assert.Equal(t, EffectType("summon_dragon"), eff.Type)
}

func TestDecodeAbility(t *testing.T) {
	a, err := DecodeAbility(map[string]any{
		"name":     "Loyal Friend",
		"trigger":  "on_quest",
		"optional": true,
		"effect":   map[string]any{"type": "draw", "amount": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, AbilityTriggered, a.Kind)
	assert.Equal(t, rules.EventQuested, a.Trigger.Event)
	assert.Equal(t, SubjectSelf, a.Trigger.Subject)
	assert.True(t, a.Trigger.MonitorsZone("play"))
	assert.False(t, a.Trigger.MonitorsZone("discard"))
	assert.True(t, a.Optional)

	a, err = DecodeAbility(map[string]any{
		"trigger": map[string]any{"event": "turn_start", "zones": "play,discard"},
		"effect":  "noop",
	})
	require.NoError(t, err)
	assert.Equal(t, rules.EventTurnStart, a.Trigger.Event)
	assert.Equal(t, SubjectYou, a.Trigger.Subject)
	assert.True(t, a.Trigger.MonitorsZone("discard"))

	a, err = DecodeAbility(map[string]any{
		"cost":   map[string]any{"exert": true, "ink": 2},
		"effect": "draw",
	})
	require.NoError(t, err)
	assert.Equal(t, AbilityActivated, a.Kind)
	assert.Equal(t, 2, a.Cost.Ink)
}

func TestDecodeAbilityErrors(t *testing.T) {
	_, err := DecodeAbility(map[string]any{"kind": "triggered", "effect": "draw"})
	assert.Error(t, err)

	_, err = DecodeAbility(map[string]any{"kind": "passive", "effect": "draw"})
	assert.Error(t, err)

	_, err = DecodeAbility(map[string]any{"kind": "static"})
	assert.Error(t, err)

	list, err := DecodeAbilities("mickey", []any{
		map[string]any{"kind": "static", "effect": "noop"},
		map[string]any{"id": "named", "kind": "static", "effect": "noop"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mickey#0", list[0].ID)
	assert.Equal(t, "named", list[1].ID)
}

func TestCompareShorthand(t *testing.T) {
	target, err := DecodeTarget(map[string]any{
		"type":   "chosen_character",
		"filter": map[string]any{"cost": "<= 2", "strength": 3},
	})
	require.NoError(t, err)
	assert.True(t, target.Filter.Cost.Match(2))
	assert.False(t, target.Filter.Cost.Match(3))
	assert.True(t, target.Filter.Strength.Match(3))
	assert.Equal(t, "character", target.Filter.CardType, "alias filter fills unset fields")

	_, err = DecodeTarget(map[string]any{"type": "all", "filter": map[string]any{"cost": ">=x"}})
	assert.Error(t, err)
}

func TestVocabularySize(t *testing.T) {
	effects := Vocabulary()
	assert.Greater(t, len(effects), 150)
	assert.Contains(t, effects, EffectPayCost)
	assert.Contains(t, effects, EffectType("each_opponent_chooses_and_banishes"))
	assert.Contains(t, effects, EffectType("loot"))

	targets := TargetVocabulary()
	assert.GreaterOrEqual(t, len(targets), 60)
	assert.Contains(t, targets, TargetCardsUnder)
	assert.Contains(t, targets, TargetType("random_opposing_character"))

	for _, tag := range effects {
		_, err := DecodeEffect(map[string]any{"type": string(tag)})
		assert.NoError(t, err, tag)
	}
	for _, tag := range targets {
		_, err := DecodeTarget(string(tag))
		assert.NoError(t, err, tag)
	}
}

func TestDecodeWidenedAliases(t *testing.T) {
	tests := []struct {
		name        string
		raw         map[string]any
		want        EffectType
		restriction string
		duration    string
		keyword     string
		target      TargetType
	}{
		{name: "each opponent chooses and banishes", raw: map[string]any{"type": "each_opponent_chooses_and_banishes"}, want: EffectOpponentChoiceBanish},
		{name: "each player draws", raw: map[string]any{"type": "each_player_draws", "amount": 1}, want: EffectDraw, target: TargetEachPlayer},
		{name: "cant ready lasts a turn", raw: map[string]any{"type": "cant_ready", "target": "chosen_character"}, want: EffectRestrict, restriction: "cant_ready", duration: "until_start_of_your_next_turn", target: TargetChosen},
		{name: "can challenge ready", raw: map[string]any{"type": "can_challenge_ready"}, want: EffectRestrict, restriction: "can_challenge_ready", target: TargetSelf},
		{name: "challenge bonus", raw: map[string]any{"type": "challenge_bonus", "amount": 2}, want: EffectGrantKeyword, keyword: "challenger"},
		{name: "put under", raw: map[string]any{"type": "put_under_self"}, want: EffectPutUnder},
		{name: "look at opponent hand", raw: map[string]any{"type": "look_at_opponent_hand"}, want: EffectRevealHand, target: TargetOpponent},
		{name: "drain", raw: map[string]any{"type": "drain_lore", "amount": 1}, want: EffectStealLore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff, err := DecodeEffect(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eff.Type)
			assert.Equal(t, tt.restriction, eff.Restriction)
			assert.Equal(t, tt.duration, eff.Duration)
			assert.Equal(t, tt.keyword, eff.Keyword)
			if tt.target != "" {
				require.NotNil(t, eff.Target)
				assert.Equal(t, tt.target, eff.Target.Type)
			}
		})
	}
}

func TestDecodeNegatedAmounts(t *testing.T) {
	eff, err := DecodeEffect(map[string]any{"type": "reduce_strength", "amount": 2, "target": "chosen_opposing_character"})
	require.NoError(t, err)
	assert.Equal(t, EffectModifyStat, eff.Type)
	assert.Equal(t, "strength", eff.Stat)
	require.NotNil(t, eff.Amount)
	assert.Equal(t, ExprMultiply, eff.Amount.Type)
	require.Len(t, eff.Amount.Args, 2)
	assert.Equal(t, 2, eff.Amount.Args[0].Value)
	assert.Equal(t, -1, eff.Amount.Args[1].Value)

	eff, err = DecodeEffect(map[string]any{"type": "reduce_lore"})
	require.NoError(t, err)
	assert.Equal(t, 1, eff.Amount.Args[0].Value, "a missing amount negates one")
}

func TestDecodeMacros(t *testing.T) {
	eff, err := DecodeEffect(map[string]any{"type": "loot", "amount": 2})
	require.NoError(t, err)
	require.Equal(t, EffectSequence, eff.Type)
	require.Len(t, eff.Effects, 2)
	assert.Equal(t, EffectDraw, eff.Effects[0].Type)
	assert.Equal(t, EffectDiscard, eff.Effects[1].Type)
	assert.Equal(t, 2, eff.Effects[1].Amount.Value)

	eff, err = DecodeEffect(map[string]any{
		"type":   "may_pay",
		"cost":   2,
		"effect": map[string]any{"type": "draw_cards", "amount": 1},
	})
	require.NoError(t, err)
	require.Equal(t, EffectOptional, eff.Type)
	require.Equal(t, EffectPayCost, eff.Effect.Type)
	assert.Equal(t, 2, eff.Effect.Cost.Value)
	assert.Equal(t, EffectDraw, eff.Effect.Effect.Type, "the paid effect is normalized too")

	eff, err = DecodeEffect(map[string]any{"type": "exert_and_cant_ready"})
	require.NoError(t, err)
	require.Len(t, eff.Effects, 2)
	assert.Equal(t, TargetChosen, eff.Effects[0].Target.Type)
	assert.Equal(t, TargetBound, eff.Effects[1].Target.Type)
	assert.Equal(t, "cant_ready", eff.Effects[1].Restriction)
}

func TestOneShotFindsFirstNonContinuousNode(t *testing.T) {
	eff, err := DecodeEffect(map[string]any{"type": "sequence", "effects": []any{
		map[string]any{"type": "modify_strength", "amount": 1},
		map[string]any{"type": "gain_lore", "amount": 1},
	}})
	require.NoError(t, err)
	require.NotNil(t, eff.OneShot())
	assert.Equal(t, EffectGainLore, eff.OneShot().Type)

	eff, err = DecodeEffect(map[string]any{"type": "cant_quest"})
	require.NoError(t, err)
	assert.Nil(t, eff.OneShot())
}
