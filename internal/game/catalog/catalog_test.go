package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsYAML = `
cards:
  - id: brave-mouse
    name: Brave Mouse
    type: Character
    subtypes: [Hero, Storyborn]
    inkable: true
    cost: 3
    strength: 3
    willpower: 3
    lore: 1
    keywords: ["Evasive", "Resist +1"]
    abilities:
      - name: Rally
        trigger: on_quest
        effect:
          type: modify_strength
          target: your_other_characters
          amount: 1
  - id: brave-mouse-captain
    name: Brave Mouse
    type: character
    cost: 5
    shift_cost: 3
    strength: 4
    willpower: 5
    lore: 2
    keywords:
      singer: 5
  - id: friendly-tune
    name: Friendly Tune
    type: action
    subtypes: [Song]
    cost: 2
    abilities:
      - trigger: on_play
        effect: {type: draw, amount: 2}
`

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := New()
	require.NoError(t, c.Parse([]byte(cardsYAML)))
	return c
}

func TestParseCards(t *testing.T) {
	c := loadTestCatalog(t)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"brave-mouse", "brave-mouse-captain", "friendly-tune"}, c.IDs())

	def, ok := c.Get("brave-mouse")
	require.True(t, ok)
	assert.Equal(t, state.TypeCharacter, def.Type)
	assert.Equal(t, KeywordSet{"evasive": 0, "resist": 1}, def.Keywords)
	require.Len(t, def.Abilities, 1)
	a := def.Abilities[0]
	assert.Equal(t, "brave-mouse#0", a.ID)
	assert.Equal(t, ast.AbilityTriggered, a.Kind)
	assert.Equal(t, rules.EventQuested, a.Trigger.Event)
	assert.Equal(t, ast.EffectModifyStat, a.Effect.Type)
	assert.Equal(t, "strength", a.Effect.Stat)

	captain, _ := c.Get("brave-mouse-captain")
	assert.Equal(t, 3, captain.Keywords[state.KeywordShift])
	assert.Equal(t, 5, captain.Keywords[state.KeywordSinger])
}

func TestInstantiate(t *testing.T) {
	c := loadTestCatalog(t)
	card, err := c.Instantiate("brave-mouse", "p1-0", "p1")
	require.NoError(t, err)
	assert.Equal(t, "brave-mouse", card.DefinitionID)
	assert.Equal(t, "p1", card.OwnerID)
	assert.True(t, card.HasSubtype("hero"))
	assert.Equal(t, 1, card.Keywords[state.KeywordResist])

	card.Keywords[state.KeywordResist] = 9
	def, _ := c.Get("brave-mouse")
	assert.Equal(t, 1, def.Keywords[state.KeywordResist], "instances never share keyword maps with the definition")

	assert.Len(t, c.Abilities(card), 1)
	assert.Nil(t, c.Abilities(nil))

	_, err = c.Instantiate("nope", "x", "p1")
	assert.Error(t, err)
}

func TestAddRejectsBadDefinitions(t *testing.T) {
	c := New()
	assert.Error(t, c.Add(&CardDefinition{}))
	assert.Error(t, c.Add(&CardDefinition{ID: "x", Type: "creature"}))
	require.NoError(t, c.Add(&CardDefinition{ID: "x", Type: state.TypeItem}))
	assert.Error(t, c.Add(&CardDefinition{ID: "x", Type: state.TypeItem}), "duplicate ids are rejected")

	err := c.Add(&CardDefinition{ID: "broken", Type: state.TypeAction, RawAbilities: []any{
		map[string]any{"kind": "triggered", "effect": "draw"},
	}})
	assert.Error(t, err)

	err = c.Parse([]byte("cards:\n  - id: k\n    type: item\n    keywords: [\"Resist +x\"]\n"))
	assert.Error(t, err)
}

func TestAddRejectsOneShotStatics(t *testing.T) {
	c := New()
	err := c.Add(&CardDefinition{ID: "lore-idol", Type: state.TypeItem, RawAbilities: []any{
		map[string]any{"name": "Tribute", "effect": map[string]any{"type": "gain_lore", "amount": 1}},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gain_lore")
	_, ok := c.Get("lore-idol")
	assert.False(t, ok)

	err = c.Add(&CardDefinition{ID: "war-drum", Type: state.TypeItem, RawAbilities: []any{
		map[string]any{"effect": map[string]any{
			"type": "sequence",
			"effects": []any{
				map[string]any{"type": "modify_strength", "amount": 1, "target": "your_characters"},
				map[string]any{"type": "deal_damage", "amount": 1, "target": "all_opposing_characters"},
			},
		}},
	}})
	assert.ErrorContains(t, err, "deal_damage", "one-shot leaves are found inside composites")

	require.NoError(t, c.Add(&CardDefinition{ID: "anthem", Type: state.TypeItem, RawAbilities: []any{
		map[string]any{"effect": map[string]any{"type": "reduce_strength", "target": "all_opposing_characters"}},
		map[string]any{"effect": "cant_move"},
	}}))
	require.NoError(t, c.Add(&CardDefinition{ID: "windfall", Type: state.TypeAction, RawAbilities: []any{
		map[string]any{"effect": map[string]any{"type": "gain_lore", "amount": 2}},
	}}), "action abilities resolve once on play")
	require.NoError(t, c.Add(&CardDefinition{ID: "idol-of-plenty", Type: state.TypeItem, RawAbilities: []any{
		map[string]any{"trigger": "start_of_turn", "effect": map[string]any{"type": "gain_lore", "amount": 1}},
	}}), "triggered abilities may hold one-shot effects")
}

func TestParseDecks(t *testing.T) {
	c := loadTestCatalog(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "decks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
decks:
  - name: mice
    cards:
      - {id: brave-mouse, count: 2}
      - {id: friendly-tune, count: 1}
`), 0o644))

	decks, err := ParseDeckFile(path, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"brave-mouse", "brave-mouse", "friendly-tune"}, decks["mice"])

	_, err = ParseDecks([]byte("decks:\n  - name: bad\n    cards:\n      - {id: ghost, count: 1}\n"), c)
	assert.Error(t, err)

	_, err = ParseDeckFile(filepath.Join(dir, "missing.yaml"), c)
	assert.Error(t, err)
}
