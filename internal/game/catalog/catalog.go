// Package catalog holds the static card definitions a game instantiates
// cards from. Definitions and their compiled abilities are immutable input.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"gopkg.in/yaml.v3"
)

// CardDefinition is a printed card.
type CardDefinition struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Type      state.CardType `yaml:"type"`
	Subtypes  []string       `yaml:"subtypes"`
	Inkable   bool           `yaml:"inkable"`
	Cost      int            `yaml:"cost"`
	Strength  int            `yaml:"strength"`
	Willpower int            `yaml:"willpower"`
	Lore      int            `yaml:"lore"`
	MoveCost  int            `yaml:"move_cost"`
	ShiftCost int            `yaml:"shift_cost"`
	Keywords  KeywordSet     `yaml:"keywords"`

	// RawAbilities is compiler output; Abilities is its decoded form.
	RawAbilities []any          `yaml:"abilities"`
	Abilities    []*ast.Ability `yaml:"-"`
}

// KeywordSet maps lowercase keyword names to their +N value.
// In YAML it accepts either a mapping or a list such as ["Evasive", "Resist +1"].
type KeywordSet map[string]int

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *KeywordSet) UnmarshalYAML(value *yaml.Node) error {
	out := make(KeywordSet)
	switch value.Kind {
	case yaml.MappingNode:
		var m map[string]int
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
		for name, n := range m {
			out[strings.ToLower(name)] = n
		}
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
		for _, entry := range list {
			name, n, err := parseKeyword(entry)
			if err != nil {
				return err
			}
			out[name] = n
		}
	case yaml.ScalarNode:
		if value.Value == "" {
			break
		}
		name, n, err := parseKeyword(value.Value)
		if err != nil {
			return err
		}
		out[name] = n
	default:
		return fmt.Errorf("keywords: unsupported yaml node at line %d", value.Line)
	}
	*k = out
	return nil
}

// parseKeyword reads "Resist +2", "Singer 5" or "Evasive".
func parseKeyword(entry string) (string, int, error) {
	fields := strings.Fields(entry)
	if len(fields) == 0 {
		return "", 0, fmt.Errorf("empty keyword")
	}
	name := strings.ToLower(fields[0])
	if len(fields) == 1 {
		return name, 0, nil
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimPrefix(fields[1], "+"), "%d", &n); err != nil {
		return "", 0, fmt.Errorf("keyword %q: invalid value: %w", entry, err)
	}
	return name, n, nil
}

// Catalog is a concurrency-safe registry of card definitions.
type Catalog struct {
	mu    sync.RWMutex
	cards map[string]*CardDefinition
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{cards: make(map[string]*CardDefinition)}
}

// Add validates a definition, decodes its abilities and registers it.
func (c *Catalog) Add(def *CardDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("card definition must have an id")
	}
	def.Type = state.CardType(strings.ToLower(string(def.Type)))
	switch def.Type {
	case state.TypeCharacter, state.TypeAction, state.TypeItem, state.TypeLocation:
	default:
		return fmt.Errorf("card %s: unknown type %q", def.ID, def.Type)
	}
	if def.Name == "" {
		def.Name = def.ID
	}
	if def.ShiftCost > 0 {
		if def.Keywords == nil {
			def.Keywords = make(KeywordSet)
		}
		def.Keywords[state.KeywordShift] = def.ShiftCost
	} else if n, ok := def.Keywords[state.KeywordShift]; ok {
		def.ShiftCost = n
	}
	if def.Abilities == nil && len(def.RawAbilities) > 0 {
		abilities, err := ast.DecodeAbilities(def.ID, def.RawAbilities)
		if err != nil {
			return fmt.Errorf("card %s: %w", def.ID, err)
		}
		def.Abilities = abilities
	}
	for i, a := range def.Abilities {
		if a.ID == "" {
			a.ID = fmt.Sprintf("%s#%d", def.ID, i)
		}
		// Abilities of actions resolve once on play; anything else static
		// is re-derived continuously and must not hold one-time effects.
		if def.Type != state.TypeAction && a.Kind == ast.AbilityStatic {
			if n := a.Effect.OneShot(); n != nil {
				return fmt.Errorf("card %s: static ability %s: %q is not a continuous effect", def.ID, a.ID, n.Type)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.cards[def.ID]; exists {
		return fmt.Errorf("card %s already registered", def.ID)
	}
	c.cards[def.ID] = def
	return nil
}

// Get returns a definition by id.
func (c *Catalog) Get(id string) (*CardDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.cards[id]
	return def, ok
}

// IDs returns every definition id, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.cards))
	for id := range c.cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cards)
}

// Instantiate creates a fresh card instance of a definition.
func (c *Catalog) Instantiate(defID, instanceID, ownerID string) (*state.CardInstance, error) {
	def, ok := c.Get(defID)
	if !ok {
		return nil, fmt.Errorf("unknown card definition %s", defID)
	}
	card := &state.CardInstance{
		ID:           instanceID,
		DefinitionID: def.ID,
		Name:         def.Name,
		OwnerID:      ownerID,
		Type:         def.Type,
		Subtypes:     append([]string(nil), def.Subtypes...),
		Inkable:      def.Inkable,
		Cost:         def.Cost,
		Strength:     def.Strength,
		Willpower:    def.Willpower,
		Lore:         def.Lore,
		MoveCost:     def.MoveCost,
	}
	if len(def.Keywords) > 0 {
		card.Keywords = make(map[string]int, len(def.Keywords))
		for k, v := range def.Keywords {
			card.Keywords[k] = v
		}
	}
	return card, nil
}

// Abilities returns the abilities of the definition a card was created from.
func (c *Catalog) Abilities(card *state.CardInstance) []*ast.Ability {
	if card == nil {
		return nil
	}
	def, ok := c.Get(card.DefinitionID)
	if !ok {
		return nil
	}
	return def.Abilities
}

// File is the top-level YAML layout of a card file.
type File struct {
	Cards []*CardDefinition `yaml:"cards"`
}

// Parse adds every card of a YAML document to the catalog.
func (c *Catalog) Parse(data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse card YAML: %w", err)
	}
	for _, def := range f.Cards {
		if err := c.Add(def); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads a YAML card file into the catalog.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read card file: %w", err)
	}
	return c.Parse(data)
}
