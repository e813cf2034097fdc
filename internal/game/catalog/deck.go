package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeckFile is the top-level YAML layout of a deck list.
type DeckFile struct {
	Decks []DeckEntry `yaml:"decks"`
}

// DeckEntry is a named deck.
type DeckEntry struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry is a card id and how many copies the deck runs.
type CardEntry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// Expand lists a deck's definition ids, one per copy, in file order.
func (d DeckEntry) Expand() []string {
	var ids []string
	for _, entry := range d.Cards {
		for i := 0; i < entry.Count; i++ {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

// ParseDeckFile reads a deck list and returns decks by name, checking every
// card id against the catalog.
func ParseDeckFile(path string, c *Catalog) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDecks(data, c)
}

// ParseDecks is ParseDeckFile over in-memory YAML.
func ParseDecks(data []byte, c *Catalog) (map[string][]string, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}
	decks := make(map[string][]string, len(df.Decks))
	for _, deck := range df.Decks {
		for _, entry := range deck.Cards {
			if c != nil {
				if _, ok := c.Get(entry.ID); !ok {
					return nil, fmt.Errorf("deck %s: unknown card %s", deck.Name, entry.ID)
				}
			}
		}
		decks[deck.Name] = deck.Expand()
	}
	return decks, nil
}
