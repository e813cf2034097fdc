package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"gopkg.in/yaml.v3"
)

// csvColumns is the header a card export must start with. Keywords and
// subtypes are separated by semicolons; abilities are not part of the export.
var csvColumns = []string{
	"id", "name", "type", "subtypes", "inkable", "cost",
	"strength", "willpower", "lore", "move_cost", "shift_cost", "keywords",
}

// ImportCSV reads a card export. Rows that fail to parse are skipped and
// reported together in the returned error; the good rows are still returned.
func ImportCSV(r io.Reader) ([]*CardDefinition, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("CSV file is empty")
	}
	header := records[0]
	for i, col := range csvColumns {
		if i >= len(header) || !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fmt.Errorf("CSV header column %d must be %q", i+1, col)
		}
	}

	var defs []*CardDefinition
	var errs []error
	for i, record := range records[1:] {
		def, err := parseRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		defs = append(defs, def)
	}
	return defs, errors.Join(errs...)
}

func parseRecord(record []string) (*CardDefinition, error) {
	if len(record) < len(csvColumns) {
		return nil, fmt.Errorf("insufficient columns: %d", len(record))
	}
	field := func(i int) string { return strings.TrimSpace(record[i]) }

	def := &CardDefinition{
		ID:       field(0),
		Name:     field(1),
		Type:     state.CardType(strings.ToLower(field(2))),
		Subtypes: splitList(field(3)),
		Inkable:  parseBool(field(4)),
	}
	if def.ID == "" {
		return nil, errors.New("missing id")
	}
	ints := []*int{&def.Cost, &def.Strength, &def.Willpower, &def.Lore, &def.MoveCost, &def.ShiftCost}
	for j, dst := range ints {
		raw := field(5 + j)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", csvColumns[5+j], err)
		}
		*dst = n
	}
	for _, entry := range splitList(field(11)) {
		name, n, err := parseKeyword(entry)
		if err != nil {
			return nil, err
		}
		if def.Keywords == nil {
			def.Keywords = make(KeywordSet)
		}
		def.Keywords[name] = n
	}
	return def, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true") || s == "1" || strings.EqualFold(s, "yes")
}

// yamlCard is the on-disk form written by WriteYAML.
type yamlCard struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Type      state.CardType `yaml:"type"`
	Subtypes  []string       `yaml:"subtypes,omitempty"`
	Inkable   bool           `yaml:"inkable"`
	Cost      int            `yaml:"cost"`
	Strength  int            `yaml:"strength,omitempty"`
	Willpower int            `yaml:"willpower,omitempty"`
	Lore      int            `yaml:"lore,omitempty"`
	MoveCost  int            `yaml:"move_cost,omitempty"`
	ShiftCost int            `yaml:"shift_cost,omitempty"`
	Keywords  map[string]int `yaml:"keywords,omitempty"`
	Abilities []any          `yaml:"abilities,omitempty"`
}

// WriteYAML writes definitions in the card file layout Parse reads.
func WriteYAML(w io.Writer, defs []*CardDefinition) error {
	out := struct {
		Cards []yamlCard `yaml:"cards"`
	}{Cards: make([]yamlCard, 0, len(defs))}
	for _, def := range defs {
		card := yamlCard{
			ID:        def.ID,
			Name:      def.Name,
			Type:      def.Type,
			Subtypes:  def.Subtypes,
			Inkable:   def.Inkable,
			Cost:      def.Cost,
			Strength:  def.Strength,
			Willpower: def.Willpower,
			Lore:      def.Lore,
			MoveCost:  def.MoveCost,
			ShiftCost: def.ShiftCost,
			Abilities: def.RawAbilities,
		}
		if len(def.Keywords) > 0 {
			card.Keywords = make(map[string]int, len(def.Keywords))
			for k, v := range def.Keywords {
				if k == state.KeywordShift && def.ShiftCost > 0 {
					continue
				}
				card.Keywords[k] = v
			}
		}
		out.Cards = append(out.Cards, card)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}
	return enc.Close()
}
