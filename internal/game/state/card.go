package state

import "strings"

// Zone is where a card currently lives.
type Zone string

const (
	ZoneNone     Zone = ""
	ZoneDeck     Zone = "deck"
	ZoneHand     Zone = "hand"
	ZoneDiscard  Zone = "discard"
	ZoneInkwell  Zone = "inkwell"
	ZonePlay     Zone = "play"
	ZoneAttached Zone = "attached" // under another card (Shift)
)

// ParseZone normalizes a zone name, accepting a few common aliases.
func ParseZone(name string) (Zone, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "deck", "library":
		return ZoneDeck, true
	case "hand":
		return ZoneHand, true
	case "discard", "graveyard":
		return ZoneDiscard, true
	case "inkwell", "ink":
		return ZoneInkwell, true
	case "play", "board", "battlefield":
		return ZonePlay, true
	case "attached", "under":
		return ZoneAttached, true
	}
	return ZoneNone, false
}

// CardType is the printed type of a card.
type CardType string

const (
	TypeCharacter CardType = "character"
	TypeAction    CardType = "action"
	TypeItem      CardType = "item"
	TypeLocation  CardType = "location"
)

// Stat names a numeric card attribute.
type Stat string

const (
	StatCost      Stat = "cost"
	StatStrength  Stat = "strength"
	StatWillpower Stat = "willpower"
	StatLore      Stat = "lore"
	StatMoveCost  Stat = "move_cost"
)

// Keyword names used by the rules engine.
const (
	KeywordBodyguard  = "bodyguard"
	KeywordChallenger = "challenger"
	KeywordEvasive    = "evasive"
	KeywordReckless   = "reckless"
	KeywordResist     = "resist"
	KeywordRush       = "rush"
	KeywordSinger     = "singer"
	KeywordShift      = "shift"
	KeywordSupport    = "support"
	KeywordWard       = "ward"
)

// CardInstance is one physical card in a game.
type CardInstance struct {
	ID           string   `json:"id"`
	DefinitionID string   `json:"definition_id"`
	Name         string   `json:"name"`
	OwnerID      string   `json:"owner_id"`
	Type         CardType `json:"type"`
	Subtypes     []string `json:"subtypes,omitempty"`
	Inkable      bool     `json:"inkable"`
	Zone         Zone     `json:"zone"`

	// Base stats. Permanent modifications change these directly.
	Cost      int `json:"cost"`
	Strength  int `json:"strength"`
	Willpower int `json:"willpower"`
	Lore      int `json:"lore"`
	MoveCost  int `json:"move_cost,omitempty"`

	Damage          int  `json:"damage"`
	Exerted         bool `json:"exerted"`
	EnteredPlayTurn int  `json:"entered_play_turn"`
	PlayOrder       int  `json:"play_order"`

	// Keywords holds printed keywords; Granted holds permanent grants that
	// are lost when the card leaves play. Values carry the +N of e.g. Resist.
	Keywords map[string]int    `json:"keywords,omitempty"`
	Granted  map[string]int    `json:"granted,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`

	Under      []string `json:"under,omitempty"`
	AttachedTo string   `json:"attached_to,omitempty"`
	AtLocation string   `json:"at_location,omitempty"`
}

// HasSubtype reports whether the card carries the subtype (case-insensitive).
func (c *CardInstance) HasSubtype(subtype string) bool {
	for _, s := range c.Subtypes {
		if strings.EqualFold(s, subtype) {
			return true
		}
	}
	return false
}

// InPlay reports whether the card is on the board.
func (c *CardInstance) InPlay() bool {
	return c.Zone == ZonePlay
}

// IsDry reports whether the card entered play before the given turn.
// A card played this turn is wet regardless of its exerted flag.
func (c *CardInstance) IsDry(turn int) bool {
	return c.Zone == ZonePlay && c.EnteredPlayTurn > 0 && c.EnteredPlayTurn < turn
}

// IsCharacter reports whether the card is a character.
func (c *CardInstance) IsCharacter() bool {
	return c.Type == TypeCharacter
}

// IsSong reports whether the card is an action with the Song subtype.
func (c *CardInstance) IsSong() bool {
	return c.Type == TypeAction && c.HasSubtype("song")
}

// BaseStat returns the unmodified stat value.
func (c *CardInstance) BaseStat(stat Stat) int {
	switch stat {
	case StatCost:
		return c.Cost
	case StatStrength:
		return c.Strength
	case StatWillpower:
		return c.Willpower
	case StatLore:
		return c.Lore
	case StatMoveCost:
		return c.MoveCost
	}
	return 0
}

// AddBase permanently changes a base stat, never below zero.
func (c *CardInstance) AddBase(stat Stat, delta int) {
	switch stat {
	case StatCost:
		c.Cost = clamp(c.Cost + delta)
	case StatStrength:
		c.Strength = clamp(c.Strength + delta)
	case StatWillpower:
		c.Willpower = clamp(c.Willpower + delta)
	case StatLore:
		c.Lore = clamp(c.Lore + delta)
	case StatMoveCost:
		c.MoveCost = clamp(c.MoveCost + delta)
	}
}

// Clone returns a deep copy of the card.
func (c *CardInstance) Clone() *CardInstance {
	out := *c
	out.Subtypes = append([]string(nil), c.Subtypes...)
	out.Under = append([]string(nil), c.Under...)
	out.Keywords = copyIntMap(c.Keywords)
	out.Granted = copyIntMap(c.Granted)
	if c.Meta != nil {
		out.Meta = make(map[string]string, len(c.Meta))
		for k, v := range c.Meta {
			out.Meta[k] = v
		}
	}
	return &out
}

// resetRuntime clears everything a card forgets when it leaves play.
func (c *CardInstance) resetRuntime() {
	c.Damage = 0
	c.Exerted = false
	c.EnteredPlayTurn = 0
	c.Granted = nil
	c.AtLocation = ""
}

func copyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
