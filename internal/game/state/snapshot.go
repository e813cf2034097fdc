package state

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"golang.org/x/crypto/blake2b"
)

// Snapshot is a serializable copy of a GameState, safe to hand to UIs and replays.
type Snapshot struct {
	GameID        string         `json:"game_id"`
	Turn          int            `json:"turn"`
	ActivePlayer  string         `json:"active_player"`
	Phase         string         `json:"phase"`
	Order         []string       `json:"order"`
	Players       []Player       `json:"players"`
	Cards         []CardInstance `json:"cards"`
	ActiveEffects []ActiveEffect `json:"active_effects"`
	PendingChoice *PendingChoice `json:"pending_choice,omitempty"`
	Winner        string         `json:"winner,omitempty"`
	Over          bool           `json:"over"`
	WinThreshold  int            `json:"win_threshold"`
	Seed          uint64         `json:"seed"`
	PlayCounter   int            `json:"play_counter"`
	Journal       []JournalEntry `json:"journal,omitempty"`
}

// Snapshot copies the state. Cards are ordered by id.
func (gs *GameState) Snapshot() *Snapshot {
	s := &Snapshot{
		GameID:       gs.GameID,
		Turn:         gs.Turn,
		ActivePlayer: gs.ActivePlayer,
		Phase:        gs.Phase.String(),
		Order:        append([]string(nil), gs.Order...),
		Winner:       gs.Winner,
		Over:         gs.Over,
		WinThreshold: gs.WinThreshold,
		Seed:         gs.Seed,
		PlayCounter:  gs.PlayCounter,
		Journal:      append([]JournalEntry(nil), gs.Journal...),
	}
	for _, id := range gs.Order {
		p := *gs.Players[id]
		p.Deck = append([]string(nil), p.Deck...)
		p.Hand = append([]string(nil), p.Hand...)
		p.Discard = append([]string(nil), p.Discard...)
		p.Inkwell = append([]string(nil), p.Inkwell...)
		p.Play = append([]string(nil), p.Play...)
		s.Players = append(s.Players, p)
	}
	ids := make([]string, 0, len(gs.Cards))
	for id := range gs.Cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.Cards = append(s.Cards, *gs.Cards[id].Clone())
	}
	for _, e := range gs.ActiveEffects {
		s.ActiveEffects = append(s.ActiveEffects, *e)
	}
	if gs.PendingChoice != nil {
		pc := *gs.PendingChoice
		pc.Options = append([]string(nil), pc.Options...)
		s.PendingChoice = &pc
	}
	return s
}

// Restore rebuilds a live GameState from a snapshot. The random source is
// reseeded, so shuffles after a restore differ from the original game.
func (s *Snapshot) Restore() *GameState {
	gs := NewGameState(s.GameID, s.Order, s.WinThreshold, s.Seed)
	gs.Turn = s.Turn
	gs.ActivePlayer = s.ActivePlayer
	if phase, ok := rules.ParsePhase(s.Phase); ok {
		gs.Phase = phase
	}
	gs.Winner = s.Winner
	gs.Over = s.Over
	gs.PlayCounter = s.PlayCounter
	gs.Journal = append([]JournalEntry(nil), s.Journal...)
	for i := range s.Players {
		p := s.Players[i]
		cp := p
		cp.Deck = append([]string(nil), p.Deck...)
		cp.Hand = append([]string(nil), p.Hand...)
		cp.Discard = append([]string(nil), p.Discard...)
		cp.Inkwell = append([]string(nil), p.Inkwell...)
		cp.Play = append([]string(nil), p.Play...)
		gs.Players[p.ID] = &cp
	}
	for i := range s.Cards {
		c := s.Cards[i].Clone()
		gs.Cards[c.ID] = c
	}
	for i := range s.ActiveEffects {
		e := s.ActiveEffects[i]
		gs.ActiveEffects = append(gs.ActiveEffects, &e)
	}
	if s.PendingChoice != nil {
		pc := *s.PendingChoice
		gs.PendingChoice = &pc
	}
	return gs
}

// Player returns the snapshot of a player, or nil.
func (s *Snapshot) Player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// Card returns the snapshot of a card, or nil.
func (s *Snapshot) Card(id string) *CardInstance {
	i := sort.Search(len(s.Cards), func(i int) bool { return s.Cards[i].ID >= id })
	if i < len(s.Cards) && s.Cards[i].ID == id {
		return &s.Cards[i]
	}
	return nil
}

// Checksum computes a BLAKE2b-256 digest over a canonical rendering of the
// snapshot. Random effect ids and the journal are excluded.
func (s *Snapshot) Checksum() (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}
	if _, err := h.Write(s.canonical()); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Snapshot) canonical() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GAME:%s|%d|%s|%s|%s|%t|%d\n",
		s.GameID, s.Turn, s.ActivePlayer, s.Phase, s.Winner, s.Over, s.WinThreshold)

	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%d|%t|%t\n", p.ID, p.Lore, p.InkedThisTurn, p.Lost)
		fmt.Fprintf(&buf, "  DECK:%s\n", strings.Join(p.Deck, ","))
		fmt.Fprintf(&buf, "  HAND:%s\n", strings.Join(p.Hand, ","))
		fmt.Fprintf(&buf, "  DISCARD:%s\n", strings.Join(p.Discard, ","))
		fmt.Fprintf(&buf, "  INKWELL:%s\n", strings.Join(p.Inkwell, ","))
		fmt.Fprintf(&buf, "  PLAY:%s\n", strings.Join(p.Play, ","))
	}

	for _, c := range s.Cards {
		fmt.Fprintf(&buf, "CARD:%s|%s|%s|%s|%d|%d|%d|%d|%d|%t|%d|%s|%s|%s|%s\n",
			c.ID, c.DefinitionID, c.OwnerID, c.Zone,
			c.Cost, c.Strength, c.Willpower, c.Lore,
			c.Damage, c.Exerted, c.EnteredPlayTurn,
			sortedKeywords(c.Keywords), sortedKeywords(c.Granted),
			strings.Join(c.Under, ","), c.AtLocation)
	}

	effects := make([]string, 0, len(s.ActiveEffects))
	for _, e := range s.ActiveEffects {
		effects = append(effects, fmt.Sprintf("EFFECT:%s|%s|%s|%s|%s|%s|%d|%s|%d",
			e.SourceID, e.TargetID, e.Kind, e.Stat, e.Keyword, e.Restriction, e.Value, e.Duration, e.CreatedTurn))
	}
	sort.Strings(effects)
	for _, line := range effects {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if s.PendingChoice != nil {
		fmt.Fprintf(&buf, "PENDING:%s|%s|%s\n", s.PendingChoice.PlayerID, s.PendingChoice.Kind,
			strings.Join(s.PendingChoice.Options, ","))
	}
	return buf.Bytes()
}

func sortedKeywords(m map[string]int) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, ";")
}
