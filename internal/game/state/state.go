package state

import (
	"fmt"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"golang.org/x/exp/rand"
)

// DefaultWinThreshold is the lore a player needs to win.
const DefaultWinThreshold = 20

// Player holds one player's zones and lore.
// Deck is ordered top-first; Play is ordered by board position.
type Player struct {
	ID            string   `json:"id"`
	Deck          []string `json:"deck"`
	Hand          []string `json:"hand"`
	Discard       []string `json:"discard"`
	Inkwell       []string `json:"inkwell"`
	Play          []string `json:"play"`
	Lore          int      `json:"lore"`
	InkedThisTurn bool     `json:"inked_this_turn"`
	Lost          bool     `json:"lost"`
}

func (p *Player) zone(z Zone) *[]string {
	switch z {
	case ZoneDeck:
		return &p.Deck
	case ZoneHand:
		return &p.Hand
	case ZoneDiscard:
		return &p.Discard
	case ZoneInkwell:
		return &p.Inkwell
	case ZonePlay:
		return &p.Play
	}
	return nil
}

// Cards returns a copy of the ids in a zone.
func (p *Player) Cards(z Zone) []string {
	slot := p.zone(z)
	if slot == nil {
		return nil
	}
	return append([]string(nil), (*slot)...)
}

// PendingChoice records the choice a suspended resolution is waiting on.
type PendingChoice struct {
	RequestID string   `json:"request_id"`
	PlayerID  string   `json:"player_id"`
	Kind      string   `json:"kind"`
	Prompt    string   `json:"prompt"`
	SourceID  string   `json:"source_id,omitempty"`
	Options   []string `json:"options"`
	Min       int      `json:"min"`
	Max       int      `json:"max"`
}

// RefKind distinguishes card and player references.
type RefKind int

const (
	RefCard RefKind = iota
	RefPlayer
)

// Ref points to a card or a player.
type Ref struct {
	Kind RefKind
	ID   string
}

// CardRef builds a card reference.
func CardRef(id string) Ref { return Ref{Kind: RefCard, ID: id} }

// PlayerRef builds a player reference.
func PlayerRef(id string) Ref { return Ref{Kind: RefPlayer, ID: id} }

// GameState is the single mutable aggregate of a game.
type GameState struct {
	GameID        string
	Players       map[string]*Player
	Order         []string
	Cards         map[string]*CardInstance
	Turn          int
	ActivePlayer  string
	Phase         rules.Phase
	ActiveEffects []*ActiveEffect
	Winner        string
	Over          bool
	PendingChoice *PendingChoice
	Journal       []JournalEntry
	WinThreshold  int
	Seed          uint64
	PlayCounter   int

	rng *rand.Rand
}

// NewGameState creates an empty game for the given players in turn order.
func NewGameState(gameID string, playerIDs []string, winThreshold int, seed uint64) *GameState {
	if winThreshold <= 0 {
		winThreshold = DefaultWinThreshold
	}
	gs := &GameState{
		GameID:       gameID,
		Players:      make(map[string]*Player, len(playerIDs)),
		Order:        append([]string(nil), playerIDs...),
		Cards:        make(map[string]*CardInstance),
		Turn:         1,
		WinThreshold: winThreshold,
		Seed:         seed,
		rng:          rand.New(rand.NewSource(seed)),
	}
	for _, id := range playerIDs {
		gs.Players[id] = &Player{ID: id}
	}
	if len(playerIDs) > 0 {
		gs.ActivePlayer = playerIDs[0]
	}
	return gs
}

// Rand returns the game's seeded random source.
func (gs *GameState) Rand() *rand.Rand {
	if gs.rng == nil {
		gs.rng = rand.New(rand.NewSource(gs.Seed))
	}
	return gs.rng
}

// Card looks up a card instance.
func (gs *GameState) Card(id string) (*CardInstance, bool) {
	c, ok := gs.Cards[id]
	return c, ok
}

// Player looks up a player.
func (gs *GameState) Player(id string) (*Player, bool) {
	p, ok := gs.Players[id]
	return p, ok
}

// PlayersFrom returns all player ids in turn order starting with start.
func (gs *GameState) PlayersFrom(start string) []string {
	idx := -1
	for i, id := range gs.Order {
		if id == start {
			idx = i
			break
		}
	}
	if idx < 0 {
		return append([]string(nil), gs.Order...)
	}
	out := make([]string, 0, len(gs.Order))
	for i := 0; i < len(gs.Order); i++ {
		out = append(out, gs.Order[(idx+i)%len(gs.Order)])
	}
	return out
}

// Opponents returns every other player in turn order after playerID.
func (gs *GameState) Opponents(playerID string) []string {
	all := gs.PlayersFrom(playerID)
	if len(all) > 0 && all[0] == playerID {
		return all[1:]
	}
	return all
}

// NextPlayer returns the player whose turn follows playerID.
func (gs *GameState) NextPlayer(playerID string) string {
	opps := gs.Opponents(playerID)
	for _, id := range opps {
		if p := gs.Players[id]; p != nil && !p.Lost {
			return id
		}
	}
	return playerID
}

// AddCard registers a new card instance and places it in the owner's zone.
func (gs *GameState) AddCard(card *CardInstance, zone Zone) error {
	if card == nil || card.ID == "" {
		return fmt.Errorf("card instance must have an id")
	}
	if _, exists := gs.Cards[card.ID]; exists {
		return fmt.Errorf("card %s already exists", card.ID)
	}
	owner, ok := gs.Players[card.OwnerID]
	if !ok {
		return fmt.Errorf("card %s: unknown owner %s", card.ID, card.OwnerID)
	}
	slot := owner.zone(zone)
	if slot == nil {
		return fmt.Errorf("card %s: cannot be created in zone %q", card.ID, zone)
	}
	card.Zone = zone
	if zone == ZonePlay {
		gs.stampEntered(card)
	}
	gs.Cards[card.ID] = card
	*slot = append(*slot, card.ID)
	return nil
}

// MoveOptions tune a zone move.
type MoveOptions struct {
	Top     bool   // deck: put on top instead of the bottom
	Exerted bool   // play/inkwell: enter exerted
	Host    string // attached: the card this one goes under
}

// MoveCard is the only way a card changes zones. It keeps the owner's
// zone collections in sync with card.Zone and resets what a card forgets
// when leaving play. Effects tied to a card leaving play are retired.
func (gs *GameState) MoveCard(id string, to Zone, opts MoveOptions) error {
	card, ok := gs.Cards[id]
	if !ok {
		return fmt.Errorf("card %s not found", id)
	}
	owner, ok := gs.Players[card.OwnerID]
	if !ok {
		return fmt.Errorf("card %s: unknown owner %s", id, card.OwnerID)
	}
	var host *CardInstance
	if to == ZoneAttached {
		if host, ok = gs.Cards[opts.Host]; !ok {
			return fmt.Errorf("card %s: attach host %q not found", id, opts.Host)
		}
	} else if owner.zone(to) == nil {
		return fmt.Errorf("card %s: unknown destination zone %q", id, to)
	}

	from := card.Zone
	gs.detach(card, owner)

	if from == ZonePlay && to != ZonePlay {
		gs.leavePlay(card)
	}

	card.Zone = to
	switch to {
	case ZoneAttached:
		card.AttachedTo = host.ID
		host.Under = append(host.Under, card.ID)
	case ZoneDeck:
		if opts.Top {
			owner.Deck = append([]string{card.ID}, owner.Deck...)
		} else {
			owner.Deck = append(owner.Deck, card.ID)
		}
	default:
		slot := owner.zone(to)
		*slot = append(*slot, card.ID)
	}

	switch to {
	case ZonePlay:
		if from != ZonePlay {
			gs.stampEntered(card)
		}
		card.Exerted = opts.Exerted
	case ZoneInkwell:
		card.Exerted = opts.Exerted
	}
	return nil
}

func (gs *GameState) detach(card *CardInstance, owner *Player) {
	if card.Zone == ZoneAttached {
		if host, ok := gs.Cards[card.AttachedTo]; ok {
			host.Under = removeID(host.Under, card.ID)
		}
		card.AttachedTo = ""
		return
	}
	if slot := owner.zone(card.Zone); slot != nil {
		*slot = removeID(*slot, card.ID)
	}
}

func (gs *GameState) leavePlay(card *CardInstance) {
	card.resetRuntime()
	gs.ExpireForCard(card.ID)
	under := append([]string(nil), card.Under...)
	card.Under = nil
	for _, uid := range under {
		if u, ok := gs.Cards[uid]; ok {
			u.AttachedTo = ""
			u.Zone = ZoneNone
			if o, ok := gs.Players[u.OwnerID]; ok {
				u.Zone = ZoneDiscard
				o.Discard = append(o.Discard, u.ID)
			}
		}
	}
	if card.Type == TypeLocation {
		for _, c := range gs.Cards {
			if c.AtLocation == card.ID {
				c.AtLocation = ""
			}
		}
	}
}

func (gs *GameState) stampEntered(card *CardInstance) {
	gs.PlayCounter++
	card.PlayOrder = gs.PlayCounter
	card.EnteredPlayTurn = gs.Turn
}

// InheritPlayState copies board state from the card a Shift character was played onto.
func (gs *GameState) InheritPlayState(card, from *CardInstance) {
	card.EnteredPlayTurn = from.EnteredPlayTurn
	card.Exerted = from.Exerted
	card.Damage = from.Damage
	card.AtLocation = from.AtLocation
	card.PlayOrder = from.PlayOrder
}

// ShiftOnto plays newID from its zone on top of baseID. The new card keeps
// the base card's board state and the base card, with anything already
// under it, goes underneath.
func (gs *GameState) ShiftOnto(newID, baseID string) error {
	newCard, ok := gs.Cards[newID]
	if !ok {
		return fmt.Errorf("card %s not found", newID)
	}
	base, ok := gs.Cards[baseID]
	if !ok || base.Zone != ZonePlay {
		return fmt.Errorf("shift base %s is not in play", baseID)
	}
	if err := gs.MoveCard(newID, ZonePlay, MoveOptions{}); err != nil {
		return err
	}
	gs.InheritPlayState(newCard, base)
	for _, uid := range base.Under {
		if u, ok := gs.Cards[uid]; ok {
			u.AttachedTo = newID
			newCard.Under = append(newCard.Under, uid)
		}
	}
	base.Under = nil
	return gs.MoveCard(baseID, ZoneAttached, MoveOptions{Host: newID})
}

// Draw moves up to n cards from the top of a player's deck to their hand
// and returns the ids actually drawn.
func (gs *GameState) Draw(playerID string, n int) []string {
	p, ok := gs.Players[playerID]
	if !ok || n <= 0 {
		return nil
	}
	var drawn []string
	for i := 0; i < n && len(p.Deck) > 0; i++ {
		id := p.Deck[0]
		if err := gs.MoveCard(id, ZoneHand, MoveOptions{}); err != nil {
			break
		}
		drawn = append(drawn, id)
	}
	return drawn
}

// Shuffle randomizes a player's deck with the game's seeded source.
func (gs *GameState) Shuffle(playerID string) {
	p, ok := gs.Players[playerID]
	if !ok {
		return
	}
	gs.Rand().Shuffle(len(p.Deck), func(i, j int) {
		p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i]
	})
}

// AddLore increases a player's lore and decides the game the moment the
// threshold is reached. It returns the lore actually gained.
func (gs *GameState) AddLore(playerID string, n int) int {
	p, ok := gs.Players[playerID]
	if !ok || n <= 0 {
		return 0
	}
	p.Lore += n
	if !gs.Over && p.Lore >= gs.WinThreshold {
		gs.Winner = playerID
		gs.Over = true
	}
	return n
}

// LoseLore decreases a player's lore, never below zero, returning the amount lost.
func (gs *GameState) LoseLore(playerID string, n int) int {
	p, ok := gs.Players[playerID]
	if !ok || n <= 0 {
		return 0
	}
	if n > p.Lore {
		n = p.Lore
	}
	p.Lore -= n
	return n
}

// MarkLost records that a player lost. When one player remains they win.
func (gs *GameState) MarkLost(playerID string) {
	p, ok := gs.Players[playerID]
	if !ok || p.Lost {
		return
	}
	p.Lost = true
	var remaining []string
	for _, id := range gs.Order {
		if !gs.Players[id].Lost {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 1 && !gs.Over {
		gs.Winner = remaining[0]
		gs.Over = true
	}
	if len(remaining) == 0 {
		gs.Over = true
	}
}

// CardsInZone returns the cards of a player's zone in zone order.
func (gs *GameState) CardsInZone(playerID string, z Zone) []*CardInstance {
	p, ok := gs.Players[playerID]
	if !ok {
		return nil
	}
	slot := p.zone(z)
	if slot == nil {
		return nil
	}
	out := make([]*CardInstance, 0, len(*slot))
	for _, id := range *slot {
		if c, ok := gs.Cards[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ReadyInk returns the ids of a player's ready inkwell cards.
func (gs *GameState) ReadyInk(playerID string) []string {
	var out []string
	for _, c := range gs.CardsInZone(playerID, ZoneInkwell) {
		if !c.Exerted {
			out = append(out, c.ID)
		}
	}
	return out
}

// CheckInvariants verifies every card sits in exactly one collection matching its zone.
func (gs *GameState) CheckInvariants() error {
	seen := make(map[string]int, len(gs.Cards))
	for _, pid := range gs.Order {
		p := gs.Players[pid]
		for _, z := range []Zone{ZoneDeck, ZoneHand, ZoneDiscard, ZoneInkwell, ZonePlay} {
			for _, id := range *p.zone(z) {
				seen[id]++
				c, ok := gs.Cards[id]
				if !ok {
					return fmt.Errorf("player %s zone %s lists unknown card %s", pid, z, id)
				}
				if c.Zone != z || c.OwnerID != pid {
					return fmt.Errorf("card %s listed in %s/%s but has zone %s owner %s", id, pid, z, c.Zone, c.OwnerID)
				}
			}
		}
	}
	for _, c := range gs.Cards {
		for _, uid := range c.Under {
			seen[uid]++
			u, ok := gs.Cards[uid]
			if !ok || u.Zone != ZoneAttached || u.AttachedTo != c.ID {
				return fmt.Errorf("card %s listed under %s but is not attached to it", uid, c.ID)
			}
		}
	}
	for id := range gs.Cards {
		if seen[id] != 1 {
			return fmt.Errorf("card %s appears in %d zones", id, seen[id])
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
