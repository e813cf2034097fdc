package game

import (
	"context"
	"fmt"
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/catalog"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const testCardsYAML = `
cards:
  - id: filler
    name: Filler
    type: character
    inkable: true
    cost: 1
    strength: 1
    willpower: 1
    lore: 1
  - id: hero
    name: Hero
    type: character
    inkable: true
    cost: 2
    strength: 2
    willpower: 4
    lore: 2
  - id: brute
    name: Brute
    type: character
    cost: 3
    strength: 4
    willpower: 3
    lore: 1
  - id: guard
    name: Guard
    type: character
    cost: 2
    strength: 1
    willpower: 4
    lore: 1
    keywords: [Bodyguard]
  - id: flyer
    name: Flyer
    type: character
    cost: 2
    strength: 1
    willpower: 2
    lore: 1
    keywords: [Evasive]
  - id: runner
    name: Runner
    type: character
    cost: 2
    strength: 2
    willpower: 2
    lore: 1
    keywords: [Rush]
  - id: cub
    name: Reckless Cub
    type: character
    cost: 1
    strength: 2
    willpower: 2
    lore: 1
    keywords: [Reckless]
  - id: knight
    name: Knight
    type: character
    cost: 4
    strength: 2
    willpower: 4
    lore: 1
    keywords: ["Resist +1", "Challenger +2"]
  - id: helper
    name: Helper
    type: character
    cost: 2
    strength: 3
    willpower: 2
    lore: 1
    keywords: [Support]
  - id: diva
    name: Diva
    type: character
    cost: 1
    strength: 1
    willpower: 1
    lore: 1
    keywords: ["Singer 5"]
  - id: star
    name: Star
    type: character
    cost: 3
    strength: 2
    willpower: 3
    lore: 1
  - id: star-captain
    name: Star
    type: character
    cost: 6
    shift_cost: 2
    strength: 5
    willpower: 6
    lore: 3
  - id: tune
    name: Friendly Tune
    type: action
    subtypes: [Song]
    cost: 3
    abilities:
      - trigger: on_play
        effect: {type: draw, amount: 2}
  - id: zap
    name: Zap
    type: action
    cost: 1
    abilities:
      - effect:
          type: deal_damage
          amount: 2
          target: chosen_character
  - id: lighthouse
    name: Lighthouse
    type: location
    cost: 2
    willpower: 5
    lore: 1
    move_cost: 1
  - id: scout
    name: Scout
    type: character
    cost: 2
    strength: 1
    willpower: 2
    lore: 1
    abilities:
      - name: Look Around
        cost: {exert: true}
        effect: {type: draw, amount: 1}
  - id: fan
    name: Fan
    type: character
    cost: 2
    strength: 1
    willpower: 2
    lore: 1
    abilities:
      - name: Cheer
        trigger: {event: played, subject: your_other_character}
        effect: {type: gain_lore, amount: 1}
  - id: banner
    name: Banner
    type: item
    cost: 2
    abilities:
      - name: Rally Flag
        effect:
          type: modify_strength
          amount: 1
          target: your_characters
`

// harness runs one two-player game on an engine with scripted choices.
// Decks hold ten fillers each, nothing is shuffled and no opening hand is
// drawn, so tests place exactly the cards they need.
type harness struct {
	t      *testing.T
	engine *Engine
	gameID string
	p1     *choice.ScriptedDecider
	p2     *choice.ScriptedDecider
	logs   *observer.ObservedLogs
	seq    int
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.Parse([]byte(testCardsYAML)))
	return cat
}

func fillers(n int) []string {
	deck := make([]string, n)
	for i := range deck {
		deck[i] = "filler"
	}
	return deck
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.StartingHand = 0
	opts.Shuffle = false
	return opts
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithOptions(t, testOptions())
}

func newHarnessWithOptions(t *testing.T, opts Options) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(zapcore.NewTee(core, zaptest.NewLogger(t).Core()))

	h := &harness{
		t:      t,
		engine: NewEngine(logger, testCatalog(t)),
		gameID: "g1",
		p1:     &choice.ScriptedDecider{Fallback: choice.BotDecider{}},
		p2:     &choice.ScriptedDecider{Fallback: choice.BotDecider{}},
		logs:   logs,
	}
	opts.Deciders = map[string]choice.Decider{"p1": h.p1, "p2": h.p2}
	_, err := h.engine.StartGame(context.Background(), h.gameID, []PlayerSetup{
		{ID: "p1", Deck: fillers(10)},
		{ID: "p2", Deck: fillers(10)},
	}, opts)
	require.NoError(t, err)
	return h
}

// atTurnThree passes the first two turns so cards placed in play are dry.
func (h *harness) atTurnThree() *harness {
	h.pass("p1")
	h.pass("p2")
	require.Equal(h.t, 3, h.state().Turn)
	return h
}

func (h *harness) session() *session {
	h.t.Helper()
	s, err := h.engine.session(h.gameID)
	require.NoError(h.t, err)
	return s
}

func (h *harness) state() *state.GameState {
	return h.session().state
}

// put creates a card straight into a zone. Cards put into play are dry
// unless it is turn 1.
func (h *harness) put(owner, defID string, zone state.Zone) *state.CardInstance {
	h.t.Helper()
	h.seq++
	gs := h.state()
	card, err := h.engine.catalog.Instantiate(defID, fmt.Sprintf("%s-%s-%d", owner, defID, h.seq), owner)
	require.NoError(h.t, err)
	require.NoError(h.t, gs.AddCard(card, zone))
	if zone == state.ZonePlay && gs.Turn > 1 {
		card.EnteredPlayTurn = gs.Turn - 1
	}
	return card
}

// ink gives a player n ready ink.
func (h *harness) ink(owner string, n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		h.put(owner, "filler", state.ZoneInkwell)
	}
}

func (h *harness) submit(a Action) (*state.Snapshot, error) {
	return h.engine.SubmitAction(context.Background(), h.gameID, a)
}

func (h *harness) do(a Action) *state.Snapshot {
	h.t.Helper()
	snap, err := h.submit(a)
	require.NoError(h.t, err)
	return snap
}

func (h *harness) pass(pid string) *state.Snapshot {
	h.t.Helper()
	return h.do(Action{Type: ActionPassTurn, PlayerID: pid})
}

func (h *harness) checksum() string {
	h.t.Helper()
	sum, err := h.state().Snapshot().Checksum()
	require.NoError(h.t, err)
	return sum
}

// record collects the types of every event resolved from now on.
func (h *harness) record() *[]rules.EventType {
	var seen []rules.EventType
	h.session().bus.Observers().Subscribe(func(evt rules.Event) {
		seen = append(seen, evt.Type)
	})
	return &seen
}

// only keeps the listed event types, in order.
func only(events []rules.EventType, keep ...rules.EventType) []rules.EventType {
	want := make(map[rules.EventType]bool, len(keep))
	for _, k := range keep {
		want[k] = true
	}
	var out []rules.EventType
	for _, e := range events {
		if want[e] {
			out = append(out, e)
		}
	}
	return out
}
