package rules

import (
	"fmt"
	"strings"
)

// Phase represents the phases of a turn.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseSet
	PhaseDraw
	PhaseMain
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseReady: "READY",
	PhaseSet:   "SET",
	PhaseDraw:  "DRAW",
	PhaseMain:  "MAIN",
	PhaseEnd:   "END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ParsePhase converts a phase name back to a Phase.
func ParsePhase(name string) (Phase, bool) {
	for p, n := range phaseNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return PhaseReady, false
}

// turnSequence is the fixed phase order of every turn.
var turnSequence = []Phase{PhaseReady, PhaseSet, PhaseDraw, PhaseMain, PhaseEnd}

// TurnManager tracks the active player and phase progression.
type TurnManager struct {
	orderIndex   int
	turnNumber   int
	activePlayer string
}

// NewTurnManager creates a new turn manager initialized at turn 1, ready phase.
func NewTurnManager(activePlayer string) *TurnManager {
	return &TurnManager{
		turnNumber:   1,
		activePlayer: strings.TrimSpace(activePlayer),
	}
}

// RestoreTurnManager rebuilds a manager at an arbitrary point of a game.
func RestoreTurnManager(activePlayer string, turnNumber int, phase Phase) *TurnManager {
	tm := NewTurnManager(activePlayer)
	if turnNumber > 0 {
		tm.turnNumber = turnNumber
	}
	for i, p := range turnSequence {
		if p == phase {
			tm.orderIndex = i
		}
	}
	return tm
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return turnSequence[tm.orderIndex]
}

// TurnNumber returns the current turn number (1-based, counted across both players).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player who currently has the turn.
func (tm *TurnManager) ActivePlayer() string {
	return tm.activePlayer
}

// AdvancePhase advances to the next phase.
// When the end phase is left, the turn number is incremented
// and the active player is rotated to nextActivePlayer if provided.
func (tm *TurnManager) AdvancePhase(nextActivePlayer string) Phase {
	tm.orderIndex++
	if tm.orderIndex >= len(turnSequence) {
		tm.orderIndex = 0
		tm.turnNumber++
		if next := strings.TrimSpace(nextActivePlayer); next != "" {
			tm.activePlayer = next
		}
	}
	return tm.CurrentPhase()
}

// AdvanceTo moves forward until the given phase is reached, returning the phases passed through.
// It never wraps into a new turn.
func (tm *TurnManager) AdvanceTo(target Phase) []Phase {
	var passed []Phase
	for tm.CurrentPhase() != target && tm.orderIndex < len(turnSequence)-1 {
		passed = append(passed, tm.AdvancePhase(""))
	}
	return passed
}

// IsMain reports whether actions may currently be taken.
func (tm *TurnManager) IsMain() bool {
	return tm.CurrentPhase() == PhaseMain
}
