package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAction covers wrong phase, wrong player and ineligible cards or targets.
	ErrInvalidAction = errors.New("invalid action")
	// ErrResourceShortfall means there was not enough ready ink or cards to pay.
	ErrResourceShortfall = errors.New("insufficient resources")
	// ErrResolutionInProgress is returned when an action arrives while another is still resolving.
	ErrResolutionInProgress = errors.New("resolution in progress")
	// ErrGameOver is returned for actions submitted after a winner was decided.
	ErrGameOver = errors.New("game is over")
	// ErrGameNotFound is returned for unknown game ids.
	ErrGameNotFound = errors.New("game not found")
)

// ActionError describes a rejected player action. No state was changed.
type ActionError struct {
	Action   string
	PlayerID string
	Reason   string
	Err      error
}

func (e *ActionError) Error() string {
	if e.PlayerID != "" {
		return fmt.Sprintf("%s by %s rejected: %s: %v", e.Action, e.PlayerID, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s rejected: %s: %v", e.Action, e.Reason, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Invalid builds an ActionError wrapping ErrInvalidAction.
func Invalid(action, playerID, format string, args ...any) error {
	return &ActionError{Action: action, PlayerID: playerID, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidAction}
}

// Shortfall builds an ActionError wrapping ErrResourceShortfall.
func Shortfall(action, playerID, format string, args ...any) error {
	return &ActionError{Action: action, PlayerID: playerID, Reason: fmt.Sprintf(format, args...), Err: ErrResourceShortfall}
}
