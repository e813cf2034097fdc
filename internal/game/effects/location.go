package effects

import (
	"context"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
)

var (
	targetYourLocation = &ast.Target{Type: ast.TargetChosen, Filter: &ast.Filter{CardType: string(state.TypeLocation), Owner: ast.OwnerYou}}
	targetYourChars    = &ast.Target{Type: ast.TargetAll, Filter: &ast.Filter{CardType: string(state.TypeCharacter), Owner: ast.OwnerYou}}
	targetChosenLoc    = &ast.Target{Type: ast.TargetChosen, Filter: &ast.Filter{CardType: string(state.TypeLocation)}}
)

// LocationFamily moves characters to locations and removes locations.
type LocationFamily struct {
	in *Interpreter
}

// Handlers implements Family.
func (l *LocationFamily) Handlers() map[ast.EffectType]Handler {
	return map[ast.EffectType]Handler{
		ast.EffectMoveToLocation:    l.moveToLocation,
		ast.EffectMoveAllToLocation: l.moveAllToLocation,
		ast.EffectBanishLocation:    l.banishLocation,
	}
}

// CanMoveTo reports whether a character may move to a location: both in
// play under the same owner and the character not already there.
func CanMoveTo(character, location *state.CardInstance) bool {
	return character != nil && location != nil &&
		character.InPlay() && location.InPlay() &&
		character.Type == state.TypeCharacter && location.Type == state.TypeLocation &&
		character.OwnerID == location.OwnerID &&
		character.AtLocation != location.ID
}

// MoveToLocation moves a character to a location without paying its move cost.
func (in *Interpreter) MoveToLocation(ec *targeting.Context, character, location *state.CardInstance) bool {
	if !CanMoveTo(character, location) || ec.State.HasRestriction(character.ID, state.RestrictCantMove) {
		return false
	}
	character.AtLocation = location.ID
	evt := CardEvent(rules.EventMovedToLoc, character, ec.SourceID, ec.PlayerID)
	evt.Data = location.ID
	evt.Targets = []string{location.ID}
	ec.Emit(evt)
	in.record(ec, "move_to_location", 1, 1, character.ID, location.ID)
	return true
}

func (l *LocationFamily) moveToLocation(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	chars := l.in.cards(ctx, e.Target, ec, targetSelf)
	return Result{Applied: l.moveAll(ctx, e, ec, chars)}
}

func (l *LocationFamily) moveAllToLocation(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	chars := l.in.cards(ctx, e.Target, ec, targetYourChars)
	return Result{Applied: l.moveAll(ctx, e, ec, chars)}
}

func (l *LocationFamily) moveAll(ctx context.Context, e *ast.Effect, ec *targeting.Context, chars []*state.CardInstance) int {
	if len(chars) == 0 {
		return 0
	}
	locs := l.in.cards(ctx, e.Destination, ec, targetYourLocation)
	if len(locs) == 0 {
		return 0
	}
	moved := 0
	for _, c := range chars {
		if l.in.MoveToLocation(ec, c, locs[0]) {
			moved++
		}
	}
	return moved
}

func (l *LocationFamily) banishLocation(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	var locs []*state.CardInstance
	for _, c := range l.in.cards(ctx, e.Target, ec, targetChosenLoc) {
		if c.Type == state.TypeLocation {
			locs = append(locs, c)
		}
	}
	return Result{Applied: l.in.Banish(ec, locs...)}
}
