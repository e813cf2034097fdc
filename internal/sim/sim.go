// Package sim plays bot-vs-bot games on an engine. Bots pick from the
// engine's legal actions with a fixed priority and a seeded tie-break, so a
// seed always replays the same game.
package sim

import (
	"context"
	"fmt"

	"github.com/inkwell-labs/lorcana-engine/internal/game"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// maxActionsPerTurn stops a bot looping on free actions.
const maxActionsPerTurn = 200

var priority = map[game.ActionType]int{
	game.ActionInk:       7,
	game.ActionSing:      6,
	game.ActionPlayCard:  5,
	game.ActionChallenge: 4,
	game.ActionQuest:     3,
	game.ActionActivate:  2,
	game.ActionMove:      2,
	game.ActionPassTurn:  0,
}

// Result summarizes one finished game.
type Result struct {
	GameID   string
	Winner   string
	Turns    int
	Actions  int
	Lore     map[string]int
	TimedOut bool // MaxTurns reached without a winner
}

// Runner plays games one at a time.
type Runner struct {
	engine   *game.Engine
	logger   *zap.Logger
	rng      *rand.Rand
	maxTurns int
}

// NewRunner creates a runner. Games stop after maxTurns turns.
func NewRunner(logger *zap.Logger, engine *game.Engine, seed uint64, maxTurns int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:   engine,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
		maxTurns: maxTurns,
	}
}

// Play starts a game, drives every turn with bot actions until someone wins
// or the turn limit is hit, and ends the game.
func (r *Runner) Play(ctx context.Context, gameID string, players []game.PlayerSetup, opts game.Options) (*Result, error) {
	snap, err := r.engine.StartGame(ctx, gameID, players, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}
	defer func() {
		if err := r.engine.EndGame(gameID); err != nil {
			r.logger.Warn("failed to end game", zap.String("game_id", gameID), zap.Error(err))
		}
	}()

	result := &Result{GameID: gameID}
	turnActions := 0
	turn := snap.Turn
	for !snap.Over {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("game %s interrupted: %w", gameID, err)
		}
		if snap.Turn > r.maxTurns {
			result.TimedOut = true
			break
		}
		if snap.Turn != turn {
			turn, turnActions = snap.Turn, 0
		}

		legal, err := r.engine.LegalActions(ctx, gameID, snap.ActivePlayer)
		if err != nil {
			return nil, err
		}
		if len(legal) == 0 {
			return nil, fmt.Errorf("game %s: no legal action for %s", gameID, snap.ActivePlayer)
		}
		action := r.pick(legal)
		if turnActions >= maxActionsPerTurn {
			action = game.Action{Type: game.ActionPassTurn, PlayerID: snap.ActivePlayer}
		}

		snap, err = r.engine.SubmitAction(ctx, gameID, action)
		if err != nil {
			return nil, fmt.Errorf("bot action %s rejected: %w", action.Type, err)
		}
		result.Actions++
		turnActions++
	}

	result.Winner = snap.Winner
	result.Turns = snap.Turn
	result.Lore = make(map[string]int, len(snap.Players))
	for _, p := range snap.Players {
		result.Lore[p.ID] = p.Lore
	}
	r.logger.Info("simulated game finished",
		zap.String("game_id", gameID),
		zap.String("winner", result.Winner),
		zap.Int("turns", result.Turns),
		zap.Int("actions", result.Actions),
		zap.Bool("timed_out", result.TimedOut),
	)
	return result, nil
}

// pick returns a random action among those with the highest priority.
func (r *Runner) pick(legal []game.Action) game.Action {
	best := -1
	var top []game.Action
	for _, a := range legal {
		p := priority[a.Type]
		switch {
		case p > best:
			best, top = p, []game.Action{a}
		case p == best:
			top = append(top, a)
		}
	}
	return top[r.rng.Intn(len(top))]
}
