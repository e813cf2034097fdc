// Package game runs Lorcana games: it owns the turn structure, validates
// player actions and wires the interpreter, trigger bus and choice broker
// of every game together.
package game

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/inkwell-labs/lorcana-engine/internal/game/catalog"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/effects"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"github.com/inkwell-labs/lorcana-engine/internal/game/triggers"
	"github.com/inkwell-labs/lorcana-engine/internal/game/watchers"
	"go.uber.org/zap"
)

// Options tune the rules of one game.
type Options struct {
	WinLore           int
	StartingHand      int
	MaxTriggerCascade int
	// SkipFirstDraw makes the starting player skip the draw of turn 1.
	SkipFirstDraw    bool
	InkEntersExerted bool
	// Shuffle shuffles decks with Seed before the opening draw. Without it
	// decks are used top-first as given.
	Shuffle bool
	Seed    uint64
	// Deciders answer choices per player. Players without one use the bot.
	Deciders map[string]choice.Decider
}

// DefaultOptions returns the standard rules.
func DefaultOptions() Options {
	return Options{
		WinLore:           state.DefaultWinThreshold,
		StartingHand:      7,
		MaxTriggerCascade: triggers.DefaultMaxCascade,
		SkipFirstDraw:     true,
		Shuffle:           true,
	}
}

// PlayerSetup names a player and their deck as card definition ids.
type PlayerSetup struct {
	ID   string
	Deck []string
}

// Engine hosts games.
type Engine struct {
	logger   *zap.Logger
	catalog  *catalog.Catalog
	recorder *ReplayRecorder

	mu    sync.RWMutex
	games map[string]*session
}

// session is one running game and the components resolving it.
type session struct {
	logger  *zap.Logger
	catalog *catalog.Catalog
	opts    Options

	mu    sync.Mutex
	busy  atomic.Bool
	last  atomic.Pointer[state.Snapshot]
	state *state.GameState
	turns *rules.TurnManager
	queue *rules.EventQueue

	announced bool

	broker  *choice.Broker
	interp  *effects.Interpreter
	bus     *triggers.Bus
	tracker *watchers.Tracker
}

// NewEngine creates an engine reading card definitions from cat.
func NewEngine(logger *zap.Logger, cat *catalog.Catalog) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		cat = catalog.New()
	}
	return &Engine{
		logger:  logger,
		catalog: cat,
		games:   make(map[string]*session),
	}
}

// SetRecorder records a snapshot of every game after each accepted action.
func (e *Engine) SetRecorder(r *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = r
}

// StartGame creates a game, deals opening hands and runs the first turn up
// to its main phase. Players take turns in the order given.
func (e *Engine) StartGame(ctx context.Context, gameID string, players []PlayerSetup, opts Options) (*state.Snapshot, error) {
	if gameID == "" {
		return nil, fmt.Errorf("gameID is required")
	}
	if len(players) < 2 {
		return nil, fmt.Errorf("at least 2 players required")
	}
	ids := make([]string, len(players))
	seen := make(map[string]bool, len(players))
	for i, p := range players {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("player ids must be unique and non-empty")
		}
		seen[p.ID] = true
		ids[i] = p.ID
	}

	s, err := e.newSession(gameID, ids, opts)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if err := s.dealDeck(p); err != nil {
			return nil, fmt.Errorf("failed to build deck for %s: %w", p.ID, err)
		}
	}

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("game %s already exists", gameID)
	}
	e.games[gameID] = s
	recorder := e.recorder
	e.mu.Unlock()

	s.busy.Store(true)
	defer s.busy.Store(false)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pid := range ids {
		if s.opts.Shuffle {
			s.state.Shuffle(pid)
		}
		drawn := s.state.Draw(pid, s.opts.StartingHand)
		s.state.Log(pid, "opening_hand", s.opts.StartingHand, len(drawn), drawn...)
	}
	s.beginTurn(ctx)

	snap := s.publish()
	if recorder != nil {
		recorder.StartRecording(gameID)
		recorder.RecordState(gameID, Action{Type: ActionStart}, snap)
	}
	e.logger.Info("game started",
		zap.String("game_id", gameID),
		zap.Strings("players", ids),
		zap.Uint64("seed", s.opts.Seed),
	)
	return snap, nil
}

func (e *Engine) newSession(gameID string, ids []string, opts Options) (*session, error) {
	defaults := DefaultOptions()
	if opts.WinLore <= 0 {
		opts.WinLore = defaults.WinLore
	}
	if opts.StartingHand < 0 {
		return nil, fmt.Errorf("starting hand size must not be negative")
	}
	if opts.MaxTriggerCascade <= 0 {
		opts.MaxTriggerCascade = defaults.MaxTriggerCascade
	}

	logger := e.logger.With(zap.String("game_id", gameID))
	s := &session{
		logger:  logger,
		catalog: e.catalog,
		opts:    opts,
		state:   state.NewGameState(gameID, ids, opts.WinLore, opts.Seed),
		turns:   rules.NewTurnManager(ids[0]),
		queue:   &rules.EventQueue{},
		broker:  choice.NewBroker(logger, nil),
		tracker: watchers.NewTracker(),
	}
	for pid, d := range opts.Deciders {
		s.broker.SetDecider(pid, d)
	}
	// Snapshots taken while suspended on a choice expose the pending request.
	s.broker.OnSuspend(func(choice.Request) {
		s.last.Store(s.state.Snapshot())
	})
	s.interp = effects.NewInterpreter(logger, targeting.NewResolver(logger, s.broker), nil)
	s.interp.SetCardPlayer(s)
	s.bus = triggers.NewBus(logger, e.catalog, s.interp)
	s.bus.SetMaxCascade(opts.MaxTriggerCascade)
	s.bus.SetStats(s.tracker)
	s.bus.Observers().Subscribe(s.tracker.Watch)
	return s, nil
}

func (s *session) dealDeck(p PlayerSetup) error {
	for i, defID := range p.Deck {
		card, err := s.catalog.Instantiate(defID, fmt.Sprintf("%s-%03d", p.ID, i+1), p.ID)
		if err != nil {
			return err
		}
		if err := s.state.AddCard(card, state.ZoneDeck); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) session(gameID string) (*session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", gameID, rules.ErrGameNotFound)
	}
	return s, nil
}

// SubmitAction validates and applies one player action, resolves every
// trigger it causes and returns the resulting snapshot. A rejected action
// changes nothing. Only one action per game resolves at a time; others
// fail with rules.ErrResolutionInProgress, including while the current
// one waits on a choice.
func (e *Engine) SubmitAction(ctx context.Context, gameID string, action Action) (*state.Snapshot, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, &rules.ActionError{
			Action:   string(action.Type),
			PlayerID: action.PlayerID,
			Reason:   "another action is resolving",
			Err:      rules.ErrResolutionInProgress,
		}
	}
	defer s.busy.Store(false)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.submit(ctx, action); err != nil {
		s.logger.Info("action rejected",
			zap.String("player_id", action.PlayerID),
			zap.String("action", string(action.Type)),
			zap.Error(err),
		)
		return nil, err
	}
	snap := s.publish()

	e.mu.RLock()
	recorder := e.recorder
	e.mu.RUnlock()
	if recorder != nil {
		recorder.RecordState(gameID, action, snap)
	}
	if snap.Over {
		e.logger.Info("game over",
			zap.String("game_id", gameID),
			zap.String("winner", snap.Winner),
			zap.Int("turn", snap.Turn),
		)
	}
	return snap, nil
}

// Snapshot returns the current state of a game. While an action is
// resolving it returns the latest consistent snapshot, which carries the
// pending choice if resolution is suspended on one.
func (e *Engine) Snapshot(gameID string) (*state.Snapshot, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	if s.busy.Load() {
		if snap := s.last.Load(); snap != nil {
			return snap, nil
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot(), nil
}

// SetDecider changes who answers a player's choices.
func (e *Engine) SetDecider(gameID, playerID string, d choice.Decider) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	if _, ok := s.state.Players[playerID]; !ok {
		return fmt.Errorf("player %s not in game %s", playerID, gameID)
	}
	s.broker.SetDecider(playerID, d)
	return nil
}

// EndGame removes a game. A recorded replay is saved when the recorder has
// a directory and stays in memory otherwise.
func (e *Engine) EndGame(gameID string) error {
	e.mu.Lock()
	_, ok := e.games[gameID]
	delete(e.games, gameID)
	recorder := e.recorder
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("game %s: %w", gameID, rules.ErrGameNotFound)
	}
	if recorder != nil && recorder.IsRecording(gameID) {
		recorder.StopRecording(gameID)
		if recorder.Directory() != "" {
			if err := recorder.SaveReplay(gameID); err != nil {
				return fmt.Errorf("failed to save replay for %s: %w", gameID, err)
			}
		}
	}
	e.logger.Info("game ended", zap.String("game_id", gameID))
	return nil
}

// publish takes a snapshot for callers and for reads during the next action.
func (s *session) publish() *state.Snapshot {
	snap := s.state.Snapshot()
	s.last.Store(snap)
	return snap
}
