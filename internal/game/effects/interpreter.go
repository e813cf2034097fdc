// Package effects executes effect trees against game state. Leaf effects
// are dispatched through a handler table filled by effect families;
// composite effects are interpreted here.
package effects

import (
	"context"
	"strconv"
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/choice"
	"github.com/inkwell-labs/lorcana-engine/internal/game/expr"
	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/inkwell-labs/lorcana-engine/internal/game/targeting"
	"go.uber.org/zap"
)

// Result reports how much of an effect took place.
type Result struct {
	Applied int
}

// Handler executes one leaf effect.
type Handler func(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result

// Family is a group of handlers installed together.
type Family interface {
	Handlers() map[ast.EffectType]Handler
}

// CardPlayer puts a card into play without paying for it. The engine
// implements it so free plays raise the same events as paid ones.
type CardPlayer interface {
	PlayFree(ctx context.Context, ec *targeting.Context, cardID string) bool
}

// Interpreter walks effect trees.
type Interpreter struct {
	logger    *zap.Logger
	resolver  *targeting.Resolver
	evaluator *expr.Evaluator
	handlers  map[ast.EffectType]Handler
	player    CardPlayer
}

// NewInterpreter creates an interpreter with the standard families registered.
func NewInterpreter(logger *zap.Logger, resolver *targeting.Resolver, evaluator *expr.Evaluator) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = targeting.NewResolver(logger, nil)
	}
	if evaluator == nil {
		evaluator = expr.NewEvaluator(logger, resolver)
	}
	in := &Interpreter{
		logger:    logger,
		resolver:  resolver,
		evaluator: evaluator,
		handlers:  make(map[ast.EffectType]Handler),
	}
	in.Register(&ZoneFamily{in: in})
	in.Register(&CombatFamily{in: in})
	in.Register(&StatFamily{in: in})
	in.Register(&LocationFamily{in: in})
	in.Register(&DeckFamily{in: in})
	in.Register(&ResourceFamily{in: in})
	in.Register(&UnderFamily{in: in})
	in.Register(&OpponentFamily{in: in, combat: &CombatFamily{in: in}})
	return in
}

// Register installs every handler of a family, replacing existing ones.
func (in *Interpreter) Register(f Family) {
	for tag, h := range f.Handlers() {
		in.handlers[tag] = h
	}
}

// RegisterHandler installs a single handler.
func (in *Interpreter) RegisterHandler(tag ast.EffectType, h Handler) {
	in.handlers[tag] = h
}

// SetCardPlayer sets what play_for_free uses to put cards into play.
func (in *Interpreter) SetCardPlayer(p CardPlayer) {
	in.player = p
}

// Resolver returns the target resolver.
func (in *Interpreter) Resolver() *targeting.Resolver { return in.resolver }

// Evaluator returns the expression evaluator.
func (in *Interpreter) Evaluator() *expr.Evaluator { return in.evaluator }

// Logger returns the interpreter's logger.
func (in *Interpreter) Logger() *zap.Logger { return in.logger }

// Execute runs an effect tree. It never panics: a failing handler is
// logged and counts as nothing applied. Steps already applied stay applied.
func (in *Interpreter) Execute(ctx context.Context, e *ast.Effect, ec *targeting.Context) (res Result) {
	if e == nil {
		return Result{}
	}
	defer func() {
		if r := recover(); r != nil {
			in.logger.Error("effect handler panicked",
				zap.String("effect", string(e.Type)),
				zap.String("source_id", ec.SourceID),
				zap.Any("panic", r),
			)
			res = Result{}
		}
	}()

	switch e.Type {
	case ast.EffectSequence:
		return in.sequence(ctx, e, ec)
	case ast.EffectConditional:
		return in.conditional(ctx, e, ec)
	case ast.EffectForEach:
		return in.forEach(ctx, e, ec)
	case ast.EffectModal:
		return in.modal(ctx, e, ec)
	case ast.EffectOptional:
		return in.optional(ctx, e, ec)
	case ast.EffectRepeat:
		return in.repeat(ctx, e, ec)
	case ast.EffectCascade:
		return in.cascade(ctx, e, ec)
	case ast.EffectPayCost:
		return in.payCost(ctx, e, ec)
	}

	h, ok := in.handlers[e.Type]
	if !ok {
		in.logger.Warn("unknown effect type",
			zap.String("effect", string(e.Type)),
			zap.String("source_id", ec.SourceID),
		)
		return Result{}
	}
	res = h(ctx, e, ec)
	ec.SetVar(targeting.VarApplied, res.Applied)
	return res
}

func (in *Interpreter) sequence(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	total := 0
	for _, child := range e.Effects {
		total += in.Execute(ctx, child, ec).Applied
	}
	return Result{Applied: total}
}

func (in *Interpreter) conditional(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	then := e.Then
	if then == nil {
		then = e.Effect
	}
	if in.evaluator.Check(ctx, e.Condition, ec) {
		return in.Execute(ctx, then, ec)
	}
	return in.Execute(ctx, e.Else, ec)
}

func (in *Interpreter) forEach(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	refs := in.targets(ctx, e.Target, ec, nil)
	total := 0
	for _, ref := range refs {
		total += in.Execute(ctx, e.Effect, ec.Bind(e.Variable, ref)).Applied
	}
	return Result{Applied: total}
}

func (in *Interpreter) modal(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	if len(e.Modes) == 0 {
		return Result{}
	}
	options := make([]choice.Option, len(e.Modes))
	for i, m := range e.Modes {
		label := m.Label
		if label == "" && m.Effect != nil {
			label = string(m.Effect.Type)
		}
		options[i] = choice.Option{ID: strconv.Itoa(i), Label: label}
	}
	picked := in.resolver.Broker().ChooseOne(ctx, ec.State, ec.PlayerID, ec.SourceID, "Choose one", choice.KindModal, options)
	if picked == "" {
		return Result{}
	}
	idx, err := strconv.Atoi(picked)
	if err != nil || idx < 0 || idx >= len(e.Modes) {
		return Result{}
	}
	return in.Execute(ctx, e.Modes[idx].Effect, ec)
}

func (in *Interpreter) optional(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	prompt := e.Label
	if prompt == "" && e.Effect != nil {
		prompt = "Do you want to " + strings.ReplaceAll(string(e.Effect.Type), "_", " ") + "?"
	}
	if !in.resolver.Broker().Confirm(ctx, ec.State, ec.PlayerID, ec.SourceID, prompt) {
		return Result{}
	}
	return in.Execute(ctx, e.Effect, ec)
}

func (in *Interpreter) repeat(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	n := in.amount(ctx, e, ec, 1)
	total := 0
	for i := 0; i < n; i++ {
		total += in.Execute(ctx, e.Effect, ec).Applied
	}
	return Result{Applied: total}
}

func (in *Interpreter) cascade(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	total := 0
	for _, child := range e.Effects {
		r := in.Execute(ctx, child, ec)
		if r.Applied <= 0 {
			break
		}
		total += r.Applied
	}
	return Result{Applied: total}
}

// payCost runs the inner effect only if the controller pays Cost ink.
func (in *Interpreter) payCost(ctx context.Context, e *ast.Effect, ec *targeting.Context) Result {
	cost := in.evaluator.Evaluate(ctx, e.Cost, ec)
	if !in.PayInk(ec, cost) {
		in.record(ec, "pay_cost", cost, 0, ec.PlayerID)
		return Result{}
	}
	return in.Execute(ctx, e.Effect, ec)
}

// targets resolves t, or def when t is nil, and remembers the result as
// the context's last targets. Resolution errors are logged and yield nothing.
func (in *Interpreter) targets(ctx context.Context, t *ast.Target, ec *targeting.Context, def *ast.Target) []state.Ref {
	if t == nil {
		t = def
	}
	refs, err := in.resolver.Resolve(ctx, t, ec)
	if err != nil {
		in.logger.Warn("target resolution failed",
			zap.String("source_id", ec.SourceID),
			zap.Error(err),
		)
		return nil
	}
	if len(refs) > 0 {
		ec.Last = refs
	}
	return refs
}

func (in *Interpreter) cards(ctx context.Context, t *ast.Target, ec *targeting.Context, def *ast.Target) []*state.CardInstance {
	var out []*state.CardInstance
	for _, id := range targeting.CardIDs(in.targets(ctx, t, ec, def)) {
		if c, ok := ec.State.Card(id); ok {
			out = append(out, c)
		}
	}
	return out
}

func (in *Interpreter) players(ctx context.Context, t *ast.Target, ec *targeting.Context, def *ast.Target) []string {
	return targeting.PlayerIDs(in.targets(ctx, t, ec, def))
}

// amount evaluates e.Amount, falling back to def when absent. With a per
// filter the amount (one if absent) counts once for each matching card.
func (in *Interpreter) amount(ctx context.Context, e *ast.Effect, ec *targeting.Context, def int) int {
	n := def
	if e.Amount != nil {
		n = in.evaluator.Evaluate(ctx, e.Amount, ec)
	}
	if e.Per != nil {
		if e.Amount == nil {
			n = 1
		}
		n *= expr.CountMatching(ec, e.Per)
	}
	return n
}

// record writes a mutation to the state journal and the log.
func (in *Interpreter) record(ec *targeting.Context, action string, requested, applied int, ids ...string) {
	ec.State.Log(ec.PlayerID, action, requested, applied, ids...)
	in.logger.Debug("effect applied",
		zap.String("actor", ec.PlayerID),
		zap.String("action", action),
		zap.String("source_id", ec.SourceID),
		zap.Strings("entities", ids),
		zap.Int("requested", requested),
		zap.Int("applied", applied),
	)
}

// CardEvent builds an event about a card, carrying the card facts watchers
// and triggers read after the card may have moved.
func CardEvent(t rules.EventType, card *state.CardInstance, sourceID, controller string) rules.Event {
	evt := rules.NewEvent(t, card.ID, sourceID, controller)
	evt.PlayerID = card.OwnerID
	evt.Metadata[rules.MetaCardType] = string(card.Type)
	evt.Metadata[rules.MetaSubtypes] = strings.Join(card.Subtypes, ",")
	evt.Metadata[rules.MetaOwnerID] = card.OwnerID
	evt.Metadata[rules.MetaCardName] = card.Name
	return evt
}

func cardIDs(cards []*state.CardInstance) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
