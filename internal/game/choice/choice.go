// Package choice is the only place ability resolution suspends: it asks a
// player (human, bot or script) to pick among options and resumes with the
// answer.
package choice

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"go.uber.org/zap"
)

// Kind is the prompt semantics of a request.
type Kind string

const (
	KindYesNo         Kind = "yes_no"
	KindSelectTargets Kind = "select_targets"
	KindOrder         Kind = "order"
	KindModal         Kind = "modal"
)

// Option ids of yes/no prompts.
const (
	OptionYes = "yes"
	OptionNo  = "no"
)

// Option is one selectable answer.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Request asks a player to pick between Min and Max options.
type Request struct {
	ID       string   `json:"id"`
	PlayerID string   `json:"player_id"`
	Kind     Kind     `json:"kind"`
	Prompt   string   `json:"prompt"`
	SourceID string   `json:"source_id,omitempty"`
	Options  []Option `json:"options"`
	Min      int      `json:"min"`
	Max      int      `json:"max"`
}

// OptionIDs returns the ids of the request's options in order.
func (r Request) OptionIDs() []string {
	ids := make([]string, len(r.Options))
	for i, o := range r.Options {
		ids[i] = o.ID
	}
	return ids
}

// Response carries the selected option ids, correlated by request id.
// An empty selection is always legal and means decline.
type Response struct {
	RequestID string   `json:"request_id"`
	Selected  []string `json:"selected"`
}

// Declined reports whether nothing was selected.
func (r Response) Declined() bool {
	return len(r.Selected) == 0
}

// Accepted reports whether a yes/no prompt was answered yes.
func (r Response) Accepted() bool {
	for _, id := range r.Selected {
		if id == OptionYes {
			return true
		}
	}
	return false
}

// Decider answers choice requests for a player.
type Decider interface {
	Decide(ctx context.Context, req Request) (Response, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, req Request) (Response, error)

// Decide implements Decider.
func (f DeciderFunc) Decide(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Broker routes requests to the decider registered for each player.
type Broker struct {
	logger *zap.Logger

	mu        sync.RWMutex
	deciders  map[string]Decider
	fallback  Decider
	onSuspend func(Request)
}

// NewBroker creates a broker. Players without a registered decider are
// answered by fallback, or by a BotDecider when fallback is nil.
func NewBroker(logger *zap.Logger, fallback Decider) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback == nil {
		fallback = BotDecider{}
	}
	return &Broker{
		logger:   logger,
		deciders: make(map[string]Decider),
		fallback: fallback,
	}
}

// SetDecider registers the decider answering for a player.
func (b *Broker) SetDecider(playerID string, d Decider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d == nil {
		delete(b.deciders, playerID)
		return
	}
	b.deciders[playerID] = d
}

// OnSuspend registers a callback run each time resolution suspends on a request.
func (b *Broker) OnSuspend(fn func(Request)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onSuspend = fn
}

func (b *Broker) deciderFor(playerID string) (Decider, func(Request)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if d, ok := b.deciders[playerID]; ok {
		return d, b.onSuspend
	}
	return b.fallback, b.onSuspend
}

// Request suspends until the player answers. The pending request is visible
// in gs.PendingChoice while suspended. Errors and context cancellation count
// as a decline; the returned selection is always a subset of the options.
func (b *Broker) Request(ctx context.Context, gs *state.GameState, req Request) Response {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if len(req.Options) == 0 {
		return Response{RequestID: req.ID}
	}
	if req.Max <= 0 || req.Max > len(req.Options) {
		req.Max = len(req.Options)
	}
	if req.Min > req.Max {
		req.Min = req.Max
	}
	if req.Min < 0 {
		req.Min = 0
	}

	decider, onSuspend := b.deciderFor(req.PlayerID)
	if gs != nil {
		gs.PendingChoice = &state.PendingChoice{
			RequestID: req.ID,
			PlayerID:  req.PlayerID,
			Kind:      string(req.Kind),
			Prompt:    req.Prompt,
			SourceID:  req.SourceID,
			Options:   req.OptionIDs(),
			Min:       req.Min,
			Max:       req.Max,
		}
		defer func() { gs.PendingChoice = nil }()
	}
	if onSuspend != nil {
		onSuspend(req)
	}

	resp, err := decider.Decide(ctx, req)
	if err != nil {
		b.logger.Warn("choice treated as decline",
			zap.String("request_id", req.ID),
			zap.String("player_id", req.PlayerID),
			zap.Error(err),
		)
		return Response{RequestID: req.ID}
	}
	if resp.RequestID != "" && resp.RequestID != req.ID {
		b.logger.Warn("choice response for another request ignored",
			zap.String("request_id", req.ID),
			zap.String("response_id", resp.RequestID),
		)
		return Response{RequestID: req.ID}
	}

	selected := sanitize(req, resp.Selected)
	if len(selected) > 0 && len(selected) < req.Min {
		b.logger.Debug("choice below minimum treated as decline",
			zap.String("request_id", req.ID),
			zap.Int("selected", len(selected)),
			zap.Int("min", req.Min),
		)
		selected = nil
	}
	b.logger.Debug("choice resolved",
		zap.String("request_id", req.ID),
		zap.String("player_id", req.PlayerID),
		zap.String("kind", string(req.Kind)),
		zap.Strings("selected", selected),
	)
	return Response{RequestID: req.ID, Selected: selected}
}

// sanitize drops unknown and duplicate ids and truncates to Max.
func sanitize(req Request, selected []string) []string {
	valid := make(map[string]bool, len(req.Options))
	for _, o := range req.Options {
		valid[o.ID] = true
	}
	seen := make(map[string]bool, len(selected))
	var out []string
	for _, id := range selected {
		if !valid[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == req.Max {
			break
		}
	}
	return out
}

// Confirm asks a yes/no question and reports whether the player said yes.
func (b *Broker) Confirm(ctx context.Context, gs *state.GameState, playerID, sourceID, prompt string) bool {
	resp := b.Request(ctx, gs, Request{
		PlayerID: playerID,
		Kind:     KindYesNo,
		Prompt:   prompt,
		SourceID: sourceID,
		Options:  []Option{{ID: OptionYes, Label: "Yes"}, {ID: OptionNo, Label: "No"}},
		Max:      1,
	})
	return resp.Accepted()
}

// ChooseOne asks for a single option and returns its id, or "" on decline.
func (b *Broker) ChooseOne(ctx context.Context, gs *state.GameState, playerID, sourceID, prompt string, kind Kind, options []Option) string {
	resp := b.Request(ctx, gs, Request{
		PlayerID: playerID,
		Kind:     kind,
		Prompt:   prompt,
		SourceID: sourceID,
		Options:  options,
		Max:      1,
	})
	if resp.Declined() {
		return ""
	}
	return resp.Selected[0]
}
