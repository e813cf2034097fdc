package choice

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownRequest is returned when a response names no pending request.
var ErrUnknownRequest = errors.New("unknown choice request")

// BotDecider answers deterministically: yes to optional effects, and the
// first options in offered order otherwise (at least one when allowed).
type BotDecider struct{}

// Decide implements Decider.
func (BotDecider) Decide(_ context.Context, req Request) (Response, error) {
	resp := Response{RequestID: req.ID}
	switch req.Kind {
	case KindYesNo:
		resp.Selected = []string{OptionYes}
		return resp, nil
	case KindOrder:
		resp.Selected = req.OptionIDs()
		return resp, nil
	}
	n := req.Min
	if n == 0 && req.Max > 0 {
		n = 1
	}
	for i := 0; i < n && i < len(req.Options); i++ {
		resp.Selected = append(resp.Selected, req.Options[i].ID)
	}
	return resp, nil
}

// ScriptedDecider replays queued answers in order and records every request
// it saw. When the script runs out it asks Fallback, or declines.
type ScriptedDecider struct {
	Fallback Decider

	mu       sync.Mutex
	answers  [][]string
	requests []Request
}

// NewScriptedDecider creates a decider with the given answers queued.
func NewScriptedDecider(answers ...[]string) *ScriptedDecider {
	return &ScriptedDecider{answers: answers}
}

// Push queues one answer.
func (s *ScriptedDecider) Push(selected ...string) *ScriptedDecider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, selected)
	return s
}

// PushYesNo queues an answer to a yes/no prompt.
func (s *ScriptedDecider) PushYesNo(yes bool) *ScriptedDecider {
	if yes {
		return s.Push(OptionYes)
	}
	return s.Push(OptionNo)
}

// Requests returns the requests seen so far.
func (s *ScriptedDecider) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Remaining returns how many scripted answers are left.
func (s *ScriptedDecider) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Decide implements Decider.
func (s *ScriptedDecider) Decide(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	if len(s.answers) == 0 {
		fallback := s.Fallback
		s.mu.Unlock()
		if fallback != nil {
			return fallback.Decide(ctx, req)
		}
		return Response{RequestID: req.ID}, nil
	}
	next := s.answers[0]
	s.answers = s.answers[1:]
	s.mu.Unlock()
	return Response{RequestID: req.ID, Selected: next}, nil
}

// AsyncDecider hands requests to an external actor over a channel and
// blocks until Respond is called with the matching request id.
type AsyncDecider struct {
	pending chan Request

	mu      sync.Mutex
	waiting map[string]chan Response
}

// NewAsyncDecider creates a decider whose pending channel holds up to buffer requests.
func NewAsyncDecider(buffer int) *AsyncDecider {
	return &AsyncDecider{
		pending: make(chan Request, buffer),
		waiting: make(map[string]chan Response),
	}
}

// Pending delivers requests awaiting an answer.
func (a *AsyncDecider) Pending() <-chan Request {
	return a.pending
}

// Decide implements Decider. It returns ctx.Err() if the context ends first.
func (a *AsyncDecider) Decide(ctx context.Context, req Request) (Response, error) {
	reply := make(chan Response, 1)
	a.mu.Lock()
	a.waiting[req.ID] = reply
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.waiting, req.ID)
		a.mu.Unlock()
	}()

	select {
	case a.pending <- req:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Respond resumes the resolution waiting on resp.RequestID.
func (a *AsyncDecider) Respond(resp Response) error {
	a.mu.Lock()
	reply, ok := a.waiting[resp.RequestID]
	if ok {
		delete(a.waiting, resp.RequestID)
	}
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, resp.RequestID)
	}
	reply <- resp
	return nil
}
