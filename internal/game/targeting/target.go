package targeting

import (
	"fmt"
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/ast"
	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
)

// TargetRequirement bounds how many targets a chosen target accepts.
type TargetRequirement struct {
	// MinTargets is the minimum number of targets required
	MinTargets int
	// MaxTargets is the maximum number of targets allowed
	MaxTargets int
	// Optional indicates "up to" targets
	Optional bool
	// Description is a human-readable description of the target requirement
	Description string
}

// RequirementFor derives the selection bounds of a chosen target given how
// many candidates exist. Exactly-N targets with fewer candidates accept all of them.
func RequirementFor(t *ast.Target, candidates int) TargetRequirement {
	n := 1
	if t != nil && t.Count > 0 {
		n = t.Count
	}
	req := TargetRequirement{MinTargets: n, MaxTargets: n, Description: describe(t)}
	if t != nil && t.UpTo {
		req.Optional = true
		req.MinTargets = 0
	}
	if req.MaxTargets > candidates {
		req.MaxTargets = candidates
	}
	if req.MinTargets > req.MaxTargets {
		req.MinTargets = req.MaxTargets
	}
	return req
}

// TargetSelection represents a player's target selection for an effect.
type TargetSelection struct {
	// Targets is a list of target IDs (card IDs or player IDs)
	Targets []string
	// Requirement is the requirement this selection satisfies
	Requirement TargetRequirement
}

// IsComplete checks if the target selection meets the requirement.
func (ts *TargetSelection) IsComplete() bool {
	if ts == nil {
		return false
	}
	count := len(ts.Targets)
	return count >= ts.Requirement.MinTargets && count <= ts.Requirement.MaxTargets
}

// Validate checks if the target selection is valid. An empty selection is
// always valid: it is a decline.
func (ts *TargetSelection) Validate() error {
	if ts == nil {
		return fmt.Errorf("target selection is nil")
	}
	count := len(ts.Targets)
	if count == 0 {
		return nil
	}
	if count < ts.Requirement.MinTargets {
		return fmt.Errorf("not enough targets: need at least %d, got %d", ts.Requirement.MinTargets, count)
	}
	if count > ts.Requirement.MaxTargets {
		return fmt.Errorf("too many targets: need at most %d, got %d", ts.Requirement.MaxTargets, count)
	}
	return nil
}

// FormatRefs formats references into a compact string for logs.
func FormatRefs(refs []state.Ref) string {
	if len(refs) == 0 {
		return ""
	}
	parts := make([]string, len(refs))
	for i, r := range refs {
		if r.Kind == state.RefPlayer {
			parts[i] = "player:" + r.ID
		} else {
			parts[i] = r.ID
		}
	}
	return strings.Join(parts, ",")
}

func describe(t *ast.Target) string {
	if t == nil {
		return "a target"
	}
	var words []string
	if t.UpTo {
		words = append(words, fmt.Sprintf("up to %d", max(t.Count, 1)))
	} else if t.Count > 1 {
		words = append(words, fmt.Sprint(t.Count))
	} else {
		words = append(words, "a")
	}
	f := t.Filter
	if t.Type == ast.TargetChosenPlayer {
		if f != nil && f.Owner == ast.OwnerOpponent {
			return strings.Join(append(words, "opponent"), " ")
		}
		return strings.Join(append(words, "player"), " ")
	}
	if f == nil {
		return strings.Join(append(words, "card"), " ")
	}
	if f.Exerted != nil && *f.Exerted {
		words = append(words, "exerted")
	}
	if f.Damaged != nil && *f.Damaged {
		words = append(words, "damaged")
	}
	if f.Owner == ast.OwnerOpponent {
		words = append(words, "opposing")
	}
	if f.CardType != "" {
		words = append(words, f.CardType)
	} else {
		words = append(words, "card")
	}
	if f.Owner == ast.OwnerYou {
		words = append(words, "of yours")
	}
	if f.Zone != "" && f.Zone != string(state.ZonePlay) {
		words = append(words, "in "+f.Zone)
	}
	return strings.Join(words, " ")
}
