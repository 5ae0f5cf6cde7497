// Package classifier maps a total score to a ranked risk state.
package classifier

import (
	"errors"
	"sort"

	"strategos-hq/riskengine/pkg/model"
)

// ErrNoStates is returned when a model version defines no states.
var ErrNoStates = errors.New("model version defines no states")

// Classify returns the highest-ranked state with at least one satisfied
// active threshold. When none is satisfied the lowest-ranked state is the
// baseline. Equal ranks keep their configured order. states is not modified.
func Classify(score float64, states []model.StateDefinition) (model.StateDefinition, error) {
	if len(states) == 0 {
		return model.StateDefinition{}, ErrNoStates
	}

	ordered := make([]model.StateDefinition, len(states))
	copy(ordered, states)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank > ordered[j].Rank
	})

	for _, state := range ordered {
		if satisfied(score, state) {
			return state, nil
		}
	}

	// Lowest rank; among equal ranks, the first configured.
	baseline := ordered[len(ordered)-1]
	for i := len(ordered) - 2; i >= 0 && ordered[i].Rank == baseline.Rank; i-- {
		baseline = ordered[i]
	}
	return baseline, nil
}

func satisfied(score float64, state model.StateDefinition) bool {
	for _, th := range state.Thresholds {
		if th.IsActive && th.Satisfied(score) {
			return true
		}
	}
	return false
}
