package replay

import (
	"fmt"
	"math"

	"strategos-hq/riskengine/pkg/model"
)

// Mismatch is one difference between a stored and a replayed snapshot.
// Stored or Replayed is nil when the item exists on one side only.
type Mismatch struct {
	Field    string `json:"field"`
	Stored   any    `json:"stored"`
	Replayed any    `json:"replayed"`
}

// Compare reports the differences that make a replay non-equivalent: the
// state, the total score, each rule's trigger flag and each coefficient
// contribution. Scores are compared within model.FloatTolerance.
func Compare(stored, replayed *model.SnapshotPayload) []Mismatch {
	out := []Mismatch{}

	if stored.State != replayed.State {
		out = append(out, Mismatch{Field: "state", Stored: stored.State, Replayed: replayed.State})
	}
	if !approxEqual(stored.ScoreBreakdown.TotalScore, replayed.ScoreBreakdown.TotalScore) {
		out = append(out, Mismatch{
			Field:    "score_breakdown.total_score",
			Stored:   stored.ScoreBreakdown.TotalScore,
			Replayed: replayed.ScoreBreakdown.TotalScore,
		})
	}

	out = append(out, compareRules(stored.RuleResults, replayed.RuleResults)...)
	out = append(out, compareCoefficients(
		stored.ScoreBreakdown.CoefficientContributions,
		replayed.ScoreBreakdown.CoefficientContributions,
	)...)
	return out
}

func compareRules(stored, replayed []model.RuleResult) []Mismatch {
	var out []Mismatch

	replayedByID := make(map[string]bool, len(replayed))
	for _, r := range replayed {
		replayedByID[r.RuleID] = r.Triggered
	}
	storedIDs := make(map[string]struct{}, len(stored))

	for _, s := range stored {
		storedIDs[s.RuleID] = struct{}{}
		field := fmt.Sprintf("rule_results[%s].triggered", s.RuleID)
		triggered, ok := replayedByID[s.RuleID]
		switch {
		case !ok:
			out = append(out, Mismatch{Field: field, Stored: s.Triggered})
		case triggered != s.Triggered:
			out = append(out, Mismatch{Field: field, Stored: s.Triggered, Replayed: triggered})
		}
	}
	for _, r := range replayed {
		if _, ok := storedIDs[r.RuleID]; !ok {
			out = append(out, Mismatch{
				Field:    fmt.Sprintf("rule_results[%s].triggered", r.RuleID),
				Replayed: r.Triggered,
			})
		}
	}
	return out
}

// Coefficients are matched by position; names are not unique across modes.
func compareCoefficients(stored, replayed []model.CoefficientContribution) []Mismatch {
	var out []Mismatch

	n := min(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		s, r := stored[i], replayed[i]
		if s.Name != r.Name {
			out = append(out, Mismatch{
				Field:    fmt.Sprintf("coefficient_contributions[%d].name", i),
				Stored:   s.Name,
				Replayed: r.Name,
			})
			continue
		}
		if !approxEqual(s.Contribution, r.Contribution) {
			out = append(out, Mismatch{
				Field:    fmt.Sprintf("coefficient_contributions[%s].contribution", s.Name),
				Stored:   s.Contribution,
				Replayed: r.Contribution,
			})
		}
	}
	if len(stored) != len(replayed) {
		out = append(out, Mismatch{
			Field:    "coefficient_contributions.length",
			Stored:   len(stored),
			Replayed: len(replayed),
		})
	}
	return out
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= model.FloatTolerance
}
