// Package summary computes descriptive statistics over a session's snapshot
// history.
package summary

import (
	"encoding/json"
	"fmt"

	"github.com/montanaflynn/stats"

	"strategos-hq/riskengine/pkg/model"
)

// ScoreStats describes the total scores of a session's snapshots.
type ScoreStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
	First  float64 `json:"first"`
	Latest float64 `json:"latest"`
	Delta  float64 `json:"delta"`
}

// Summary is the score summary of one session.
type Summary struct {
	SessionID     string         `json:"session_id"`
	SnapshotCount int            `json:"snapshot_count"`
	LatestState   string         `json:"latest_state,omitempty"`
	Score         *ScoreStats    `json:"score"`
	StateCounts   map[string]int `json:"state_counts"`
}

// snapshotScore is the part of a stored snapshot the summary reads.
type snapshotScore struct {
	State          string `json:"state"`
	ScoreBreakdown struct {
		TotalScore float64 `json:"total_score"`
	} `json:"score_breakdown"`
}

// Summarize reads every snapshot of history in version order. A session
// without snapshots has a nil Score.
func Summarize(history *model.SnapshotHistory) (*Summary, error) {
	s := &Summary{
		SessionID:   history.SessionID,
		StateCounts: map[string]int{},
	}
	if len(history.History) == 0 {
		return s, nil
	}

	scores := make([]float64, 0, len(history.History))
	for _, ev := range history.History {
		var snap snapshotScore
		if err := json.Unmarshal(ev.Snapshot, &snap); err != nil {
			return nil, fmt.Errorf("snapshot version %d: %w", ev.Version, err)
		}
		scores = append(scores, snap.ScoreBreakdown.TotalScore)
		s.StateCounts[snap.State]++
		s.LatestState = snap.State
	}
	s.SnapshotCount = len(scores)

	score, err := describe(scores)
	if err != nil {
		return nil, err
	}
	s.Score = score
	return s, nil
}

func describe(data stats.Float64Data) (*ScoreStats, error) {
	mean, err := data.Mean()
	if err != nil {
		return nil, err
	}
	median, err := data.Median()
	if err != nil {
		return nil, err
	}
	lo, err := data.Min()
	if err != nil {
		return nil, err
	}
	hi, err := data.Max()
	if err != nil {
		return nil, err
	}
	stdDev, err := data.StandardDeviation()
	if err != nil {
		return nil, err
	}

	first, latest := data[0], data[len(data)-1]
	return &ScoreStats{
		Mean:   mean,
		Median: median,
		Min:    lo,
		Max:    hi,
		StdDev: stdDev,
		First:  first,
		Latest: latest,
		Delta:  latest - first,
	}, nil
}
