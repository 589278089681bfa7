package models

import "time"

// ModelCandidate is one trained model instance evaluated during search.
// Candidates are ranked by validation score (lower is better), ties broken
// by shorter training duration, then earlier submission order.
type ModelCandidate struct {
	ID         string        `json:"id"`
	Family     string        `json:"family"`
	Params     string        `json:"params"`
	Score      float64       `json:"score"`
	Metric     string        `json:"metric"`
	TrainTime  time.Duration `json:"train_time"`
	Submission int           `json:"submission"`
}

// Leaderboard is the full ranked candidate list emitted by a search,
// kept for transparency alongside the winner.
type Leaderboard struct {
	Candidates []ModelCandidate `json:"candidates"`
	SelectedID string           `json:"selected_id"`
	SearchTime time.Duration    `json:"search_time"`
	Completed  int              `json:"completed"`
	Failed     int              `json:"failed"`
}
