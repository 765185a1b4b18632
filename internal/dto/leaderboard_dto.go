package dto

import "time"

// LeaderboardEntry is one row of a semester top-N ranking.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	SubjectID  uint    `json:"subject_id"`
	Name       string  `json:"name"`
	TotalScore float64 `json:"total_score"`
}

// LeaderboardResponse is a cached ranking for one semester (and month, for
// club rankings).
type LeaderboardResponse struct {
	SemesterID  uint               `json:"semester_id"`
	Month       *int               `json:"month,omitempty"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ScoreEvent is published to NATS and Redis whenever a score mutation commits.
type ScoreEvent struct {
	RecordType string    `json:"record_type"`
	RecordID   uint      `json:"record_id"`
	SubjectID  uint      `json:"subject_id"`
	SemesterID uint      `json:"semester_id"`
	Month      *int      `json:"month,omitempty"`
	LineID     uint      `json:"line_id"`
	Score      float64   `json:"score"`
	ScoreType  string    `json:"score_type"`
	Action     string    `json:"action"`
	TotalScore float64   `json:"total_score"`
	OccurredAt time.Time `json:"occurred_at"`
}
