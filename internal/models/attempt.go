package models

import "time"

// Attempt results.
const (
	AttemptSolved = "solved"
	AttemptTrap   = "trap"
	AttemptGaveUp = "gave_up"
)

// PuzzleAttempt is a finished attempt persisted for history and stats.
// Key is unique per attempt so a retried write is stored once.
type PuzzleAttempt struct {
	ID           int64     `json:"id"`
	Key          string    `json:"key"`
	UserID       string    `json:"userId"`
	PuzzleID     string    `json:"puzzleId"`
	Theme        string    `json:"theme"`
	Result       string    `json:"result"`
	Correct      bool      `json:"correct"`
	Moves        []string  `json:"moves"`
	TimeSeconds  float64   `json:"timeSeconds"`
	HintsUsed    int       `json:"hintsUsed"`
	RatingChange int       `json:"ratingChange"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PuzzleFilter narrows puzzle catalogue queries.
type PuzzleFilter struct {
	Theme      string
	Difficulty Difficulty
	MinRating  int
	MaxRating  int
	ExcludeIDs []string
	Limit      int
}

// AttemptFilter narrows attempt history queries.
type AttemptFilter struct {
	UserID string
	Theme  string
	Result string
	Limit  int
	Offset int
}

// AttemptSummary aggregates a user's attempts on one theme.
type AttemptSummary struct {
	Theme    string  `json:"theme"`
	Attempts int     `json:"attempts"`
	Solved   int     `json:"solved"`
	AvgTime  float64 `json:"avgTime"`
}
