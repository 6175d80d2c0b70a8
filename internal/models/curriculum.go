package models

import "time"

// Lesson is one step of the fixed curriculum.
type Lesson struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	Themes         []string   `json:"themes" yaml:"themes"`
	Difficulty     Difficulty `json:"difficulty" yaml:"difficulty"`
	RequiredRating int        `json:"requiredRating" yaml:"required_rating"`
	PuzzleCount    int        `json:"puzzleCount" yaml:"puzzle_count"`
}

// Milestone is a one-time rating achievement. The catalogue entry is
// immutable; achievement state lives with the user's progress.
type Milestone struct {
	RatingThreshold int    `json:"ratingThreshold" yaml:"rating_threshold"`
	Title           string `json:"title" yaml:"title"`
	Description     string `json:"description" yaml:"description"`
}

// AchievedMilestone pairs a catalogue milestone with when it was reached.
type AchievedMilestone struct {
	Milestone
	DateAchieved time.Time `json:"dateAchieved"`
}

// GamePhase buckets a position by remaining material.
type GamePhase string

const (
	PhaseOpening    GamePhase = "opening"
	PhaseMiddlegame GamePhase = "middlegame"
	PhaseEndgame    GamePhase = "endgame"
)
