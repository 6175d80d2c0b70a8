package models

import (
	"fmt"
	"strings"
	"time"
)

// Side is the colour a player controls.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == White {
		return Black
	}
	return White
}

// Difficulty is the coarse difficulty bucket of a puzzle.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Expert Difficulty = "expert"
)

// Valid reports whether d is one of the known buckets.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard, Expert:
		return true
	}
	return false
}

const (
	DefaultTheme        = "general"
	DefaultRating       = 1500
	DefaultExpectedTime = 60.0
	DefaultCategory     = "tactics"
)

type TrapInfo struct {
	Name           string `json:"name" yaml:"name"`
	TrapMove       string `json:"trapMove" yaml:"trap_move"`
	CorrectDefense string `json:"correctDefense" yaml:"correct_defense"`
	FollowUp       string `json:"followUp" yaml:"follow_up"`
	Explanation    string `json:"explanation" yaml:"explanation"`
}

// AlternativePath is a non-solution branch with feedback attached.
type AlternativePath struct {
	Move        string `json:"move" yaml:"move"`
	Response    string `json:"response" yaml:"response"`
	Evaluation  string `json:"evaluation" yaml:"evaluation"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

type Puzzle struct {
	ID               string            `json:"id"`
	StartingPosition string            `json:"startingPosition"`
	SolutionMoves    []string          `json:"solutionMoves"`
	Orientation      Side              `json:"orientation"`
	Theme            string            `json:"theme"`
	Difficulty       Difficulty        `json:"difficulty"`
	Rating           int               `json:"rating"`
	ExpectedTime     float64           `json:"expectedTime"`
	Category         string            `json:"category"`
	Description      string            `json:"description,omitempty"`
	HasTrap          bool              `json:"hasTrap"`
	TrapInfo         *TrapInfo         `json:"trapInfo,omitempty"`
	AlternativePaths []AlternativePath `json:"alternativePaths,omitempty"`
	HintCount        int               `json:"hintCount"`
}

// Clone returns a deep copy so live attempts never alias a template.
func (p *Puzzle) Clone() *Puzzle {
	if p == nil {
		return nil
	}
	c := *p
	c.SolutionMoves = append([]string(nil), p.SolutionMoves...)
	if p.AlternativePaths != nil {
		c.AlternativePaths = append([]AlternativePath(nil), p.AlternativePaths...)
	}
	if p.TrapInfo != nil {
		ti := *p.TrapInfo
		c.TrapInfo = &ti
	}
	return &c
}

// ThemeOrDefault returns the theme, falling back to "general".
func (p *Puzzle) ThemeOrDefault() string {
	if strings.TrimSpace(p.Theme) == "" {
		return DefaultTheme
	}
	return p.Theme
}

func (p *Puzzle) RatingOrDefault() int {
	if p.Rating == 0 {
		return DefaultRating
	}
	return p.Rating
}

func (p *Puzzle) ExpectedTimeOrDefault() float64 {
	if p.ExpectedTime <= 0 {
		return DefaultExpectedTime
	}
	return p.ExpectedTime
}

func (p *Puzzle) CategoryOrDefault() string {
	if p.Category == "" {
		return DefaultCategory
	}
	return p.Category
}

// AlternativeFor returns the alternative path registered for move, if any.
func (p *Puzzle) AlternativeFor(move string) *AlternativePath {
	for i := range p.AlternativePaths {
		if p.AlternativePaths[i].Move == move {
			ap := p.AlternativePaths[i]
			return &ap
		}
	}
	return nil
}

// Move is a parsed move notation such as "e7e8q".
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func (m Move) String() string {
	return m.From + m.To + m.Promotion
}

// ParseMove splits a 4 or 5 character move notation.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move notation %q", s)
	}
	m := Move{From: s[0:2], To: s[2:4]}
	if !ValidSquare(m.From) || !ValidSquare(m.To) {
		return Move{}, fmt.Errorf("invalid move notation %q", s)
	}
	if len(s) == 5 {
		p := strings.ToLower(s[4:5])
		if !strings.Contains("qrbn", p) {
			return Move{}, fmt.Errorf("invalid promotion piece in %q", s)
		}
		m.Promotion = p
	}
	return m, nil
}

// ValidSquare reports whether sq is an algebraic square like "e4".
func ValidSquare(sq string) bool {
	return len(sq) == 2 && sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}

// SolvedRecord is appended to the evaluator history when a puzzle is solved.
type SolvedRecord struct {
	ID        string    `json:"id"`
	Result    string    `json:"result"`
	Moves     []string  `json:"moves"`
	Timestamp time.Time `json:"timestamp"`
}
