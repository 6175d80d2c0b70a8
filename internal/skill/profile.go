package skill

import (
	"sort"
	"time"
)

// Rating categories tracked per user.
const (
	CategoryOverall  = "overall"
	CategoryTactics  = "tactics"
	CategoryStrategy = "strategy"
	CategoryEndgame  = "endgame"
	CategoryOpenings = "openings"
)

// InitialRating is the starting value of every rating category.
const InitialRating = 1200

// FallbackThemes back-fill recommendations when the user has little history.
var FallbackThemes = []string{"pins", "forks", "discovered attacks", "removing the defender"}

// ThemeStats accumulates attempts on one theme.
type ThemeStats struct {
	Attempts    int       `json:"attempts"`
	Correct     int       `json:"correct"`
	AvgTime     float64   `json:"avgTime"`
	LastAttempt time.Time `json:"lastAttempt"`
}

// SuccessRate is correct/attempts, zero before the first attempt.
func (s ThemeStats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// Profile is the persisted skill state of one user.
type Profile struct {
	Ratings          map[string]int         `json:"ratings"`
	ThemePerformance map[string]*ThemeStats `json:"themePerformance"`
	SolvedPuzzles    []string               `json:"solvedPuzzles"`
	StruggledThemes  []string               `json:"struggledThemes"`
	CurrentFocus     string                 `json:"currentFocus"`
	CurrentLevel     string                 `json:"currentLevel"`
}

// NewProfile returns a profile with every rating at InitialRating.
func NewProfile() *Profile {
	return &Profile{
		Ratings: map[string]int{
			CategoryOverall:  InitialRating,
			CategoryTactics:  InitialRating,
			CategoryStrategy: InitialRating,
			CategoryEndgame:  InitialRating,
			CategoryOpenings: InitialRating,
		},
		ThemePerformance: make(map[string]*ThemeStats),
		SolvedPuzzles:    []string{},
		StruggledThemes:  []string{},
		CurrentLevel:     LevelFor(InitialRating),
	}
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := &Profile{
		Ratings:          make(map[string]int, len(p.Ratings)),
		ThemePerformance: make(map[string]*ThemeStats, len(p.ThemePerformance)),
		SolvedPuzzles:    append([]string{}, p.SolvedPuzzles...),
		StruggledThemes:  append([]string{}, p.StruggledThemes...),
		CurrentFocus:     p.CurrentFocus,
		CurrentLevel:     p.CurrentLevel,
	}
	for k, v := range p.Ratings {
		c.Ratings[k] = v
	}
	for k, v := range p.ThemePerformance {
		stats := *v
		c.ThemePerformance[k] = &stats
	}
	return c
}

func (p *Profile) hasSolved(id string) bool {
	for _, s := range p.SolvedPuzzles {
		if s == id {
			return true
		}
	}
	return false
}

// struggled lists themes with at least 3 attempts and a success rate
// under one half, weakest first.
func (p *Profile) struggled() []string {
	out := []string{}
	for theme, stats := range p.ThemePerformance {
		if stats.Attempts >= 3 && stats.SuccessRate() < 0.5 {
			out = append(out, theme)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri := p.ThemePerformance[out[i]].SuccessRate()
		rj := p.ThemePerformance[out[j]].SuccessRate()
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// Level labels on the rating ladder.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelExpert       = "Expert"
	LevelMaster       = "Master"
	LevelGrandmaster  = "Grandmaster"
)

// LevelFor maps a rating onto the level ladder.
func LevelFor(rating int) string {
	switch {
	case rating < 1200:
		return LevelBeginner
	case rating < 1400:
		return LevelIntermediate
	case rating < 1600:
		return LevelAdvanced
	case rating < 1800:
		return LevelExpert
	case rating < 2000:
		return LevelMaster
	default:
		return LevelGrandmaster
	}
}
