package skill

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
)

// Rand is the random source used for stochastic policy decisions.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// FocusPolicy decides whether the focus theme changes after an update and,
// if so, what it becomes. It returns the new focus and whether it changed.
type FocusPolicy func(p *Profile, rng Rand) (string, bool)

// RefocusProbability is the chance that a set focus is re-derived on update.
const RefocusProbability = 0.2

// DefaultFocusPolicy re-derives the focus when it is unset or with
// probability RefocusProbability. The new focus is the weakest struggled
// theme, or a random fallback theme when nothing is struggling.
func DefaultFocusPolicy(p *Profile, rng Rand) (string, bool) {
	if p.CurrentFocus != "" && rng.Float64() >= RefocusProbability {
		return p.CurrentFocus, false
	}
	if len(p.StruggledThemes) > 0 {
		return p.StruggledThemes[0], true
	}
	return FallbackThemes[rng.Intn(len(FallbackThemes))], true
}

// Model owns a Profile and applies attempt outcomes to it.
// It is not safe for concurrent use.
type Model struct {
	profile *Profile
	rng     Rand
	now     func() time.Time
	focus   FocusPolicy
	log     *logger.Logger
}

type Option func(*Model)

func WithRand(rng Rand) Option {
	return func(m *Model) { m.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

func WithFocusPolicy(fp FocusPolicy) Option {
	return func(m *Model) { m.focus = fp }
}

func WithLogger(l *logger.Logger) Option {
	return func(m *Model) { m.log = l }
}

// NewModel creates a model around profile, or a fresh profile if nil.
func NewModel(profile *Profile, rng Rand, opts ...Option) *Model {
	if profile == nil {
		profile = NewProfile()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &Model{
		profile: profile,
		rng:     rng,
		now:     time.Now,
		focus:   DefaultFocusPolicy,
		log:     logger.Default().WithPrefix("skill"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Profile returns the live profile. Callers must not mutate it.
func (m *Model) Profile() *Profile { return m.profile }

// Snapshot returns a deep copy of the profile.
func (m *Model) Snapshot() *Profile { return m.profile.Clone() }

// Restore replaces the profile wholesale.
func (m *Model) Restore(p *Profile) {
	if p == nil {
		p = NewProfile()
	}
	m.profile = p
}

// Rating returns the overall rating.
func (m *Model) Rating() int { return m.profile.Ratings[CategoryOverall] }

// RatingChange computes the signed rating delta for one attempt.
//
//	base        = +10 correct, -5 incorrect
//	difficulty  = 1 + (puzzleRating - overall)/400
//	time        = clamp(expected/spent, 0.5, 1.5) when correct, else 1
//	hints       = max(0.2, 1 - 0.2*hints) when hints > 0, else 1
func RatingChange(correct bool, puzzleRating, overall int, expectedTime, timeSpent float64, hintsUsed int) int {
	base := -5.0
	if correct {
		base = 10.0
	}

	difficultyFactor := 1 + float64(puzzleRating-overall)/400

	timeFactor := 1.0
	if correct {
		if timeSpent <= 0 {
			timeFactor = 1.5
		} else {
			timeFactor = math.Min(1.5, math.Max(0.5, expectedTime/timeSpent))
		}
	}

	hintFactor := 1.0
	if hintsUsed > 0 {
		hintFactor = math.Max(0.2, 1-float64(hintsUsed)*0.2)
	}

	return int(math.Round(base * difficultyFactor * timeFactor * hintFactor))
}

// UpdateAfterPuzzle applies one finished attempt and returns the rating change.
func (m *Model) UpdateAfterPuzzle(p *models.Puzzle, correct bool, timeSpent float64, hintsUsed int) int {
	if p == nil {
		p = &models.Puzzle{}
	}
	theme := p.ThemeOrDefault()
	category := p.CategoryOrDefault()
	prof := m.profile

	if p.ID != "" && !prof.hasSolved(p.ID) {
		prof.SolvedPuzzles = append(prof.SolvedPuzzles, p.ID)
	}

	stats, ok := prof.ThemePerformance[theme]
	if !ok {
		stats = &ThemeStats{}
		prof.ThemePerformance[theme] = stats
	}
	stats.Attempts++
	if correct {
		stats.Correct++
	}
	stats.AvgTime += (timeSpent - stats.AvgTime) / float64(stats.Attempts)
	stats.LastAttempt = m.now()

	change := RatingChange(correct, p.RatingOrDefault(), prof.Ratings[CategoryOverall],
		p.ExpectedTimeOrDefault(), timeSpent, hintsUsed)

	prof.Ratings[CategoryOverall] += change
	if category != CategoryOverall {
		if _, exists := prof.Ratings[category]; exists {
			prof.Ratings[category] += change
		}
	}

	prof.StruggledThemes = prof.struggled()
	prof.CurrentLevel = LevelFor(prof.Ratings[CategoryOverall])
	if focus, changed := m.focus(prof, m.rng); changed {
		m.log.Debug("focus changed: %q -> %q", prof.CurrentFocus, focus)
		prof.CurrentFocus = focus
	}

	m.log.Debug("puzzle %s theme=%s correct=%t change=%d overall=%d",
		p.ID, theme, correct, change, prof.Ratings[CategoryOverall])
	return change
}

// RecommendedThemes returns up to count distinct themes: the focus, then
// struggled themes, then the least practiced, then the fallback list.
func (m *Model) RecommendedThemes(count int) []string {
	if count <= 0 {
		return []string{}
	}
	prof := m.profile
	seen := make(map[string]bool)
	out := make([]string, 0, count)
	add := func(theme string) {
		if theme == "" || seen[theme] || len(out) >= count {
			return
		}
		seen[theme] = true
		out = append(out, theme)
	}

	add(prof.CurrentFocus)
	for _, t := range prof.StruggledThemes {
		add(t)
	}
	for _, t := range m.leastPracticed() {
		add(t)
	}
	for _, t := range FallbackThemes {
		add(t)
	}
	return out
}

func (m *Model) leastPracticed() []string {
	themes := make([]string, 0, len(m.profile.ThemePerformance))
	for t := range m.profile.ThemePerformance {
		themes = append(themes, t)
	}
	sort.Slice(themes, func(i, j int) bool {
		ai := m.profile.ThemePerformance[themes[i]].Attempts
		aj := m.profile.ThemePerformance[themes[j]].Attempts
		if ai != aj {
			return ai < aj
		}
		return themes[i] < themes[j]
	})
	return themes
}

// StrengthThemes returns themes with at least 3 attempts, best success rate first.
func (m *Model) StrengthThemes(count int) []string {
	var themes []string
	for t, s := range m.profile.ThemePerformance {
		if s.Attempts >= 3 {
			themes = append(themes, t)
		}
	}
	sort.Slice(themes, func(i, j int) bool {
		ri := m.profile.ThemePerformance[themes[i]].SuccessRate()
		rj := m.profile.ThemePerformance[themes[j]].SuccessRate()
		if ri != rj {
			return ri > rj
		}
		return themes[i] < themes[j]
	})
	return truncate(themes, count)
}

// WeaknessThemes returns the first count struggled themes.
func (m *Model) WeaknessThemes(count int) []string {
	return truncate(append([]string{}, m.profile.StruggledThemes...), count)
}

func truncate(s []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	if s == nil {
		return []string{}
	}
	return s
}

// DifficultyForRating picks the puzzle bucket that suits a rating.
func DifficultyForRating(rating int) models.Difficulty {
	switch {
	case rating < 1300:
		return models.Easy
	case rating < 1600:
		return models.Medium
	case rating < 1900:
		return models.Hard
	default:
		return models.Expert
	}
}
