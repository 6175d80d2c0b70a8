package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vytor/chesstactics/internal/skill"
)

var ErrForeignUser = errors.New("progress belongs to another user")

type achievedEntry struct {
	Index           int       `json:"index"`
	RatingThreshold int       `json:"ratingThreshold"`
	Title           string    `json:"title"`
	DateAchieved    time.Time `json:"dateAchieved"`
}

type exportDoc struct {
	UserID             string                       `json:"userId"`
	Ratings            map[string]int               `json:"ratings"`
	ThemePerformance   map[string]*skill.ThemeStats `json:"themePerformance"`
	SolvedPuzzles      []string                     `json:"solvedPuzzles"`
	StruggledThemes    []string                     `json:"struggledThemes"`
	CurrentFocus       string                       `json:"currentFocus"`
	CurrentLevel       string                       `json:"currentLevel"`
	CompletedLessons   []string                     `json:"completedLessons"`
	CurrentLessonIndex int                          `json:"currentLessonIndex"`
	AchievedMilestones []achievedEntry              `json:"achievedMilestones"`
	ExportedAt         time.Time                    `json:"exportedAt"`
}

// Export serializes the user's profile and curriculum state as JSON.
func (t *Tracker) Export() ([]byte, error) {
	prof := t.model.Snapshot()
	doc := exportDoc{
		UserID:             t.userID,
		Ratings:            prof.Ratings,
		ThemePerformance:   prof.ThemePerformance,
		SolvedPuzzles:      prof.SolvedPuzzles,
		StruggledThemes:    prof.StruggledThemes,
		CurrentFocus:       prof.CurrentFocus,
		CurrentLevel:       prof.CurrentLevel,
		CompletedLessons:   t.CompletedLessons(),
		CurrentLessonIndex: t.currentLesson,
		AchievedMilestones: []achievedEntry{},
		ExportedAt:         t.now(),
	}
	for i, m := range t.milestones {
		if at, ok := t.achieved[i]; ok {
			doc.AchievedMilestones = append(doc.AchievedMilestones, achievedEntry{
				Index:           i,
				RatingThreshold: m.RatingThreshold,
				Title:           m.Title,
				DateAchieved:    at,
			})
		}
	}
	return json.Marshal(doc)
}

// Import merges exported data into the tracker. It fails without changes
// on malformed JSON or data exported for another user. Keys that are
// missing or fail to decode keep their current values; ratings merge per
// category.
func (t *Tracker) Import(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.log.Warn("import rejected: %v", err)
		return fmt.Errorf("malformed progress data: %w", err)
	}
	var owner string
	if err := json.Unmarshal(raw["userId"], &owner); err != nil || owner != t.userID {
		t.log.Warn("import rejected: user %q does not match", owner)
		return ErrForeignUser
	}

	prof := t.model.Snapshot()
	merge := func(key string, dst any) bool {
		v, ok := raw[key]
		if !ok {
			return false
		}
		if err := json.Unmarshal(v, dst); err != nil {
			t.log.Warn("import: skipping %s: %v", key, err)
			return false
		}
		return true
	}

	var ratings map[string]int
	if merge("ratings", &ratings) {
		for category, r := range ratings {
			prof.Ratings[category] = r
		}
	}
	var perf map[string]*skill.ThemeStats
	if merge("themePerformance", &perf) && perf != nil {
		for theme, s := range perf {
			if s == nil {
				delete(perf, theme)
			}
		}
		prof.ThemePerformance = perf
	}
	var solved []string
	if merge("solvedPuzzles", &solved) && solved != nil {
		prof.SolvedPuzzles = solved
	}
	var struggled []string
	if merge("struggledThemes", &struggled) && struggled != nil {
		prof.StruggledThemes = struggled
	}
	var focus string
	if merge("currentFocus", &focus) {
		prof.CurrentFocus = focus
	}
	// The level always follows the merged overall rating.
	prof.CurrentLevel = skill.LevelFor(prof.Ratings[skill.CategoryOverall])
	var completed []string
	if merge("completedLessons", &completed) && completed != nil {
		t.completed = completed
	}
	var lessonIdx int
	if merge("currentLessonIndex", &lessonIdx) && lessonIdx >= 0 && lessonIdx < len(t.lessons) {
		t.currentLesson = lessonIdx
	}
	var achieved []achievedEntry
	if merge("achievedMilestones", &achieved) {
		for _, a := range achieved {
			if a.Index < 0 || a.Index >= len(t.milestones) {
				continue
			}
			if _, done := t.achieved[a.Index]; !done {
				t.achieved[a.Index] = a.DateAchieved
			}
		}
	}

	t.model.Restore(prof)
	t.log.Info("progress imported: rating=%d", t.model.Rating())
	return nil
}
