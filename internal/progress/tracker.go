// Package progress sequences lessons and milestones on top of a user's
// skill model.
package progress

import (
	"time"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/skill"
)

// Lesson completion thresholds, applied to every theme of the lesson.
const (
	LessonMinAttempts    = 5
	LessonMinSuccessRate = 0.6
)

const recommendedCount = 3

// Update summarizes what changed after one attempt.
type Update struct {
	NewRating          int                        `json:"newRating"`
	RatingChange       int                        `json:"ratingChange"`
	AchievedMilestones []models.AchievedMilestone `json:"achievedMilestones"`
	LessonCompleted    bool                       `json:"lessonCompleted"`
	NextLesson         *models.Lesson             `json:"nextLesson,omitempty"`
	RecommendedThemes  []string                   `json:"recommendedThemes"`
}

// MilestoneStatus is a catalogue milestone with this user's achievement.
type MilestoneStatus struct {
	models.Milestone
	Achieved     bool       `json:"achieved"`
	DateAchieved *time.Time `json:"dateAchieved,omitempty"`
}

// Tracker holds one user's curriculum position. The lesson and milestone
// catalogues are shared read-only; achievements are per tracker.
// It is not safe for concurrent use.
type Tracker struct {
	userID        string
	model         *skill.Model
	lessons       []models.Lesson
	milestones    []models.Milestone
	completed     []string
	currentLesson int
	achieved      map[int]time.Time
	now           func() time.Time
	log           *logger.Logger
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func New(userID string, model *skill.Model, lessons []models.Lesson, milestones []models.Milestone, opts ...Option) *Tracker {
	if model == nil {
		model = skill.NewModel(nil, nil)
	}
	t := &Tracker{
		userID:     userID,
		model:      model,
		lessons:    lessons,
		milestones: milestones,
		completed:  []string{},
		achieved:   make(map[int]time.Time),
		now:        time.Now,
		log:        logger.Default().WithPrefix("progress").WithField("user", userID),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) UserID() string { return t.userID }

// Model exposes the underlying skill model.
func (t *Tracker) Model() *skill.Model { return t.model }

func (t *Tracker) Rating() int { return t.model.Rating() }

func (t *Tracker) CompletedLessons() []string {
	return append([]string{}, t.completed...)
}

func (t *Tracker) CurrentLessonIndex() int { return t.currentLesson }

// Lessons returns the curriculum in order.
func (t *Tracker) Lessons() []models.Lesson {
	return append([]models.Lesson(nil), t.lessons...)
}

// Milestones returns every catalogue milestone with its achievement state.
func (t *Tracker) Milestones() []MilestoneStatus {
	out := make([]MilestoneStatus, len(t.milestones))
	for i, m := range t.milestones {
		out[i] = MilestoneStatus{Milestone: m}
		if at, ok := t.achieved[i]; ok {
			out[i].Achieved = true
			out[i].DateAchieved = &at
		}
	}
	return out
}

// NextLesson returns the first uncompleted lesson the rating unlocks. If
// every unlocked lesson is done it returns the last unlocked one, and if
// nothing is unlocked the first lesson. It returns nil for an empty
// curriculum.
func (t *Tracker) NextLesson() *models.Lesson {
	idx := t.nextLessonIndex()
	if idx < 0 {
		return nil
	}
	l := t.lessons[idx]
	return &l
}

func (t *Tracker) nextLessonIndex() int {
	if len(t.lessons) == 0 {
		return -1
	}
	rating := t.model.Rating()
	for i, l := range t.lessons {
		if l.RequiredRating <= rating && !t.isCompleted(l.ID) {
			return i
		}
	}
	for i := len(t.lessons) - 1; i >= 0; i-- {
		if t.lessons[i].RequiredRating <= rating {
			return i
		}
	}
	return 0
}

func (t *Tracker) isCompleted(id string) bool {
	for _, c := range t.completed {
		if c == id {
			return true
		}
	}
	return false
}

// UpdateAfterPuzzle records an attempt, then checks milestones and the
// current lesson.
func (t *Tracker) UpdateAfterPuzzle(p *models.Puzzle, correct bool, timeSpent float64, hintsUsed int) Update {
	change := t.model.UpdateAfterPuzzle(p, correct, timeSpent, hintsUsed)
	rating := t.model.Rating()

	up := Update{
		NewRating:          rating,
		RatingChange:       change,
		AchievedMilestones: []models.AchievedMilestone{},
	}

	for i, m := range t.milestones {
		if _, done := t.achieved[i]; done || rating < m.RatingThreshold {
			continue
		}
		at := t.now()
		t.achieved[i] = at
		up.AchievedMilestones = append(up.AchievedMilestones, models.AchievedMilestone{Milestone: m, DateAchieved: at})
		t.log.Info("milestone reached: %s (rating=%d)", m.Title, rating)
	}

	if t.currentLesson >= 0 && t.currentLesson < len(t.lessons) {
		lesson := t.lessons[t.currentLesson]
		if !t.isCompleted(lesson.ID) && t.lessonMastered(lesson) {
			t.completed = append(t.completed, lesson.ID)
			up.LessonCompleted = true
			if idx := t.nextLessonIndex(); idx >= 0 {
				t.currentLesson = idx
				next := t.lessons[idx]
				up.NextLesson = &next
			}
			t.log.Info("lesson completed: %s", lesson.ID)
		}
	}

	up.RecommendedThemes = t.model.RecommendedThemes(recommendedCount)
	return up
}

func (t *Tracker) lessonMastered(l models.Lesson) bool {
	perf := t.model.Profile().ThemePerformance
	for _, theme := range l.Themes {
		s, ok := perf[theme]
		if !ok || s.Attempts < LessonMinAttempts || s.SuccessRate() < LessonMinSuccessRate {
			return false
		}
	}
	return len(l.Themes) > 0
}

// Reset discards all progress for this user.
func (t *Tracker) Reset() {
	t.model.Restore(skill.NewProfile())
	t.completed = []string{}
	t.currentLesson = 0
	t.achieved = make(map[int]time.Time)
	t.log.Info("progress reset")
}
