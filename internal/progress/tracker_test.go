package progress_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesstactics/internal/catalog"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/progress"
	"github.com/vytor/chesstactics/internal/skill"
)

type fixedRand struct{}

func (fixedRand) Float64() float64 { return 0.9 }
func (fixedRand) Intn(n int) int   { return 0 }

var fixedNow = time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTracker(userID string, lessons []models.Lesson, milestones []models.Milestone) *progress.Tracker {
	model := skill.NewModel(nil, fixedRand{}, skill.WithClock(clock), skill.WithLogger(logger.Discard()))
	return progress.New(userID, model, lessons, milestones,
		progress.WithClock(clock),
		progress.WithLogger(logger.Discard()),
	)
}

func TestUpdateAfterPuzzle_MilestonesAreMonotonic(t *testing.T) {
	tr := newTracker("u1", nil, []models.Milestone{
		{RatingThreshold: 1210, Title: "Warm Up"},
		{RatingThreshold: 1500, Title: "Far Away"},
	})

	up := tr.UpdateAfterPuzzle(&models.Puzzle{ID: "p1", Rating: 1600}, true, 60, 0)

	assert.Equal(t, 20, up.RatingChange)
	assert.Equal(t, 1220, up.NewRating)
	require.Len(t, up.AchievedMilestones, 1)
	assert.Equal(t, "Warm Up", up.AchievedMilestones[0].Title)
	assert.Equal(t, fixedNow, up.AchievedMilestones[0].DateAchieved)

	for i := 0; i < 5; i++ {
		up = tr.UpdateAfterPuzzle(&models.Puzzle{ID: "p2", Rating: 1200}, false, 60, 0)
		assert.Empty(t, up.AchievedMilestones)
	}

	assert.Less(t, tr.Rating(), 1210)
	status := tr.Milestones()
	require.Len(t, status, 2)
	assert.True(t, status[0].Achieved)
	require.NotNil(t, status[0].DateAchieved)
	assert.Equal(t, fixedNow, *status[0].DateAchieved)
	assert.False(t, status[1].Achieved)
}

func TestUpdateAfterPuzzle_CompletesCurrentLesson(t *testing.T) {
	lessons := []models.Lesson{
		{ID: "pins-basics", Themes: []string{"pins"}},
		{ID: "fork-basics", Themes: []string{"forks"}},
	}
	tr := newTracker("u1", lessons, nil)

	var up progress.Update
	for i := 0; i < progress.LessonMinAttempts-1; i++ {
		up = tr.UpdateAfterPuzzle(&models.Puzzle{Theme: "pins", Rating: 1200}, true, 60, 0)
		assert.False(t, up.LessonCompleted)
		assert.Nil(t, up.NextLesson)
	}
	up = tr.UpdateAfterPuzzle(&models.Puzzle{Theme: "pins", Rating: 1200}, true, 60, 0)

	assert.True(t, up.LessonCompleted)
	require.NotNil(t, up.NextLesson)
	assert.Equal(t, "fork-basics", up.NextLesson.ID)
	assert.Equal(t, []string{"pins-basics"}, tr.CompletedLessons())
	assert.Equal(t, 1, tr.CurrentLessonIndex())
	assert.Len(t, up.RecommendedThemes, 3)
}

func TestUpdateAfterPuzzle_LowSuccessRateDoesNotComplete(t *testing.T) {
	tr := newTracker("u1", []models.Lesson{{ID: "l", Themes: []string{"pins"}}}, nil)

	for i := 0; i < 10; i++ {
		up := tr.UpdateAfterPuzzle(&models.Puzzle{Theme: "pins"}, i%3 == 0, 60, 0)
		assert.False(t, up.LessonCompleted)
	}
	assert.Empty(t, tr.CompletedLessons())
}

func TestNextLesson(t *testing.T) {
	lessons := []models.Lesson{
		{ID: "a", Themes: []string{"pins"}, RequiredRating: 0},
		{ID: "b", Themes: []string{"forks"}, RequiredRating: 1100},
		{ID: "c", Themes: []string{"mates"}, RequiredRating: 1500},
	}

	t.Run("first unlocked and uncompleted", func(t *testing.T) {
		tr := newTracker("u1", lessons, nil)
		require.NoError(t, tr.Import([]byte(`{"userId":"u1","completedLessons":["a"]}`)))
		assert.Equal(t, "b", tr.NextLesson().ID)
	})

	t.Run("last unlocked when all unlocked are done", func(t *testing.T) {
		tr := newTracker("u1", lessons, nil)
		require.NoError(t, tr.Import([]byte(`{"userId":"u1","completedLessons":["a","b"]}`)))
		assert.Equal(t, "b", tr.NextLesson().ID)
	})

	t.Run("first lesson when nothing is unlocked", func(t *testing.T) {
		tr := newTracker("u1", []models.Lesson{{ID: "hard", RequiredRating: 2000}, {ID: "harder", RequiredRating: 2200}}, nil)
		assert.Equal(t, "hard", tr.NextLesson().ID)
	})

	t.Run("empty curriculum", func(t *testing.T) {
		tr := newTracker("u1", nil, nil)
		assert.Nil(t, tr.NextLesson())
	})
}

func TestExportImport_RoundTrip(t *testing.T) {
	c := catalog.MustDefault()
	tr := newTracker("u1", c.Lessons, c.Milestones)
	for i := 0; i < 4; i++ {
		tr.UpdateAfterPuzzle(&models.Puzzle{ID: "x", Theme: "forks", Rating: 1900}, true, 30, 0)
		tr.UpdateAfterPuzzle(&models.Puzzle{ID: "y", Theme: "pins", Rating: 1100}, false, 90, 1)
	}
	before := tr.Model().Snapshot()
	beforeLessons := tr.CompletedLessons()
	beforeMilestones := tr.Milestones()

	data, err := tr.Export()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"userId", "ratings", "themePerformance", "solvedPuzzles", "struggledThemes",
		"currentFocus", "currentLevel", "completedLessons", "currentLessonIndex", "achievedMilestones", "exportedAt"} {
		assert.Contains(t, doc, key)
	}

	tr.UpdateAfterPuzzle(&models.Puzzle{ID: "z", Theme: "skewers"}, true, 60, 0)
	require.NoError(t, tr.Import(data))

	after := tr.Model().Snapshot()
	assert.Equal(t, before.Ratings, after.Ratings)
	assert.Equal(t, before.SolvedPuzzles, after.SolvedPuzzles)
	assert.Equal(t, before.StruggledThemes, after.StruggledThemes)
	assert.Equal(t, before.CurrentFocus, after.CurrentFocus)
	assert.Equal(t, before.CurrentLevel, after.CurrentLevel)
	assert.Equal(t, before.ThemePerformance, after.ThemePerformance)
	assert.Equal(t, beforeLessons, tr.CompletedLessons())
	assert.Equal(t, beforeMilestones[0].Achieved, tr.Milestones()[0].Achieved)
}

func TestImport_RejectsForeignUserAndMalformedJSON(t *testing.T) {
	tr := newTracker("u1", nil, nil)
	tr.UpdateAfterPuzzle(&models.Puzzle{ID: "p"}, true, 60, 0)
	rating := tr.Rating()

	err := tr.Import([]byte(`{"userId":"someone-else","ratings":{"overall":2500}}`))
	assert.ErrorIs(t, err, progress.ErrForeignUser)

	err = tr.Import([]byte(`{"ratings":{"overall":2500}}`))
	assert.ErrorIs(t, err, progress.ErrForeignUser)

	err = tr.Import([]byte(`{not json`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, progress.ErrForeignUser)

	assert.Equal(t, rating, tr.Rating())
}

func TestImport_PartialCorruptionKeepsOtherState(t *testing.T) {
	tr := newTracker("u1", nil, nil)
	tr.UpdateAfterPuzzle(&models.Puzzle{ID: "p", Theme: "pins"}, true, 60, 0)
	rating := tr.Rating()

	err := tr.Import([]byte(`{"userId":"u1","ratings":"garbage","themePerformance":[1,2],"currentFocus":"skewers"}`))

	require.NoError(t, err)
	assert.Equal(t, rating, tr.Rating())
	prof := tr.Model().Profile()
	assert.Contains(t, prof.ThemePerformance, "pins")
	assert.Equal(t, []string{"p"}, prof.SolvedPuzzles)
	assert.Equal(t, "skewers", prof.CurrentFocus)

	err = tr.Import([]byte(`{"userId":"u1","ratings":{"tactics":1500},"currentLevel":"Grandmaster"}`))

	require.NoError(t, err)
	prof = tr.Model().Profile()
	assert.Equal(t, rating, prof.Ratings[skill.CategoryOverall])
	assert.Equal(t, 1500, prof.Ratings["tactics"])
	assert.Equal(t, skill.LevelFor(rating), prof.CurrentLevel)

	require.NoError(t, tr.Import([]byte(`{"userId":"u1","ratings":{"overall":1850}}`)))
	assert.Equal(t, 1850, tr.Rating())
	assert.Equal(t, 1500, tr.Model().Profile().Ratings["tactics"])
	assert.Equal(t, skill.LevelMaster, tr.Model().Profile().CurrentLevel)
}

func TestReset(t *testing.T) {
	tr := newTracker("u1", []models.Lesson{{ID: "a", Themes: []string{"pins"}}}, []models.Milestone{{RatingThreshold: 1201}})
	tr.UpdateAfterPuzzle(&models.Puzzle{ID: "p", Rating: 1600}, true, 60, 0)
	require.True(t, tr.Milestones()[0].Achieved)

	tr.Reset()

	assert.Equal(t, skill.InitialRating, tr.Rating())
	assert.False(t, tr.Milestones()[0].Achieved)
	assert.Empty(t, tr.CompletedLessons())
	assert.Empty(t, tr.Model().Profile().SolvedPuzzles)
	assert.Equal(t, "u1", tr.UserID())
}
