package puzzlesource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesstactics/internal/catalog"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/puzzlesource"
	"github.com/vytor/chesstactics/internal/repository"
	"github.com/vytor/chesstactics/internal/repository/sqlite"
	"github.com/vytor/chesstactics/internal/testutil"
	"github.com/vytor/chesstactics/internal/testutil/mocks"
	"github.com/vytor/chesstactics/internal/traps"
)

type seqRand struct {
	float float64
	next  int
}

func (r *seqRand) Float64() float64 { return r.float }
func (r *seqRand) Intn(n int) int {
	v := r.next % n
	r.next++
	return v
}

func boolPtr(b bool) *bool { return &b }

func seededRepo(t *testing.T) repository.PuzzleRepository {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	repo := sqlite.NewPuzzleRepository(db)
	ctx := logger.NewContext(context.Background(), logger.Discard())
	n, err := puzzlesource.Seed(ctx, repo, catalog.MustDefault().Puzzles)
	require.NoError(t, err)
	require.Equal(t, len(catalog.MustDefault().Puzzles), n)
	return repo
}

func newSource(repo repository.PuzzleRepository, rng *seqRand, opts ...puzzlesource.Option) *puzzlesource.DBSource {
	engine := traps.New(catalog.MustDefault().Traps, rng, traps.WithLogger(logger.Discard()))
	return puzzlesource.NewDBSource(repo, engine, append([]puzzlesource.Option{puzzlesource.WithRand(rng)}, opts...)...)
}

func TestGeneratePuzzle_MatchesThemeAndDifficulty(t *testing.T) {
	src := newSource(seededRepo(t), &seqRand{float: 0.99})

	p, err := src.GeneratePuzzle(context.Background(), "forks", models.Medium, nil)

	require.NoError(t, err)
	assert.Equal(t, "fork-002", p.ID)
	assert.False(t, p.HasTrap)
	assert.Nil(t, p.TrapInfo)
}

func TestGeneratePuzzle_RelaxesUnknownTheme(t *testing.T) {
	src := newSource(seededRepo(t), &seqRand{float: 0.99})

	p, err := src.GeneratePuzzle(context.Background(), "no-such-theme", models.Medium, nil)

	require.NoError(t, err)
	assert.Equal(t, models.Medium, p.Difficulty)
}

func TestGeneratePuzzle_TrapDecision(t *testing.T) {
	repo := seededRepo(t)

	t.Run("explicit request wins over probability", func(t *testing.T) {
		src := newSource(repo, &seqRand{float: 0.99})
		p, err := src.GeneratePuzzle(context.Background(), "forks", models.Easy, boolPtr(true))
		require.NoError(t, err)
		assert.True(t, p.HasTrap)
		require.NotNil(t, p.TrapInfo)
		assert.NotNil(t, p.AlternativeFor(p.TrapInfo.TrapMove))
	})

	t.Run("explicit false suppresses", func(t *testing.T) {
		src := newSource(repo, &seqRand{float: 0})
		p, err := src.GeneratePuzzle(context.Background(), "forks", models.Easy, boolPtr(false))
		require.NoError(t, err)
		assert.False(t, p.HasTrap)
	})

	t.Run("probability roll when unspecified", func(t *testing.T) {
		src := newSource(repo, &seqRand{float: 0.1}, puzzlesource.WithTrapProbability(0.3))
		p, err := src.GeneratePuzzle(context.Background(), "forks", models.Easy, nil)
		require.NoError(t, err)
		assert.True(t, p.HasTrap)
	})
}

func TestGeneratePuzzle_ReturnsIndependentCopies(t *testing.T) {
	src := newSource(seededRepo(t), &seqRand{float: 0.99})

	a, err := src.GeneratePuzzle(context.Background(), "skewers", models.Medium, boolPtr(true))
	require.NoError(t, err)
	b, err := src.GeneratePuzzle(context.Background(), "skewers", models.Medium, boolPtr(false))
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.True(t, a.HasTrap)
	assert.False(t, b.HasTrap)
	assert.Less(t, len(b.AlternativePaths), len(a.AlternativePaths))
}

func TestSelect_AvoidsExcludedUntilExhausted(t *testing.T) {
	src := newSource(seededRepo(t), &seqRand{float: 0.99})

	p, err := src.Select(context.Background(), puzzlesource.Query{
		Theme: "mate in one", Difficulty: models.Easy, ExcludeIDs: []string{"mate-001"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mate-002", p.ID)

	p, err = src.Select(context.Background(), puzzlesource.Query{
		Theme: "forks", Difficulty: models.Easy, ExcludeIDs: []string{"fork-001"},
	})
	require.NoError(t, err)
	assert.Equal(t, "fork-001", p.ID)
}

func TestGeneratePuzzlesByThemes(t *testing.T) {
	src := newSource(seededRepo(t), &seqRand{float: 0.99})

	list, err := src.GeneratePuzzlesByThemes(context.Background(), []string{"forks", "mate in one"}, models.Easy, 4)

	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "forks", list[0].Theme)
	assert.Equal(t, "mate in one", list[1].Theme)
	assert.Equal(t, "mate in one", list[3].Theme)
	assert.NotEqual(t, list[1].ID, list[3].ID)

	empty, err := src.GeneratePuzzlesByThemes(context.Background(), nil, models.Easy, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSelect_EmptyCatalogue(t *testing.T) {
	repo := new(mocks.MockPuzzleRepository)
	repo.On("List", context.Background(), models.PuzzleFilter{Theme: "forks"}).Return([]*models.Puzzle{}, nil).Once()
	repo.On("List", context.Background(), models.PuzzleFilter{}).Return([]*models.Puzzle{}, nil).Twice()
	src := newSource(repo, &seqRand{})

	_, err := src.GeneratePuzzle(context.Background(), "forks", "", nil)

	assert.ErrorIs(t, err, puzzlesource.ErrNoPuzzles)
	repo.AssertExpectations(t)
}

func TestSelect_RepositoryError(t *testing.T) {
	repo := new(mocks.MockPuzzleRepository)
	repo.On("List", context.Background(), models.PuzzleFilter{Theme: "forks"}).Return(nil, errors.New("disk gone"))
	src := newSource(repo, &seqRand{})

	_, err := src.GeneratePuzzle(context.Background(), "forks", "", nil)

	assert.ErrorContains(t, err, "disk gone")
	repo.AssertExpectations(t)
}
