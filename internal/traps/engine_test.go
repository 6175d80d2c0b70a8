package traps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesstactics/internal/catalog"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/rules"
	"github.com/vytor/chesstactics/internal/traps"
)

type seqRand struct{ n int }

func (r seqRand) Intn(n int) int { return r.n % n }

const (
	startFEN   = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	middleFEN  = "r1q3k1/5ppp/8/3N4/8/8/5PPP/3R2K1 w - - 0 1"
	endgameFEN = "8/P7/8/8/8/8/8/k6K w - - 0 1"
)

func testCatalogue() map[models.GamePhase][]models.TrapInfo {
	return map[models.GamePhase][]models.TrapInfo{
		models.PhaseOpening: {
			{Name: "Alpha", TrapMove: "e2e4", CorrectDefense: "d2d4", Explanation: "Ignores FORKS on c7."},
			{Name: "Beta", TrapMove: "g1f3", CorrectDefense: "b1c3", Explanation: "A pin appears on the e-file."},
			{Name: "Gamma", TrapMove: "f2f3", CorrectDefense: "f2f4", Explanation: "Weakens the king."},
		},
		models.PhaseEndgame: {
			{Name: "Stalemate", TrapMove: "a7a8q", CorrectDefense: "a7a8r", Explanation: "Promoting to a queen stalemates."},
		},
	}
}

func newEngine(n int) *traps.Engine {
	return traps.New(testCatalogue(), seqRand{n: n}, traps.WithLogger(logger.Discard()))
}

func TestPhaseForFEN(t *testing.T) {
	assert.Equal(t, models.PhaseOpening, traps.PhaseForFEN(startFEN))
	assert.Equal(t, models.PhaseMiddlegame, traps.PhaseForFEN(middleFEN))
	assert.Equal(t, models.PhaseEndgame, traps.PhaseForFEN(endgameFEN))
	assert.Equal(t, models.PhaseEndgame, traps.PhaseForFEN(""))
}

func TestEnhancePuzzle_DoesNotMutateOriginal(t *testing.T) {
	e := newEngine(0)
	orig := &models.Puzzle{
		ID:               "p1",
		StartingPosition: startFEN,
		SolutionMoves:    []string{"e2e4"},
		AlternativePaths: []models.AlternativePath{{Move: "d2d4", Evaluation: "good"}},
	}

	got := e.EnhancePuzzle(orig, nil)

	require.NotNil(t, got)
	assert.True(t, got.HasTrap)
	require.NotNil(t, got.TrapInfo)
	assert.Equal(t, "Alpha", got.TrapInfo.Name)
	require.Len(t, got.AlternativePaths, 2)
	assert.Equal(t, models.AlternativePath{
		Move:        "e2e4",
		Response:    "d2d4",
		Evaluation:  traps.MistakeEvaluation,
		Explanation: "Ignores FORKS on c7.",
	}, got.AlternativePaths[1])

	assert.False(t, orig.HasTrap)
	assert.Nil(t, orig.TrapInfo)
	assert.Len(t, orig.AlternativePaths, 1)
}

func TestEnhancePuzzle_PrefersWeaknessMatches(t *testing.T) {
	// index 0 in the filtered list is Beta, not Alpha
	e := newEngine(0)
	p := &models.Puzzle{StartingPosition: startFEN, SolutionMoves: []string{"e2e4"}}

	got := e.EnhancePuzzle(p, []string{"PIN"})

	require.NotNil(t, got.TrapInfo)
	assert.Equal(t, "Beta", got.TrapInfo.Name)
}

func TestEnhancePuzzle_OnlyTopThreeWeaknessesCount(t *testing.T) {
	e := newEngine(2)
	p := &models.Puzzle{StartingPosition: startFEN, SolutionMoves: []string{"e2e4"}}

	// "forks" is fourth, so no trap matches and the whole catalogue is used
	got := e.EnhancePuzzle(p, []string{"skewers", "mates", "zugzwang", "forks"})

	assert.Equal(t, "Gamma", got.TrapInfo.Name)
}

func TestEnhancePuzzle_EmptyPhaseLeavesPuzzleUndecorated(t *testing.T) {
	e := newEngine(0)
	p := &models.Puzzle{ID: "mid", StartingPosition: middleFEN, SolutionMoves: []string{"d5e7"}}

	got := e.EnhancePuzzle(p, nil)

	assert.NotSame(t, p, got)
	assert.False(t, got.HasTrap)
	assert.Nil(t, got.TrapInfo)
}

func TestEnhancePuzzle_CatalogueIsOwned(t *testing.T) {
	cat := testCatalogue()
	e := traps.New(cat, seqRand{}, traps.WithLogger(logger.Discard()))

	cat[models.PhaseEndgame][0].Name = "changed"

	assert.Equal(t, "Stalemate", e.Traps(models.PhaseEndgame)[0].Name)
}

func TestIsTrapMoveAndFeedback(t *testing.T) {
	e := newEngine(0)
	p := e.EnhancePuzzle(&models.Puzzle{StartingPosition: endgameFEN, SolutionMoves: []string{"a7a8r"}}, nil)

	assert.True(t, traps.IsTrapMove(p, "a7a8q"))
	assert.False(t, traps.IsTrapMove(p, "a7a8r"))
	assert.False(t, traps.IsTrapMove(&models.Puzzle{}, "a7a8q"))
	assert.Nil(t, traps.TrapFeedback(p, "h1g1"))

	fb := traps.TrapFeedback(p, "a7a8q")
	require.NotNil(t, fb)
	assert.Equal(t, "You fell for the Stalemate!", fb.Title)
	assert.Equal(t, "a7a8r", fb.CorrectMove)
	assert.Contains(t, fb.Improvement, "a7a8q")
}

func TestEmbeddedCatalogueDecoratesEveryPhase(t *testing.T) {
	c := catalog.MustDefault()
	e := traps.New(c.Traps, seqRand{n: 1}, traps.WithLogger(logger.Discard()))

	for _, fen := range []string{startFEN, middleFEN, endgameFEN} {
		got := e.EnhancePuzzle(&models.Puzzle{StartingPosition: fen, SolutionMoves: []string{"a1a2"}}, []string{"pins"})
		assert.True(t, got.HasTrap, "fen %s", fen)
	}
}

func TestEmbeddedTrapsArePlayable(t *testing.T) {
	c := catalog.MustDefault()
	for phase, list := range c.Traps {
		for _, trap := range list {
			t.Run(string(phase)+"/"+trap.Name, func(t *testing.T) {
				assert.True(t, playableInPhase(t, c.Puzzles, phase, trap.TrapMove),
					"no %s puzzle lets the user play %s", phase, trap.TrapMove)
			})
		}
	}
}

// playableInPhase replays every puzzle of phase and reports whether move is
// a legal, non-solution choice at one of the user's turns.
func playableInPhase(t *testing.T, puzzles []*models.Puzzle, phase models.GamePhase, move string) bool {
	t.Helper()
	trap, err := models.ParseMove(move)
	require.NoError(t, err)

	for _, p := range puzzles {
		if traps.PhaseForFEN(p.StartingPosition) != phase {
			continue
		}
		eng := rules.New()
		require.NoError(t, eng.Load(p.StartingPosition))
		for _, step := range p.SolutionMoves {
			if eng.Turn() == p.Orientation && step != move {
				if rec := eng.Move(trap.From, trap.To, trap.Promotion); rec != nil {
					if rec.Notation() == move {
						return true
					}
					require.True(t, eng.Undo())
				}
			}
			next, err := models.ParseMove(step)
			require.NoError(t, err)
			require.NotNil(t, eng.Move(next.From, next.To, next.Promotion), "puzzle %s: %s", p.ID, step)
		}
	}
	return false
}
