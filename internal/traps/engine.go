// Package traps decorates puzzles with scripted trap moves chosen by game
// phase and the user's weak themes.
package traps

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
)

// Phase thresholds by number of pieces on the board.
const (
	endgameMaxPieces     = 10
	middlegameMaxPieces  = 20
	weaknessesConsidered = 3
)

// MistakeEvaluation labels the alternative path a trap adds to a puzzle.
const MistakeEvaluation = "mistake"

// Rand is the random source used to pick traps.
type Rand interface {
	Intn(n int) int
}

// Feedback is shown after a user plays a puzzle's trap move.
type Feedback struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	CorrectMove string `json:"correctMove"`
	Improvement string `json:"improvement"`
}

// Engine owns an immutable trap catalogue.
type Engine struct {
	catalogue map[models.GamePhase][]models.TrapInfo
	rng       Rand
	log       *logger.Logger
}

type Option func(*Engine)

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New copies catalogue so later changes by the caller are not observed.
func New(catalogue map[models.GamePhase][]models.TrapInfo, rng Rand, opts ...Option) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	owned := make(map[models.GamePhase][]models.TrapInfo, len(catalogue))
	for phase, list := range catalogue {
		owned[phase] = append([]models.TrapInfo(nil), list...)
	}
	e := &Engine{
		catalogue: owned,
		rng:       rng,
		log:       logger.Default().WithPrefix("traps"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Traps returns a copy of the traps registered for phase.
func (e *Engine) Traps(phase models.GamePhase) []models.TrapInfo {
	return append([]models.TrapInfo(nil), e.catalogue[phase]...)
}

// PhaseForFEN classifies a position by counting pieces in the placement field.
func PhaseForFEN(fen string) models.GamePhase {
	placement := fen
	if i := strings.IndexByte(fen, ' '); i >= 0 {
		placement = fen[:i]
	}
	pieces := 0
	for _, r := range placement {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			pieces++
		}
	}
	switch {
	case pieces <= endgameMaxPieces:
		return models.PhaseEndgame
	case pieces <= middlegameMaxPieces:
		return models.PhaseMiddlegame
	default:
		return models.PhaseOpening
	}
}

// EnhancePuzzle returns a copy of p carrying a trap from the matching phase.
// Traps whose explanation mentions one of the first three weaknesses are
// preferred. p itself is never modified.
func (e *Engine) EnhancePuzzle(p *models.Puzzle, weaknesses []string) *models.Puzzle {
	out := p.Clone()
	if out == nil {
		return nil
	}
	phase := PhaseForFEN(out.StartingPosition)
	candidates := e.catalogue[phase]
	if len(candidates) == 0 {
		e.log.Warn("no traps for phase %s, puzzle %s left undecorated", phase, out.ID)
		return out
	}

	if matched := matchWeaknesses(candidates, weaknesses); len(matched) > 0 {
		candidates = matched
	}
	trap := candidates[e.rng.Intn(len(candidates))]

	out.HasTrap = true
	out.TrapInfo = &trap
	out.AlternativePaths = append(out.AlternativePaths, models.AlternativePath{
		Move:        trap.TrapMove,
		Response:    trap.CorrectDefense,
		Evaluation:  MistakeEvaluation,
		Explanation: trap.Explanation,
	})
	e.log.Debug("puzzle %s decorated with trap %q (phase=%s)", out.ID, trap.Name, phase)
	return out
}

func matchWeaknesses(traps []models.TrapInfo, weaknesses []string) []models.TrapInfo {
	if len(weaknesses) > weaknessesConsidered {
		weaknesses = weaknesses[:weaknessesConsidered]
	}
	var matched []models.TrapInfo
	for _, t := range traps {
		explanation := strings.ToLower(t.Explanation)
		for _, w := range weaknesses {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" && strings.Contains(explanation, w) {
				matched = append(matched, t)
				break
			}
		}
	}
	return matched
}

// IsTrapMove reports whether move is the trap attached to p.
func IsTrapMove(p *models.Puzzle, move string) bool {
	return p != nil && p.HasTrap && p.TrapInfo != nil && p.TrapInfo.TrapMove == move
}

// TrapFeedback explains the trap when move is p's trap move, nil otherwise.
func TrapFeedback(p *models.Puzzle, move string) *Feedback {
	if !IsTrapMove(p, move) {
		return nil
	}
	ti := p.TrapInfo
	return &Feedback{
		Title:       fmt.Sprintf("You fell for the %s!", ti.Name),
		Explanation: ti.Explanation,
		CorrectMove: ti.CorrectDefense,
		Improvement: fmt.Sprintf("Instead of %s, look for %s. %s", ti.TrapMove, ti.CorrectDefense, ti.FollowUp),
	}
}
