// Package evaluator advances one puzzle attempt move by move against its
// scripted solution line.
package evaluator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/traps"
)

var (
	ErrNoRulesEngine = errors.New("rules engine is required")
	ErrEmptySolution = errors.New("puzzle has no solution moves")
	ErrNoPuzzle      = errors.New("no puzzle loaded")
)

// Result messages.
const (
	MsgIllegal  = "Illegal move"
	MsgSolved   = "Puzzle solved correctly!"
	MsgContinue = "Correct move! Continue..."
	MsgWrong    = "Not the best move. Try again."
)

const ResultSolved = "solved"

// RulesEngine is the chess rules collaborator. Move returns nil for an
// illegal move and leaves the position untouched.
type RulesEngine interface {
	Load(fen string) error
	Move(from, to, promotion string) *models.MoveRecord
	FEN() string
	Turn() models.Side
	IsGameOver() bool
	Undo() bool
	PieceAt(square string) *models.Piece
}

type State int

const (
	StateIdle State = iota
	StateAwaitingUserMove
	StateEvaluating
	StateSolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingUserMove:
		return "awaiting_user_move"
	case StateEvaluating:
		return "evaluating"
	case StateSolved:
		return "solved"
	}
	return "unknown"
}

// Setup describes the board after Initialize.
type Setup struct {
	Position     string      `json:"position"`
	Orientation  models.Side `json:"orientation"`
	SideToMove   models.Side `json:"sideToMove"`
	OpponentMove string      `json:"opponentMove,omitempty"`
}

// Result is the outcome of one Evaluate call.
type Result struct {
	Valid           bool                    `json:"valid"`
	IsCorrect       bool                    `json:"isCorrect"`
	IsTrap          bool                    `json:"isTrap"`
	Completed       bool                    `json:"completed"`
	Message         string                  `json:"message"`
	TrapInfo        *models.TrapInfo        `json:"trapInfo,omitempty"`
	TrapFeedback    *traps.Feedback         `json:"trapFeedback,omitempty"`
	AlternativePath *models.AlternativePath `json:"alternativePath,omitempty"`
	Position        string                  `json:"position"`
	Move            *models.MoveRecord      `json:"move,omitempty"`
	OpponentMove    string                  `json:"opponentMove,omitempty"`
	GameOver        bool                    `json:"gameOver"`
}

// Evaluator is safe for concurrent use. Evaluate never waits: a call that
// overlaps another evaluation is rejected with a nil result.
type Evaluator struct {
	mu         sync.Mutex
	rules      RulesEngine
	template   *models.Puzzle
	current    *models.Puzzle
	moves      []string
	history    []models.SolvedRecord
	state      State
	trapSprung bool
	now        func() time.Time
	log        *logger.Logger
}

type Option func(*Evaluator)

func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

func New(rules RulesEngine, opts ...Option) (*Evaluator, error) {
	if rules == nil {
		return nil, ErrNoRulesEngine
	}
	e := &Evaluator{
		rules: rules,
		now:   time.Now,
		log:   logger.Default().WithPrefix("evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initialize makes a copy of p the current puzzle and loads its position.
// When the side to move is not the user's, the first scripted ply is played
// for the opponent.
func (e *Evaluator) Initialize(p *models.Puzzle) (*Setup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialize(p)
}

func (e *Evaluator) initialize(p *models.Puzzle) (*Setup, error) {
	if p == nil || len(p.SolutionMoves) == 0 {
		return nil, ErrEmptySolution
	}
	if err := e.rules.Load(p.StartingPosition); err != nil {
		return nil, fmt.Errorf("failed to load puzzle %s: %w", p.ID, err)
	}

	e.template = p.Clone()
	e.current = p.Clone()
	e.current.HintCount = 0
	if e.current.Orientation == "" {
		e.current.Orientation = models.White
	}
	e.moves = e.moves[:0]
	e.trapSprung = false
	e.state = StateIdle

	setup := &Setup{Orientation: e.current.Orientation}
	if e.rules.Turn() != e.current.Orientation {
		if len(e.current.SolutionMoves) < 2 {
			return nil, fmt.Errorf("puzzle %s: %w", p.ID, ErrEmptySolution)
		}
		reply, err := e.playScripted(0)
		if err != nil {
			return nil, fmt.Errorf("puzzle %s: %w", p.ID, err)
		}
		setup.OpponentMove = reply
	}

	e.state = StateAwaitingUserMove
	setup.Position = e.rules.FEN()
	setup.SideToMove = e.rules.Turn()
	e.log.Debug("puzzle %s initialized: orientation=%s plies=%d", e.current.ID, e.current.Orientation, len(e.current.SolutionMoves))
	return setup, nil
}

// playScripted plays SolutionMoves[i] for the opponent and records it.
func (e *Evaluator) playScripted(i int) (string, error) {
	m, err := models.ParseMove(e.current.SolutionMoves[i])
	if err != nil {
		return "", err
	}
	rec := e.rules.Move(m.From, m.To, m.Promotion)
	if rec == nil {
		return "", fmt.Errorf("scripted move %s is illegal", m)
	}
	notation := rec.Notation()
	e.moves = append(e.moves, notation)
	return notation, nil
}

// Evaluate plays a user move. It returns nil when no move is expected or
// when another evaluation is in progress.
func (e *Evaluator) Evaluate(from, to, promotion string) *Result {
	if !e.mu.TryLock() {
		return nil
	}
	defer e.mu.Unlock()

	if e.state != StateAwaitingUserMove || len(e.moves) >= len(e.current.SolutionMoves) {
		return nil
	}
	e.state = StateEvaluating
	defer func() {
		if e.state == StateEvaluating {
			e.state = StateAwaitingUserMove
		}
	}()

	rec := e.rules.Move(from, to, promotion)
	if rec == nil {
		return &Result{Valid: false, Message: MsgIllegal, Position: e.rules.FEN()}
	}

	notation := rec.Notation()
	e.moves = append(e.moves, notation)
	expected := e.current.SolutionMoves[len(e.moves)-1]

	res := &Result{
		Valid:           true,
		IsCorrect:       notation == expected,
		IsTrap:          traps.IsTrapMove(e.current, notation),
		AlternativePath: e.current.AlternativeFor(notation),
		Move:            rec,
	}
	if res.IsTrap {
		ti := *e.current.TrapInfo
		res.TrapInfo = &ti
	}
	log := e.log.WithField("puzzle", e.current.ID).WithField("move", notation)

	switch {
	case res.IsCorrect:
		if len(e.moves) < len(e.current.SolutionMoves) {
			res.Message = MsgContinue
			reply, err := e.playScripted(len(e.moves))
			if err != nil {
				log.Error("opponent reply failed: %v", err)
			} else {
				res.OpponentMove = reply
			}
		}
		if len(e.moves) == len(e.current.SolutionMoves) {
			res.Completed = true
			res.Message = MsgSolved
			e.state = StateSolved
			e.history = append(e.history, models.SolvedRecord{
				ID:        e.current.ID,
				Result:    ResultSolved,
				Moves:     append([]string(nil), e.moves...),
				Timestamp: e.now(),
			})
			log.Info("puzzle solved in %d plies", len(e.moves))
		}
	case res.IsTrap:
		res.Message = fmt.Sprintf("You fell for the %s trap!", e.current.TrapInfo.Name)
		res.TrapFeedback = traps.TrapFeedback(e.current, notation)
		e.trapSprung = true
		log.Info("trap %q sprung", e.current.TrapInfo.Name)
	default:
		res.Message = MsgWrong
		if !e.rules.Undo() {
			log.Warn("undo failed after wrong move")
		}
		e.moves = e.moves[:len(e.moves)-1]
		log.Debug("wrong move rolled back, expected %s", expected)
	}

	res.Position = e.rules.FEN()
	res.GameOver = e.rules.IsGameOver()
	return res
}

// Reset re-initializes the current puzzle from its template.
func (e *Evaluator) Reset() (*Setup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.template == nil {
		return nil, ErrNoPuzzle
	}
	return e.initialize(e.template)
}

// State returns StateEvaluating while an evaluation holds the lock.
func (e *Evaluator) State() State {
	if !e.mu.TryLock() {
		return StateEvaluating
	}
	defer e.mu.Unlock()
	return e.state
}

// Current returns a copy of the live puzzle, or nil.
func (e *Evaluator) Current() *models.Puzzle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone()
}

// History returns the solved records collected by this evaluator.
func (e *Evaluator) History() []models.SolvedRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.SolvedRecord, len(e.history))
	copy(out, e.history)
	return out
}

// MoveHistory returns the plies played in the current attempt.
func (e *Evaluator) MoveHistory() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.moves...)
}

// TrapSprung reports whether the user played the trap in this attempt.
func (e *Evaluator) TrapSprung() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trapSprung
}

// HintsUsed returns the hint count of the current attempt.
func (e *Evaluator) HintsUsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return 0
	}
	return e.current.HintCount
}

// Position returns the current board as FEN.
func (e *Evaluator) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rules.FEN()
}
