package services

import (
	"context"
	stderrors "errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/chesstactics/internal/catalog"
	"github.com/vytor/chesstactics/internal/errors"
	"github.com/vytor/chesstactics/internal/evaluator"
	"github.com/vytor/chesstactics/internal/jobs"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/progress"
	"github.com/vytor/chesstactics/internal/puzzlesource"
	"github.com/vytor/chesstactics/internal/repository"
	"github.com/vytor/chesstactics/internal/rules"
	"github.com/vytor/chesstactics/internal/skill"
	"github.com/vytor/chesstactics/internal/store"
)

const (
	recommendationCount = 3
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// SessionService runs puzzle attempts for users and keeps their progress.
type SessionService interface {
	CreateSession(ctx context.Context, userID string) (*SessionInfo, error)
	NextPuzzle(ctx context.Context, userID string, req NextPuzzleRequest) (*PuzzleView, error)
	Move(ctx context.Context, userID string, req MoveRequest) (*MoveOutcome, error)
	Hint(ctx context.Context, userID string) (*evaluator.Hint, error)
	ResetPuzzle(ctx context.Context, userID string) (*evaluator.Setup, error)
	GiveUp(ctx context.Context, userID string) (*GiveUpOutcome, error)
	ExportProgress(ctx context.Context, userID string) ([]byte, error)
	ImportProgress(ctx context.Context, userID string, data []byte) error
	ResetProgress(ctx context.Context, userID string) error
	Recommendations(ctx context.Context, userID string) (*Recommendations, error)
	History(ctx context.Context, userID string, req HistoryRequest) (*HistoryPage, error)
}

// PuzzleSelector picks the puzzle for a new attempt.
type PuzzleSelector interface {
	Select(ctx context.Context, q puzzlesource.Query) (*models.Puzzle, error)
}

type SessionInfo struct {
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Level   string `json:"level"`
	Resumed bool   `json:"resumed"`
}

type NextPuzzleRequest struct {
	Theme       string `json:"theme"`
	Difficulty  string `json:"difficulty"`
	IncludeTrap *bool  `json:"includeTrap"`
}

// PuzzleView is what a client sees of a live puzzle. The solution line
// and trap metadata stay on the server.
type PuzzleView struct {
	AttemptID    string            `json:"attemptId"`
	PuzzleID     string            `json:"puzzleId"`
	Theme        string            `json:"theme"`
	Difficulty   models.Difficulty `json:"difficulty"`
	Rating       int               `json:"rating"`
	Description  string            `json:"description,omitempty"`
	Orientation  models.Side       `json:"orientation"`
	Position     string            `json:"position"`
	SideToMove   models.Side       `json:"sideToMove"`
	OpponentMove string            `json:"opponentMove,omitempty"`
}

type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

type MoveOutcome struct {
	*evaluator.Result
	Progress *progress.Update `json:"progress,omitempty"`
}

type GiveUpOutcome struct {
	Solution []string         `json:"solution"`
	Progress *progress.Update `json:"progress"`
}

type Recommendations struct {
	Themes     []string                   `json:"themes"`
	Strengths  []string                   `json:"strengths"`
	Weaknesses []string                   `json:"weaknesses"`
	NextLesson *models.Lesson             `json:"nextLesson,omitempty"`
	Level      string                     `json:"level"`
	Ratings    map[string]int             `json:"ratings"`
	Milestones []progress.MilestoneStatus `json:"milestones"`
	Summary    []models.AttemptSummary    `json:"summary"`
}

type HistoryRequest struct {
	Theme  string
	Result string
	Limit  int
	Offset int
}

type HistoryPage struct {
	Attempts []models.PuzzleAttempt `json:"attempts"`
	Total    int                    `json:"total"`
	Solved   []models.SolvedRecord  `json:"solved"`
}

// SessionDeps are the collaborators of the session service.
type SessionDeps struct {
	Puzzles  PuzzleSelector
	Attempts repository.AttemptRepository
	Store    store.ProgressStore
	Jobs     jobs.JobQueue
	Catalog  *catalog.Catalog
	// NewRand returns the random source for one session. Sessions do not
	// share a source.
	NewRand func() skill.Rand
	Now     func() time.Time
}

type session struct {
	mu        sync.Mutex
	userID    string
	eval      *evaluator.Evaluator
	tracker   *progress.Tracker
	puzzle    *models.Puzzle
	active    bool
	attemptID string
	startedAt time.Time
	hints     int
}

type sessionService struct {
	deps SessionDeps

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates a new SessionService
func NewSessionService(deps SessionDeps) SessionService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRand == nil {
		deps.NewRand = func() skill.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if deps.Catalog == nil {
		deps.Catalog = &catalog.Catalog{}
	}
	return &sessionService{deps: deps, sessions: make(map[string]*session)}
}

func (s *sessionService) CreateSession(ctx context.Context, userID string) (*SessionInfo, error) {
	log := logger.FromContext(ctx).WithPrefix("sessions")

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	} else if _, err := uuid.Parse(userID); err != nil {
		return nil, errors.NewValidationError("userId", "must be a UUID")
	}

	if existing := s.lookup(userID); existing != nil {
		return resumedInfo(existing), nil
	}

	sessLog := log.WithField("user", userID)
	rng := s.deps.NewRand()
	model := skill.NewModel(nil, rng, skill.WithClock(s.deps.Now), skill.WithLogger(sessLog.WithPrefix("skill")))
	tracker := progress.New(userID, model, s.deps.Catalog.Lessons, s.deps.Catalog.Milestones,
		progress.WithClock(s.deps.Now),
		progress.WithLogger(sessLog.WithPrefix("progress")),
	)
	eval, err := evaluator.New(rules.New(),
		evaluator.WithClock(s.deps.Now),
		evaluator.WithLogger(sessLog.WithPrefix("evaluator")),
	)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	resumed := false
	blob, err := s.deps.Store.Load(ctx, userID)
	switch {
	case err == nil:
		if err := tracker.Import(blob); err != nil {
			sessLog.Warn("stored progress unusable, starting fresh: %v", err)
		} else {
			resumed = true
		}
	case stderrors.Is(err, store.ErrNotFound):
	default:
		log.Error("failed to load progress: %v", err)
		return nil, errors.NewInternalError(err)
	}

	sess := &session{userID: userID, eval: eval, tracker: tracker}
	s.mu.Lock()
	if existing, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		sessLog.Debug("session created concurrently, discarding duplicate")
		return resumedInfo(existing), nil
	}
	s.sessions[userID] = sess
	s.mu.Unlock()

	sessLog.Info("session created (resumed=%t rating=%d)", resumed, tracker.Rating())
	return sessionInfo(sess, resumed), nil
}

func (s *sessionService) lookup(userID string) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

func resumedInfo(sess *session) *SessionInfo {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sessionInfo(sess, true)
}

func sessionInfo(sess *session, resumed bool) *SessionInfo {
	return &SessionInfo{
		UserID:  sess.userID,
		Rating:  sess.tracker.Rating(),
		Level:   sess.tracker.Model().Profile().CurrentLevel,
		Resumed: resumed,
	}
}

// lock returns the user's session with its mutex held.
func (s *sessionService) lock(userID string) (*session, error) {
	sess := s.lookup(userID)
	if sess == nil {
		return nil, errors.NewNotFoundError("session", userID)
	}
	sess.mu.Lock()
	return sess, nil
}

func (s *sessionService) NextPuzzle(ctx context.Context, userID string, req NextPuzzleRequest) (*PuzzleView, error) {
	log := logger.FromContext(ctx).WithPrefix("sessions").WithField("user", userID)

	difficulty := models.Difficulty(strings.ToLower(req.Difficulty))
	if difficulty != "" && !difficulty.Valid() {
		return nil, errors.NewValidationError("difficulty", "must be easy, medium, hard or expert")
	}

	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	model := sess.tracker.Model()
	if difficulty == "" {
		difficulty = skill.DifficultyForRating(model.Rating())
	}
	theme := strings.TrimSpace(req.Theme)
	if theme == "" {
		if recs := model.RecommendedThemes(recommendationCount); len(recs) > 0 {
			theme = recs[0]
		}
	}

	p, err := s.deps.Puzzles.Select(ctx, puzzlesource.Query{
		Theme:       theme,
		Difficulty:  difficulty,
		IncludeTrap: req.IncludeTrap,
		Weaknesses:  model.WeaknessThemes(recommendationCount),
		ExcludeIDs:  model.Profile().SolvedPuzzles,
	})
	if err != nil {
		if stderrors.Is(err, puzzlesource.ErrNoPuzzles) {
			return nil, errors.NewNotFoundError("puzzle", theme)
		}
		log.Error("failed to select puzzle: %v", err)
		return nil, errors.NewInternalError(err)
	}

	setup, err := sess.eval.Initialize(p)
	if err != nil {
		log.Error("failed to initialize puzzle %s: %v", p.ID, err)
		return nil, errors.NewInternalError(err)
	}
	if sess.active {
		log.Debug("abandoning unfinished attempt %s", sess.attemptID)
	}
	s.beginAttempt(sess, p)

	log.Info("puzzle %s started (theme=%s difficulty=%s trap=%t)", p.ID, p.Theme, p.Difficulty, p.HasTrap)
	return &PuzzleView{
		AttemptID:    sess.attemptID,
		PuzzleID:     p.ID,
		Theme:        p.ThemeOrDefault(),
		Difficulty:   p.Difficulty,
		Rating:       p.RatingOrDefault(),
		Description:  p.Description,
		Orientation:  setup.Orientation,
		Position:     setup.Position,
		SideToMove:   setup.SideToMove,
		OpponentMove: setup.OpponentMove,
	}, nil
}

func (s *sessionService) beginAttempt(sess *session, p *models.Puzzle) {
	sess.puzzle = p
	sess.active = true
	sess.attemptID = uuid.NewString()
	sess.startedAt = s.deps.Now()
	sess.hints = 0
}

func (s *sessionService) Move(ctx context.Context, userID string, req MoveRequest) (*MoveOutcome, error) {
	req.From = strings.ToLower(strings.TrimSpace(req.From))
	req.To = strings.ToLower(strings.TrimSpace(req.To))
	req.Promotion = strings.ToLower(strings.TrimSpace(req.Promotion))
	if !models.ValidSquare(req.From) {
		return nil, errors.NewValidationError("from", "must be a square like e2")
	}
	if !models.ValidSquare(req.To) {
		return nil, errors.NewValidationError("to", "must be a square like e4")
	}
	if req.Promotion != "" && (len(req.Promotion) != 1 || !strings.Contains("qrbn", req.Promotion)) {
		return nil, errors.NewValidationError("promotion", "must be one of q, r, b, n")
	}

	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.active {
		return nil, errors.NewConflictError("no puzzle in progress", nil)
	}
	res := sess.eval.Evaluate(req.From, req.To, req.Promotion)
	if res == nil {
		return nil, errors.NewConflictError("move not expected", nil)
	}

	out := &MoveOutcome{Result: res}
	switch {
	case res.Completed:
		out.Progress = s.endAttempt(ctx, sess, models.AttemptSolved, true)
	case res.IsTrap:
		out.Progress = s.endAttempt(ctx, sess, models.AttemptTrap, false)
	}
	return out, nil
}

// endAttempt rates the attempt and queues the attempt record and the
// progress snapshot for persistence.
func (s *sessionService) endAttempt(ctx context.Context, sess *session, result string, correct bool) *progress.Update {
	log := logger.FromContext(ctx).WithPrefix("sessions").WithField("user", sess.userID)

	now := s.deps.Now()
	elapsed := now.Sub(sess.startedAt).Seconds()
	up := sess.tracker.UpdateAfterPuzzle(sess.puzzle, correct, elapsed, sess.hints)
	sess.active = false

	attempt := models.PuzzleAttempt{
		Key:          sess.attemptID,
		UserID:       sess.userID,
		PuzzleID:     sess.puzzle.ID,
		Theme:        sess.puzzle.ThemeOrDefault(),
		Result:       result,
		Correct:      correct,
		Moves:        sess.eval.MoveHistory(),
		TimeSeconds:  elapsed,
		HintsUsed:    sess.hints,
		RatingChange: up.RatingChange,
		CreatedAt:    now,
	}
	if err := s.deps.Jobs.EnqueueAttempt(attempt); err != nil {
		log.Warn("attempt %s not recorded: %v", attempt.Key, err)
	}
	s.persist(ctx, sess)

	log.Info("attempt on %s ended: %s (rating %+d -> %d)", sess.puzzle.ID, result, up.RatingChange, up.NewRating)
	return &up
}

func (s *sessionService) persist(ctx context.Context, sess *session) {
	log := logger.FromContext(ctx).WithPrefix("sessions").WithField("user", sess.userID)
	data, err := sess.tracker.Export()
	if err != nil {
		log.Error("failed to export progress: %v", err)
		return
	}
	if err := s.deps.Jobs.EnqueueProgressSave(sess.userID, data); err != nil {
		log.Warn("progress not saved: %v", err)
	}
}

func (s *sessionService) Hint(ctx context.Context, userID string) (*evaluator.Hint, error) {
	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.active {
		return nil, errors.NewConflictError("no puzzle in progress", nil)
	}
	h := sess.eval.Hint()
	if h == nil {
		return nil, errors.NewConflictError("no hint available", nil)
	}
	sess.hints++
	logger.FromContext(ctx).WithPrefix("sessions").Debug("hint level %d for %s", h.Level, sess.puzzle.ID)
	return h, nil
}

// ResetPuzzle restarts the current puzzle. Restarting a finished puzzle
// begins a new attempt; restarting an unfinished one keeps its clock and
// hint count.
func (s *sessionService) ResetPuzzle(ctx context.Context, userID string) (*evaluator.Setup, error) {
	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	setup, err := sess.eval.Reset()
	if err != nil {
		if stderrors.Is(err, evaluator.ErrNoPuzzle) {
			return nil, errors.NewConflictError("no puzzle to reset", err)
		}
		logger.FromContext(ctx).Error("failed to reset puzzle: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if !sess.active {
		s.beginAttempt(sess, sess.puzzle)
	}
	return setup, nil
}

func (s *sessionService) GiveUp(ctx context.Context, userID string) (*GiveUpOutcome, error) {
	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.active {
		return nil, errors.NewConflictError("no puzzle in progress", nil)
	}
	up := s.endAttempt(ctx, sess, models.AttemptGaveUp, false)
	return &GiveUpOutcome{
		Solution: append([]string{}, sess.puzzle.SolutionMoves...),
		Progress: up,
	}, nil
}

func (s *sessionService) ExportProgress(ctx context.Context, userID string) ([]byte, error) {
	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	data, err := sess.tracker.Export()
	if err != nil {
		logger.FromContext(ctx).Error("failed to export progress: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return data, nil
}

func (s *sessionService) ImportProgress(ctx context.Context, userID string, data []byte) error {
	sess, err := s.lock(userID)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	if err := sess.tracker.Import(data); err != nil {
		if stderrors.Is(err, progress.ErrForeignUser) {
			return errors.NewValidationError("userId", "progress belongs to another user")
		}
		return errors.NewBadRequestError("malformed progress data")
	}
	s.persist(ctx, sess)
	return nil
}

// ResetProgress discards the user's progress and attempt history. The
// deletion runs behind any persistence still queued for the user.
func (s *sessionService) ResetProgress(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx).WithPrefix("sessions").WithField("user", userID)

	sess, err := s.lock(userID)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	sess.tracker.Reset()
	sess.active = false
	if err := s.deps.Jobs.ResetProgress(ctx, userID); err != nil {
		log.Error("failed to reset stored progress: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("progress reset")
	return nil
}

func (s *sessionService) Recommendations(ctx context.Context, userID string) (*Recommendations, error) {
	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	summary, err := s.deps.Attempts.ThemeSummary(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load theme summary: %v", err)
		summary = []models.AttemptSummary{}
	}

	model := sess.tracker.Model()
	prof := model.Snapshot()
	return &Recommendations{
		Themes:     model.RecommendedThemes(recommendationCount),
		Strengths:  model.StrengthThemes(recommendationCount),
		Weaknesses: model.WeaknessThemes(recommendationCount),
		NextLesson: sess.tracker.NextLesson(),
		Level:      prof.CurrentLevel,
		Ratings:    prof.Ratings,
		Milestones: sess.tracker.Milestones(),
		Summary:    summary,
	}, nil
}

func (s *sessionService) History(ctx context.Context, userID string, req HistoryRequest) (*HistoryPage, error) {
	if req.Limit <= 0 {
		req.Limit = defaultHistoryLimit
	}
	if req.Limit > maxHistoryLimit {
		return nil, errors.NewValidationError("limit", "must be at most 100")
	}
	if req.Offset < 0 {
		return nil, errors.NewValidationError("offset", "must not be negative")
	}

	sess, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	solved := sess.eval.History()
	sess.mu.Unlock()

	filter := models.AttemptFilter{UserID: userID, Theme: req.Theme, Result: req.Result, Limit: req.Limit, Offset: req.Offset}
	attempts, err := s.deps.Attempts.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list attempts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	total, err := s.deps.Attempts.Count(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to count attempts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &HistoryPage{Attempts: attempts, Total: total, Solved: solved}, nil
}
