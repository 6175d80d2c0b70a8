// Package catalog loads the static puzzle, trap, lesson and milestone
// catalogues. Defaults are embedded; a directory can override any file.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
)

//go:embed data/*.yaml
var defaultsFS embed.FS

const (
	trapsFile      = "traps.yaml"
	lessonsFile    = "lessons.yaml"
	milestonesFile = "milestones.yaml"
	puzzlesFile    = "puzzles.yaml"
)

// Catalog is read-only once loaded.
type Catalog struct {
	Traps      map[models.GamePhase][]models.TrapInfo
	Lessons    []models.Lesson
	Milestones []models.Milestone
	Puzzles    []*models.Puzzle
}

// Load reads every catalogue file, preferring dir over the embedded copy.
// An empty dir means embedded defaults only.
func Load(dir string) (*Catalog, error) {
	log := logger.Default().WithPrefix("catalog")
	c := &Catalog{}

	var traps trapsDoc
	if err := readYAML(dir, trapsFile, &traps); err != nil {
		return nil, err
	}
	c.Traps = map[models.GamePhase][]models.TrapInfo{
		models.PhaseOpening:    traps.Opening,
		models.PhaseMiddlegame: traps.Middlegame,
		models.PhaseEndgame:    traps.Endgame,
	}
	for phase, list := range c.Traps {
		for i, t := range list {
			if t.Name == "" || t.TrapMove == "" {
				return nil, fmt.Errorf("%s: %s trap %d: name and trap_move are required", trapsFile, phase, i)
			}
			if _, err := models.ParseMove(t.TrapMove); err != nil {
				return nil, fmt.Errorf("%s: trap %q: %w", trapsFile, t.Name, err)
			}
		}
	}

	if err := readYAML(dir, lessonsFile, &c.Lessons); err != nil {
		return nil, err
	}
	for i, l := range c.Lessons {
		if l.ID == "" || len(l.Themes) == 0 {
			return nil, fmt.Errorf("%s: lesson %d: id and themes are required", lessonsFile, i)
		}
	}

	if err := readYAML(dir, milestonesFile, &c.Milestones); err != nil {
		return nil, err
	}

	var puzzles []puzzleEntry
	if err := readYAML(dir, puzzlesFile, &puzzles); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(puzzles))
	for _, pe := range puzzles {
		p, err := pe.toPuzzle()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", puzzlesFile, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%s: duplicate puzzle id %q", puzzlesFile, p.ID)
		}
		seen[p.ID] = true
		c.Puzzles = append(c.Puzzles, p)
	}

	log.Info("catalog loaded: %d puzzles, %d lessons, %d milestones, traps opening=%d middlegame=%d endgame=%d",
		len(c.Puzzles), len(c.Lessons), len(c.Milestones),
		len(c.Traps[models.PhaseOpening]), len(c.Traps[models.PhaseMiddlegame]), len(c.Traps[models.PhaseEndgame]))
	return c, nil
}

// MustDefault loads the embedded catalogue and panics on failure.
func MustDefault() *Catalog {
	c, err := Load("")
	if err != nil {
		panic(err)
	}
	return c
}

func readYAML(dir, name string, out any) error {
	var (
		data []byte
		err  error
	)
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err = os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	if data == nil {
		data, err = defaultsFS.ReadFile("data/" + name)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", name, err)
		}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

type trapsDoc struct {
	Opening    []models.TrapInfo `yaml:"opening"`
	Middlegame []models.TrapInfo `yaml:"middlegame"`
	Endgame    []models.TrapInfo `yaml:"endgame"`
}

type puzzleEntry struct {
	ID           string                   `yaml:"id"`
	FEN          string                   `yaml:"fen"`
	Moves        []string                 `yaml:"moves"`
	Orientation  string                   `yaml:"orientation"`
	Theme        string                   `yaml:"theme"`
	Difficulty   string                   `yaml:"difficulty"`
	Rating       int                      `yaml:"rating"`
	ExpectedTime float64                  `yaml:"expected_time"`
	Category     string                   `yaml:"category"`
	Description  string                   `yaml:"description"`
	Alternatives []models.AlternativePath `yaml:"alternatives"`
}

func (pe puzzleEntry) toPuzzle() (*models.Puzzle, error) {
	if pe.ID == "" || pe.FEN == "" {
		return nil, fmt.Errorf("puzzle id and fen are required")
	}
	if len(pe.Moves) == 0 {
		return nil, fmt.Errorf("puzzle %q has no solution moves", pe.ID)
	}
	for _, m := range pe.Moves {
		if _, err := models.ParseMove(m); err != nil {
			return nil, fmt.Errorf("puzzle %q: %w", pe.ID, err)
		}
	}
	orientation := models.Side(pe.Orientation)
	if orientation == "" {
		orientation = models.White
	}
	if orientation != models.White && orientation != models.Black {
		return nil, fmt.Errorf("puzzle %q: invalid orientation %q", pe.ID, pe.Orientation)
	}
	difficulty := models.Difficulty(pe.Difficulty)
	if !difficulty.Valid() {
		return nil, fmt.Errorf("puzzle %q: invalid difficulty %q", pe.ID, pe.Difficulty)
	}
	return &models.Puzzle{
		ID:               pe.ID,
		StartingPosition: pe.FEN,
		SolutionMoves:    pe.Moves,
		Orientation:      orientation,
		Theme:            pe.Theme,
		Difficulty:       difficulty,
		Rating:           pe.Rating,
		ExpectedTime:     pe.ExpectedTime,
		Category:         pe.Category,
		Description:      pe.Description,
		AlternativePaths: pe.Alternatives,
	}, nil
}
