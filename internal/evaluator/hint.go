package evaluator

import (
	"fmt"

	"github.com/vytor/chesstactics/internal/models"
)

// Hint types, one per escalation level.
const (
	HintPiece  = "piece"
	HintRegion = "region"
	HintExact  = "exact"
)

const maxHintLevel = 2

type Hint struct {
	Type             string   `json:"type"`
	Level            int      `json:"level"`
	Message          string   `json:"message"`
	HighlightSquares []string `json:"highlightSquares"`
}

// Hint describes the next expected user move, more precisely on each call.
// It returns nil when no user move is pending.
func (e *Evaluator) Hint() *Hint {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateAwaitingUserMove || len(e.moves) >= len(e.current.SolutionMoves) {
		return nil
	}
	if e.rules.Turn() != e.current.Orientation {
		return nil
	}
	next, err := models.ParseMove(e.current.SolutionMoves[len(e.moves)])
	if err != nil {
		e.log.Warn("puzzle %s: unparsable solution move: %v", e.current.ID, err)
		return nil
	}

	level := min(e.current.HintCount, maxHintLevel)
	e.current.HintCount++

	piece := "piece"
	if p := e.rules.PieceAt(next.From); p != nil {
		piece = models.PieceName(p.Type)
	}

	switch level {
	case 0:
		return &Hint{
			Type:             HintPiece,
			Level:            level,
			Message:          fmt.Sprintf("Look for a strong %s move.", piece),
			HighlightSquares: []string{},
		}
	case 1:
		return &Hint{
			Type:             HintRegion,
			Level:            level,
			Message:          fmt.Sprintf("Focus on the %s, %s.", fileRegion(next.To), rankRegion(next.To, e.current.Orientation)),
			HighlightSquares: []string{},
		}
	default:
		return &Hint{
			Type:             HintExact,
			Level:            level,
			Message:          fmt.Sprintf("Move your %s from %s to %s.", piece, next.From, next.To),
			HighlightSquares: []string{next.From, next.To},
		}
	}
}

func fileRegion(square string) string {
	switch {
	case square[0] <= 'c':
		return "queenside"
	case square[0] <= 'e':
		return "center"
	default:
		return "kingside"
	}
}

// rankRegion describes a square's rank from the user's side of the board.
func rankRegion(square string, orientation models.Side) string {
	rank := int(square[1] - '0')
	if orientation == models.Black {
		rank = 9 - rank
	}
	switch {
	case rank <= 2:
		return "near your back ranks"
	case rank >= 7:
		return "deep in the opponent's camp"
	default:
		return "in the middle of the board"
	}
}
