// Package rules adapts github.com/corentings/chess/v2 to the move-by-move
// interface used by the puzzle evaluator.
package rules

import (
	"fmt"

	"github.com/corentings/chess/v2"

	"github.com/vytor/chesstactics/internal/models"
)

// Engine holds one position plus the positions it replaced, for undo.
// It is not safe for concurrent use.
type Engine struct {
	pos     *chess.Position
	history []*chess.Position
}

func New() *Engine {
	return &Engine{}
}

// Load replaces the current position and clears undo history.
func (e *Engine) Load(fen string) error {
	opt, err := chess.FEN(fen)
	if err != nil {
		return fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	e.pos = chess.NewGame(opt).Position()
	e.history = nil
	return nil
}

// Move plays from-to if legal and returns its record, or nil when the move
// is illegal or no position is loaded. A pawn reaching the last rank
// promotes to a queen unless promotion names another piece.
func (e *Engine) Move(from, to, promotion string) *models.MoveRecord {
	if e.pos == nil || !models.ValidSquare(from) || !models.ValidSquare(to) {
		return nil
	}
	mover := e.PieceAt(from)
	if mover == nil {
		return nil
	}
	if mover.Type == models.PiecePawn && (to[1] == '8' || to[1] == '1') {
		if promotion == "" {
			promotion = models.PieceQueen
		}
	} else {
		promotion = ""
	}

	uci := from + to + promotion
	if !e.isLegal(uci) {
		return nil
	}
	m, err := chess.UCINotation{}.Decode(e.pos, uci)
	if err != nil || MoveToUCI(m) != uci {
		return nil
	}

	rec := &models.MoveRecord{
		From:      from,
		To:        to,
		Promotion: promotion,
		Piece:     mover.Type,
		Color:     mover.Color,
	}
	if captured := e.PieceAt(to); captured != nil {
		rec.Captured = captured.Type
	}

	e.history = append(e.history, e.pos)
	e.pos = e.pos.Update(m)
	return rec
}

func (e *Engine) isLegal(uci string) bool {
	for _, m := range e.pos.ValidMoves() {
		if m.String() == uci {
			return true
		}
	}
	return false
}

// FEN returns the current position, or "" when nothing is loaded.
func (e *Engine) FEN() string {
	if e.pos == nil {
		return ""
	}
	return e.pos.String()
}

// Turn returns the side to move.
func (e *Engine) Turn() models.Side {
	if e.pos != nil && e.pos.Turn() == chess.Black {
		return models.Black
	}
	return models.White
}

// IsGameOver reports checkmate or stalemate in the current position.
func (e *Engine) IsGameOver() bool {
	return e.pos != nil && len(e.pos.ValidMoves()) == 0
}

// Undo restores the position before the last move. It reports false when
// there is nothing to undo.
func (e *Engine) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	last := len(e.history) - 1
	e.pos = e.history[last]
	e.history = e.history[:last]
	return true
}

// PieceAt returns the piece on square, or nil if it is empty.
func (e *Engine) PieceAt(square string) *models.Piece {
	if e.pos == nil || !models.ValidSquare(square) {
		return nil
	}
	sq := chess.NewSquare(chess.File(square[0]-'a'), chess.Rank(square[1]-'1'))
	p := e.pos.Board().Piece(sq)
	if p == chess.NoPiece {
		return nil
	}
	color := models.White
	if p.Color() == chess.Black {
		color = models.Black
	}
	return &models.Piece{Type: pieceCode(p.Type()), Color: color}
}

func pieceCode(t chess.PieceType) string {
	switch t {
	case chess.King:
		return models.PieceKing
	case chess.Queen:
		return models.PieceQueen
	case chess.Rook:
		return models.PieceRook
	case chess.Bishop:
		return models.PieceBishop
	case chess.Knight:
		return models.PieceKnight
	case chess.Pawn:
		return models.PiecePawn
	}
	return ""
}

// MoveToUCI converts a library move to coordinate notation such as "e7e8q".
func MoveToUCI(move *chess.Move) string {
	if move == nil {
		return ""
	}
	uci := squareName(move.S1()) + squareName(move.S2())
	switch move.Promo() {
	case chess.Queen:
		uci += models.PieceQueen
	case chess.Rook:
		uci += models.PieceRook
	case chess.Bishop:
		uci += models.PieceBishop
	case chess.Knight:
		uci += models.PieceKnight
	}
	return uci
}

func squareName(sq chess.Square) string {
	return fmt.Sprintf("%c%c", 'a'+rune(sq.File()), '1'+rune(sq.Rank()))
}
