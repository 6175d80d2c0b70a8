package models

// Piece type codes, lowercase as in move notation.
const (
	PieceKing   = "k"
	PieceQueen  = "q"
	PieceRook   = "r"
	PieceBishop = "b"
	PieceKnight = "n"
	PiecePawn   = "p"
)

// Piece is an occupied square's content.
type Piece struct {
	Type  string `json:"type"`
	Color Side   `json:"color"`
}

// MoveRecord describes a move the rules engine accepted.
type MoveRecord struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	Piece     string `json:"piece"`
	Captured  string `json:"captured,omitempty"`
	Color     Side   `json:"color"`
}

// Notation returns the coordinate notation, with promotion only when one occurred.
func (r MoveRecord) Notation() string {
	return r.From + r.To + r.Promotion
}

// PieceName returns a readable name for a piece type code.
func PieceName(code string) string {
	switch code {
	case PieceKing:
		return "king"
	case PieceQueen:
		return "queen"
	case PieceRook:
		return "rook"
	case PieceBishop:
		return "bishop"
	case PieceKnight:
		return "knight"
	case PiecePawn:
		return "pawn"
	}
	return "piece"
}
