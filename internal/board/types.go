// Package board implements the position oracle used by the search engine:
// rules, move generation, make/unmake and position fingerprints. Move
// generation is delegated to dragontoothmg; this package adds the history
// bookkeeping (repetitions, fifty-move clock) and the queries the engine needs.
package board

import (
	"github.com/pkg/errors"
)

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType identifies a kind of piece. The numbering matches the
// evaluation tables: index 0 is the empty placeholder.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// PieceTypeCount is the number of piece types including NoPieceType.
const PieceTypeCount = 7

var pieceChars = [PieceTypeCount]byte{'.', 'p', 'n', 'b', 'r', 'q', 'k'}

// Char returns the lowercase letter used in FEN and UCI for the piece type.
func (pt PieceType) Char() byte {
	if int(pt) >= PieceTypeCount {
		return '?'
	}
	return pieceChars[pt]
}

// Piece is a piece type together with its color.
type Piece struct {
	Type  PieceType
	Color Color
}

// NoPiece is returned for empty squares.
var NoPiece = Piece{}

// IsEmpty reports whether the piece describes an empty square.
func (p Piece) IsEmpty() bool {
	return p.Type == NoPieceType
}

// Square indexes the board from a1 = 0 to h8 = 63, rank by rank.
type Square uint8

const (
	A1 Square = 0
	H1 Square = 7
	A8 Square = 56
	H8 Square = 63

	NoSquare Square = 64
)

// NewSquare builds a square from zero based file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// File returns the zero based file (0 = a).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the zero based rank (0 = first rank).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// Mirror reflects the square top to bottom (a1 <-> a8).
func (sq Square) Mirror() Square {
	return sq ^ 56
}

func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, errors.Errorf("invalid square %q", s)
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, errors.Errorf("invalid square %q", s)
	}
	return NewSquare(file, rank), nil
}
