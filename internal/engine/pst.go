package engine

import (
	"github.com/pkg/errors"

	"github.com/hailam/chessthink/internal/board"
)

// TableLayout selects how the packed positional words are decoded.
type TableLayout int

const (
	// LayoutPacked reads one word per piece type with the 7-bit field for
	// square i at bit offset i*7. Offsets past 63 wrap modulo 64, so only the
	// first squares of each table carry their intended value; the remaining
	// squares reproduce the wrapped reads exactly.
	LayoutPacked TableLayout = iota
	// LayoutSquareMajor reads one word per square (authored from a8 to h1)
	// holding one 7-bit field per piece type, pawn first. This recovers the
	// full tables the words were generated from.
	LayoutSquareMajor
)

func (l TableLayout) String() string {
	switch l {
	case LayoutPacked:
		return "packed"
	case LayoutSquareMajor:
		return "square-major"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (l TableLayout) MarshalText() ([]byte, error) {
	if l != LayoutPacked && l != LayoutSquareMajor {
		return nil, errors.Errorf("unknown table layout %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *TableLayout) UnmarshalText(text []byte) error {
	switch string(text) {
	case "packed", "":
		*l = LayoutPacked
	case "square-major":
		*l = LayoutSquareMajor
	default:
		return errors.Errorf("unknown table layout %q", text)
	}
	return nil
}

const (
	pstFieldBits = 7
	pstFieldMask = 1<<pstFieldBits - 1
	pstOffset    = 50
)

// packedTables holds the positional values, each stored as value+50 in a
// 7-bit field.
var packedTables = [64]uint64{
	695353180210, 354440316210, 354440317490, 12185111090, 12185111090, 354440317490, 354440316210, 695353180210,
	698048185700, 357145808740, 357145811300, 13548427620, 13548427620, 357145811300, 357145808740, 698048185700,
	698027215420, 357124839740, 358467100230, 14869799120, 14869799120, 358467100230, 357124839740, 698027215420,
	699369392695, 357124922295, 358467100860, 14869799755, 14869799755, 358467100860, 357124922295, 699369392695,
	1044308953650, 700722223410, 702064566450, 358467183430, 358467183430, 702064566450, 700722223410, 1042966776370,
	1385221982775, 1045661948845, 1045661949480, 1045661950130, 1045661950130, 1045661949480, 1044319771565, 1385221982775,
	2416014132535, 2418709221180, 1732856551740, 1731514375070, 1731514375070, 1731514374460, 2418709221180, 2416014132535,
	2413340098610, 2759622001970, 2072427235890, 1730182515250, 1730182515250, 2072427235890, 2759622001970, 2413340098610,
}

// PieceSquareTables maps piece type and square (a1 = 0, white's point of
// view) to a positional bonus.
type PieceSquareTables [board.PieceTypeCount][64]int

func field(w uint64, index int) int {
	// Shift counts are taken modulo the word width.
	shift := uint(index*pstFieldBits) & 63
	return int((w>>shift)&pstFieldMask) - pstOffset
}

// DecodeTables expands packed words into lookup tables.
func DecodeTables(words []uint64, layout TableLayout) PieceSquareTables {
	var t PieceSquareTables
	switch layout {
	case LayoutSquareMajor:
		for pt := board.Pawn; pt <= board.King; pt++ {
			for sq := 0; sq < 64; sq++ {
				t[pt][sq] = field(words[sq^56], int(pt)-1)
			}
		}
	default:
		for pt := 0; pt < board.PieceTypeCount; pt++ {
			for sq := 0; sq < 64; sq++ {
				t[pt][sq] = field(words[pt], sq)
			}
		}
	}
	return t
}

// Decoded once at startup and never written afterwards.
var decodedTables = [...]PieceSquareTables{
	LayoutPacked:      DecodeTables(packedTables[:], LayoutPacked),
	LayoutSquareMajor: DecodeTables(packedTables[:], LayoutSquareMajor),
}

// Tables returns the shared read-only tables for a layout.
func Tables(layout TableLayout) *PieceSquareTables {
	if layout != LayoutSquareMajor {
		layout = LayoutPacked
	}
	return &decodedTables[layout]
}

// Value returns the positional bonus of a piece of color c on sq. Black
// pieces read the table mirrored top to bottom.
func (t *PieceSquareTables) Value(pt board.PieceType, sq board.Square, c board.Color) int {
	if c == board.Black {
		sq = sq.Mirror()
	}
	return t[pt][sq]
}
