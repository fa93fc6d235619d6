package board

import (
	dragon "github.com/dylhunn/dragontoothmg"
)

// Move wraps a generator move with flags computed when it was generated:
// bits 0-15:  dragontoothmg move encoding
// bit 16:     capture (including en passant)
// bit 17:     promotion
//
// The promoted-to piece is deliberately not exposed; callers observe it by
// applying the move and looking at the destination square.
type Move uint32

const (
	moveMask      Move = 0xFFFF
	flagCapture   Move = 1 << 16
	flagPromotion Move = 1 << 17
)

// NoMove represents the absence of a move.
const NoMove Move = 0

func newMove(dm dragon.Move, capture bool) Move {
	m := Move(dm) & moveMask
	if capture {
		m |= flagCapture
	}
	if dm.Promote() != dragon.Nothing {
		m |= flagPromotion
	}
	return m
}

func (m Move) raw() dragon.Move {
	return dragon.Move(m & moveMask)
}

// From returns the origin square.
func (m Move) From() Square {
	dm := m.raw()
	return Square(dm.From())
}

// To returns the destination square.
func (m Move) To() Square {
	dm := m.raw()
	return Square(dm.To())
}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m&flagCapture != 0
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m&flagPromotion != 0
}

// String returns the move in UCI notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		dm := m.raw()
		s += string(PieceType(dm.Promote()).Char())
	}
	return s
}
