package engine

import (
	"math/bits"

	"github.com/hailam/chessthink/internal/board"
)

// Material values indexed by piece type. The king carries a value only so
// that captures of it rank sensibly during move ordering.
var pieceValues = [board.PieceTypeCount]int{0, 100, 320, 330, 500, 900, 1000}

// Material counts twice as much as the positional bonus.
const materialWeight = 2

// PieceValue returns the material value of a piece type.
func PieceValue(pt board.PieceType) int {
	return pieceValues[pt]
}

// Evaluator scores positions by material and piece-square tables.
// It holds no mutable state.
type Evaluator struct {
	tables *PieceSquareTables
}

// NewEvaluator returns an evaluator reading the tables for layout.
func NewEvaluator(layout TableLayout) *Evaluator {
	return &Evaluator{tables: Tables(layout)}
}

// Evaluate returns the score from the point of view of the side to move.
func (e *Evaluator) Evaluate(pos Position) int {
	return e.EvaluateFor(pos, pos.SideToMove())
}

// EvaluateFor returns the score from the point of view of perspective.
// Every piece contributes its weighted material plus its positional bonus,
// positive for perspective's pieces and negative for the opponent's, so
// EvaluateFor(pos, White) == -EvaluateFor(pos, Black).
func (e *Evaluator) EvaluateFor(pos Position, perspective board.Color) int {
	score := 0
	for _, c := range [2]board.Color{board.White, board.Black} {
		sign := 1
		if c != perspective {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			for bb := pos.Pieces(pt, c); bb != 0; bb &= bb - 1 {
				sq := board.Square(bits.TrailingZeros64(bb))
				score += sign * (materialWeight*pieceValues[pt] + e.tables.Value(pt, sq, c))
			}
		}
	}
	return score
}
