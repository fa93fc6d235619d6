package engine

import (
	"math"

	"github.com/hailam/chessthink/internal/board"
)

// Move ordering priorities
const (
	// FirstMovePriority is given to the transposition-table move.
	FirstMovePriority = math.MaxInt32
	// Bonus for capturing on a square the opponent does not defend, and the
	// matching penalty when it does.
	captureSafetyBonus = 100
	// Multiplier applied to the victim's value (MVV-LVA).
	victimWeight = 10
)

// MovePriority returns the ordering score of m. first, when not NoMove, is
// searched before everything else. Promotions are scored by applying the
// move and reading the promoted piece from the destination square, so pos
// is briefly mutated and then restored.
func MovePriority(pos Position, m, first board.Move) int {
	if first != board.NoMove && m == first {
		return FirstMovePriority
	}

	score := 0
	if m.IsCapture() {
		victim := pos.PieceAt(m.To()).Type
		if victim == board.NoPieceType {
			victim = board.Pawn // en passant
		}
		attacker := pos.PieceAt(m.From()).Type
		score = victimWeight*pieceValues[victim] - pieceValues[attacker]
		if pos.IsSquareAttackedByOpponent(m.To()) {
			score -= captureSafetyBonus
		} else {
			score += captureSafetyBonus
		}
	}

	if m.IsPromotion() {
		pos.Apply(m)
		score += pieceValues[pos.PieceAt(m.To()).Type]
		pos.Undo(m)
	}

	return score
}

// ScoreMoves returns the priority of each move.
func ScoreMoves(pos Position, moves []board.Move, first board.Move) []int {
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = MovePriority(pos, m, first)
	}
	return scores
}

// SortMoves orders moves by descending score. Equal scores keep their
// generation order.
func SortMoves(moves []board.Move, scores []int) {
	for i := 1; i < len(moves); i++ {
		m, s := moves[i], scores[i]
		j := i - 1
		for ; j >= 0 && scores[j] < s; j-- {
			moves[j+1], scores[j+1] = moves[j], scores[j]
		}
		moves[j+1], scores[j+1] = m, s
	}
}

// OrderMoves sorts moves in place for search.
func OrderMoves(pos Position, moves []board.Move, first board.Move) {
	SortMoves(moves, ScoreMoves(pos, moves, first))
}
