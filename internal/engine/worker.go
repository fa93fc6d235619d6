package engine

import (
	"github.com/hailam/chessthink/internal/board"
)

// negamax searches the position to depth plies and returns the best move
// with its score from the side to move's point of view. The move is NoMove
// when the node was resolved without expanding children.
func (s *searcher) negamax(depth, ply, alpha, beta int) (board.Move, int) {
	s.nodes++
	pos := s.pos

	if ply > 0 && pos.IsRepeatedPosition() {
		return board.NoMove, 0
	}

	originalAlpha, originalBeta := alpha, beta
	hash := pos.Hash()
	ttMove := board.NoMove

	if entry, ok := s.tt.Probe(hash); ok {
		if int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag {
			case TTExact:
				return entry.BestMove, score
			case TTLowerBound:
				alpha = max(alpha, score)
			case TTUpperBound:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return entry.BestMove, score
			}
		}
		ttMove = entry.BestMove
	}

	if depth <= 0 {
		return board.NoMove, s.quiescence(alpha, beta)
	}

	if pos.IsCheckmate() {
		return board.NoMove, -(MateScore - ply)
	}
	if pos.IsDraw() {
		return board.NoMove, 0
	}

	// Check extension
	if depth < s.extensionLimit && pos.InCheck() {
		depth++
	}

	moves := pos.LegalMoves()
	OrderMoves(pos, moves, ttMove)

	bestMove, bestScore := board.NoMove, -Infinity
	for i, m := range moves {
		pos.Apply(m)
		_, score := s.negamax(depth-1, ply+1, -beta, -alpha)
		score = -score
		pos.Undo(m)

		if i == 0 || score > bestScore {
			bestMove, bestScore = m, score
		}
		alpha = max(alpha, bestScore)

		if s.outOfTime() {
			break
		}
		if alpha >= beta {
			break
		}
	}

	flag := TTExact
	if bestScore <= originalAlpha {
		flag = TTUpperBound
	} else if bestScore >= originalBeta {
		flag = TTLowerBound
	}
	s.tt.Store(hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)

	return bestMove, bestScore
}

// quiescence resolves captures until the position is quiet. It is
// fail-hard: the result always lies within [alpha, beta].
func (s *searcher) quiescence(alpha, beta int) int {
	s.qnodes++
	pos := s.pos

	standPat := s.eval.Evaluate(pos)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	captures := pos.Captures()
	OrderMoves(pos, captures, board.NoMove)

	for _, m := range captures {
		pos.Apply(m)
		score := -s.quiescence(-beta, -alpha)
		pos.Undo(m)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
