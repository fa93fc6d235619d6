package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hailam/chessthink/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// searcher carries the state of one decision through the recursion: the
// position being searched, the shared table, and the budget that is polled
// between sibling moves.
type searcher struct {
	pos   Position
	tt    *TranspositionTable
	eval  *Evaluator
	clock Timer
	ctx   context.Context
	stop  *atomic.Bool

	allowance      time.Duration
	extensionLimit int

	nodes   uint64
	qnodes  uint64
	aborted bool
}

func newSearcher(ctx context.Context, pos Position, tt *TranspositionTable, eval *Evaluator, clock Timer, allowance time.Duration, extensionLimit int, stop *atomic.Bool) *searcher {
	if stop == nil {
		stop = new(atomic.Bool)
	}
	return &searcher{
		pos:            pos,
		tt:             tt,
		eval:           eval,
		clock:          clock,
		ctx:            ctx,
		stop:           stop,
		allowance:      allowance,
		extensionLimit: extensionLimit,
	}
}

// outOfTime reports whether the decision budget is spent or the search was
// cancelled. Once it returns true it keeps doing so until the next
// iteration starts.
func (s *searcher) outOfTime() bool {
	if s.aborted {
		return true
	}
	if s.clock.ElapsedThisTurn() > s.allowance || s.stop.Load() || s.ctx.Err() != nil {
		s.aborted = true
	}
	return s.aborted
}

// search runs one root iteration. The third result reports whether the
// iteration was cut short, in which case its result must not be trusted.
func (s *searcher) search(depth, alpha, beta int) (board.Move, int, bool) {
	s.aborted = false
	move, score := s.negamax(depth, 0, alpha, beta)
	return move, score, s.aborted
}

func (s *searcher) stats() (nodes, qnodes uint64) {
	return s.nodes, s.qnodes
}
