package engine

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chessthink/internal/board"
)

// SearchInfo describes a completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Move     board.Move
	Nodes    uint64
	QNodes   uint64
	Time     time.Duration
	HashFull int     // Permille of hash table used
	HitRate  float64 // Transposition table hit rate in percent
}

// Decision is the record of one Think call.
type Decision struct {
	ID        uuid.UUID     `json:"id"`
	Hash      uint64        `json:"hash"`
	FEN       string        `json:"fen"`
	Move      string        `json:"move"`
	Score     int           `json:"score"`
	Depth     int           `json:"depth"`
	Nodes     uint64        `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	Allowance time.Duration `json:"allowance"`
	At        time.Time     `json:"at"`
}

// Recorder receives a Decision after every move choice.
type Recorder interface {
	RecordDecision(d Decision) error
}

// rootSearcher runs single iterations for the deepening loop.
type rootSearcher interface {
	search(depth, alpha, beta int) (board.Move, int, bool)
	stats() (nodes, qnodes uint64)
}

// Engine chooses moves by iterative deepening under a time budget. The
// transposition table is kept between decisions until Clear is called.
// An Engine searches one position at a time.
type Engine struct {
	opts Options
	tt   *TranspositionTable
	eval *Evaluator
	tm   *TimeManager
	log  zerolog.Logger
	stop atomic.Bool

	// Callbacks
	OnInfo   func(SearchInfo)
	Recorder Recorder
}

// NewEngine creates an engine. Zero option fields take their defaults.
func NewEngine(opts Options) *Engine {
	opts = opts.Normalize()
	return &Engine{
		opts: opts,
		tt:   NewTranspositionTable(opts.TableSlots, opts.VerifyKeys),
		eval: NewEvaluator(opts.TableLayout),
		tm:   NewTimeManager(opts),
		log:  opts.Logger,
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Think returns the move to play in pos given the mover's clock. pos must
// have at least one legal move; it is mutated during the search and
// restored before Think returns.
func (e *Engine) Think(ctx context.Context, pos Position, clock Timer) board.Move {
	e.stop.Store(false)

	legal := pos.LegalMoves()
	if len(legal) == 0 {
		return board.NoMove
	}

	allowance := e.tm.Allowance(clock.Remaining())
	s := newSearcher(ctx, pos, e.tt, e.eval, clock, allowance, e.opts.CheckExtensionCeiling, &e.stop)

	move, score, depth := e.deepen(s, legal, clock, allowance)
	nodes, qnodes := s.stats()
	elapsed := clock.ElapsedThisTurn()

	e.log.Info().
		Str("move", move.String()).
		Int("score", score).
		Int("depth", depth).
		Uint64("nodes", nodes).
		Uint64("qnodes", qnodes).
		Dur("elapsed", elapsed).
		Dur("allowance", allowance).
		Msg("move chosen")

	if e.Recorder != nil {
		d := Decision{
			ID:        uuid.New(),
			Hash:      pos.Hash(),
			FEN:       pos.FEN(),
			Move:      move.String(),
			Score:     score,
			Depth:     depth,
			Nodes:     nodes + qnodes,
			Elapsed:   elapsed,
			Allowance: allowance,
			At:        time.Now(),
		}
		if err := e.Recorder.RecordDecision(d); err != nil {
			e.log.Warn().Err(err).Msg("record decision")
		}
	}

	return move
}

// deepen runs iterations of increasing depth while time remains and returns
// the last accepted move, its score and depth. If no iteration completes the
// first legal move is returned with depth 0.
func (e *Engine) deepen(rs rootSearcher, legal []board.Move, clock Timer, allowance time.Duration) (board.Move, int, int) {
	bestMove, bestScore, completed := legal[0], 0, 0
	alpha, beta := -Infinity, Infinity
	window := e.opts.AspirationWindow

	for depth := 1; depth < e.opts.MaxDepth && clock.ElapsedThisTurn() < allowance; {
		move, score, aborted := rs.search(depth, alpha, beta)
		if aborted {
			e.log.Debug().Int("depth", depth).Msg("iteration out of time, discarded")
			break
		}

		fullWindow := alpha == -Infinity && beta == Infinity
		if !fullWindow && (score <= alpha || score >= beta) {
			e.log.Debug().
				Int("depth", depth).
				Int("alpha", alpha).
				Int("beta", beta).
				Int("score", score).
				Msg("aspiration window failed")
			alpha, beta = -Infinity, Infinity
			continue
		}

		// A colliding table entry can hand back a move from another position.
		if slices.Contains(legal, move) {
			bestMove, bestScore, completed = move, score, depth
		} else {
			e.log.Debug().Int("depth", depth).Str("move", move.String()).Msg("ignoring illegal root move")
		}
		alpha, beta = score-window, score+window

		nodes, qnodes := rs.stats()
		e.log.Debug().
			Int("depth", depth).
			Int("score", score).
			Str("move", move.String()).
			Uint64("nodes", nodes).
			Uint64("qnodes", qnodes).
			Float64("tt_hit_rate", e.tt.HitRate()).
			Dur("elapsed", clock.ElapsedThisTurn()).
			Msg("iteration complete")

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Move:     bestMove,
				Nodes:    nodes,
				QNodes:   qnodes,
				Time:     clock.ElapsedThisTurn(),
				HashFull: e.tt.HashFull(),
				HitRate:  e.tt.HitRate(),
			})
		}

		depth++
	}

	return bestMove, bestScore, completed
}

// Stop asks a running Think to return as soon as possible.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Clear clears the transposition table.
func (e *Engine) Clear() {
	e.tt.Clear()
}

// Table returns the engine's transposition table.
func (e *Engine) Table() *TranspositionTable {
	return e.tt
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos Position) int {
	return e.eval.Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if IsMateScore(score) {
		if score > 0 {
			return fmt.Sprintf("Mate in %d", (MateScore-score+1)/2)
		}
		return fmt.Sprintf("Mated in %d", (MateScore+score+1)/2)
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
