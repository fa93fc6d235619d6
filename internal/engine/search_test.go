package engine

import (
	"context"
	"testing"
	"time"

	"lukechampine.com/frand"

	"github.com/hailam/chessthink/internal/board"
)

func newTestSearcher(pos Position) *searcher {
	tt := NewTranspositionTable(1<<16, false)
	return newSearcher(context.Background(), pos, tt, NewEvaluator(LayoutPacked), unlimited(), time.Hour, 20, nil)
}

// minimax is a full-width reference search with the same terminal rules as
// negamax but no pruning and no table. Leaves use quiescence with an open
// window, where the fail-hard bounds never bind.
func minimax(s *searcher, depth, ply int) int {
	pos := s.pos
	if ply > 0 && pos.IsRepeatedPosition() {
		return 0
	}
	if depth == 0 {
		return s.quiescence(-Infinity, Infinity)
	}
	if pos.IsCheckmate() {
		return -(MateScore - ply)
	}
	if pos.IsDraw() {
		return 0
	}
	if depth < s.extensionLimit && pos.InCheck() {
		depth++
	}
	best := -Infinity
	for _, m := range pos.LegalMoves() {
		pos.Apply(m)
		best = max(best, -minimax(s, depth-1, ply+1))
		pos.Undo(m)
	}
	return best
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
	}{
		{"open game", "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3", 2},
		{"rooks", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", 2},
		{"pawn endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 2},
		{"defended queen", "4k3/8/4p3/3q4/4P3/8/8/4K3 w - - 0 1", 3},
		{"mate threat", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			want := minimax(newTestSearcher(pos), tt.depth, 0)

			s := newTestSearcher(pos)
			_, got := s.negamax(tt.depth, 0, -Infinity, Infinity)
			if got != want {
				t.Errorf("negamax = %d, minimax = %d", got, want)
			}
			if pos.FEN() != mustFEN(t, tt.fen).FEN() {
				t.Errorf("position not restored: %s", pos.FEN())
			}
			t.Logf("depth %d score %d nodes %d qnodes %d", tt.depth, got, s.nodes, s.qnodes)
		})
	}
}

func TestAlphaBetaMatchesMinimaxRandomPositions(t *testing.T) {
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)

	for i := 0; i < 40; i++ {
		pos := board.NewPosition()
		plies := 8 + rng.Intn(24)
		for ply := 0; ply < plies; ply++ {
			moves := pos.LegalMoves()
			if len(moves) == 0 {
				break
			}
			pos.Apply(moves[rng.Intn(len(moves))])
		}
		if len(pos.LegalMoves()) == 0 {
			continue
		}
		fen := pos.FEN()

		for depth := 1; depth <= 2; depth++ {
			want := minimax(newTestSearcher(pos), depth, 0)
			_, got := newTestSearcher(pos).negamax(depth, 0, -Infinity, Infinity)
			if got != want {
				t.Errorf("%s depth %d: negamax = %d, minimax = %d", fen, depth, got, want)
			}
		}
		if pos.FEN() != fen {
			t.Fatalf("position not restored: %s, want %s", pos.FEN(), fen)
		}
	}
}

func TestQuiescenceNeverWorseThanStandPat(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"4k3/8/4p3/3q4/4P3/8/8/4K3 w - - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkb1r/pppp1ppp/5n2/4p3/2B1P3/8/PPPP1PPP/RNBQK1NR w KQkq - 2 3",
	}
	windows := [][2]int{{-Infinity, Infinity}, {-50, 50}, {-2000, -1000}, {1000, 2000}}

	for _, fen := range fens {
		pos := mustFEN(t, fen)
		s := newTestSearcher(pos)
		standPat := s.eval.Evaluate(pos)

		for _, w := range windows {
			alpha, beta := w[0], w[1]
			got := s.quiescence(alpha, beta)
			floor := min(max(alpha, standPat), beta)
			if got < floor {
				t.Errorf("%s window (%d,%d): quiescence %d below stand-pat bound %d", fen, alpha, beta, got, floor)
			}
			if got < alpha || got > beta {
				t.Errorf("%s window (%d,%d): fail-hard result %d outside window", fen, alpha, beta, got)
			}
		}
	}
}

func TestQuiescenceResolvesExchange(t *testing.T) {
	// The queen on d5 hangs to the pawn: stand pat is far below the capture.
	pos := mustFEN(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")
	s := newTestSearcher(pos)

	standPat := s.eval.Evaluate(pos)
	got := s.quiescence(-Infinity, Infinity)
	if got-standPat < 1500 {
		t.Errorf("quiescence %d, stand pat %d: capture of the queen not seen", got, standPat)
	}
}

func TestCheckmateScores(t *testing.T) {
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	s := newTestSearcher(pos)
	move, score := s.negamax(2, 0, -Infinity, Infinity)
	if move.String() != "a1a8" || score != MateScore-1 {
		t.Errorf("negamax = (%s, %d), want (a1a8, %d)", move, score, MateScore-1)
	}

	mated := mustFEN(t, "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1")
	s = newTestSearcher(mated)
	move, score = s.negamax(1, 0, -Infinity, Infinity)
	if move != board.NoMove || score != -MateScore {
		t.Errorf("mated side: negamax = (%s, %d), want (0000, %d)", move, score, -MateScore)
	}

	// Horizon: at depth 1 the mate is not visible yet.
	s = newTestSearcher(pos)
	_, score = s.negamax(1, 0, -Infinity, Infinity)
	if IsMateScore(score) {
		t.Errorf("depth 1 reported mate score %d", score)
	}
}

func TestRepeatedPositionScoresZero(t *testing.T) {
	pos := mustFEN(t, "7k/8/8/8/8/8/5Q2/6K1 w - - 0 1")
	if err := pos.Play("g1h1", "h8g8", "h1g1", "g8h8"); err != nil {
		t.Fatal(err)
	}
	s := newTestSearcher(pos)

	m := mustMove(t, pos, "g1h1")
	pos.Apply(m)
	move, score := s.negamax(2, 1, -Infinity, Infinity)
	pos.Undo(m)

	if move != board.NoMove || score != 0 {
		t.Errorf("repeated line: negamax = (%s, %d), want (0000, 0)", move, score)
	}

	// The root itself is a repetition, but the root is always searched.
	move, score = s.negamax(2, 0, -Infinity, Infinity)
	if move == board.NoMove || move.String() == "g1h1" || score < 1000 {
		t.Errorf("root: negamax = (%s, %d)", move, score)
	}
}

func TestTableShortCircuits(t *testing.T) {
	pos := board.NewPosition()
	s := newTestSearcher(pos)
	e4 := mustMove(t, pos, "e2e4")

	s.tt.Store(pos.Hash(), 5, 42, TTExact, e4)
	move, score := s.negamax(3, 0, -Infinity, Infinity)
	if move != e4 || score != 42 || s.nodes != 1 {
		t.Errorf("exact hit: (%s, %d) after %d nodes", move, score, s.nodes)
	}

	// Lower bound at or above beta closes the window.
	s = newTestSearcher(pos)
	s.tt.Store(pos.Hash(), 5, 300, TTLowerBound, e4)
	move, score = s.negamax(3, 0, -100, 100)
	if move != e4 || score != 300 {
		t.Errorf("lower bound cutoff: (%s, %d)", move, score)
	}

	// A shallower entry is not trusted but its move is searched first.
	s = newTestSearcher(pos)
	s.tt.Store(pos.Hash(), 1, 9999, TTExact, e4)
	_, score = s.negamax(2, 0, -Infinity, Infinity)
	if score == 9999 || s.nodes == 1 {
		t.Errorf("shallow entry trusted: score %d nodes %d", score, s.nodes)
	}
}

func TestSearchStoresBoundKinds(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")

	tests := []struct {
		name        string
		alpha, beta int
		want        TTFlag
	}{
		{"exact", -Infinity, Infinity, TTExact},
		{"fail high", -Infinity, -500, TTLowerBound},
		{"fail low", 5000, 6000, TTUpperBound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSearcher(pos)
			s.negamax(2, 0, tt.alpha, tt.beta)
			entry, ok := s.tt.Probe(pos.Hash())
			if !ok {
				t.Fatal("root result not stored")
			}
			if entry.Flag != tt.want || entry.Depth != 2 {
				t.Errorf("stored %v at depth %d, want %v at depth 2", entry.Flag, entry.Depth, tt.want)
			}
		})
	}
}

func TestCheckExtension(t *testing.T) {
	// Black is in check; the root node searches one ply deeper.
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4R1K1 b - - 0 1")
	s := newTestSearcher(pos)
	s.negamax(1, 0, -Infinity, Infinity)

	entry, ok := s.tt.Probe(pos.Hash())
	if !ok || entry.Depth != 2 {
		t.Errorf("in-check root stored at depth %d, want 2", entry.Depth)
	}

	s = newTestSearcher(pos)
	s.extensionLimit = 1
	s.negamax(1, 0, -Infinity, Infinity)
	entry, _ = s.tt.Probe(pos.Hash())
	if entry.Depth != 1 {
		t.Errorf("extension above ceiling: stored depth %d, want 1", entry.Depth)
	}
}

func TestSearchStopsWhenOutOfTime(t *testing.T) {
	pos := board.NewPosition()
	clock := &fakeTimer{remaining: time.Minute}
	s := newSearcher(context.Background(), pos, NewTranspositionTable(1<<12, false), NewEvaluator(LayoutPacked), clock, time.Second, 20, nil)

	clock.elapsed = 2 * time.Second
	move, _, aborted := s.search(3, -Infinity, Infinity)
	if !aborted {
		t.Error("iteration past the allowance not reported as aborted")
	}
	if move == board.NoMove {
		t.Error("partial iteration returned no move")
	}
	// Each node stops after its first child: one node per ply plus the leaf.
	if s.nodes > 4 {
		t.Errorf("searched %d nodes after the budget was spent", s.nodes)
	}
}
