package board

import (
	"testing"

	"github.com/pkg/errors"
	"lukechampine.com/frand"
)

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func perft(pos *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		pos.Apply(m)
		nodes += perft(pos, depth-1)
		pos.Undo(m)
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		nodes uint64
	}{
		{"startpos", StartFEN, 3, 8902},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 2039},
		{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			if got := perft(pos, tt.depth); got != tt.nodes {
				t.Errorf("perft(%d) = %d, want %d", tt.depth, got, tt.nodes)
			}
		})
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"8/8/8/8/8/8/8/8 w - -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq -",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -3 1",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); err == nil {
			t.Errorf("ParseFEN(%q) succeeded, want error", fen)
		}
	}

	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4K3 b - -")
	if pos.SideToMove() != Black {
		t.Errorf("side to move = %v, want black", pos.SideToMove())
	}
}

func TestApplyUndoRestoresState(t *testing.T) {
	for game := 0; game < 20; game++ {
		pos := NewPosition()
		fen, hash := pos.FEN(), pos.Hash()

		var played []Move
		for ply := 0; ply < 60; ply++ {
			moves := pos.LegalMoves()
			if len(moves) == 0 {
				break
			}
			m := moves[frand.Intn(len(moves))]
			pos.Apply(m)
			played = append(played, m)
		}
		for i := len(played) - 1; i >= 0; i-- {
			pos.Undo(played[i])
		}

		if pos.FEN() != fen || pos.Hash() != hash {
			t.Fatalf("game %d: state not restored: %s", game, pos.FEN())
		}
		if pos.Ply() != 0 {
			t.Fatalf("game %d: ply = %d after undoing everything", game, pos.Ply())
		}
	}
}

func TestUndoOutOfOrderPanics(t *testing.T) {
	pos := NewPosition()
	if err := pos.Play("e2e4", "e7e5"); err != nil {
		t.Fatal(err)
	}
	first, _ := ParseFEN(StartFEN)
	m, err := first.ParseMove("e2e4")
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic when undoing a move that is not on top")
		}
	}()
	pos.Undo(m)
}

func TestParseMove(t *testing.T) {
	pos := mustFEN(t, "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")

	m, err := pos.ParseMove("b7b8q")
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsPromotion() || m.IsCapture() {
		t.Errorf("b7b8q flags: promotion=%v capture=%v", m.IsPromotion(), m.IsCapture())
	}
	if m.String() != "b7b8q" {
		t.Errorf("String() = %s", m.String())
	}

	pos.Apply(m)
	if got := pos.PieceAt(m.To()); got != (Piece{Type: Queen, Color: White}) {
		t.Errorf("piece on b8 = %+v", got)
	}
	pos.Undo(m)

	if _, err := pos.ParseMove("e1e3"); errors.Cause(err) != ErrIllegalMove {
		t.Errorf("ParseMove(e1e3) err = %v, want ErrIllegalMove", err)
	}
}

func TestCaptureFlags(t *testing.T) {
	// White can capture en passant on d6 and take the rook on h8 with a promotion.
	pos := mustFEN(t, "4k2r/6P1/8/3pP3/8/8/8/4K3 w - d6 0 1")
	want := map[string]bool{
		"e5d6":  true,
		"g7h8q": true,
		"g7g8q": false,
		"e5e6":  false,
	}
	for uci, capture := range want {
		m, err := pos.ParseMove(uci)
		if err != nil {
			t.Fatalf("%s: %v", uci, err)
		}
		if m.IsCapture() != capture {
			t.Errorf("%s: IsCapture = %v, want %v", uci, m.IsCapture(), capture)
		}
	}

	for _, m := range pos.Captures() {
		if !m.IsCapture() {
			t.Errorf("Captures returned quiet move %v", m)
		}
	}
	if n := len(pos.Captures()); n != 5 {
		t.Errorf("len(Captures) = %d, want 5 (ep + four promotions on h8)", n)
	}
}

func TestSquareAttacks(t *testing.T) {
	// Black queen d5 is defended by the e6 pawn; the a5 rook is not defended.
	pos := mustFEN(t, "4k3/8/4p3/r2q4/4P3/8/8/4K3 w - - 0 1")
	tests := []struct {
		sq   string
		want bool
	}{
		{"d5", true},  // pawn e6
		{"a5", true},  // queen d5 along the rank
		{"h1", false}, // diagonal blocked by the e4 pawn
		{"a2", true},  // queen diagonal d5-a2
		{"e4", true},  // queen d5
		{"b1", false},
		{"f7", true},  // king e8
	}
	for _, tt := range tests {
		sq, _ := ParseSquare(tt.sq)
		if got := pos.IsSquareAttackedByOpponent(sq); got != tt.want {
			t.Errorf("%s attacked = %v, want %v", tt.sq, got, tt.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		checkmate bool
		stalemate bool
		draw      bool
	}{
		{"back rank mate", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", true, false, false},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true, true},
		{"bare kings", "8/8/4k3/8/8/4K3/8/8 w - - 0 1", false, false, true},
		{"knight only", "8/8/4k3/8/8/4K3/8/6N1 w - - 0 1", false, false, true},
		{"same colored bishops", "8/8/2b1k3/8/8/4K3/8/5B2 w - - 0 1", false, false, true},
		{"opposite colored bishops", "8/8/3bk3/8/8/4K3/8/5B2 w - - 0 1", false, false, false},
		{"fifty moves", "8/8/4k3/8/8/4K3/8/R7 w - - 100 80", false, false, true},
		{"normal", StartFEN, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			if got := pos.IsCheckmate(); got != tt.checkmate {
				t.Errorf("IsCheckmate = %v", got)
			}
			if got := pos.IsStalemate(); got != tt.stalemate {
				t.Errorf("IsStalemate = %v", got)
			}
			if got := pos.IsDraw(); got != tt.draw {
				t.Errorf("IsDraw = %v", got)
			}
		})
	}
}

func TestRepetition(t *testing.T) {
	pos := mustFEN(t, "7k/8/8/8/8/8/5Q2/6K1 w - - 0 1")
	if pos.IsRepeatedPosition() {
		t.Fatal("fresh position reported as repeated")
	}

	if err := pos.Play("g1h1", "h8g8", "h1g1", "g8h8"); err != nil {
		t.Fatal(err)
	}
	if !pos.IsRepeatedPosition() {
		t.Error("position after a knight dance should be repeated")
	}
	if pos.IsThreefoldRepetition() || pos.IsDraw() {
		t.Error("second occurrence is not yet a threefold repetition")
	}

	if err := pos.Play("g1h1", "h8g8", "h1g1", "g8h8"); err != nil {
		t.Fatal(err)
	}
	if !pos.IsThreefoldRepetition() || !pos.IsDraw() {
		t.Error("third occurrence should be a draw")
	}

	// A pawn move resets the window.
	pos = mustFEN(t, "7k/8/8/8/8/8/4PQ2/6K1 w - - 0 1")
	if err := pos.Play("g1h1", "h8g8", "e2e3", "g8h8", "h1g1", "h8g8", "g1h1", "g8h8"); err != nil {
		t.Fatal(err)
	}
	if !pos.IsRepeatedPosition() {
		t.Error("repetition after the pawn move not detected")
	}
	if pos.HalfMoveClock() != 5 {
		t.Errorf("half-move clock = %d, want 5", pos.HalfMoveClock())
	}
}

func TestSquareHelpers(t *testing.T) {
	sq, err := ParseSquare("e4")
	if err != nil {
		t.Fatal(err)
	}
	if sq.File() != 4 || sq.Rank() != 3 || sq.String() != "e4" {
		t.Errorf("e4 decoded as file %d rank %d (%s)", sq.File(), sq.Rank(), sq)
	}
	if sq.Mirror().String() != "e5" {
		t.Errorf("mirror of e4 = %s", sq.Mirror())
	}
	if _, err := ParseSquare("i9"); err == nil {
		t.Error("ParseSquare(i9) succeeded")
	}
}
