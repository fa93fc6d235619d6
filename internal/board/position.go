package board

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/pkg/errors"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrIllegalMove is returned when a move string does not match a legal move.
var ErrIllegalMove = errors.New("illegal move")

type frame struct {
	move    Move
	unapply func()
}

// Position is a mutable game state. Moves are applied and undone in strict
// LIFO order; the position remembers every fingerprint reached since it was
// created so that repetitions across game history and search are detected.
type Position struct {
	b      dragon.Board
	frames []frame
	hashes []uint64 // hashes[i] is the fingerprint after i applied moves
	clocks []int    // half-move clock aligned with hashes

	legal      []Move
	legalHash  uint64
	legalPly   int
	legalValid bool
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// ParseFEN builds a position from Forsyth-Edwards Notation. The move
// counters are optional, which allows EPD records to be parsed as well.
func ParseFEN(fen string) (pos *Position, err error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, errors.Errorf("fen %q: expected at least 4 fields, got %d", fen, len(fields))
	}
	if err := validatePlacement(fields[0]); err != nil {
		return nil, errors.Wrapf(err, "fen %q", fen)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, errors.Errorf("fen %q: invalid side to move %q", fen, fields[1])
	}

	clock := 0
	if len(fields) >= 5 {
		clock, err = strconv.Atoi(fields[4])
		if err != nil || clock < 0 {
			return nil, errors.Errorf("fen %q: invalid half-move clock %q", fen, fields[4])
		}
	}
	fullmove := "1"
	if len(fields) >= 6 {
		fullmove = fields[5]
	}
	normalized := strings.Join([]string{fields[0], fields[1], fields[2], fields[3], strconv.Itoa(clock), fullmove}, " ")

	defer func() {
		if r := recover(); r != nil {
			pos, err = nil, errors.Errorf("fen %q: %v", fen, r)
		}
	}()

	pos = &Position{b: dragon.ParseFen(normalized)}
	pos.hashes = append(pos.hashes, pos.b.Hash())
	pos.clocks = append(pos.clocks, clock)
	return pos, nil
}

func validatePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return errors.Errorf("expected 8 ranks, got %d", len(ranks))
	}
	kings := map[rune]int{}
	for i, rank := range ranks {
		width := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				width += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				width++
				if c == 'k' || c == 'K' {
					kings[c]++
				}
			default:
				return errors.Errorf("rank %d: unexpected %q", 8-i, c)
			}
		}
		if width != 8 {
			return errors.Errorf("rank %d: %d files", 8-i, width)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return errors.New("each side needs exactly one king")
	}
	return nil
}

// FEN returns the position in Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	return p.b.ToFen()
}

// Hash returns the 64-bit position fingerprint.
func (p *Position) Hash() uint64 {
	return p.hashes[len(p.hashes)-1]
}

// SideToMove returns the color whose turn it is.
func (p *Position) SideToMove() Color {
	if p.b.Wtomove {
		return White
	}
	return Black
}

// Ply returns the number of moves applied since the position was created.
func (p *Position) Ply() int {
	return len(p.frames)
}

// HalfMoveClock returns the number of plies since the last capture or pawn move.
func (p *Position) HalfMoveClock() int {
	return p.clocks[len(p.clocks)-1]
}

func (p *Position) side(c Color) *dragon.Bitboards {
	if c == White {
		return &p.b.White
	}
	return &p.b.Black
}

func (p *Position) occupancy() uint64 {
	return p.b.White.All | p.b.Black.All
}

// Pieces returns the bitboard of pieces of the given type and color.
func (p *Position) Pieces(pt PieceType, c Color) uint64 {
	bb := p.side(c)
	switch pt {
	case Pawn:
		return bb.Pawns
	case Knight:
		return bb.Knights
	case Bishop:
		return bb.Bishops
	case Rook:
		return bb.Rooks
	case Queen:
		return bb.Queens
	case King:
		return bb.Kings
	}
	return 0
}

// PieceAt returns the piece on sq, or NoPiece if the square is empty.
func (p *Position) PieceAt(sq Square) Piece {
	mask := uint64(1) << sq
	if p.occupancy()&mask == 0 {
		return NoPiece
	}
	c := White
	if p.b.Black.All&mask != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces(pt, c)&mask != 0 {
			return Piece{Type: pt, Color: c}
		}
	}
	return NoPiece
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.b.OurKingInCheck()
}

// IsSquareAttackedByOpponent reports whether the side not to move attacks sq.
func (p *Position) IsSquareAttackedByOpponent(sq Square) bool {
	them := p.SideToMove().Other()
	return attackedBy(sq, them, p.side(them), p.occupancy())
}

func (p *Position) legalMoves() []Move {
	hash, ply := p.Hash(), len(p.frames)
	if p.legalValid && p.legalHash == hash && p.legalPly == ply {
		return p.legal
	}

	us := p.side(p.SideToMove())
	them := p.side(p.SideToMove().Other())
	generated := p.b.GenerateLegalMoves()
	moves := make([]Move, 0, len(generated))
	for _, dm := range generated {
		from, to := dm.From(), dm.To()
		capture := them.All&(uint64(1)<<to) != 0
		if !capture && us.Pawns&(uint64(1)<<from) != 0 && from&7 != to&7 {
			capture = true // en passant
		}
		moves = append(moves, newMove(dm, capture))
	}

	p.legal, p.legalHash, p.legalPly, p.legalValid = moves, hash, ply, true
	return moves
}

// LegalMoves returns all legal moves. The caller owns the returned slice.
func (p *Position) LegalMoves() []Move {
	moves := p.legalMoves()
	out := make([]Move, len(moves))
	copy(out, moves)
	return out
}

// Captures returns the legal moves that capture a piece, including
// en passant and capturing promotions.
func (p *Position) Captures() []Move {
	var out []Move
	for _, m := range p.legalMoves() {
		if m.IsCapture() {
			out = append(out, m)
		}
	}
	return out
}

// Apply plays m, which must be legal in the current position.
func (p *Position) Apply(m Move) {
	irreversible := m.IsCapture() || p.Pieces(Pawn, p.SideToMove())&(uint64(1)<<m.From()) != 0
	unapply := p.b.Apply(m.raw())
	p.frames = append(p.frames, frame{move: m, unapply: unapply})

	clock := p.clocks[len(p.clocks)-1] + 1
	if irreversible {
		clock = 0
	}
	p.hashes = append(p.hashes, p.b.Hash())
	p.clocks = append(p.clocks, clock)
}

// Undo takes back m, which must be the most recently applied move.
func (p *Position) Undo(m Move) {
	n := len(p.frames)
	if n == 0 || p.frames[n-1].move != m {
		panic(fmt.Sprintf("board: undo %v out of order", m))
	}
	p.frames[n-1].unapply()
	p.frames = p.frames[:n-1]
	p.hashes = p.hashes[:len(p.hashes)-1]
	p.clocks = p.clocks[:len(p.clocks)-1]
}

// ParseMove finds the legal move matching a UCI string such as "e7e8q".
func (p *Position) ParseMove(uci string) (Move, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	for _, m := range p.legalMoves() {
		if m.String() == uci {
			return m, nil
		}
	}
	return NoMove, errors.Wrapf(ErrIllegalMove, "%s in %s", uci, p.FEN())
}

// Play applies a sequence of UCI moves, typically the game history leading
// to the position the engine is asked to move in.
func (p *Position) Play(moves ...string) error {
	for _, s := range moves {
		m, err := p.ParseMove(s)
		if err != nil {
			return err
		}
		p.Apply(m)
	}
	return nil
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return len(p.legalMoves()) == 0 && p.InCheck()
}

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (p *Position) IsStalemate() bool {
	return len(p.legalMoves()) == 0 && !p.InCheck()
}

// IsFiftyMoveDraw reports whether a hundred plies passed without a capture or pawn move.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock() >= 100
}

// IsInsufficientMaterial reports whether neither side can possibly mate.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := &p.b.White, &p.b.Black
	if w.Pawns|b.Pawns|w.Rooks|b.Rooks|w.Queens|b.Queens != 0 {
		return false
	}
	wMinor := bits.OnesCount64(w.Knights | w.Bishops)
	bMinor := bits.OnesCount64(b.Knights | b.Bishops)
	if wMinor+bMinor <= 1 {
		return true
	}
	if wMinor == 1 && bMinor == 1 && w.Knights|b.Knights == 0 {
		const darkSquares = 0xAA55AA55AA55AA55
		return (w.Bishops&darkSquares != 0) == (b.Bishops&darkSquares != 0)
	}
	return false
}

// repetitions counts earlier occurrences of the current fingerprint with the
// same side to move since the last irreversible move.
func (p *Position) repetitions(limit int) int {
	n := len(p.hashes) - 1
	hash := p.hashes[n]
	stop := n - p.clocks[n]
	count := 0
	for i := n - 2; i >= 0 && i >= stop; i -= 2 {
		if p.hashes[i] == hash {
			count++
			if count >= limit {
				break
			}
		}
	}
	return count
}

// IsRepeatedPosition reports whether the current position occurred before.
// A single earlier occurrence is enough; the search uses this to cut cycles.
func (p *Position) IsRepeatedPosition() bool {
	return p.repetitions(1) > 0
}

// IsThreefoldRepetition reports whether the current position occurred at
// least twice before.
func (p *Position) IsThreefoldRepetition() bool {
	return p.repetitions(2) >= 2
}

// IsDraw reports a draw by stalemate, insufficient material, the fifty-move
// rule or threefold repetition.
func (p *Position) IsDraw() bool {
	return p.IsStalemate() || p.IsInsufficientMaterial() || p.IsFiftyMoveDraw() || p.IsThreefoldRepetition()
}
