package engine

import "github.com/hailam/chessthink/internal/board"

// Position is everything the search needs from the rules engine. The search
// mutates it through Apply/Undo and always restores it before returning.
// *board.Position implements it.
type Position interface {
	LegalMoves() []board.Move
	Captures() []board.Move
	Apply(m board.Move)
	Undo(m board.Move)

	Hash() uint64
	FEN() string
	SideToMove() board.Color
	PieceAt(sq board.Square) board.Piece
	Pieces(pt board.PieceType, c board.Color) uint64

	InCheck() bool
	IsCheckmate() bool
	IsDraw() bool
	IsRepeatedPosition() bool
	IsSquareAttackedByOpponent(sq board.Square) bool
}

var _ Position = (*board.Position)(nil)
