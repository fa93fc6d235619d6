package board

import (
	dragon "github.com/dylhunn/dragontoothmg"
)

// Precomputed leaper attack tables.
var (
	knightAttacks [64]uint64
	kingAttacks   [64]uint64
	pawnAttacks   [2][64]uint64 // squares attacked by a pawn of the given color
)

func init() {
	knightSteps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps := [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

	for sq := 0; sq < 64; sq++ {
		file, rank := sq&7, sq>>3
		knightAttacks[sq] = stepMask(file, rank, knightSteps[:])
		kingAttacks[sq] = stepMask(file, rank, kingSteps[:])
		pawnAttacks[White][sq] = stepMask(file, rank, [][2]int{{-1, 1}, {1, 1}})
		pawnAttacks[Black][sq] = stepMask(file, rank, [][2]int{{-1, -1}, {1, -1}})
	}
}

func stepMask(file, rank int, steps [][2]int) uint64 {
	var bb uint64
	for _, s := range steps {
		f, r := file+s[0], rank+s[1]
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			bb |= 1 << uint(r*8+f)
		}
	}
	return bb
}

// attackedBy reports whether sq is attacked by any piece in set, where set
// belongs to the given color and occ is the full occupancy.
func attackedBy(sq Square, by Color, set *dragon.Bitboards, occ uint64) bool {
	if pawnAttacks[by.Other()][sq]&set.Pawns != 0 {
		return true
	}
	if knightAttacks[sq]&set.Knights != 0 {
		return true
	}
	if kingAttacks[sq]&set.Kings != 0 {
		return true
	}
	if dragon.CalculateBishopMoveBitboard(uint8(sq), occ)&(set.Bishops|set.Queens) != 0 {
		return true
	}
	return dragon.CalculateRookMoveBitboard(uint8(sq), occ)&(set.Rooks|set.Queens) != 0
}
