package engine

import (
	"cmp"
	"slices"

	"chessengine/internal/board"

	"github.com/notnil/chess"
)

// rank of each piece type for ordering, cheapest first
var orderRank = map[chess.PieceType]int{
	chess.NoPieceType: 0,
	chess.Pawn:        1,
	chess.Knight:      2,
	chess.Bishop:      3,
	chess.Rook:        4,
	chess.Queen:       5,
	chess.King:        6,
}

// orderKey is the sort key of one move, computed once per Order call
type orderKey struct {
	move   *chess.Move
	check  int
	victim int
	mover  int
}

// Order returns a reordered copy of moves: checks first, then captures of
// the most valuable piece, then moves of the cheapest piece. Moves that tie
// on all three keep their generation order.
func Order(pos *board.Position, moves []*chess.Move) []*chess.Move {
	keys := make([]orderKey, len(moves))
	for i, m := range moves {
		keys[i] = orderKey{
			move:   m,
			victim: orderRank[pos.PieceAt(m.S2()).Type()],
			mover:  orderRank[pos.PieceAt(m.S1()).Type()],
		}
		if m.HasTag(chess.Check) {
			keys[i].check = 1
		}
	}

	slices.SortStableFunc(keys, func(a, b orderKey) int {
		if c := cmp.Compare(b.check, a.check); c != 0 {
			return c
		}
		if c := cmp.Compare(b.victim, a.victim); c != 0 {
			return c
		}
		return cmp.Compare(a.mover, b.mover)
	})

	ordered := make([]*chess.Move, len(keys))
	for i, k := range keys {
		ordered[i] = k.move
	}
	return ordered
}
