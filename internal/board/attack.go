package board

import "github.com/notnil/chess"

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func squareAt(file, rank int) (chess.Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return chess.NoSquare, false
	}
	return chess.NewSquare(chess.File(file), chess.Rank(rank)), true
}

func isPiece(pc chess.Piece, t chess.PieceType, c chess.Color) bool {
	return pc.Type() == t && pc.Color() == c
}

// attacked reports whether any piece of color by attacks sq
func attacked(b *chess.Board, sq chess.Square, by chess.Color) bool {
	f, r := int(sq.File()), int(sq.Rank())

	// Pawns attack diagonally forward, so look one rank behind from by's side
	pawnRank := r - 1
	if by == chess.Black {
		pawnRank = r + 1
	}
	for _, df := range []int{-1, 1} {
		if s, ok := squareAt(f+df, pawnRank); ok && isPiece(b.Piece(s), chess.Pawn, by) {
			return true
		}
	}

	for _, st := range knightSteps {
		if s, ok := squareAt(f+st[0], r+st[1]); ok && isPiece(b.Piece(s), chess.Knight, by) {
			return true
		}
	}

	for _, st := range kingSteps {
		if s, ok := squareAt(f+st[0], r+st[1]); ok && isPiece(b.Piece(s), chess.King, by) {
			return true
		}
	}

	if slides(b, f, r, rookRays[:], chess.Rook, by) {
		return true
	}
	return slides(b, f, r, bishopRays[:], chess.Bishop, by)
}

// slides walks each ray until blocked, matching the given slider or a queen
func slides(b *chess.Board, f, r int, rays [][2]int, slider chess.PieceType, by chess.Color) bool {
	for _, ray := range rays {
		for i := 1; ; i++ {
			s, ok := squareAt(f+ray[0]*i, r+ray[1]*i)
			if !ok {
				break
			}
			pc := b.Piece(s)
			if pc == chess.NoPiece {
				continue
			}
			if pc.Color() == by && (pc.Type() == slider || pc.Type() == chess.Queen) {
				return true
			}
			break
		}
	}
	return false
}
