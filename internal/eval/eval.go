// Package eval scores positions in centipawns from White's point of view.
package eval

import (
	"chessengine/internal/board"
	"chessengine/internal/core"

	"github.com/notnil/chess"
)

const (
	kingMobilityDivisor = 160
	mobilityWeight      = 10
	centerDivisor       = 16

	innerCenterWeight = 1000
	outerCenterWeight = 500
)

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 300,
	chess.Bishop: 300,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0,
}

// centerWeights covers the four center squares plus a partial ring: the c
// and f files on ranks 4 and 5, and d3 and d6. e3 and e6 are left out, so
// the ring is lopsided toward the queen side.
var centerWeights = map[chess.Square]int{
	chess.D4: innerCenterWeight,
	chess.E4: innerCenterWeight,
	chess.D5: innerCenterWeight,
	chess.E5: innerCenterWeight,

	chess.C4: outerCenterWeight,
	chess.F4: outerCenterWeight,
	chess.C5: outerCenterWeight,
	chess.F5: outerCenterWeight,
	chess.D3: outerCenterWeight,
	chess.D6: outerCenterWeight,
}

// Terms is the per-component breakdown of a score
type Terms struct {
	Material     int
	KingMobility int
	Mobility     int
	Center       int
	Stalemate    bool
}

func (t Terms) Total() int {
	if t.Stalemate {
		return 0
	}
	return t.Material + t.KingMobility + t.Mobility + t.Center
}

// Evaluate returns the static score of p. Checkmate is not recognized here;
// the search assigns mate scores when it runs out of replies.
func Evaluate(p *board.Position) int {
	return Breakdown(p).Total()
}

// PieceValue is the material weight of a piece type
func PieceValue(t chess.PieceType) int {
	return pieceValues[t]
}

func Breakdown(p *board.Position) Terms {
	if p.Status() == core.StatusStalemate {
		return Terms{Stalemate: true}
	}
	return Terms{
		Material:     material(p),
		KingMobility: kingMobility(p),
		Mobility:     mobility(p),
		Center:       center(p),
	}
}

func sign(c chess.Color) int {
	if c == chess.White {
		return 1
	}
	return -1
}

func material(p *board.Position) int {
	score := 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		pc := p.PieceAt(sq)
		if pc == chess.NoPiece {
			continue
		}
		score += sign(pc.Color()) * pieceValues[pc.Type()]
	}
	return score
}

// kingMobility counts orthogonal king steps that are legal right now. Only
// the side to move has legal moves, so the other king contributes nothing.
func kingMobility(p *board.Position) int {
	king, ok := p.KingSquare(p.Turn())
	if !ok {
		return 0
	}

	count := 0
	for _, m := range p.LegalMoves() {
		if m.S1() != king {
			continue
		}
		df := int(m.S2().File()) - int(king.File())
		dr := int(m.S2().Rank()) - int(king.Rank())
		if df*df+dr*dr == 1 {
			count++
		}
	}
	return sign(p.Turn()) * count / kingMobilityDivisor
}

// mobility is zero while in check because a null move is undefined there
func mobility(p *board.Position) int {
	if p.InCheck() {
		return 0
	}
	passed, err := p.NullMove()
	if err != nil {
		return 0
	}

	diff := len(p.LegalMoves()) - len(passed.LegalMoves())
	return sign(p.Turn()) * diff * mobilityWeight
}

// center scores occupancy of the middle squares with an inverted sign
func center(p *board.Position) int {
	sum := 0
	for sq, w := range centerWeights {
		pc := p.PieceAt(sq)
		if pc == chess.NoPiece {
			continue
		}
		sum += sign(pc.Color()) * w
	}
	return -sum / centerDivisor
}
