package engine

import (
	"context"
	"time"

	"chessengine/internal/board"
	"chessengine/internal/eval"
	"chessengine/internal/tt"

	"github.com/notnil/chess"
)

// searcher holds the state of one BestMove call
type searcher struct {
	ctx    context.Context
	cache  *tt.Table
	start  time.Time
	budget time.Duration
	nodes  int64
}

// searchOpts restricts node expansion. onlyCaptures is reserved for a
// quiescence pass and no caller sets it yet.
type searchOpts struct {
	onlyCaptures bool
}

func (s *searcher) expired() bool {
	if s.budget > 0 && time.Since(s.start) > s.budget {
		return true
	}
	return s.ctx.Err() != nil
}

// search is minimax with alpha-beta pruning over absolute scores. White
// maximizes and Black minimizes.
func (s *searcher) search(depth int, pos *board.Position, alpha, beta int, maximizing bool, opts searchOpts) int {
	s.nodes++
	key := pos.Fingerprint()

	if depth == 0 {
		// Static scores depend only on the fingerprinted state
		if e, ok := s.cache.Get(key); ok && e.Depth == 0 && e.Bound == tt.Exact {
			return e.Score
		}
		score := eval.Evaluate(pos)
		s.cache.Put(key, 0, tt.Exact, score)
		return score
	}

	// Out of time: best effort, not a bound, so it is not cached
	if s.expired() {
		return eval.Evaluate(pos)
	}

	if score, ok := s.cache.Probe(key, depth, alpha, beta); ok {
		return score
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		// Stalemate only shows up as a depth 0 leaf
		if pos.Turn() == chess.White {
			return -MateScore
		}
		return MateScore
	}

	if opts.onlyCaptures {
		moves = captures(pos, moves)
		if len(moves) == 0 {
			return eval.Evaluate(pos)
		}
	}

	best := infinity
	if maximizing {
		best = -infinity
	}

	for _, m := range Order(pos, moves) {
		score := s.search(depth-1, pos.Apply(m), alpha, beta, !maximizing, opts)

		if maximizing {
			best = max(best, score)
			alpha = max(alpha, best)
		} else {
			best = min(best, score)
			beta = min(beta, best)
		}

		if beta <= alpha {
			bound := tt.Upper
			if maximizing {
				bound = tt.Lower
			}
			s.cache.Put(key, depth, bound, best)
			return best
		}
	}

	s.cache.Put(key, depth, tt.Exact, best)
	return best
}

func captures(pos *board.Position, moves []*chess.Move) []*chess.Move {
	var out []*chess.Move
	for _, m := range moves {
		if pos.PieceAt(m.S2()) != chess.NoPiece || m.HasTag(chess.EnPassant) {
			out = append(out, m)
		}
	}
	return out
}
