package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"chessengine/internal/board"
	"chessengine/internal/core"
	"chessengine/internal/eval"
	"chessengine/internal/tt"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

const (
	// MateScore is returned for a side with no legal replies
	MateScore = 12000

	infinity          = MateScore + 1
	defaultStartDepth = 1
)

// Engine owns a transposition cache that persists across searches until
// ClearCache. An Engine must not run two searches at once.
type Engine struct {
	cache      *tt.Table
	rng        *rand.Rand
	logger     zerolog.Logger
	startDepth int
}

type Option func(*Engine)

// WithLogger sets the logger for search summaries and per-move debug lines
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRand sets the source used to break ties between equal root scores
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithStartDepth(depth int) Option {
	return func(e *Engine) {
		if depth >= 1 {
			e.startDepth = depth
		}
	}
}

// WithCache replaces the default always-replace table, for example with
// one using tt.DepthPreferred
func WithCache(table *tt.Table) Option {
	return func(e *Engine) { e.cache = table }
}

// New returns an engine with an empty cache, a silent logger, a randomly
// seeded tie breaker and a starting depth of 1 unless opts say otherwise.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:     zerolog.Nop(),
		startDepth: defaultStartDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = tt.New(tt.AlwaysReplace{})
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// ClearCache empties the transposition cache. It is the only way to bound
// its memory.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

func (e *Engine) CacheSize() int {
	return e.cache.Len()
}

func (e *Engine) StartDepth() int {
	return e.startDepth
}

func (e *Engine) SetStartDepth(depth int) {
	WithStartDepth(depth)(e)
}

// Limits bounds a single BestMove call
type Limits struct {
	Budget     time.Duration // zero means no time limit
	MaxDepth   int           // zero means no depth limit
	Verbose    bool
	OnProgress func(Progress)
}

// Progress reports one evaluated root move within a depth round
type Progress struct {
	Move      *chess.Move
	Score     int
	Depth     int
	CacheSize int
	Nodes     int64
	Elapsed   time.Duration
}

type Result struct {
	Move    *chess.Move
	Score   int
	Depth   int
	Nodes   int64
	Elapsed time.Duration
}

// Normalized is the score in pawns
func (r Result) Normalized() float64 {
	return float64(r.Score) / 100
}

// IsMate reports whether the score is a forced mate for either side
func (r Result) IsMate() bool {
	return r.Score >= MateScore || r.Score <= -MateScore
}

// BestMove picks a move for the side to move in pos. Deepening stops when the
// budget or ctx runs out before a new round, or when MaxDepth is reached.
// With neither a budget nor a depth limit it runs until ctx is done.
//
// A root move scoring a mate for the side to move ends the search at once,
// even mid-round. A mate against the side to move does not: the round goes
// on looking for a move that avoids it.
func (e *Engine) BestMove(ctx context.Context, pos *board.Position, limits Limits) (Result, error) {
	start := time.Now()
	moves := pos.LegalMoves()

	switch len(moves) {
	case 0:
		return Result{}, fmt.Errorf("%w: position is %s", core.ErrNoLegalMove, pos.Status())
	case 1:
		res := Result{
			Move:    moves[0],
			Score:   eval.Evaluate(pos.Apply(moves[0])),
			Depth:   1,
			Elapsed: time.Since(start),
		}
		e.logger.Info().
			Str("move", board.MoveText(res.Move)).
			Int("score", res.Score).
			Msg("only legal move")
		return res, nil
	}

	s := &searcher{
		ctx:    ctx,
		cache:  e.cache,
		start:  start,
		budget: limits.Budget,
	}

	ordered := Order(pos, moves)
	maximizing := pos.Turn() == chess.White

	var res Result
	for depth := e.startDepth; limits.MaxDepth <= 0 || depth <= limits.MaxDepth; depth++ {
		if res.Move != nil && s.expired() {
			break
		}

		for _, m := range ordered {
			score := s.search(depth-1, pos.Apply(m), -infinity, infinity, !maximizing, searchOpts{})

			switch {
			case res.Move == nil, improves(score, res.Score, maximizing):
				res.Move, res.Score = m, score
			case score == res.Score && e.rng.IntN(2) == 0:
				res.Move = m
			}
			res.Depth = depth

			e.report(limits, Progress{
				Move:      m,
				Score:     score,
				Depth:     depth,
				CacheSize: e.cache.Len(),
				Nodes:     s.nodes,
				Elapsed:   time.Since(start),
			})

			if matesFor(score, maximizing) {
				return e.finish(res, s), nil
			}
		}
	}

	return e.finish(res, s), nil
}

func (e *Engine) finish(res Result, s *searcher) Result {
	res.Nodes = s.nodes
	res.Elapsed = time.Since(s.start)
	e.logger.Info().
		Str("move", board.MoveText(res.Move)).
		Int("score", res.Score).
		Int("depth", res.Depth).
		Int64("nodes", res.Nodes).
		Int("cache", e.cache.Len()).
		Dur("elapsed", res.Elapsed).
		Msg("search complete")
	return res
}

func (e *Engine) report(limits Limits, p Progress) {
	e.logger.Debug().
		Str("move", board.MoveText(p.Move)).
		Int("score", p.Score).
		Int("depth", p.Depth).
		Int("cache", p.CacheSize).
		Int64("elapsed_ms", p.Elapsed.Milliseconds()).
		Int64("nodes", p.Nodes).
		Msg("root move searched")

	if limits.Verbose && limits.OnProgress != nil {
		limits.OnProgress(p)
	}
}

func improves(score, best int, maximizing bool) bool {
	if maximizing {
		return score > best
	}
	return score < best
}

func matesFor(score int, maximizing bool) bool {
	if maximizing {
		return score >= MateScore
	}
	return score <= -MateScore
}
