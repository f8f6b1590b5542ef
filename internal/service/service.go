package service

import (
	"time"

	"chessengine/internal/engine"
	"chessengine/internal/processor"
	"chessengine/internal/storage"

	"github.com/rs/zerolog"
)

// DefaultBudget is the search time used when a request sets neither a
// time nor a depth
const DefaultBudget = time.Second

// MaxBudget caps every search, including depth-only requests that would
// otherwise run without a clock
const MaxBudget = time.Minute

// Service manages analysis sessions with optional persistence
type Service struct {
	sessions *registry
	queue    *processor.EngineQueue // nil disables one-shot analysis
	store    *storage.Store         // nil if persistence disabled
	logger   zerolog.Logger
	budget   time.Duration
	ceiling  time.Duration
	engOpts  []engine.Option
}

type Option func(*Service)

func WithStore(store *storage.Store) Option {
	return func(s *Service) { s.store = store }
}

func WithQueue(queue *processor.EngineQueue) Option {
	return func(s *Service) { s.queue = queue }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDefaultBudget sets the search time for requests without limits
func WithDefaultBudget(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.budget = d
		}
	}
}

// WithMaxBudget sets the longest time any single search may run
func WithMaxBudget(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ceiling = d
		}
	}
}

// WithEngineOptions applies opts to every session engine
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) { s.engOpts = append(s.engOpts, opts...) }
}

// New creates a new service instance
func New(opts ...Option) *Service {
	s := &Service{
		sessions: newRegistry(),
		logger:   zerolog.Nop(),
		budget:   DefaultBudget,
		ceiling:  MaxBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// limits converts request limits. With neither set the default budget
// applies, and no search runs past the ceiling.
func (s *Service) limits(timeMs, depth int) engine.Limits {
	l := engine.Limits{
		Budget:   time.Duration(timeMs) * time.Millisecond,
		MaxDepth: depth,
	}
	if timeMs == 0 && depth == 0 {
		l.Budget = s.budget
	}
	if l.Budget == 0 || l.Budget > s.ceiling {
		l.Budget = s.ceiling
	}
	return l
}

// StorageHealth returns the storage component status
func (s *Service) StorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// SessionCount returns the number of live sessions
func (s *Service) SessionCount() int {
	return s.sessions.len()
}

// Close drops all sessions and closes storage
func (s *Service) Close() error {
	s.sessions.clear()

	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
