package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chessengine/internal/core"
	"chessengine/internal/engine"
	"chessengine/internal/game"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 100
	responseTimeout  = 100 * time.Millisecond
)

// EngineTask is a one-shot analysis request and its response channel
type EngineTask struct {
	Ctx      context.Context // nil means no caller cancellation
	FEN      string          // empty or "startpos" means the standard layout
	Moves    []string
	Limits   engine.Limits
	Response chan<- EngineResult
}

// EngineResult carries the searched position and the engine's choice
type EngineResult struct {
	FEN    string
	Result engine.Result
	Error  error
}

// EngineQueue manages async engine computations
type EngineQueue struct {
	tasks   chan EngineTask
	workers int
	logger  zerolog.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewEngineQueue creates a queue with specified worker count
func NewEngineQueue(workerCount int, logger zerolog.Logger) *EngineQueue {
	if workerCount < 1 {
		workerCount = defaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &EngineQueue{
		tasks:   make(chan EngineTask, defaultQueueSize),
		workers: workerCount,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	q.start()
	return q
}

func (q *EngineQueue) start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// worker processes engine tasks; each worker owns its engine and cache
func (q *EngineQueue) worker(id int) {
	defer q.wg.Done()

	logger := q.logger.With().Int("worker", id).Logger()
	eng := engine.New(engine.WithLogger(logger))

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			result := q.processTask(eng, task)

			// Send result if receiver still listening
			select {
			case task.Response <- result:
			case <-time.After(responseTimeout):
				logger.Debug().Str("fen", result.FEN).Msg("analysis result abandoned")
			}

		case <-q.ctx.Done():
			return
		}
	}
}

// processTask executes a single search from an empty cache
func (q *EngineQueue) processTask(eng *engine.Engine, task EngineTask) EngineResult {
	g := game.New()
	if err := g.SetPosition(task.FEN, task.Moves); err != nil {
		return EngineResult{FEN: task.FEN, Error: err}
	}

	ctx := task.Ctx
	if ctx == nil {
		ctx = q.ctx
	}

	eng.ClearCache()
	res, err := eng.BestMove(ctx, g.Position(), task.Limits)
	return EngineResult{
		FEN:    g.CurrentFEN(),
		Result: res,
		Error:  err,
	}
}

// Submit adds a task to the queue without blocking
func (q *EngineQueue) Submit(task EngineTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return core.ErrShuttingDown
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return core.ErrQueueFull
	}
}

// SubmitWait submits a task and blocks until its result or ctx ends
func (q *EngineQueue) SubmitWait(ctx context.Context, task EngineTask) (EngineResult, error) {
	respChan := make(chan EngineResult, 1)
	task.Ctx = ctx
	task.Response = respChan

	if err := q.Submit(task); err != nil {
		return EngineResult{}, err
	}

	select {
	case result := <-respChan:
		return result, result.Error
	case <-ctx.Done():
		return EngineResult{}, ctx.Err()
	case <-q.ctx.Done():
		return EngineResult{}, core.ErrShuttingDown
	}
}

// Shutdown stops accepting tasks and waits for the workers
func (q *EngineQueue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.cancel()
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("engine queue shutdown timeout exceeded")
	}
}
