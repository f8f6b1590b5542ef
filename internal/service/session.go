package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chessengine/internal/board"
	"chessengine/internal/core"
	"chessengine/internal/engine"
	"chessengine/internal/game"
	"chessengine/internal/processor"
	"chessengine/internal/storage"

	"github.com/google/uuid"
	"github.com/notnil/chess"
)

// Session is one analysis workspace. Its engine keeps a cache across
// searches until NewGame; mu serializes every access so the engine never
// runs two searches at once.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	game   *game.Game
	engine *engine.Engine
}

type registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*Session)}
}

// add stores sess under a fresh uuid
func (r *registry) add(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		id := uuid.New().String()
		if _, exists := r.sessions[id]; !exists {
			sess.ID = id
			r.sessions[id] = sess
			return
		}
	}
}

func (r *registry) get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return sess, nil
}

func (r *registry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.sessions)
}

// CreateSession starts a session at fen, or the standard layout when empty
func (s *Service) CreateSession(fen string) (core.SessionResponse, error) {
	g := game.New()
	if err := g.SetPosition(fen, nil); err != nil {
		return core.SessionResponse{}, err
	}

	sess := &Session{
		CreatedAt: time.Now().UTC(),
		game:      g,
	}

	// Held until the engine is in place, since the session is visible once added
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.sessions.add(sess)

	opts := append([]engine.Option{
		engine.WithLogger(s.logger.With().Str("session", sess.ID).Logger()),
	}, s.engOpts...)
	sess.engine = engine.New(opts...)

	if s.store != nil {
		s.store.RecordSession(storage.SessionRecord{
			SessionID:    sess.ID,
			InitialFEN:   g.InitialFEN(),
			CreatedAtUTC: sess.CreatedAt,
		})
	}

	s.logger.Info().Str("session", sess.ID).Str("fen", g.CurrentFEN()).Msg("session created")
	return sess.response(), nil
}

// GetSession returns the session's current state
func (s *Service) GetSession(id string) (core.SessionResponse, error) {
	sess, err := s.sessions.get(id)
	if err != nil {
		return core.SessionResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.response(), nil
}

// SetPosition replaces the session position with fen plus moves. On error
// the session is unchanged.
func (s *Service) SetPosition(id, fen string, moves []string) (core.SessionResponse, error) {
	sess, err := s.sessions.get(id)
	if err != nil {
		return core.SessionResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.game.SetPosition(fen, moves); err != nil {
		return core.SessionResponse{}, err
	}
	return sess.response(), nil
}

// NewGame resets the session to the standard layout and clears its cache
func (s *Service) NewGame(id string) (core.SessionResponse, error) {
	sess, err := s.sessions.get(id)
	if err != nil {
		return core.SessionResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.engine.ClearCache()
	sess.game.Reset()
	return sess.response(), nil
}

// Search runs the session engine on the current position
func (s *Service) Search(ctx context.Context, id string, timeMs, depth int) (core.SearchResponse, error) {
	sess, err := s.sessions.get(id)
	if err != nil {
		return core.SearchResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	pos := sess.game.Position()
	res, err := sess.engine.BestMove(ctx, pos, s.limits(timeMs, depth))
	if err != nil {
		return core.SearchResponse{}, err
	}

	s.recordSearch(id, pos.FEN(), res, sess.engine.CacheSize())
	return searchResponse(pos.FEN(), res), nil
}

// Board returns the session position as FEN and ASCII art
func (s *Service) Board(id string) (core.BoardResponse, error) {
	sess, err := s.sessions.get(id)
	if err != nil {
		return core.BoardResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	pos := sess.game.Position()
	return core.BoardResponse{FEN: pos.FEN(), Board: pos.ToASCII()}, nil
}

// DeleteSession removes a session from memory
func (s *Service) DeleteSession(id string) error {
	if err := s.sessions.remove(id); err != nil {
		return err
	}
	s.logger.Info().Str("session", id).Msg("session deleted")
	return nil
}

// Analyze searches fen plus moves on the worker pool from an empty cache
func (s *Service) Analyze(ctx context.Context, req core.AnalyzeRequest) (core.SearchResponse, error) {
	if s.queue == nil {
		return core.SearchResponse{}, fmt.Errorf("%w: analysis queue not configured", core.ErrUnavailable)
	}

	out, err := s.queue.SubmitWait(ctx, processor.EngineTask{
		FEN:    req.FEN,
		Moves:  req.Moves,
		Limits: s.limits(req.TimeMs, req.Depth),
	})
	if err != nil {
		return core.SearchResponse{}, err
	}

	s.recordSearch("", out.FEN, out.Result, 0)
	return searchResponse(out.FEN, out.Result), nil
}

func (s *Service) recordSearch(sessionID, fen string, res engine.Result, cacheSize int) {
	if s.store == nil {
		return
	}
	s.store.RecordSearch(storage.SearchRecord{
		SessionID:   sessionID,
		FEN:         fen,
		BestMove:    board.MoveText(res.Move),
		Score:       res.Score,
		Depth:       res.Depth,
		Nodes:       res.Nodes,
		ElapsedMs:   res.Elapsed.Milliseconds(),
		CacheSize:   cacheSize,
		SearchedUTC: time.Now().UTC(),
	})
}

// response must be called with sess.mu held
func (sess *Session) response() core.SessionResponse {
	pos := sess.game.Position()
	turn := "w"
	if pos.Turn() != chess.White {
		turn = "b"
	}
	return core.SessionResponse{
		SessionID:  sess.ID,
		InitialFEN: sess.game.InitialFEN(),
		FEN:        pos.FEN(),
		Turn:       turn,
		Status:     sess.game.State().String(),
		Moves:      sess.game.Moves(),
		CacheSize:  sess.engine.CacheSize(),
	}
}

func searchResponse(fen string, res engine.Result) core.SearchResponse {
	return core.SearchResponse{
		Move:            board.MoveText(res.Move),
		Score:           res.Score,
		NormalizedScore: res.Normalized(),
		Depth:           res.Depth,
		Nodes:           res.Nodes,
		ElapsedMs:       res.Elapsed.Milliseconds(),
		FEN:             fen,
	}
}
