package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	writeQueueSize  = 1000
	shutdownTimeout = 2 * time.Second
)

// Store handles SQLite database operations with async writes
type Store struct {
	db           *sql.DB
	path         string
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	logger       zerolog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	closeOnce    sync.Once
	closeErr     error
}

// NewStore creates a new storage instance with async writer
func NewStore(dataSourceName string, devMode bool, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode in development for better concurrency
	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		writeChan: make(chan func(*sql.Tx) error, writeQueueSize),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// writerLoop processes async write operations
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain remaining writes with timeout
			deadline := time.After(shutdownTimeout)
			for {
				select {
				case fn := <-s.writeChan:
					if s.healthStatus.Load() {
						s.executeWrite(fn)
					}
				case <-deadline:
					return
				default:
					return
				}
			}

		case fn := <-s.writeChan:
			// Skip if already degraded
			if !s.healthStatus.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

// executeWrite runs a transactional write operation
func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		s.degrade(err, "failed to begin transaction")
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		s.degrade(err, "write operation failed")
		return
	}

	if err := tx.Commit(); err != nil {
		s.degrade(err, "failed to commit")
	}
}

func (s *Store) degrade(err error, msg string) {
	s.logger.Error().Err(err).Msg("storage degraded: " + msg)
	s.healthStatus.Store(false)
}

// enqueue hands a write to the writer, dropping it when degraded or full
func (s *Store) enqueue(kind string, fn func(*sql.Tx) error) {
	if !s.healthStatus.Load() {
		return
	}

	select {
	case s.writeChan <- fn:
	default:
		s.logger.Warn().Str("record", kind).Msg("storage write queue full, dropping record")
	}
}

// RecordSession asynchronously records a new analysis session
func (s *Store) RecordSession(record SessionRecord) {
	s.enqueue("session", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO sessions (session_id, initial_fen, created_at_utc) VALUES (?, ?, ?)`,
			record.SessionID, record.InitialFEN, record.CreatedAtUTC,
		)
		return err
	})
}

// RecordSearch asynchronously records a completed search
func (s *Store) RecordSearch(record SearchRecord) {
	s.enqueue("search", func(tx *sql.Tx) error {
		query := `INSERT INTO searches (
			session_id, fen, best_move, score, depth, nodes, elapsed_ms, cache_size, searched_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.SessionID, record.FEN, record.BestMove, record.Score, record.Depth,
			record.Nodes, record.ElapsedMs, record.CacheSize, record.SearchedUTC,
		)
		return err
	})
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close drains pending writes and closes the database connection
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			s.logger.Warn().Msg("storage writer shutdown timeout, some writes may be lost")
		}

		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB closes the store and removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}

// QuerySessions lists sessions, newest first. An empty or "*" id matches all.
func (s *Store) QuerySessions(sessionID string) ([]SessionRecord, error) {
	query := `SELECT session_id, initial_fen, created_at_utc FROM sessions WHERE 1=1`

	var args []any
	if sessionID != "" && sessionID != "*" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_at_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.SessionID, &r.InitialFEN, &r.CreatedAtUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		sessions = append(sessions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return sessions, nil
}

// QuerySearches lists searches, newest first. An empty or "*" session id
// matches all; limit <= 0 means no limit.
func (s *Store) QuerySearches(sessionID string, limit int) ([]SearchRecord, error) {
	query := `SELECT
		search_id, session_id, fen, best_move, score, depth, nodes, elapsed_ms, cache_size, searched_utc
	FROM searches WHERE 1=1`

	var args []any
	if sessionID != "" && sessionID != "*" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY search_id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var searches []SearchRecord
	for rows.Next() {
		var r SearchRecord
		err := rows.Scan(
			&r.SearchID, &r.SessionID, &r.FEN, &r.BestMove, &r.Score, &r.Depth,
			&r.Nodes, &r.ElapsedMs, &r.CacheSize, &r.SearchedUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		searches = append(searches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return searches, nil
}
