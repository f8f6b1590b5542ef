package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chess.db")
	store, err := NewStore(path, true, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return store, path
}

func TestRecordAndQuery(t *testing.T) {
	store, path := openStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	store.RecordSession(SessionRecord{SessionID: "s1", InitialFEN: "startpos", CreatedAtUTC: now})
	store.RecordSearch(SearchRecord{SessionID: "s1", FEN: "f1", BestMove: "e2e4", Score: 30, Depth: 4, SearchedUTC: now})
	store.RecordSearch(SearchRecord{SessionID: "s1", FEN: "f2", BestMove: "d2d4", Score: 20, Depth: 5, SearchedUTC: now})
	store.RecordSearch(SearchRecord{FEN: "f3", BestMove: "g1f3", Score: 10, Depth: 3, SearchedUTC: now})

	// Close drains the async writer
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	reopened, err := NewStore(path, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	sessions, err := reopened.QuerySessions("*")
	if err != nil {
		t.Fatalf("QuerySessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != "s1" {
		t.Errorf("sessions = %+v", sessions)
	}

	all, err := reopened.QuerySearches("", 0)
	if err != nil {
		t.Fatalf("QuerySearches: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d searches, want 3", len(all))
	}
	if all[0].BestMove != "g1f3" {
		t.Errorf("newest search = %s, want g1f3", all[0].BestMove)
	}

	bySession, err := reopened.QuerySearches("s1", 1)
	if err != nil {
		t.Fatalf("QuerySearches: %v", err)
	}
	if len(bySession) != 1 || bySession[0].BestMove != "d2d4" || bySession[0].Depth != 5 {
		t.Errorf("session searches = %+v", bySession)
	}
}

func TestDegradesOnWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	store, err := NewStore(path, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	// No schema, so the insert fails
	store.RecordSearch(SearchRecord{FEN: "f", BestMove: "e2e4"})
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if store.IsHealthy() {
		t.Error("store should be degraded after a failed write")
	}
}

func TestDeleteDB(t *testing.T) {
	store, path := openStore(t)
	if err := store.DeleteDB(); err != nil {
		t.Fatalf("DeleteDB: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("database file still present: %v", err)
	}
}
