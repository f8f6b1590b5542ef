package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chessengine/internal/storage"

	"github.com/lixenwraith/auth"
	"github.com/rs/zerolog"
)

func TestDBCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	if err := RunDB([]string{"init", "-path", path}); err != nil {
		t.Fatalf("init: %v", err)
	}

	store, err := storage.NewStore(path, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.RecordSearch(storage.SearchRecord{SessionID: "0123456789", FEN: "f", BestMove: "e2e4", Depth: 3, SearchedUTC: time.Now().UTC()})
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var out bytes.Buffer
	if err := runQuery([]string{"-path", path}, &out); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out.String(), "01234567...") || !strings.Contains(out.String(), "Found 1 search(es)") {
		t.Errorf("query output:\n%s", out.String())
	}

	if err := RunDB([]string{"delete", "-path", path}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, args := range [][]string{nil, {"vacuum"}, {"init"}} {
		if err := RunDB(args); err == nil {
			t.Errorf("RunDB(%v) should fail", args)
		}
	}
}

func TestMintToken(t *testing.T) {
	secret := []byte(strings.Repeat("k", minSecretLength))

	token, err := MintToken(secret, "ops", time.Hour)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	subject, _, err := auth.ValidateHS256Token(secret, token)
	if err != nil {
		t.Fatalf("ValidateHS256Token: %v", err)
	}
	if subject != "ops" {
		t.Errorf("subject = %q, want ops", subject)
	}

	if _, err := MintToken([]byte("short"), "ops", time.Hour); err == nil {
		t.Error("short secret should be rejected")
	}
	if _, err := MintToken(secret, "ops", 0); err == nil {
		t.Error("zero ttl should be rejected")
	}
	if err := CheckSecret(""); err != nil {
		t.Errorf("empty secret disables auth: %v", err)
	}
	if err := CheckSecret("short"); err == nil {
		t.Error("short server secret should be rejected")
	}
}
