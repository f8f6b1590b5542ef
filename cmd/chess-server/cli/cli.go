// Package cli implements the chess-server maintenance subcommands.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"chessengine/internal/storage"

	"github.com/lixenwraith/auth"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const minSecretLength = 32

// RunDB handles "db init|delete|query"
func RunDB(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "query":
		return runQuery(args[1:], os.Stdout)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(path string) (*storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(path, false, zerolog.Nop())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Printf("Database deleted: %s\n", *path)
	return nil
}

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	session := fs.String("session", "", "Session ID to filter (optional, * for all)")
	limit := fs.Int("limit", 20, "Maximum searches to list (0 for all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	searches, err := store.QuerySearches(*session, *limit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(searches) == 0 {
		fmt.Fprintln(out, "No searches found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Session\tMove\tScore\tDepth\tNodes\tTime\tSearched")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, s := range searches {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%dms\t%s\n",
			shortID(s.SessionID),
			s.BestMove,
			s.Score,
			s.Depth,
			s.Nodes,
			s.ElapsedMs,
			s.SearchedUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d search(es)\n", len(searches))
	return nil
}

func shortID(id string) string {
	switch {
	case id == "":
		return "(analyze)"
	case len(id) > 8:
		return id[:8] + "..."
	default:
		return id
	}
}

// RunToken mints an HS256 bearer token for the API
func RunToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	secret := fs.String("secret", "", "HS256 secret (prompted if empty)")
	subject := fs.String("subject", "", "Token subject (required)")
	ttl := fs.Duration("ttl", 7*24*time.Hour, "Token lifetime")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("subject required")
	}

	key := []byte(*secret)
	if len(key) == 0 {
		fmt.Fprint(os.Stderr, "Enter secret: ")
		b, err := term.ReadPassword(syscall.Stdin)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		key = b
	}

	token, err := MintToken(key, *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// MintToken signs a token for subject after checking the secret length
func MintToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) < minSecretLength {
		return "", fmt.Errorf("secret must be at least %d bytes", minSecretLength)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}

	claims := map[string]any{"scope": "api"}
	token, err := auth.GenerateHS256Token(secret, subject, claims, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// CheckSecret validates a server secret; empty disables auth
func CheckSecret(secret string) error {
	if secret != "" && len(secret) < minSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	return nil
}
