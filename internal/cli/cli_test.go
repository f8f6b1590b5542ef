package cli

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"chessengine/internal/board"
	"chessengine/internal/core"
	"chessengine/internal/engine"

	"github.com/notnil/chess"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want CommandType
	}{
		{"", CmdNone},
		{"   ", CmdNone},
		{"uci", CmdUCI},
		{"isready", CmdIsReady},
		{"ucinewgame", CmdNewGame},
		{"position startpos", CmdPosition},
		{"go movetime 100", CmdGo},
		{"stop", CmdStop},
		{"debug on", CmdDebug},
		{"setoption name Verbose value true", CmdSetOption},
		{"d", CmdDisplay},
		{"eval", CmdEval},
		{"help", CmdHelp},
		{"quit", CmdQuit},
		{"xyzzy", CmdUnknown},
	}

	for _, tt := range tests {
		if got := ParseCommand(tt.in).Type; got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		fen     string
		moves   []string
		wantErr bool
	}{
		{in: "startpos"},
		{in: "startpos moves e2e4 e7e5", moves: []string{"e2e4", "e7e5"}},
		{in: "fen 4k3/8/8/8/8/8/8/4K2R w K - 0 1", fen: "4k3/8/8/8/8/8/8/4K2R w K - 0 1"},
		{in: "fen 4k3/8/8/8/8/8/8/4K2R w K - 0 1 moves h1h8", fen: "4k3/8/8/8/8/8/8/4K2R w K - 0 1", moves: []string{"h1h8"}},
		{in: "", wantErr: true},
		{in: "fen", wantErr: true},
		{in: "fen moves e2e4", wantErr: true},
		{in: "startpos e2e4", wantErr: true},
		{in: "middle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			pa, err := ParsePosition(strings.Fields(tt.in))
			if tt.wantErr {
				if !errors.Is(err, core.ErrParse) {
					t.Fatalf("error = %v, want ErrParse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePosition: %v", err)
			}
			if pa.FEN != tt.fen || !slices.Equal(pa.Moves, tt.moves) {
				t.Errorf("got %q %v, want %q %v", pa.FEN, pa.Moves, tt.fen, tt.moves)
			}
		})
	}
}

func TestGoBudget(t *testing.T) {
	def := time.Second
	tests := []struct {
		in   string
		turn chess.Color
		want time.Duration
	}{
		{"", chess.White, def},
		{"movetime 250", chess.White, 250 * time.Millisecond},
		{"movetime 250 wtime 60000", chess.White, 250 * time.Millisecond},
		{"wtime 60000 btime 30000", chess.White, 2 * time.Second},
		{"wtime 60000 btime 30000", chess.Black, time.Second},
		{"wtime 60000 winc 500 movestogo 10", chess.White, 6500 * time.Millisecond},
		{"depth 4", chess.White, 0},
		{"movetime 0", chess.White, 0},
		{"movetime 0 wtime 60000", chess.White, 0},
	}

	for _, tt := range tests {
		ga, err := ParseGo(strings.Fields(tt.in))
		if err != nil {
			t.Fatalf("ParseGo(%q): %v", tt.in, err)
		}
		if got := ga.Budget(tt.turn, def); got != tt.want {
			t.Errorf("Budget(%q, %v) = %v, want %v", tt.in, tt.turn, got, tt.want)
		}
	}

	for _, bad := range []string{"movetime", "movetime x", "depth -1", "infinite", "nodes 10"} {
		if _, err := ParseGo(strings.Fields(bad)); !errors.Is(err, core.ErrParse) {
			t.Errorf("ParseGo(%q) error = %v, want ErrParse", bad, err)
		}
	}
}

func TestParseSetOption(t *testing.T) {
	name, value, err := ParseSetOption(strings.Fields("name Start Depth value 3"))
	if err != nil || name != "Start Depth" || value != "3" {
		t.Errorf("got %q %q %v", name, value, err)
	}
	name, value, err = ParseSetOption(strings.Fields("name Clear"))
	if err != nil || name != "Clear" || value != "" {
		t.Errorf("got %q %q %v", name, value, err)
	}
	if _, _, err := ParseSetOption(strings.Fields("value 3")); !errors.Is(err, core.ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
}

func TestGetCommandEOFQuits(t *testing.T) {
	c := New(strings.NewReader("isready\n"), &bytes.Buffer{})
	cmd, err := c.GetCommand()
	if err != nil || cmd.Type != CmdIsReady {
		t.Fatalf("first command = %+v, %v", cmd, err)
	}
	cmd, err = c.GetCommand()
	if err != nil || cmd.Type != CmdQuit {
		t.Errorf("EOF = %+v, %v, want quit", cmd, err)
	}
}

func TestShowProgress(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out)

	m, err := board.Start().ParseMove("e2e4")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	c.ShowProgress(engine.Progress{Move: m, Score: -35, Depth: 3, CacheSize: 120, Elapsed: 42 * time.Millisecond})
	c.ShowBestMove(engine.Result{Move: m})

	want := "info score cp -35 depth 3 hashfull 120 time 42 currmove e2e4\nbestmove e2e4\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDisplayBoardThemes(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out)

	c.DisplayBoard(board.Start())
	if !strings.Contains(out.String(), "8 r n b q k b n r  8") {
		t.Errorf("plain board:\n%s", out.String())
	}

	if err := c.SetTheme("purple"); err == nil {
		t.Error("unknown theme accepted")
	}
	if err := c.SetTheme(ThemeGreen); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	out.Reset()
	c.DisplayBoard(board.Start())
	if !strings.Contains(out.String(), "\033[0m") {
		t.Error("themed board should carry color codes")
	}
}
