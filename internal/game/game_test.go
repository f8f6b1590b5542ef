package game

import (
	"errors"
	"slices"
	"testing"

	"chessengine/internal/board"
	"chessengine/internal/core"

	"github.com/notnil/chess"
)

func TestNewStartsFromInitialLayout(t *testing.T) {
	g := New()
	if g.CurrentFEN() != board.StartingFEN {
		t.Errorf("FEN = %q, want start", g.CurrentFEN())
	}
	if g.NextTurn() != chess.White {
		t.Errorf("turn = %v, want white", g.NextTurn())
	}
	if len(g.Moves()) != 0 {
		t.Errorf("moves = %v, want none", g.Moves())
	}
	if g.State() != core.StatusOngoing {
		t.Errorf("state = %v", g.State())
	}
}

func TestSetPosition(t *testing.T) {
	g := New()
	moves := []string{"e2e4", "e7e5", "g1f3"}
	if err := g.SetPosition("startpos", moves); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if !slices.Equal(g.Moves(), moves) {
		t.Errorf("moves = %v, want %v", g.Moves(), moves)
	}
	if g.NextTurn() != chess.Black {
		t.Errorf("turn = %v, want black", g.NextTurn())
	}
	if g.InitialFEN() != board.StartingFEN {
		t.Errorf("initial FEN = %q", g.InitialFEN())
	}
	if g.Position().FEN() != g.CurrentFEN() {
		t.Errorf("position %q and snapshot %q disagree", g.Position().FEN(), g.CurrentFEN())
	}
	if n := len(g.Snapshots()); n != 4 {
		t.Errorf("snapshots = %d, want 4", n)
	}

	fen := "4k3/8/8/8/8/8/8/4K2R w K - 0 1"
	if err := g.SetPosition(fen, nil); err != nil {
		t.Fatalf("SetPosition(fen): %v", err)
	}
	if g.InitialFEN() != fen || len(g.Moves()) != 0 {
		t.Errorf("initial = %q, moves = %v", g.InitialFEN(), g.Moves())
	}
}

func TestSetPositionFailureKeepsState(t *testing.T) {
	g := New()
	if err := g.SetPosition("", []string{"d2d4"}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	before := g.CurrentFEN()

	tests := []struct {
		name  string
		fen   string
		moves []string
	}{
		{"bad fen", "not a position", nil},
		{"illegal move", "", []string{"e2e4", "e2e4"}},
		{"garbage move", "", []string{"zz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.SetPosition(tt.fen, tt.moves)
			if !errors.Is(err, core.ErrParse) {
				t.Fatalf("error = %v, want ErrParse", err)
			}
			if g.CurrentFEN() != before || !slices.Equal(g.Moves(), []string{"d2d4"}) {
				t.Errorf("state changed to %q %v", g.CurrentFEN(), g.Moves())
			}
		})
	}
}

func TestPlayAndReset(t *testing.T) {
	g := New()
	if err := g.Play("e2e4"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := g.Play("e2e4"); !errors.Is(err, core.ErrParse) {
		t.Errorf("replaying e2e4 error = %v, want ErrParse", err)
	}
	if !slices.Equal(g.Moves(), []string{"e2e4"}) {
		t.Errorf("moves = %v", g.Moves())
	}

	g.Reset()
	if g.CurrentFEN() != board.StartingFEN || len(g.Moves()) != 0 {
		t.Errorf("reset left %q %v", g.CurrentFEN(), g.Moves())
	}
}

func TestStateTracksTerminalPositions(t *testing.T) {
	g := New()
	// Fool's mate
	if err := g.SetPosition("", []string{"f2f3", "e7e5", "g2g4", "d8h4"}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if g.State() != core.StatusCheckmate {
		t.Errorf("state = %v, want checkmate", g.State())
	}
}
