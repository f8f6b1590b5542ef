package game

import (
	"fmt"

	"chessengine/internal/board"
	"chessengine/internal/core"

	"github.com/notnil/chess"
)

type Snapshot struct {
	FEN          string      // Board state at this point
	PreviousMove string      // Move that created this position (empty for initial)
	NextTurn     chess.Color // Whose turn it is at this position
}

// Game is the position a controller is working on, kept as the starting
// layout plus the moves replayed on top of it
type Game struct {
	snapshots []Snapshot
	position  *board.Position
}

func New() *Game {
	g := &Game{}
	g.Reset()
	return g
}

// Reset returns to the standard initial layout
func (g *Game) Reset() {
	g.position = board.Start()
	g.snapshots = []Snapshot{snapshotOf(g.position, "")}
}

// SetPosition replaces the game with fen plus moves. An empty fen or
// "startpos" selects the initial layout. On error the game is unchanged.
func (g *Game) SetPosition(fen string, moves []string) error {
	base := board.Start()
	if fen != "" && fen != "startpos" {
		p, err := board.ParseFEN(fen)
		if err != nil {
			return err
		}
		base = p
	}

	snapshots := []Snapshot{snapshotOf(base, "")}
	cur := base
	for i, text := range moves {
		m, err := cur.ParseMove(text)
		if err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
		cur = cur.Apply(m)
		snapshots = append(snapshots, snapshotOf(cur, board.MoveText(m)))
	}

	g.snapshots = snapshots
	g.position = cur
	return nil
}

// Play applies a single move to the current position
func (g *Game) Play(text string) error {
	m, err := g.position.ParseMove(text)
	if err != nil {
		return err
	}
	g.position = g.position.Apply(m)
	g.snapshots = append(g.snapshots, snapshotOf(g.position, board.MoveText(m)))
	return nil
}

func snapshotOf(p *board.Position, move string) Snapshot {
	return Snapshot{
		FEN:          p.FEN(),
		PreviousMove: move,
		NextTurn:     p.Turn(),
	}
}

func (g *Game) Position() *board.Position {
	return g.position
}

func (g *Game) CurrentSnapshot() Snapshot {
	return g.snapshots[len(g.snapshots)-1]
}

func (g *Game) CurrentFEN() string {
	return g.CurrentSnapshot().FEN
}

func (g *Game) NextTurn() chess.Color {
	return g.CurrentSnapshot().NextTurn
}

func (g *Game) Snapshots() []Snapshot {
	return append([]Snapshot(nil), g.snapshots...)
}

func (g *Game) Moves() []string {
	moves := []string{}
	for i := 1; i < len(g.snapshots); i++ {
		if g.snapshots[i].PreviousMove != "" {
			moves = append(moves, g.snapshots[i].PreviousMove)
		}
	}
	return moves
}

func (g *Game) State() core.Status {
	return g.position.Status()
}

func (g *Game) InitialFEN() string {
	if len(g.snapshots) > 0 {
		return g.snapshots[0].FEN
	}
	return board.StartingFEN
}
