package match

import (
	"context"
	"fmt"
	"time"

	"chessengine/internal/board"
	"chessengine/internal/engine"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
)

// Player chooses a move for the side to move in g
type Player interface {
	Name() string
	BestMove(ctx context.Context, g *chess.Game) (*chess.Move, error)
}

// EnginePlayer plays with this module's engine, searching each move from an
// empty cache
type EnginePlayer struct {
	engine *engine.Engine
	limits engine.Limits
}

func NewEnginePlayer(eng *engine.Engine, limits engine.Limits) *EnginePlayer {
	return &EnginePlayer{engine: eng, limits: limits}
}

func (p *EnginePlayer) Name() string {
	return "chessengine"
}

func (p *EnginePlayer) BestMove(ctx context.Context, g *chess.Game) (*chess.Move, error) {
	p.engine.ClearCache()
	res, err := p.engine.BestMove(ctx, board.FromChess(g.Position()), p.limits)
	if err != nil {
		return nil, err
	}
	return res.Move, nil
}

// UCIPlayer drives an external engine binary over UCI
type UCIPlayer struct {
	name     string
	eng      *uci.Engine
	moveTime time.Duration
}

// NewUCIPlayer starts the engine at path and completes the UCI handshake
func NewUCIPlayer(path string, moveTime time.Duration) (*UCIPlayer, error) {
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("uci handshake: %w", err)
	}

	name := eng.ID()["name"]
	if name == "" {
		name = path
	}
	return &UCIPlayer{name: name, eng: eng, moveTime: moveTime}, nil
}

func (p *UCIPlayer) Name() string {
	return p.name
}

// BestMove ignores ctx; the external search is bounded by the move time
func (p *UCIPlayer) BestMove(_ context.Context, g *chess.Game) (*chess.Move, error) {
	cmdPos := uci.CmdPosition{Position: g.Position()}
	cmdGo := uci.CmdGo{MoveTime: p.moveTime}

	if err := p.eng.Run(cmdPos, cmdGo); err != nil {
		return nil, err
	}
	return p.eng.SearchResults().BestMove, nil
}

// NewGame resets the external engine between games
func (p *UCIPlayer) NewGame() error {
	return p.eng.Run(uci.CmdUCINewGame, uci.CmdIsReady)
}

func (p *UCIPlayer) Close() error {
	return p.eng.Close()
}
