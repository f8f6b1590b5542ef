package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chessengine/internal/cli"
	"chessengine/internal/core"
	"chessengine/internal/engine"
	"chessengine/internal/eval"
	"chessengine/internal/game"
	"chessengine/internal/transport"

	"github.com/rs/zerolog"
)

const DefaultBudget = time.Second

// CLIHandler runs the line protocol: it owns the current game and one
// long-lived engine whose cache persists between commands
type CLIHandler struct {
	game   *game.Game
	engine *engine.Engine
	view   transport.Console
	logger zerolog.Logger
	budget time.Duration
}

func New(eng *engine.Engine, view transport.Console, logger zerolog.Logger) *CLIHandler {
	return &CLIHandler{
		game:   game.New(),
		engine: eng,
		view:   view,
		logger: logger,
		budget: DefaultBudget,
	}
}

// SetDefaultBudget sets the search time used when go carries no clock
func (h *CLIHandler) SetDefaultBudget(d time.Duration) {
	h.budget = d
}

func (h *CLIHandler) Game() *game.Game {
	return h.game
}

// Run processes commands until quit or end of input
func (h *CLIHandler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd, err := h.view.GetCommand()
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		if !h.ProcessCommand(ctx, cmd) {
			return nil
		}
	}
}

// ProcessCommand handles one command and returns false to exit
func (h *CLIHandler) ProcessCommand(ctx context.Context, cmd *cli.Command) bool {
	switch cmd.Type {
	case cli.CmdQuit:
		return false

	case cli.CmdNone, cli.CmdStop:
		// Searches run to completion before the next line is read

	case cli.CmdUCI:
		h.view.ShowID(h.engine.StartDepth())

	case cli.CmdIsReady:
		h.view.ShowReady()

	case cli.CmdNewGame:
		h.engine.ClearCache()
		h.game.Reset()
		h.logger.Debug().Msg("new game")

	case cli.CmdPosition:
		h.handlePosition(cmd.Args)

	case cli.CmdGo:
		h.handleGo(ctx, cmd.Args)

	case cli.CmdDebug:
		switch strings.Join(cmd.Args, " ") {
		case "on", "":
			h.view.SetVerbose(true)
		case "off":
			h.view.SetVerbose(false)
		default:
			h.view.ShowError(fmt.Errorf("%w: debug on|off", core.ErrParse))
		}

	case cli.CmdSetOption:
		h.handleSetOption(cmd.Args)

	case cli.CmdDisplay:
		h.view.DisplayBoard(h.game.Position())

	case cli.CmdEval:
		h.view.ShowEval(eval.Breakdown(h.game.Position()))

	case cli.CmdHelp:
		h.view.ShowHelp()

	case cli.CmdUnknown:
		h.view.ShowUnknown(cmd.Args[0])
	}

	return true
}

func (h *CLIHandler) handlePosition(args []string) {
	pa, err := cli.ParsePosition(args)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	if err := h.game.SetPosition(pa.FEN, pa.Moves); err != nil {
		h.view.ShowError(err)
		return
	}
	h.logger.Debug().Str("fen", h.game.CurrentFEN()).Int("moves", len(pa.Moves)).Msg("position set")
}

func (h *CLIHandler) handleGo(ctx context.Context, args []string) {
	ga, err := cli.ParseGo(args)
	if err != nil {
		h.view.ShowError(err)
		return
	}

	pos := h.game.Position()
	limits := engine.Limits{
		Budget:     ga.Budget(pos.Turn(), h.budget),
		MaxDepth:   ga.Depth,
		Verbose:    h.view.IsVerbose(),
		OnProgress: h.view.ShowProgress,
	}

	// Every search starts from an empty cache
	h.engine.ClearCache()

	res, err := h.engine.BestMove(ctx, pos, limits)
	if err != nil {
		h.logger.Warn().Err(err).Str("fen", pos.FEN()).Msg("search rejected")
		h.view.ShowError(err)
		return
	}
	h.view.ShowBestMove(res)
}

func (h *CLIHandler) handleSetOption(args []string) {
	name, value, err := cli.ParseSetOption(args)
	if err != nil {
		h.view.ShowError(err)
		return
	}

	switch strings.ToLower(name) {
	case "startdepth":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			h.view.ShowError(fmt.Errorf("%w: StartDepth must be a positive integer", core.ErrParse))
			return
		}
		h.engine.SetStartDepth(n)
	case "verbose":
		v, err := strconv.ParseBool(value)
		if err != nil {
			h.view.ShowError(fmt.Errorf("%w: Verbose must be true or false", core.ErrParse))
			return
		}
		h.view.SetVerbose(v)
	default:
		h.view.ShowError(fmt.Errorf("%w: unknown option %q", core.ErrParse, name))
	}
}
