package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"chessengine/internal/board"
	"chessengine/internal/core"
	"chessengine/internal/engine"
	"chessengine/internal/eval"

	"github.com/notnil/chess"
)

const (
	EngineName   = "chessengine"
	EngineAuthor = "chessengine authors"

	// movestogo assumed when the controller sends clock times without it
	defaultMovesToGo = 30
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdUCI
	CmdIsReady
	CmdNewGame
	CmdPosition
	CmdGo
	CmdStop
	CmdDebug
	CmdSetOption
	CmdDisplay
	CmdEval
	CmdHelp
	CmdQuit
	CmdUnknown
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

// LineSource yields one input line per call and io.EOF at the end.
// *readline.Instance satisfies it.
type LineSource interface {
	Readline() (string, error)
}

type scannerSource struct {
	scanner *bufio.Scanner
}

func (s scannerSource) Readline() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg string
	darkBg  string
	white   string
	black   string
	reset   string
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeBrown: {
		lightBg: "\033[48;5;230m", // Beige
		darkBg:  "\033[48;5;94m",  // Brown
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGreen: {
		lightBg: "\033[48;5;157m",
		darkBg:  "\033[48;5;22m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGray: {
		lightBg: "\033[48;5;251m",
		darkBg:  "\033[48;5;240m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
}

// CLI parses protocol commands and renders protocol output
type CLI struct {
	input   LineSource
	output  io.Writer
	theme   ColorTheme
	verbose bool
}

func New(input io.Reader, output io.Writer) *CLI {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return NewWithSource(scannerSource{scanner: scanner}, output)
}

func NewWithSource(input LineSource, output io.Writer) *CLI {
	return &CLI{
		input:  input,
		output: output,
		theme:  ThemeOff,
	}
}

// GetCommand reads a command synchronously. End of input reads as quit.
func (c *CLI) GetCommand() (*Command, error) {
	line, err := c.input.Readline()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Command{Type: CmdQuit}, nil
		}
		return nil, err
	}
	return ParseCommand(line), nil
}

func ParseCommand(input string) *Command {
	input = strings.TrimSpace(input)
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Type: CmdNone}
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "uci":
		return &Command{Type: CmdUCI, Raw: input}
	case "isready":
		return &Command{Type: CmdIsReady, Raw: input}
	case "ucinewgame":
		return &Command{Type: CmdNewGame, Raw: input}
	case "position":
		return &Command{Type: CmdPosition, Args: args, Raw: input}
	case "go":
		return &Command{Type: CmdGo, Args: args, Raw: input}
	case "stop":
		return &Command{Type: CmdStop, Raw: input}
	case "debug":
		return &Command{Type: CmdDebug, Args: args, Raw: input}
	case "setoption":
		return &Command{Type: CmdSetOption, Args: args, Raw: input}
	case "d":
		return &Command{Type: CmdDisplay, Raw: input}
	case "eval":
		return &Command{Type: CmdEval, Raw: input}
	case "help", "?":
		return &Command{Type: CmdHelp, Raw: input}
	case "quit", "exit":
		return &Command{Type: CmdQuit, Raw: input}
	default:
		return &Command{Type: CmdUnknown, Args: []string{cmd}, Raw: input}
	}
}

// PositionArgs is a parsed position command
type PositionArgs struct {
	FEN   string // empty for the initial layout
	Moves []string
}

func ParsePosition(args []string) (PositionArgs, error) {
	if len(args) == 0 {
		return PositionArgs{}, fmt.Errorf("%w: position needs startpos or fen", core.ErrParse)
	}

	var pa PositionArgs
	rest := args[1:]
	switch args[0] {
	case "startpos":
	case "fen":
		i := 0
		for i < len(rest) && rest[i] != "moves" {
			i++
		}
		if i == 0 {
			return PositionArgs{}, fmt.Errorf("%w: missing FEN after 'fen'", core.ErrParse)
		}
		pa.FEN = strings.Join(rest[:i], " ")
		rest = rest[i:]
	default:
		return PositionArgs{}, fmt.Errorf("%w: unknown position type %q", core.ErrParse, args[0])
	}

	if len(rest) > 0 {
		if rest[0] != "moves" {
			return PositionArgs{}, fmt.Errorf("%w: unexpected %q", core.ErrParse, rest[0])
		}
		pa.Moves = rest[1:]
	}
	return pa, nil
}

// GoArgs is a parsed go command
type GoArgs struct {
	MoveTime    time.Duration
	HasMoveTime bool // movetime 0 asks for an unbounded search
	WTime       time.Duration
	BTime       time.Duration
	WInc        time.Duration
	BInc        time.Duration
	MovesToGo   int
	Depth       int
}

func ParseGo(args []string) (GoArgs, error) {
	var ga GoArgs
	for i := 0; i < len(args); i++ {
		key := args[i]
		switch key {
		case "movetime", "wtime", "btime", "winc", "binc", "movestogo", "depth":
		case "infinite", "ponder":
			return GoArgs{}, fmt.Errorf("%w: go %s is not supported", core.ErrParse, key)
		default:
			return GoArgs{}, fmt.Errorf("%w: unknown go parameter %q", core.ErrParse, key)
		}

		if i+1 >= len(args) {
			return GoArgs{}, fmt.Errorf("%w: go %s needs a value", core.ErrParse, key)
		}
		i++
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 {
			return GoArgs{}, fmt.Errorf("%w: go %s: invalid value %q", core.ErrParse, key, args[i])
		}

		ms := time.Duration(n) * time.Millisecond
		switch key {
		case "movetime":
			ga.MoveTime, ga.HasMoveTime = ms, true
		case "wtime":
			ga.WTime = ms
		case "btime":
			ga.BTime = ms
		case "winc":
			ga.WInc = ms
		case "binc":
			ga.BInc = ms
		case "movestogo":
			ga.MovesToGo = n
		case "depth":
			ga.Depth = n
		}
	}
	return ga, nil
}

// Budget picks the time for the side to move: movetime when given, else a
// share of the remaining clock plus increment, else def. Zero means no limit.
func (g GoArgs) Budget(turn chess.Color, def time.Duration) time.Duration {
	if g.HasMoveTime {
		return g.MoveTime
	}

	remaining, inc := g.WTime, g.WInc
	if turn == chess.Black {
		remaining, inc = g.BTime, g.BInc
	}
	if remaining == 0 {
		if g.Depth > 0 {
			return 0
		}
		return def
	}

	togo := g.MovesToGo
	if togo <= 0 {
		togo = defaultMovesToGo
	}
	return remaining/time.Duration(togo) + inc
}

// ParseSetOption splits "name <n...> value <v...>"
func ParseSetOption(args []string) (name, value string, err error) {
	if len(args) < 2 || args[0] != "name" {
		return "", "", fmt.Errorf("%w: setoption name <id> [value <x>]", core.ErrParse)
	}

	i := 1
	for i < len(args) && args[i] != "value" {
		i++
	}
	name = strings.Join(args[1:i], " ")
	if i < len(args) {
		value = strings.Join(args[i+1:], " ")
	}
	if name == "" {
		return "", "", fmt.Errorf("%w: setoption without a name", core.ErrParse)
	}
	return name, value, nil
}

func (c *CLI) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	c.theme = theme
	return nil
}

func (c *CLI) SetVerbose(v bool) {
	c.verbose = v
}

func (c *CLI) IsVerbose() bool {
	return c.verbose
}

func (c *CLI) ShowMessage(msg string) {
	fmt.Fprintln(c.output, msg)
}

// ShowError reports a rejected command without ending the session
func (c *CLI) ShowError(err error) {
	c.ShowMessage(fmt.Sprintf("info string error: %v", err))
}

func (c *CLI) ShowUnknown(cmd string) {
	c.ShowMessage("Unrecognized command: " + cmd)
}

func (c *CLI) ShowID(startDepth int) {
	c.ShowMessage("id name " + EngineName)
	c.ShowMessage("id author " + EngineAuthor)
	c.ShowMessage(fmt.Sprintf("option name StartDepth type spin default %d min 1 max 32", startDepth))
	c.ShowMessage("option name Verbose type check default false")
	c.ShowMessage("uciok")
}

func (c *CLI) ShowReady() {
	c.ShowMessage("readyok")
}

func (c *CLI) ShowProgress(p engine.Progress) {
	c.ShowMessage(fmt.Sprintf("info score cp %d depth %d hashfull %d time %d currmove %s",
		p.Score, p.Depth, p.CacheSize, p.Elapsed.Milliseconds(), board.MoveText(p.Move)))
}

func (c *CLI) ShowBestMove(res engine.Result) {
	if c.verbose {
		c.ShowMessage(fmt.Sprintf("info string score %.2f depth %d nodes %d time %d",
			res.Normalized(), res.Depth, res.Nodes, res.Elapsed.Milliseconds()))
	}
	c.ShowMessage("bestmove " + board.MoveText(res.Move))
}

func (c *CLI) ShowEval(t eval.Terms) {
	if t.Stalemate {
		c.ShowMessage("Stalemate: 0")
		return
	}
	c.ShowMessage(fmt.Sprintf("Material:      %6d", t.Material))
	c.ShowMessage(fmt.Sprintf("King mobility: %6d", t.KingMobility))
	c.ShowMessage(fmt.Sprintf("Mobility:      %6d", t.Mobility))
	c.ShowMessage(fmt.Sprintf("Center:        %6d", t.Center))
	c.ShowMessage(fmt.Sprintf("Total:         %6d", t.Total()))
}

func (c *CLI) DisplayBoard(p *board.Position) {
	theme := themes[c.theme]
	var sb strings.Builder

	sb.WriteString("\n  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for f := 0; f < 8; f++ {
			pc := p.PieceAt(chess.NewSquare(chess.File(f), chess.Rank(7-r)))

			if c.theme == ThemeOff {
				if pc == chess.NoPiece {
					sb.WriteString(". ")
				} else {
					sb.WriteString(fmt.Sprintf("%c ", board.PieceLetter(pc)))
				}
				continue
			}

			bg := theme.darkBg
			if (r+f)%2 == 0 {
				bg = theme.lightBg
			}
			if pc == chess.NoPiece {
				sb.WriteString(fmt.Sprintf("%s  %s", bg, theme.reset))
			} else {
				color := theme.black
				if pc.Color() == chess.White {
					color = theme.white
				}
				sb.WriteString(fmt.Sprintf("%s%s%c %s", bg, color, board.PieceLetter(pc), theme.reset))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h\n")
	sb.WriteString(fmt.Sprintf("\nFen: %s\nStatus: %s", p.FEN(), p.Status()))

	c.ShowMessage(sb.String())
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  uci                          - Identify engine and list options
  isready                      - Synchronize, answers readyok
  ucinewgame                   - Clear the cache and reset to the initial layout
  position startpos [moves ..] - Set the initial layout plus moves
  position fen <FEN> [moves ..]- Set a position plus moves
  go [movetime N] [depth N]    - Search and print bestmove
     [wtime N btime N winc N binc N movestogo N]
  debug on|off                 - Toggle per-move progress lines
  setoption name <n> value <v> - StartDepth, Verbose
  d                            - Show the board
  eval                         - Show the evaluation breakdown
  help                         - Show this help
  quit                         - Exit`

	c.ShowMessage(help)
}
