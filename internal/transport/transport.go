// Package transport holds the contracts shared by the protocol front ends.
package transport

import (
	"chessengine/internal/board"
	"chessengine/internal/cli"
	"chessengine/internal/engine"
	"chessengine/internal/eval"
)

// CommandSource yields parsed protocol commands
type CommandSource interface {
	GetCommand() (*cli.Command, error)
}

// View abstracts protocol output
type View interface {
	SetVerbose(v bool)
	IsVerbose() bool
	ShowMessage(msg string)
	ShowError(err error)
	ShowUnknown(cmd string)
	ShowID(startDepth int)
	ShowReady()
	ShowProgress(p engine.Progress)
	ShowBestMove(res engine.Result)
	ShowEval(t eval.Terms)
	DisplayBoard(p *board.Position)
	ShowHelp()
}

// Console is a command source with its view, as *cli.CLI provides
type Console interface {
	CommandSource
	View
}

var _ Console = (*cli.CLI)(nil)
