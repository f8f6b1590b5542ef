package board

import (
	"fmt"
	"strconv"
	"strings"

	"chessengine/internal/core"

	"github.com/notnil/chess"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Position is an immutable game state. Applying a move returns a new
// Position. The legal move list is computed lazily and memoized, so a
// Position must not be shared between goroutines without synchronization.
type Position struct {
	pos     *chess.Position
	moves   []*chess.Move
	enc     []byte
	inCheck bool
}

// Start returns the standard initial layout
func Start() *Position {
	return wrap(chess.NewGame().Position())
}

// ParseFEN decodes a full six-field position description
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, fmt.Errorf("%w: invalid FEN: expected 6 parts, got %d", core.ErrParse, len(parts))
	}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("%w: invalid FEN: expected 8 ranks", core.ErrParse)
	}

	kings := map[rune]int{}
	for r, rank := range ranks {
		file := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				file += int(ch - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", ch):
				if ch == 'k' || ch == 'K' {
					kings[ch]++
				}
				file++
			default:
				return nil, fmt.Errorf("%w: invalid FEN: unexpected %q in rank %d", core.ErrParse, ch, 8-r)
			}
		}
		if file != 8 {
			return nil, fmt.Errorf("%w: invalid FEN: rank %d has %d files", core.ErrParse, 8-r, file)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return nil, fmt.Errorf("%w: invalid FEN: each side needs exactly one king", core.ErrParse)
	}

	if parts[1] != "w" && parts[1] != "b" {
		return nil, fmt.Errorf("%w: invalid FEN: turn must be 'w' or 'b'", core.ErrParse)
	}

	if _, err := strconv.Atoi(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: invalid FEN: halfmove counter", core.ErrParse)
	}
	fullmove, err := strconv.Atoi(parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid FEN: fullmove counter", core.ErrParse)
	}
	// Puzzle collections commonly write a zero move number
	if fullmove < 1 {
		parts[5] = "1"
	}

	opt, err := chess.FEN(strings.Join(parts, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	return wrap(chess.NewGame(opt).Position()), nil
}

// FromChess wraps a position produced by the rules library directly
func FromChess(pos *chess.Position) *Position {
	return wrap(pos)
}

func wrap(pos *chess.Position) *Position {
	p := &Position{pos: pos}
	if sq, ok := p.KingSquare(pos.Turn()); ok {
		p.inCheck = attacked(pos.Board(), sq, pos.Turn().Other())
	}
	return p
}

// Chess exposes the underlying library position
func (p *Position) Chess() *chess.Position {
	return p.pos
}

// LegalMoves returns the memoized legal moves; callers must not modify the slice
func (p *Position) LegalMoves() []*chess.Move {
	if p.moves == nil {
		p.moves = p.pos.ValidMoves()
		if p.moves == nil {
			p.moves = []*chess.Move{}
		}
	}
	return p.moves
}

// Apply returns the position after m, which must come from LegalMoves
func (p *Position) Apply(m *chess.Move) *Position {
	return &Position{
		pos:     p.pos.Update(m),
		inCheck: m.HasTag(chess.Check),
	}
}

// ApplyMoves replays a sequence of long algebraic moves on top of p
func (p *Position) ApplyMoves(moves []string) (*Position, error) {
	cur := p
	for i, text := range moves {
		m, err := cur.ParseMove(text)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		cur = cur.Apply(m)
	}
	return cur, nil
}

// ParseMove resolves long algebraic text (e2e4, a7a8q) to a legal move
func (p *Position) ParseMove(text string) (*chess.Move, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) < 4 || len(text) > 5 {
		return nil, fmt.Errorf("%w: malformed text %q", core.ErrIllegalMove, text)
	}
	for _, m := range p.LegalMoves() {
		if MoveText(m) == text {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w %q", core.ErrIllegalMove, text)
}

// MoveText encodes a move as long algebraic text
func MoveText(m *chess.Move) string {
	if m == nil {
		return "0000"
	}
	return m.String()
}

func (p *Position) Status() core.Status {
	if len(p.LegalMoves()) > 0 {
		return core.StatusOngoing
	}
	if p.inCheck {
		return core.StatusCheckmate
	}
	return core.StatusStalemate
}

func (p *Position) Turn() chess.Color {
	return p.pos.Turn()
}

// InCheck reports whether the side to move is in check
func (p *Position) InCheck() bool {
	return p.inCheck
}

// encoding is the memoized binary form of the rules library position
func (p *Position) encoding() []byte {
	if p.enc == nil {
		enc, err := p.pos.MarshalBinary()
		if err != nil {
			return nil
		}
		p.enc = enc
	}
	return p.enc
}

// Fingerprint is a 64-bit identity of the game state: placement, turn,
// castling and en passant rights. Move counters are left out.
func (p *Position) Fingerprint() uint64 {
	if enc := p.encoding(); layout.ok && enc != nil {
		return layout.stateHash(enc)
	}
	return textHash(p.pos.String())
}

// NullMove passes the turn without moving. En passant rights are dropped.
func (p *Position) NullMove() (*Position, error) {
	if p.inCheck {
		return nil, fmt.Errorf("null move not allowed while in check")
	}

	var (
		next *chess.Position
		err  error
	)
	if enc := p.encoding(); layout.ok && enc != nil {
		next, err = layout.decode(layout.passTurn(enc))
	} else {
		next, err = passTurnText(p.pos)
	}
	if err != nil {
		return nil, fmt.Errorf("null move: %w", err)
	}
	// The side that just passed was not in check, so neither is the mover
	return &Position{pos: next}, nil
}

func (p *Position) PieceAt(sq chess.Square) chess.Piece {
	return p.pos.Board().Piece(sq)
}

// KingSquare locates the king of color c
func (p *Position) KingSquare(c chess.Color) (chess.Square, bool) {
	b := p.pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		pc := b.Piece(sq)
		if pc.Type() == chess.King && pc.Color() == c {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

func (p *Position) FEN() string {
	return p.pos.String()
}

// ToASCII creates an ASCII representation of the board
func (p *Position) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 7; r >= 0; r-- {
		sb.WriteString(fmt.Sprintf("%d ", r+1))
		for f := 0; f < 8; f++ {
			pc := p.PieceAt(chess.NewSquare(chess.File(f), chess.Rank(r)))
			if pc == chess.NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(fmt.Sprintf("%c ", PieceLetter(pc)))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", r+1))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

// PieceLetter returns the FEN letter of a piece, uppercase for White
func PieceLetter(pc chess.Piece) byte {
	var letter byte
	switch pc.Type() {
	case chess.King:
		letter = 'k'
	case chess.Queen:
		letter = 'q'
	case chess.Rook:
		letter = 'r'
	case chess.Bishop:
		letter = 'b'
	case chess.Knight:
		letter = 'n'
	case chess.Pawn:
		letter = 'p'
	default:
		return '.'
	}
	if pc.Color() == chess.White {
		letter -= 'a' - 'A'
	}
	return letter
}
