package board

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// stateLayout locates the turn, en passant and move counter bytes inside the
// rules library's binary position encoding. The offsets are found by diffing
// encodings of positions that differ in a single field.
type stateLayout struct {
	ok       bool
	turn     int
	turnMask byte
	ep       []maskedByte
	counters []int
}

// maskedByte resets the masked bits of one encoding byte to val
type maskedByte struct {
	idx  int
	mask byte
	val  byte
}

var layout = findLayout()

func encodeFEN(fen string) []byte {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil
	}
	b, err := chess.NewGame(opt).Position().MarshalBinary()
	if err != nil {
		return nil
	}
	return b
}

// changed lists the offsets where a and b differ
func changed(a, b []byte) []int {
	if len(a) == 0 || len(a) != len(b) {
		return nil
	}
	var out []int
	for i := range a {
		if a[i] != b[i] {
			out = append(out, i)
		}
	}
	return out
}

func findLayout() stateLayout {
	const bare = "4k3/8/8/8/8/8/8/4K3"
	const pawns = "4k3/8/8/3pP3/8/8/8/4K3"
	white := encodeFEN(bare + " w - - 0 1")
	black := encodeFEN(bare + " b - - 0 1")
	counted := encodeFEN(bare + " w - - 7 300")
	withEP := encodeFEN(pawns + " w - d6 0 2")
	withoutEP := encodeFEN(pawns + " w - - 0 2")

	turn := changed(white, black)
	epBytes := changed(withEP, withoutEP)
	counters := changed(white, counted)
	if len(turn) != 1 || len(epBytes) == 0 || len(counters) == 0 {
		return stateLayout{}
	}

	l := stateLayout{
		ok:       true,
		turn:     turn[0],
		turnMask: white[turn[0]] ^ black[turn[0]],
		counters: counters,
	}
	for _, i := range epBytes {
		// The flags byte also carries turn and castling bits
		mask := byte(0xff)
		if i == l.turn {
			mask = withEP[i] ^ withoutEP[i]
		}
		l.ep = append(l.ep, maskedByte{idx: i, mask: mask, val: withoutEP[i] & mask})
	}

	// Flipped encodings must decode to the same state the text route gives
	checks := []struct{ from, want string }{
		{StartingFEN, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1"},
		{pawns + " w - d6 0 2", pawns + " b - - 0 2"},
	}
	for _, c := range checks {
		enc := encodeFEN(c.from)
		opt, err := chess.FEN(c.want)
		if enc == nil || err != nil {
			return stateLayout{}
		}
		want := chess.NewGame(opt).Position()
		got, err := l.decode(l.passTurn(enc))
		if err != nil || got.String() != want.String() || len(got.ValidMoves()) != len(want.ValidMoves()) {
			return stateLayout{}
		}
	}
	return l
}

// passTurn returns a copy of an encoding with the turn flipped and en
// passant cleared
func (l stateLayout) passTurn(enc []byte) []byte {
	out := bytes.Clone(enc)
	out[l.turn] ^= l.turnMask
	for _, b := range l.ep {
		out[b.idx] = out[b.idx]&^b.mask | b.val
	}
	return out
}

func (l stateLayout) decode(enc []byte) (*chess.Position, error) {
	pos := &chess.Position{}
	if err := pos.UnmarshalBinary(enc); err != nil {
		return nil, err
	}
	return pos, nil
}

// passTurnText is the FEN rendition of passTurn, used when the binary layout
// could not be established
func passTurnText(pos *chess.Position) (*chess.Position, error) {
	parts := strings.Fields(pos.String())
	if len(parts) < 4 {
		return nil, fmt.Errorf("unexpected FEN from rules engine: %q", pos.String())
	}
	if parts[1] == "w" {
		parts[1] = "b"
	} else {
		parts[1] = "w"
	}
	parts[3] = "-"

	out := &chess.Position{}
	if err := out.UnmarshalText([]byte(strings.Join(parts, " "))); err != nil {
		return nil, err
	}
	return out, nil
}

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

// stateHash is FNV-1a over an encoding, skipping the move counters so that
// transpositions reached at different move numbers share a key
func (l stateLayout) stateHash(enc []byte) uint64 {
	h := uint64(fnvOffset)
	next := 0
	for i, c := range enc {
		if next < len(l.counters) && l.counters[next] == i {
			next++
			c = 0
		}
		h ^= uint64(c)
		h *= fnvPrime
	}
	return h
}

// textHash is stateHash for the first four FEN fields
func textHash(fen string) uint64 {
	parts := strings.Fields(fen)
	if len(parts) > 4 {
		parts = parts[:4]
	}
	h := uint64(fnvOffset)
	for _, c := range []byte(strings.Join(parts, " ")) {
		h ^= uint64(c)
		h *= fnvPrime
	}
	return h
}
