// Package tt is the transposition cache keyed by position fingerprint.
package tt

// Bound records how a cached score relates to the true value
type Bound uint8

const (
	Exact Bound = iota
	Lower       // score is at least this, from a maximizer cutoff
	Upper       // score is at most this, from a minimizer cutoff
)

func (b Bound) String() string {
	switch b {
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	default:
		return "exact"
	}
}

type Entry struct {
	Depth int
	Bound Bound
	Score int
}

// Policy decides whether an incoming entry replaces a stored one
type Policy interface {
	Replace(stored, incoming Entry) bool
}

// AlwaysReplace keeps the most recent write
type AlwaysReplace struct{}

func (AlwaysReplace) Replace(Entry, Entry) bool { return true }

// DepthPreferred keeps the entry searched at least as deep
type DepthPreferred struct{}

func (DepthPreferred) Replace(stored, incoming Entry) bool {
	return incoming.Depth >= stored.Depth
}

// Table is an unbounded map with one slot per fingerprint. It is not safe
// for concurrent use.
type Table struct {
	entries map[uint64]Entry
	policy  Policy
}

func New(policy Policy) *Table {
	if policy == nil {
		policy = AlwaysReplace{}
	}
	return &Table{
		entries: make(map[uint64]Entry),
		policy:  policy,
	}
}

func (t *Table) Get(key uint64) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

func (t *Table) Put(key uint64, depth int, bound Bound, score int) {
	incoming := Entry{Depth: depth, Bound: bound, Score: score}
	if stored, ok := t.entries[key]; ok && !t.policy.Replace(stored, incoming) {
		return
	}
	t.entries[key] = incoming
}

// Probe returns a cached score usable in place of searching depth more plies
// inside the (alpha, beta) window
func (t *Table) Probe(key uint64, depth, alpha, beta int) (int, bool) {
	e, ok := t.entries[key]
	if !ok || e.Depth <= depth {
		return 0, false
	}

	switch e.Bound {
	case Lower:
		if beta <= e.Score {
			return e.Score, true
		}
	case Upper:
		if e.Score <= alpha {
			return e.Score, true
		}
	case Exact:
		if alpha <= e.Score && e.Score <= beta {
			return e.Score, true
		}
	}
	return 0, false
}

func (t *Table) Clear() {
	clear(t.entries)
}

func (t *Table) Len() int {
	return len(t.entries)
}
