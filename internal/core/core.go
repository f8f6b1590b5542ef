package core

// Status classifies a position from the rules engine's point of view.
type Status int

const (
	StatusOngoing Status = iota
	StatusStalemate
	StatusCheckmate
)

func (s Status) String() string {
	switch s {
	case StatusStalemate:
		return "stalemate"
	case StatusCheckmate:
		return "checkmate"
	default:
		return "ongoing"
	}
}
