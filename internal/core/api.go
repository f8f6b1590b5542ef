package core

// Request types

type AnalyzeRequest struct {
	FEN    string   `json:"fen,omitempty" validate:"omitempty,max=100"`
	Moves  []string `json:"moves,omitempty" validate:"omitempty,max=600,dive,min=4,max=5"`
	TimeMs int      `json:"timeMs" validate:"min=0,max=60000"` // 0 means unbounded, requires depth
	Depth  int      `json:"depth,omitempty" validate:"omitempty,min=1,max=32"`
}

type CreateSessionRequest struct {
	FEN string `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type PositionRequest struct {
	FEN   string   `json:"fen,omitempty" validate:"omitempty,max=100"` // empty means the standard layout
	Moves []string `json:"moves,omitempty" validate:"omitempty,max=600,dive,min=4,max=5"`
}

type SearchRequest struct {
	TimeMs int `json:"timeMs" validate:"min=0,max=60000"`
	Depth  int `json:"depth,omitempty" validate:"omitempty,min=1,max=32"`
}

// Response types

type SearchResponse struct {
	Move            string  `json:"move"`
	Score           int     `json:"score"`
	NormalizedScore float64 `json:"normalizedScore"`
	Depth           int     `json:"depth"`
	Nodes           int64   `json:"nodes"`
	ElapsedMs       int64   `json:"elapsedMs"`
	FEN             string  `json:"fen"`
}

type SessionResponse struct {
	SessionID  string   `json:"sessionId"`
	InitialFEN string   `json:"initialFen"`
	FEN        string   `json:"fen"`
	Turn       string   `json:"turn"`   // "w" or "b"
	Status     string   `json:"status"` // "ongoing", "stalemate", "checkmate"
	Moves      []string `json:"moves"`
	CacheSize  int      `json:"cacheSize"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
