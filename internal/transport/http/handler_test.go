package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chessengine/internal/board"
	"chessengine/internal/core"
	"chessengine/internal/processor"
	"chessengine/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/lixenwraith/auth"
	"github.com/rs/zerolog"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestApp(t *testing.T, cfg Config) *fiber.App {
	t.Helper()
	q := processor.NewEngineQueue(1, zerolog.Nop())
	t.Cleanup(func() { q.Shutdown(5 * time.Second) })

	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1000
	}
	cfg.AccessLog = io.Discard
	return NewFiberApp(service.New(service.WithQueue(q)), cfg)
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, Config{})
	status, body := do(t, app, "GET", "/health", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	got := decode[map[string]any](t, body)
	if got["status"] != "healthy" || got["storage"] != "disabled" {
		t.Errorf("health = %v", got)
	}
}

func TestSessionFlow(t *testing.T) {
	app := newTestApp(t, Config{})

	status, body := do(t, app, "POST", "/api/v1/sessions", "")
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d: %s", status, body)
	}
	sess := decode[core.SessionResponse](t, body)
	base := "/api/v1/sessions/" + sess.SessionID

	status, body = do(t, app, "PUT", base+"/position", `{"moves":["e2e4","e7e5"]}`)
	if status != fiber.StatusOK {
		t.Fatalf("position status = %d: %s", status, body)
	}
	if got := decode[core.SessionResponse](t, body); len(got.Moves) != 2 || got.Turn != "w" {
		t.Errorf("after position = %+v", got)
	}

	status, body = do(t, app, "POST", base+"/search", `{"timeMs":0,"depth":2}`)
	if status != fiber.StatusOK {
		t.Fatalf("search status = %d: %s", status, body)
	}
	res := decode[core.SearchResponse](t, body)
	if res.Move == "" || res.Depth != 2 {
		t.Errorf("search = %+v", res)
	}

	status, body = do(t, app, "GET", base+"/board", "")
	if status != fiber.StatusOK {
		t.Fatalf("board status = %d", status)
	}
	if b := decode[core.BoardResponse](t, body); b.Board == "" || !strings.HasPrefix(b.FEN, "rnbqkbnr/pppp1ppp/8/4p3/4P3") {
		t.Errorf("board = %+v", b)
	}

	status, body = do(t, app, "POST", base+"/new", "")
	if status != fiber.StatusOK {
		t.Fatalf("new status = %d", status)
	}
	if got := decode[core.SessionResponse](t, body); got.FEN != board.StartingFEN || got.CacheSize != 0 {
		t.Errorf("after new game = %+v", got)
	}

	if status, _ = do(t, app, "DELETE", base, ""); status != fiber.StatusNoContent {
		t.Errorf("delete status = %d", status)
	}
	status, body = do(t, app, "GET", base, "")
	if status != fiber.StatusNotFound || decode[core.ErrorResponse](t, body).Code != core.ErrCodeSessionNotFound {
		t.Errorf("get after delete = %d %s", status, body)
	}
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t, Config{})

	_, body := do(t, app, "POST", "/api/v1/sessions", `{"fen":"R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1"}`)
	mated := "/api/v1/sessions/" + decode[core.SessionResponse](t, body).SessionID
	_, body = do(t, app, "POST", "/api/v1/sessions", "")
	fresh := "/api/v1/sessions/" + decode[core.SessionResponse](t, body).SessionID

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"bad fen", "POST", "/api/v1/sessions", `{"fen":"8/8/8 w - - 0 1"}`, 400, core.ErrCodeInvalidFEN},
		{"illegal move", "PUT", fresh + "/position", `{"moves":["e2e5"]}`, 400, core.ErrCodeInvalidMove},
		{"short move text", "PUT", fresh + "/position", `{"moves":["e2"]}`, 400, core.ErrCodeInvalidRequest},
		{"negative time", "POST", fresh + "/search", `{"timeMs":-1}`, 400, core.ErrCodeInvalidRequest},
		{"depth too large", "POST", "/api/v1/analyze", `{"depth":99}`, 400, core.ErrCodeInvalidRequest},
		{"malformed json", "POST", "/api/v1/analyze", `{"depth":`, 400, core.ErrCodeInvalidRequest},
		{"game over", "POST", mated + "/search", `{"timeMs":100}`, 409, core.ErrCodeGameOver},
		{"bad id", "GET", "/api/v1/sessions/not-a-uuid", "", 400, core.ErrCodeInvalidRequest},
		{"unknown id", "GET", "/api/v1/sessions/00000000-0000-0000-0000-000000000000", "", 404, core.ErrCodeSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", status, tt.wantStatus, body)
			}
			if got := decode[core.ErrorResponse](t, body); got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	app := newTestApp(t, Config{})
	status, _ := do(t, app, "POST", "/api/v1/analyze", `{"depth":1}`, "Content-Type", "text/plain")
	if status != fiber.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", status)
	}
}

func TestAnalyze(t *testing.T) {
	app := newTestApp(t, Config{})
	status, body := do(t, app, "POST", "/api/v1/analyze", `{"fen":"k7/8/8/8/8/2b5/8/K6r w - - 0 1","depth":2}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	if res := decode[core.SearchResponse](t, body); res.Move != "a1a2" {
		t.Errorf("analyze = %+v", res)
	}
}

func TestDepthOnlyAnalyzeIsBounded(t *testing.T) {
	q := processor.NewEngineQueue(1, zerolog.Nop())
	t.Cleanup(func() { q.Shutdown(5 * time.Second) })
	svc := service.New(service.WithQueue(q), service.WithMaxBudget(50*time.Millisecond))
	app := NewFiberApp(svc, Config{RateLimit: 1000, AccessLog: io.Discard})

	start := time.Now()
	status, body := do(t, app, "POST", "/api/v1/analyze", `{"fen":"`+board.StartingFEN+`","depth":32}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("depth-only analyze ran %v with a 50ms ceiling", elapsed)
	}
	if res := decode[core.SearchResponse](t, body); res.Move == "" || res.Depth >= 32 {
		t.Errorf("analyze = %+v, want a move short of depth 32", res)
	}
}

func TestAuth(t *testing.T) {
	app := newTestApp(t, Config{Secret: testSecret})

	if status, _ := do(t, app, "GET", "/health", ""); status != fiber.StatusOK {
		t.Errorf("health should stay public, status = %d", status)
	}

	status, body := do(t, app, "POST", "/api/v1/sessions", "")
	if status != fiber.StatusUnauthorized || decode[core.ErrorResponse](t, body).Code != core.ErrCodeUnauthorized {
		t.Errorf("without token = %d %s", status, body)
	}

	if status, _ = do(t, app, "POST", "/api/v1/sessions", "", "Authorization", "Bearer garbage"); status != fiber.StatusUnauthorized {
		t.Errorf("bad token status = %d", status)
	}

	token, err := auth.GenerateHS256Token(testSecret, "tester", map[string]any{"scope": "api"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateHS256Token: %v", err)
	}
	if status, body = do(t, app, "POST", "/api/v1/sessions", "", "Authorization", "Bearer "+token); status != fiber.StatusCreated {
		t.Errorf("valid token status = %d: %s", status, body)
	}
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, Config{RateLimit: 1})
	do(t, app, "POST", "/api/v1/sessions", "")
	status, body := do(t, app, "POST", "/api/v1/sessions", "")
	if status != fiber.StatusTooManyRequests || decode[core.ErrorResponse](t, body).Code != core.ErrCodeRateLimitExceeded {
		t.Errorf("second request = %d %s", status, body)
	}
}
