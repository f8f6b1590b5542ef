package http

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chessengine/internal/core"
	"chessengine/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lixenwraith/auth"
)

// Config controls the fiber app
type Config struct {
	DevMode   bool
	Secret    []byte    // HS256 secret; empty disables bearer auth
	RateLimit int       // requests per second per client; 0 picks 1, or 10 in dev mode
	AccessLog io.Writer // nil writes to stderr
}

type HTTPHandler struct {
	svc *service.Service
}

func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func NewFiberApp(svc *service.Service, cfg Config) *fiber.App {
	h := NewHTTPHandler(svc)

	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          75 * time.Second, // longest search budget plus margin
		IdleTimeout:           30 * time.Second,
		DisableStartupMessage: true,
	})

	accessLog := cfg.AccessLog
	if accessLog == nil {
		accessLog = os.Stderr
	}

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Output: accessLog,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit, no auth)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := cfg.RateLimit
	if maxReq <= 0 {
		maxReq = 1
		if cfg.DevMode {
			maxReq = 10
		}
	}
	api.Use(limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   1 * time.Second,
		KeyGenerator: clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrCodeRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	if len(cfg.Secret) > 0 {
		secret := cfg.Secret
		api.Use(AuthRequired(func(token string) (string, map[string]any, error) {
			return auth.ValidateHS256Token(secret, token)
		}))
	}

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/analyze", h.Analyze)

	api.Post("/sessions", h.CreateSession)
	api.Get("/sessions/:id", h.GetSession)
	api.Delete("/sessions/:id", h.DeleteSession)
	api.Put("/sessions/:id/position", h.SetPosition)
	api.Post("/sessions/:id/new", h.NewGame)
	api.Post("/sessions/:id/search", h.Search)
	api.Get("/sessions/:id/board", h.GetBoard)

	return app
}

// clientKey prefers the first X-Forwarded-For hop over the peer address
func clientKey(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	return c.IP()
}

// contentTypeValidator ensures bodies are sent as application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrCodeInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrCodeInternalError,
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed, fiber.StatusBadRequest:
			response.Code = core.ErrCodeInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrCodeRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// sendError maps service errors onto status codes and error codes
func sendError(c *fiber.Ctx, err error) error {
	status, resp := fiber.StatusInternalServerError, core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrCodeInternalError,
	}

	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		status, resp = fiber.StatusNotFound, core.ErrorResponse{Error: "session not found", Code: core.ErrCodeSessionNotFound}
	case errors.Is(err, core.ErrIllegalMove):
		status, resp = fiber.StatusBadRequest, core.ErrorResponse{Error: "invalid move", Code: core.ErrCodeInvalidMove}
	case errors.Is(err, core.ErrParse):
		status, resp = fiber.StatusBadRequest, core.ErrorResponse{Error: "invalid position", Code: core.ErrCodeInvalidFEN}
	case errors.Is(err, core.ErrNoLegalMove):
		status, resp = fiber.StatusConflict, core.ErrorResponse{Error: "game is over", Code: core.ErrCodeGameOver}
	case errors.Is(err, core.ErrQueueFull):
		status, resp = fiber.StatusServiceUnavailable, core.ErrorResponse{Error: "analysis queue is full", Code: core.ErrCodeResourceLimit}
	case errors.Is(err, core.ErrShuttingDown), errors.Is(err, core.ErrUnavailable):
		status, resp = fiber.StatusServiceUnavailable, core.ErrorResponse{Error: "analysis unavailable", Code: core.ErrCodeInternalError}
	}

	if status != fiber.StatusInternalServerError {
		resp.Details = err.Error()
	}
	return c.Status(status).JSON(resp)
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Unix(),
		"storage":  h.svc.StorageHealth(),
		"sessions": h.svc.SessionCount(),
	})
}
