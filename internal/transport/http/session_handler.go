package http

import (
	"chessengine/internal/core"

	"github.com/gofiber/fiber/v2"
)

// Analyze searches a position given in the request on the worker pool
func (h *HTTPHandler) Analyze(c *fiber.Ctx) error {
	req := validatedBody[core.AnalyzeRequest](c)

	resp, err := h.svc.Analyze(c.UserContext(), *req)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(resp)
}

func (h *HTTPHandler) CreateSession(c *fiber.Ctx) error {
	req := validatedBody[core.CreateSessionRequest](c)

	resp, err := h.svc.CreateSession(req.FEN)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *HTTPHandler) GetSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.GetSession(id)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(resp)
}

func (h *HTTPHandler) DeleteSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteSession(id); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPosition replaces the session position; a failed update leaves it unchanged
func (h *HTTPHandler) SetPosition(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	req := validatedBody[core.PositionRequest](c)

	resp, err := h.svc.SetPosition(id, req.FEN, req.Moves)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(resp)
}

func (h *HTTPHandler) NewGame(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.NewGame(id)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(resp)
}

func (h *HTTPHandler) Search(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	req := validatedBody[core.SearchRequest](c)

	resp, err := h.svc.Search(c.UserContext(), id, req.TimeMs, req.Depth)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(resp)
}

func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.Board(id)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(resp)
}

// sessionID returns the :id parameter; a malformed id becomes a 400 through
// customErrorHandler
func sessionID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if !isValidUUID(id) {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}
