package http

import (
	"fmt"
	"reflect"
	"strings"

	"chessengine/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

const validatedBodyKey = "validatedBody"

// validationMiddleware parses and validates the JSON body of write requests
// and stores the result for the handler
func validationMiddleware(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodDelete || method == fiber.MethodOptions {
		return c.Next()
	}

	path := strings.TrimSuffix(c.Path(), "/")
	var requestType any

	switch {
	case strings.HasSuffix(path, "/analyze") && method == fiber.MethodPost:
		requestType = &core.AnalyzeRequest{}
	case strings.HasSuffix(path, "/sessions") && method == fiber.MethodPost:
		requestType = &core.CreateSessionRequest{}
	case strings.HasSuffix(path, "/position") && method == fiber.MethodPut:
		requestType = &core.PositionRequest{}
	case strings.HasSuffix(path, "/search") && method == fiber.MethodPost:
		requestType = &core.SearchRequest{}
	default:
		return c.Next()
	}

	// An empty body stands for the zero request
	if len(c.Body()) > 0 {
		if err := c.BodyParser(requestType); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid request body",
				Code:    core.ErrCodeInvalidRequest,
				Details: err.Error(),
			})
		}
	}

	if err := validate.Struct(requestType); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrCodeInvalidRequest,
			Details: validationDetails(err),
		})
	}

	c.Locals(validatedBodyKey, requestType)
	return c.Next()
}

func validationDetails(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var details strings.Builder
	for _, fe := range errs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		kind := fe.Kind()
		switch fe.Tag() {
		case "required":
			fmt.Fprintf(&details, "%s is required", fe.Field())
		case "min":
			if kind == reflect.String {
				fmt.Fprintf(&details, "%s must be at least %s characters", fe.Namespace(), fe.Param())
			} else {
				fmt.Fprintf(&details, "%s must be at least %s", fe.Namespace(), fe.Param())
			}
		case "max":
			if kind == reflect.String {
				fmt.Fprintf(&details, "%s must be at most %s characters", fe.Namespace(), fe.Param())
			} else {
				fmt.Fprintf(&details, "%s must be at most %s", fe.Namespace(), fe.Param())
			}
		default:
			fmt.Fprintf(&details, "%s failed %s validation", fe.Field(), fe.Tag())
		}
	}
	return details.String()
}

// validatedBody returns the request stored by validationMiddleware
func validatedBody[T any](c *fiber.Ctx) *T {
	if v, ok := c.Locals(validatedBodyKey).(*T); ok {
		return v
	}
	return new(T)
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
