package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// writeError maps a service error to an HTTP response. Domain errors carry
// their code and offending field so the client can render an actionable
// message; anything else is a 500.
func writeError(c echo.Context, err error) error {
	de, ok := service.AsDomain(err)
	if !ok {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "internal error"))
	}
	status := http.StatusBadRequest
	switch de.Code {
	case service.CodeOrderNotFound:
		status = http.StatusNotFound
	case service.CodeUnauthorized, service.CodeNotBuyerOwned:
		status = http.StatusForbidden
	case service.CodeInvalidTransition, service.CodeOrderTerminal,
		service.CodeAlreadyConfirmed, service.CodeCancellationWindowActive,
		service.CodeSaleNotConfirmed:
		status = http.StatusConflict
	case service.CodeTransientFailure:
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, ErrorResponse{Error: errorPayload{
		Code:    string(de.Code),
		Field:   de.Field,
		Message: de.Message,
	}})
}

func actorFromContext(c echo.Context) service.Actor {
	uid, _ := c.Get("uid").(string)
	role, _ := c.Get("role").(string)
	return service.Actor{UID: uid, Role: service.Role(role)}
}
