package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

type AdminHandler struct {
	svc   service.OrderService
	audit service.AuditService
	guard service.CancellationWindowGuard
}

func NewAdminHandler(svc service.OrderService, audit service.AuditService, guard service.CancellationWindowGuard) *AdminHandler {
	return &AdminHandler{svc: svc, audit: audit, guard: guard}
}

// ForceStatus lets an admin apply any legal transition, including the
// engine-driven installment states.
func (h *AdminHandler) ForceStatus(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleAdmin
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	o, err := h.svc.RequestTransition(c.Request().Context(), orderID, actor, model.OrderStatus(req.Status), req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}

type auditEntryResponse struct {
	ActorUID  string `json:"actorUid"`
	ActorRole string `json:"actorRole"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (h *AdminHandler) ListAudit(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.audit.ListByOrder(c.Request().Context(), orderID, 100)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, auditEntryResponse{
			ActorUID:  e.ActorUID,
			ActorRole: e.ActorRole,
			Action:    e.Action,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
