package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

// SellerOrderHandler serves the seller-facing order surface. It shares the
// buyer handler's read path but fixes the actor role to seller.
type SellerOrderHandler struct {
	svc    service.OrderService
	guard  service.CancellationWindowGuard
	orders *OrderHandler
}

func NewSellerOrderHandler(svc service.OrderService, guard service.CancellationWindowGuard, orders *OrderHandler) *SellerOrderHandler {
	return &SellerOrderHandler{svc: svc, guard: guard, orders: orders}
}

func (h *SellerOrderHandler) GetDetail(c echo.Context) error {
	return h.orders.detail(c, service.RoleSeller)
}

func (h *SellerOrderHandler) ListSales(c echo.Context) error {
	actor := actorFromContext(c)
	if actor.UID == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	list, err := h.svc.ListBySeller(c.Request().Context(), actor.UID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderListResponse(list, h.guard))
}

func (h *SellerOrderHandler) UpdateStatus(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleSeller
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

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *SellerOrderHandler) Cancel(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleSeller
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	o, err := h.svc.Cancel(c.Request().Context(), orderID, actor, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}
