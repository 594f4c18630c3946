package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pasarlink/marketplace-backend/internal/cache"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

// OrderHandler serves the buyer-facing order surface.
type OrderHandler struct {
	svc   service.OrderService
	guard service.CancellationWindowGuard
	cache *cache.OrderCache
}

func NewOrderHandler(svc service.OrderService, guard service.CancellationWindowGuard, orderCache *cache.OrderCache) *OrderHandler {
	return &OrderHandler{svc: svc, guard: guard, cache: orderCache}
}

type checkoutItemRequest struct {
	ItemID   uint64 `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type guarantorRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Relation string `json:"relation"`
	Address  string `json:"address"`
}

type installmentRequest struct {
	Count       int               `json:"count" validate:"required,gte=1,lte=36"`
	CadenceDays int               `json:"cadenceDays" validate:"required,gt=0"`
	Guarantor   *guarantorRequest `json:"guarantor"`
}

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentType     string                `json:"paymentType" validate:"required,oneof=full installment"`
	DeliveryAddress string                `json:"deliveryAddress" validate:"required"`
	DeliveryCity    string                `json:"deliveryCity" validate:"required"`
	Installment     *installmentRequest   `json:"installment"`
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	actor := actorFromContext(c)
	if actor.UID == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := service.CheckoutInput{
		PaymentType:     model.PaymentType(req.PaymentType),
		DeliveryAddress: req.DeliveryAddress,
		DeliveryCity:    req.DeliveryCity,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.CheckoutItem{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	if req.Installment != nil {
		in.Installment = &service.InstallmentInput{
			Count:       req.Installment.Count,
			CadenceDays: req.Installment.CadenceDays,
		}
		if g := req.Installment.Guarantor; g != nil {
			in.Installment.Guarantor = &service.GuarantorInput{
				FullName: g.FullName,
				Phone:    g.Phone,
				Relation: g.Relation,
				Address:  g.Address,
			}
		}
	}

	o, err := h.svc.Checkout(c.Request().Context(), actor.UID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(o, h.guard, time.Now()))
}

// GetDetail serves the buyer view. Clients poll this, so a hit on the
// snapshot cache skips the database entirely; authorization is re-checked
// against the cached payload.
func (h *OrderHandler) GetDetail(c echo.Context) error {
	return h.detail(c, service.RoleBuyer)
}

func (h *OrderHandler) detail(c echo.Context, role service.Role) error {
	actor := actorFromContext(c)
	actor.Role = role
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if b, ok := h.cache.GetSnapshot(ctx, orderID); ok {
		var resp OrderResponse
		if json.Unmarshal(b, &resp) == nil && snapshotVisibleTo(actor, &resp) {
			return c.JSON(http.StatusOK, resp)
		}
	}

	o, err := h.svc.GetDetail(ctx, orderID, actor)
	if err != nil {
		return writeError(c, err)
	}
	resp := toOrderResponse(o, h.guard, time.Now())
	if b, merr := json.Marshal(resp); merr == nil {
		h.cache.SetSnapshot(ctx, orderID, b)
	}
	return c.JSON(http.StatusOK, resp)
}

func snapshotVisibleTo(actor service.Actor, resp *OrderResponse) bool {
	switch actor.Role {
	case service.RoleBuyer:
		return resp.CustomerUID == actor.UID
	case service.RoleSeller:
		for _, it := range resp.Items {
			if it.SellerUID == actor.UID {
				return true
			}
		}
		return false
	case service.RoleAdmin:
		return true
	}
	return false
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	actor := actorFromContext(c)
	if actor.UID == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	list, err := h.svc.ListByBuyer(c.Request().Context(), actor.UID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderListResponse(list, h.guard))
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

// UpdateStatus lets the buyer request a transition; in practice that means
// cancelling while the order is still in a pending state.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleBuyer
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

func (h *OrderHandler) SkipCancellationWindow(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleBuyer
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	o, err := h.svc.SkipCancellationWindow(c.Request().Context(), orderID, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}

type addressRequest struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
}

func (h *OrderHandler) UpdateAddress(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleBuyer
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	o, err := h.svc.UpdateAddress(c.Request().Context(), orderID, actor, req.Address, req.City)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func toOrderListResponse(list []model.Order, guard service.CancellationWindowGuard) []OrderResponse {
	now := time.Now()
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i], guard, now))
	}
	return resp
}
