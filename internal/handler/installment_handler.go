package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

type InstallmentHandler struct {
	svc   service.InstallmentService
	guard service.CancellationWindowGuard
}

func NewInstallmentHandler(svc service.InstallmentService, guard service.CancellationWindowGuard) *InstallmentHandler {
	return &InstallmentHandler{svc: svc, guard: guard}
}

type proofRequest struct {
	PayerName       string `json:"payerName" validate:"required"`
	TransactionCode string `json:"transactionCode" validate:"required"`
	Amount          int64  `json:"amount" validate:"required"`
}

func (h *InstallmentHandler) SubmitProof(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleBuyer
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	index, err := parseIndex(c)
	if err != nil {
		return err
	}
	var req proofRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	o, err := h.svc.SubmitProof(c.Request().Context(), orderID, actor, index, req.PayerName, req.TransactionCode, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}

type approveRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

func (h *InstallmentHandler) ConfirmSale(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleSeller
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	o, err := h.svc.ConfirmSale(c.Request().Context(), orderID, actor, *req.Approve)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}

func (h *InstallmentHandler) ValidateProof(c echo.Context) error {
	actor := actorFromContext(c)
	actor.Role = service.RoleSeller
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	index, err := parseIndex(c)
	if err != nil {
		return err
	}
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	o, err := h.svc.ValidateProof(c.Request().Context(), orderID, actor, index, *req.Approve)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}

// WaiveEntry is admin-only; the route group enforces the role claim and the
// service re-checks it.
func (h *InstallmentHandler) WaiveEntry(c echo.Context) error {
	actor := actorFromContext(c)
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	index, err := parseIndex(c)
	if err != nil {
		return err
	}
	o, err := h.svc.WaiveEntry(c.Request().Context(), orderID, actor, index)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o, h.guard, time.Now()))
}

func parseIndex(c echo.Context) (int, error) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	return idx, nil
}
