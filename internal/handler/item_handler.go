package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

type ItemHandler struct {
	svc service.ItemService
}

func NewItemHandler(svc service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

type itemResponse struct {
	ID          uint64 `json:"id"`
	SellerUID   string `json:"sellerUid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	CreatedAt   string `json:"createdAt"`
}

func toItemResponse(i *model.Item) itemResponse {
	return itemResponse{
		ID:          i.ID,
		SellerUID:   i.SellerUID,
		Title:       i.Title,
		Description: i.Description,
		Price:       i.Price,
		Stock:       i.Stock,
		CreatedAt:   i.CreatedAt.Format(time.RFC3339),
	}
}

type createItemRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

func (h *ItemHandler) Create(c echo.Context) error {
	actor := actorFromContext(c)
	if actor.UID == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	item, err := h.svc.Create(c.Request().Context(), actor.UID, req.Title, req.Description, req.Price, req.Stock)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	return c.JSON(http.StatusCreated, toItemResponse(item))
}

func (h *ItemHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid item id"))
	}
	item, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "item not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "internal error"))
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *ItemHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	items, total, err := h.svc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "internal error"))
	}
	resp := make([]itemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toItemResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": resp,
		"total": total,
	})
}
