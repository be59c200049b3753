package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/api/metrics"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

// ItemHandler handles HTTP requests for inventory items.
type ItemHandler struct {
	service ports.ItemService
}

func NewItemHandler(service ports.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// List returns items, optionally filtered by a search term.
//
// @Summary      List items
// @Description  Case-insensitive substring search over name, description and category, newest first.
// @Tags         items
// @Produce      json
// @Security     CookieAuth
// @Param        search  query     string  false  "Search term"
// @Success      200     {object}  itemListResponse
// @Failure      401     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	start := time.Now()
	items, err := h.service.ListItems(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	metrics.ItemSearchDuration.Observe(time.Since(start).Seconds())
	metrics.ItemSearchResults.Observe(float64(len(items)))

	resp := itemListResponse{Items: make([]itemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns a single item.
//
// @Summary      Get item
// @Tags         items
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  itemEnvelope
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.service.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemEnvelope{Item: toItemResponse(item)})
}

// Create adds an item owned by the caller.
//
// @Summary      Create item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      createItemRequest  true  "Item"
// @Success      201   {object}  itemEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.service.CreateItem(c.Request().Context(), ports.CreateItemInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    *req.Quantity,
		Price:       *req.Price,
		CreatedBy:   claims.UserID,
	})
	if err != nil {
		return err
	}
	metrics.ItemMutationsTotal.WithLabelValues("create").Inc()

	return c.JSON(http.StatusCreated, itemEnvelope{Message: "item created", Item: toItemResponse(item)})
}

// Update applies a partial update to the item named by the body id.
//
// @Summary      Update item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      updateItemRequest  true  "Fields to change"
// @Success      200   {object}  itemEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /items [put]
func (h *ItemHandler) Update(c echo.Context) error {
	var req updateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.service.UpdateItem(c.Request().Context(), ports.UpdateItemInput{
		ID: req.ID,
		ItemUpdate: ports.ItemUpdate{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Quantity:    req.Quantity,
			Price:       req.Price,
		},
	})
	if err != nil {
		return err
	}
	metrics.ItemMutationsTotal.WithLabelValues("update").Inc()

	return c.JSON(http.StatusOK, itemEnvelope{Message: "item updated", Item: toItemResponse(item)})
}

// Delete removes the item named by the id query parameter.
//
// @Summary      Delete item
// @Tags         items
// @Produce      json
// @Security     CookieAuth
// @Param        id   query     string  true  "Item ID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /items [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return domain.NewValidationError("id is required")
	}

	if err := h.service.DeleteItem(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.ItemMutationsTotal.WithLabelValues("delete").Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "item deleted"})
}
