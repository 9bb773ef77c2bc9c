package controllers

import (
	"net/http"

	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/services"
	"github.com/gin-gonic/gin"
)

// UpdateStatusRequest represents the request body for moving an order to another column
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// DropRequest represents a card dropped on a board column
type DropRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// OrderController serves the order, board and delivery endpoints
type OrderController struct {
	orders *services.OrderService
	board  *services.KanbanService
}

// NewOrderController creates the order controller
func NewOrderController(orders *services.OrderService, board *services.KanbanService) *OrderController {
	return &OrderController{orders: orders, board: board}
}

// ListOrders handles GET /api/v1/orders - every order, newest first
func (oc *OrderController) ListOrders(c *gin.Context) {
	opts, ok := bindListOptions(c)
	if !ok {
		return
	}

	orders, err := oc.orders.ListAll(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}

	respondSuccess(c, http.StatusOK, orders)
}

// ListOrdersByStatus handles GET /api/v1/orders/status/:status - one board column
func (oc *OrderController) ListOrdersByStatus(c *gin.Context) {
	opts, ok := bindListOptions(c)
	if !ok {
		return
	}

	orders, err := oc.orders.ListByStatus(c.Request.Context(), c.Param("status"), opts)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}

	respondSuccess(c, http.StatusOK, orders)
}

// GetBoard handles GET /api/v1/orders/board - the five kanban columns
func (oc *OrderController) GetBoard(c *gin.Context) {
	opts, ok := bindListOptions(c)
	if !ok {
		return
	}

	board, err := oc.board.Load(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err, "Failed to load the board")
		return
	}

	respondSuccess(c, http.StatusOK, board)
}

// DropCard handles POST /api/v1/orders/board/drop - moves a card and returns the reloaded board
func (oc *OrderController) DropCard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	opts, ok := bindListOptions(c)
	if !ok {
		return
	}

	var req DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	board, err := oc.board.Drop(c.Request.Context(), actor, req.OrderID, req.Status, opts)
	if err != nil {
		respondError(c, err, "Failed to move the order")
		return
	}

	respondSuccess(c, http.StatusOK, board)
}

// GetOrder handles GET /api/v1/orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get order")
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// UpdateOrder handles PATCH /api/v1/orders/:id - only the fields present are changed
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var patch services.OrderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, err := oc.orders.Update(c.Request.Context(), actor, c.Param("id"), patch)
	if err != nil {
		respondError(c, err, "Failed to update order")
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, err := oc.orders.SetStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "Failed to update order status")
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/:id (administrators only)
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := oc.orders.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Failed to delete order")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// GetOrderImage handles GET /api/v1/orders/:id/images/:kind - redirects to a short-lived image URL
func (oc *OrderController) GetOrderImage(c *gin.Context) {
	kind, ok := models.ParseImageKind(c.Param("kind"))
	if !ok {
		respondFailure(c, http.StatusBadRequest, "INVALID_IMAGE_KIND", "Image kind must be fabric, client-reference or sketch")
		return
	}

	url, err := oc.orders.ImageURL(c.Request.Context(), c.Param("id"), kind)
	if err != nil {
		respondError(c, err, "Failed to get order image")
		return
	}

	c.Redirect(http.StatusFound, url)
}

// ListDeliveries handles GET /api/v1/deliveries - open orders grouped by due date
func (oc *OrderController) ListDeliveries(c *gin.Context) {
	timeline, err := oc.orders.Deliveries(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list deliveries")
		return
	}

	respondSuccess(c, http.StatusOK, timeline)
}
