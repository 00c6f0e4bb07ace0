package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/walk2school/rewards-backend/internal/usecase"
)

// OrderHandler exposes purchasing and order fulfillment.
type OrderHandler struct {
	purchases *usecase.PurchaseService
}

// NewOrderHandler builds an order handler.
func NewOrderHandler(purchases *usecase.PurchaseService) *OrderHandler {
	return &OrderHandler{purchases: purchases}
}

// Purchase buys one unit of the named listing for the session holder.
func (h *OrderHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing session token or item name"))
		return
	}

	token := strings.TrimSpace(req.SessionToken)
	itemName := strings.TrimSpace(req.ItemName)
	if token == "" || itemName == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing session token or item name"))
		return
	}

	order, err := h.purchases.Purchase(c.Request.Context(), token, itemName)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidSession, Status: http.StatusBadRequest, Message: "Invalid session token"},
			{Err: usecase.ErrListingNotFound, Status: http.StatusNotFound, Message: "Item not found"},
			{Err: usecase.ErrListingHidden, Status: http.StatusBadRequest, Message: "Item not available"},
			{Err: usecase.ErrOutOfStock, Status: http.StatusBadRequest, Message: "Item out of stock"},
			{Err: usecase.ErrInsufficientPoints, Status: http.StatusBadRequest, Message: "Not enough points"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase complete",
		"order":   order,
	})
}

// ListOrders returns every order, newest first. Admin only.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.purchases.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Server error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// FulfillOrder marks the oldest matching unfulfilled order as delivered.
// Admin only.
func (h *OrderHandler) FulfillOrder(c *gin.Context) {
	var req FulfillOrderRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username or item name"))
		return
	}

	username := strings.TrimSpace(req.Username)
	itemName := strings.TrimSpace(req.ItemName)
	if username == "" || itemName == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username or item name"))
		return
	}

	order, err := h.purchases.FulfillOrder(c.Request.Context(), username, itemName)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrOrderNotFound, Status: http.StatusNotFound, Message: "No unfulfilled order for that user and item"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order fulfilled",
		"order":   order,
	})
}
