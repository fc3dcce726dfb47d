package controllers

import (
	"errors"
	"net/http"

	"autoparts-store/middlewares"
	"autoparts-store/models"
	"autoparts-store/repository"
	"autoparts-store/services"

	"github.com/gin-gonic/gin"
)

// OrderController serves the customer-facing order surface: checkout, the
// user's order list, and customer-initiated deletion.
type OrderController struct {
	Checkout *services.CheckoutService
	Orders   repository.OrderRepository
	Admin    *services.AdminService
}

type placeOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	TransactionID   string `json:"transaction_id"`
	IdempotencyKey  string `json:"idempotency_key"`
}

func (ctl *OrderController) PlaceOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("checkout", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	userID := c.GetString("userID")

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, created, err := ctl.Checkout.PlaceOrder(c.Request.Context(), userID,
		req.ShippingAddress, req.TransactionID, req.IdempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart),
			errors.Is(err, services.ErrMissingAddress),
			errors.Is(err, services.ErrMissingTransaction):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"order":   order,
		"message": "Order placed! Waiting for manual payment verification.",
	})
}

func (ctl *OrderController) ListMyOrders(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("list_orders", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	orders, err := ctl.Orders.ListOrdersByUser(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *OrderController) GetOrderDetails(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("order_details", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	order, items, payment, err := ctl.Admin.OrderDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if order.UserID != c.GetString("userID") {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "items": items, "payment": payment})
}

// DeleteMyOrder cascades over the order's items and payment before removing
// the order itself.
func (ctl *OrderController) DeleteMyOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("delete_order", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	orderID := c.Param("id")
	order, err := ctl.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if order.UserID != c.GetString("userID") {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	if err := ctl.Admin.DeleteOrder(c.Request.Context(), orderID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrForeignKey):
		return http.StatusConflict
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
