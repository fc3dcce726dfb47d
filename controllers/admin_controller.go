package controllers

import (
	"net/http"

	"autoparts-store/middlewares"
	"autoparts-store/services"

	"github.com/gin-gonic/gin"
)

// AdminController exposes the review workflow: all orders newest-first with
// customer names, payment verification, rejection, and order deletion.
type AdminController struct {
	Admin *services.AdminService
}

func (ctl *AdminController) ListOrders(c *gin.Context) {
	orders, err := ctl.Admin.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *AdminController) OrderDetails(c *gin.Context) {
	order, items, payment, err := ctl.Admin.OrderDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items, "payment": payment})
}

func (ctl *AdminController) VerifyPayment(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("verify_payment", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	if err := ctl.Admin.VerifyPayment(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment verified, order approved"})
}

func (ctl *AdminController) RejectOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("reject_order", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	if err := ctl.Admin.RejectOrder(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order rejected"})
}

func (ctl *AdminController) DeleteOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("admin_delete_order", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	if err := ctl.Admin.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
