package controllers

import (
	"net/http"

	"autoparts-store/cart"
	"autoparts-store/repository"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	Carts   *cart.Store
	Catalog repository.CatalogRepository
}

func (ctl *CartController) GetCart(c *gin.Context) {
	userID := c.GetString("userID")
	c.JSON(http.StatusOK, gin.H{
		"items":        ctl.Carts.Items(userID),
		"total_amount": ctl.Carts.TotalAmount(userID),
	})
}

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// AddToCart looks the product up and merges it into the cart: an existing
// line gains quantity, a new product starts at 1.
func (ctl *CartController) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := ctl.Catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	ctl.Carts.AddToCart(userID, *product)
	c.JSON(http.StatusOK, gin.H{
		"items":        ctl.Carts.Items(userID),
		"total_amount": ctl.Carts.TotalAmount(userID),
	})
}

// RemoveFromCart drops the whole line; an absent product id is a no-op.
func (ctl *CartController) RemoveFromCart(c *gin.Context) {
	userID := c.GetString("userID")
	ctl.Carts.RemoveFromCart(userID, c.Param("productId"))
	c.JSON(http.StatusOK, gin.H{
		"items":        ctl.Carts.Items(userID),
		"total_amount": ctl.Carts.TotalAmount(userID),
	})
}

func (ctl *CartController) ClearCart(c *gin.Context) {
	ctl.Carts.ClearCart(c.GetString("userID"))
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
