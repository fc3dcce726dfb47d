package controllers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"autoparts-store/middlewares"
	"autoparts-store/models"
	"autoparts-store/repository"
	"autoparts-store/services"
	"autoparts-store/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CatalogController struct {
	Catalog repository.CatalogRepository
	Admin   *services.AdminService
	Blobs   *storage.Store
}

func (ctl *CatalogController) ListCategories(c *gin.Context) {
	categories, err := ctl.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// ListProducts filters by category and case-insensitive name substring; both
// are optional and combine with AND. Empty result sets are not errors.
func (ctl *CatalogController) ListProducts(c *gin.Context) {
	products, err := ctl.Catalog.ListProducts(c.Request.Context(), repository.ProductFilter{
		CategoryID:   c.Query("category_id"),
		NameContains: c.Query("q"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

type productRequest struct {
	Name          string  `json:"name" binding:"required"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	CategoryID    string  `json:"category_id"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"image_url"`
	StockQuantity int     `json:"stock_quantity"`
}

func (ctl *CatalogController) CreateProduct(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("create_product", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &models.Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		StockQuantity: req.StockQuantity,
		VendorID:      c.GetString("userID"),
	}
	if err := ctl.Catalog.CreateProduct(c.Request.Context(), p); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (ctl *CatalogController) UpdateProduct(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("update_product", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	existing, err := ctl.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Price = req.Price
	existing.CategoryID = req.CategoryID
	existing.Description = req.Description
	existing.ImageURL = req.ImageURL
	existing.StockQuantity = req.StockQuantity

	if err := ctl.Catalog.UpdateProduct(c.Request.Context(), existing); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, existing)
}

// DeleteProduct deletes a product. A product referenced by order items fails
// with 409 and a constraint flag; retrying with ?force=true removes the
// referencing order items first.
func (ctl *CatalogController) DeleteProduct(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("delete_product", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	force := c.Query("force") == "true"
	err := ctl.Admin.DeleteProduct(c.Request.Context(), c.Param("id"), force)
	if err != nil {
		if statusFor(err) == http.StatusConflict {
			c.JSON(http.StatusConflict, gin.H{
				"error":      "product is part of existing orders",
				"constraint": "foreign_key",
			})
			return
		}
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (ctl *CatalogController) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat := &models.Category{ID: uuid.NewString(), Name: strings.TrimSpace(req.Name)}
	if err := ctl.Catalog.CreateCategory(c.Request.Context(), cat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

type uploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type" binding:"required"`
	Data        string `json:"data" binding:"required"` // base64
}

// UploadImage stores a product image blob and returns its public URL.
func (ctl *CatalogController) UploadImage(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("upload_image", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 payload"})
		return
	}

	path, err := ctl.Blobs.Upload(req.FileName, data, req.ContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"path": path, "public_url": ctl.Blobs.PublicURL(path)})
}
