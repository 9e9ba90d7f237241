package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"food-ordering-api/services"
)

type ProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	ImageURL    string           `json:"image_url"`
}

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       *r.Price,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
	}
}

// ListProducts returns the menu (public), optionally filtered by category
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, "PRODUCTS", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product (public)
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "PRODUCTS", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

// CreateProduct adds a menu item (admin only)
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.products.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, "PRODUCTS", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product created", "product": product})
}

// UpdateProduct replaces a menu item's fields (admin only)
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, "PRODUCTS", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product updated", "product": product})
}

// DeleteProduct removes a menu item (admin only). Past orders keep their item snapshots.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "PRODUCTS", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}
