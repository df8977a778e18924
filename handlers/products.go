package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListProducts returns the catalog, optionally filtered by ?category=.
func (h *Handler) ListProducts(c *gin.Context) {
	category := c.Query("category")
	c.JSON(http.StatusOK, gin.H{"products": h.catalog.List(category)})
}

// GetProduct returns a single catalog entry by name.
func (h *Handler) GetProduct(c *gin.Context) {
	name := c.Param("name")
	product, ok := h.catalog.Get(name)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}
