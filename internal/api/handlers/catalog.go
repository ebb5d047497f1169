package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/pricecast-go/internal/models"
)

// CatalogHandler serves products, categories and raw price history.
type CatalogHandler struct {
	store PriceStore
}

func NewCatalogHandler(store PriceStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// ListProducts handles GET /products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.store.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": len(products)})
}

// GetProduct handles GET /products/:article.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.store.GetProductByArticle(c.Request.Context(), c.Param("article"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListProductsByCategory handles GET /products/by-category/:id.
func (h *CatalogHandler) ListProductsByCategory(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	products, err := h.store.ListProductsByCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": len(products)})
}

// ListCategories handles GET /categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories, "total": len(categories)})
}

// CategoryTree handles GET /categories/tree.
func (h *CatalogHandler) CategoryTree(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": models.BuildCategoryTree(categories)})
}

// GetCategory handles GET /categories/:id.
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	category, err := h.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// ProductPriceHistory handles GET /price-history/product/:id.
func (h *CatalogHandler) ProductPriceHistory(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := h.store.GetPriceHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "data": history, "total": len(history)})
}

// LatestPrices handles GET /price-history/latest.
func (h *CatalogHandler) LatestPrices(c *gin.Context) {
	latest, err := h.store.LatestPrices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": latest, "total": len(latest)})
}
