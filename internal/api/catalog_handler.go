package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories --> GET /api/categories
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogService.ListCategories(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// ListProducts --> GET /api/products?category=<slug>&search=<text>
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	filter := repository.ProductFilter{
		CategorySlug: c.QueryParam("category"),
		Search:       c.QueryParam("search"),
	}
	products, err := h.catalogService.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct --> GET /api/products/:slug
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	product, err := h.catalogService.GetProduct(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, product)
}
