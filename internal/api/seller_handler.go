package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/service"
)

type SellerHandler struct {
	sellerService  *service.SellerService
	productService *service.ProductService
}

func NewSellerHandler(sellerService *service.SellerService, productService *service.ProductService) *SellerHandler {
	return &SellerHandler{sellerService: sellerService, productService: productService}
}

// GetProfile --> GET /api/seller/profile
func (h *SellerHandler) GetProfile(c echo.Context) error {
	profile, err := h.sellerService.GetProfile(c.Request().Context(), currentUser(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	StoreName   string  `json:"store_name" validate:"required,max=255"`
	Description *string `json:"description"`
}

// UpdateProfile --> PUT /api/seller/profile
func (h *SellerHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	profile, err := h.sellerService.UpdateProfile(c.Request().Context(), currentUser(c), req.StoreName, req.Description)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// productRequest leaves every field optional; which ones a write needs is
// decided by the product service.
type productRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=255"`
	Slug        *string          `json:"slug" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Image       *string          `json:"image" validate:"omitempty,max=255"`
	Category    *int64           `json:"category"`
	Available   *bool            `json:"available"`
}

func (r productRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Image:       r.Image,
		CategoryID:  r.Category,
		Available:   r.Available,
	}
}

// ListProducts --> GET /api/seller/dashboard
func (h *SellerHandler) ListProducts(c echo.Context) error {
	products, err := h.productService.ListOwn(c.Request().Context(), currentSeller(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct --> POST /api/seller/dashboard
func (h *SellerHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	product, err := h.productService.Create(c.Request().Context(), currentSeller(c), req.input())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// GetProduct --> GET /api/seller/dashboard/:slug
func (h *SellerHandler) GetProduct(c echo.Context) error {
	product, err := h.productService.GetOwn(c.Request().Context(), currentSeller(c), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct --> PUT (full) or PATCH (partial) /api/seller/dashboard/:slug
func (h *SellerHandler) UpdateProduct(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	partial := c.Request().Method == http.MethodPatch
	product, err := h.productService.Update(c.Request().Context(), currentSeller(c), c.Param("slug"), req.input(), partial)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct --> DELETE /api/seller/dashboard/:slug
func (h *SellerHandler) DeleteProduct(c echo.Context) error {
	if err := h.productService.Delete(c.Request().Context(), currentSeller(c), c.Param("slug")); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
