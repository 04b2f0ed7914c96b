package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/service"
)

type AdminHandler struct {
	sellerService  *service.SellerService
	catalogService *service.CatalogService
}

func NewAdminHandler(sellerService *service.SellerService, catalogService *service.CatalogService) *AdminHandler {
	return &AdminHandler{sellerService: sellerService, catalogService: catalogService}
}

// ListSellers --> GET /api/admin/sellers?approved=true|false
func (h *AdminHandler) ListSellers(c echo.Context) error {
	var approved *bool
	if raw := c.QueryParam("approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "approved must be true or false")
		}
		approved = &v
	}

	sellers, err := h.sellerService.ListSellers(c.Request().Context(), approved)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, sellers)
}

// ApproveSeller --> POST /api/admin/sellers/:id/approve
func (h *AdminHandler) ApproveSeller(c echo.Context) error {
	return h.setApproval(c, true)
}

// RevokeSeller --> POST /api/admin/sellers/:id/revoke
func (h *AdminHandler) RevokeSeller(c echo.Context) error {
	return h.setApproval(c, false)
}

func (h *AdminHandler) setApproval(c echo.Context, approved bool) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid seller ID")
	}

	approve := h.sellerService.Revoke
	if approved {
		approve = h.sellerService.Approve
	}
	profile, err := approve(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"omitempty,max=255"`
}

// CreateCategory --> POST /api/admin/categories
func (h *AdminHandler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	category, err := h.catalogService.CreateCategory(c.Request().Context(), req.Name, req.Slug)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

// WarmupCache --> POST /api/admin/cache/warmup
func (h *AdminHandler) WarmupCache(c echo.Context) error {
	warmed, err := h.catalogService.PreWarmCache(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Cache warmed up", "products": warmed})
}
