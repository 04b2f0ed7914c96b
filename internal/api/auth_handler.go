package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

type registerRequest struct {
	Email     string      `json:"email" validate:"required,email,max=254"`
	Username  string      `json:"username" validate:"required,max=150"`
	Password  string      `json:"password" validate:"required,min=8"`
	Password2 string      `json:"password2" validate:"required"`
	Role      entity.Role `json:"role" validate:"omitempty,oneof=CUSTOMER SELLER"`
}

// Register creates an account --> POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	user, err := h.userService.Register(c.Request().Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Password2: req.Password2,
		Role:      req.Role,
	})
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login issues an access/refresh pair --> POST /api/auth/token
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	pair, err := h.userService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Refresh rotates the refresh token --> POST /api/auth/token/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	pair, err := h.userService.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Me returns the authenticated user --> GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.userService.GetUser(c.Request().Context(), currentUser(c).UserID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
