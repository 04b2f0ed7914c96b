package api

import (
	"crypto/subtle"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service"
)

const (
	userContextKey   = "user"
	sellerContextKey = "seller"
)

// JWTMiddleware accepts only access tokens signed by tokens and stores the
// claims under "user".
func JWTMiddleware(tokens *service.TokenIssuer) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: userContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.ParseAccess(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Authentication credentials were not provided or are invalid.",
			})
		},
	})
}

// APIKeyMiddleware guards admin routes with the X-API-KEY header. An empty
// configured key rejects every request.
func APIKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:X-API-KEY",
		Validator: func(key string, c echo.Context) (bool, error) {
			if apiKey == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing API key"})
		},
	})
}

// RequireApprovedSeller must run after JWTMiddleware.
func RequireApprovedSeller(sellers *service.SellerService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			profile, err := sellers.ApprovedSeller(c.Request().Context(), currentUser(c))
			if err != nil {
				return errorJSON(c, err)
			}
			c.Set(sellerContextKey, profile)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) *service.Claims {
	claims, _ := c.Get(userContextKey).(*service.Claims)
	return claims
}

func currentSeller(c echo.Context) *entity.SellerProfile {
	profile, _ := c.Get(sellerContextKey).(*entity.SellerProfile)
	return profile
}
