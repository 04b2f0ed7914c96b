package api

import (
	"github.com/labstack/echo/v4"

	"marketplace-service/internal/service"
)

type Services struct {
	Tokens   *service.TokenIssuer
	Users    *service.UserService
	Sellers  *service.SellerService
	Catalog  *service.CatalogService
	Products *service.ProductService
	Orders   *service.OrderService
	Payments *service.PaymentService
}

// RegisterRoutes mounts the /api tree on e. Admin routes are guarded by
// adminAPIKey.
func RegisterRoutes(e *echo.Echo, s Services, adminAPIKey string) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	authHandler := NewAuthHandler(s.Users)
	catalogHandler := NewCatalogHandler(s.Catalog)
	sellerHandler := NewSellerHandler(s.Sellers, s.Products)
	orderHandler := NewOrderHandler(s.Orders, s.Payments)
	adminHandler := NewAdminHandler(s.Sellers, s.Catalog)

	jwtAuth := JWTMiddleware(s.Tokens)
	api := e.Group("/api")

	// Auth
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/token", authHandler.Login)
	api.POST("/auth/token/refresh", authHandler.Refresh)
	api.GET("/auth/me", authHandler.Me, jwtAuth)

	// Storefront
	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:slug", catalogHandler.GetProduct)

	// Seller
	seller := api.Group("/seller", jwtAuth)
	seller.GET("/profile", sellerHandler.GetProfile)
	seller.PUT("/profile", sellerHandler.UpdateProfile)

	dashboard := seller.Group("/dashboard", RequireApprovedSeller(s.Sellers))
	dashboard.GET("", sellerHandler.ListProducts)
	dashboard.POST("", sellerHandler.CreateProduct)
	dashboard.GET("/:slug", sellerHandler.GetProduct)
	dashboard.PUT("/:slug", sellerHandler.UpdateProduct)
	dashboard.PATCH("/:slug", sellerHandler.UpdateProduct)
	dashboard.DELETE("/:slug", sellerHandler.DeleteProduct)

	// Orders
	api.POST("/orders/verify-payment", orderHandler.VerifyPayment)
	orders := api.Group("/orders", jwtAuth)
	orders.POST("/create", orderHandler.CreateOrder)
	orders.POST("/pay", orderHandler.StartPayment)
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)

	// Admin
	admin := api.Group("/admin", APIKeyMiddleware(adminAPIKey))
	admin.GET("/sellers", adminHandler.ListSellers)
	admin.POST("/sellers/:id/approve", adminHandler.ApproveSeller)
	admin.POST("/sellers/:id/revoke", adminHandler.RevokeSeller)
	admin.POST("/categories", adminHandler.CreateCategory)
	admin.POST("/cache/warmup", adminHandler.WarmupCache)
}
