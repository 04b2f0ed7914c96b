package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service"
)

type OrderHandler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
}

func NewOrderHandler(orderService *service.OrderService, paymentService *service.PaymentService) *OrderHandler {
	return &OrderHandler{orderService: orderService, paymentService: paymentService}
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  *int  `json:"quantity" validate:"omitempty,min=1"`
}

type createOrderRequest struct {
	FirstName  string             `json:"first_name" validate:"required,max=100"`
	LastName   string             `json:"last_name" validate:"required,max=100"`
	Email      string             `json:"email" validate:"required,email"`
	Address    string             `json:"address" validate:"required,max=250"`
	PostalCode string             `json:"postal_code" validate:"required,max=20"`
	City       string             `json:"city" validate:"required,max=100"`
	Items      []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder --> POST /api/orders/create
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	lines := make([]entity.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		quantity := 1
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		lines = append(lines, entity.LineRequest{ProductID: item.ProductID, Quantity: quantity})
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), currentUser(c), service.CheckoutInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		City:          req.City,
		Items:         lines,
		IdempotentKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ListOrders --> GET /api/orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context(), currentUser(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder --> GET /api/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

type payRequest struct {
	OrderID int64 `json:"order_id"`
}

// StartPayment --> POST /api/orders/pay
func (h *OrderHandler) StartPayment(c echo.Context) error {
	var req payRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	session, err := h.paymentService.StartPayment(c.Request().Context(), currentUser(c), req.OrderID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// VerifyPayment is the provider callback --> POST /api/orders/verify-payment
func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	order, err := h.paymentService.VerifyPayment(c.Request().Context(), service.VerifyInput{
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpaySignature: req.RazorpaySignature,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
