package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/repository"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *entity.Order, lines []entity.LineRequest) (*entity.Order, error)
	GetCustomerOrder(ctx context.Context, customerID, id int64) (*entity.Order, error)
	GetCustomerOrders(ctx context.Context, customerID int64) ([]*entity.Order, error)
	GetOrderByRazorpayID(ctx context.Context, razorpayOrderID string) (*entity.Order, error)
	SetRazorpayOrderID(ctx context.Context, id int64, razorpayOrderID string) error
	MarkPaid(ctx context.Context, razorpayOrderID, paymentID, signature string) (bool, error)
}

type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// ProductEvicter drops cached product entries.
type ProductEvicter interface {
	Delete(ctx context.Context, slugs ...string) error
}

// OrderService is a service that provides checkout and order history.
type OrderService struct {
	orderRepo   OrderRepository
	idempotency IdempotencyStore
	products    ProductEvicter
	kafkaWriter MessageWriter
}

func NewOrderService(orderRepo OrderRepository, idempotency IdempotencyStore, products ProductEvicter, kafkaWriter MessageWriter) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		idempotency: idempotency,
		products:    products,
		kafkaWriter: kafkaWriter,
	}
}

type CheckoutInput struct {
	FirstName     string
	LastName      string
	Email         string
	Address       string
	PostalCode    string
	City          string
	Items         []entity.LineRequest
	IdempotentKey string
}

// CreateOrder places an order for the caller. Stock checks, price snapshots
// and stock decrements happen in one repository transaction.
func (s *OrderService) CreateOrder(ctx context.Context, customer *Claims, in CheckoutInput) (*entity.Order, error) {
	if len(in.Items) == 0 {
		return nil, invalid("items: This list may not be empty.")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, invalid("quantity: Ensure this value is greater than or equal to 1.")
		}
	}

	if in.IdempotentKey != "" && s.idempotency != nil {
		claimed, err := s.idempotency.Claim(ctx, in.IdempotentKey)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, conflict("idempotent key already exists")
		}
	}

	customerID := customer.UserID
	order := &entity.Order{
		CustomerID:    &customerID,
		CustomerEmail: customer.Email,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Address:       in.Address,
		PostalCode:    in.PostalCode,
		City:          in.City,
	}

	created, err := s.orderRepo.CreateOrder(ctx, order, in.Items)
	if err != nil {
		s.releaseKey(ctx, in.IdempotentKey)
		return nil, checkoutError(err)
	}

	log.Info().Int64("order_id", created.ID).Int64("customer_id", customerID).
		Str("total", created.TotalCost.StringFixed(2)).Msg("order created")
	s.evictOrdered(ctx, created)
	notifyOrderEvent(ctx, s.kafkaWriter, created, EventOrderCreated)
	return created, nil
}

// releaseKey lets the client retry with the same key after a failed checkout.
func (s *OrderService) releaseKey(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Release(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Error releasing idempotent key")
	}
}

// evictOrdered drops this instance's cached view of the products whose stock
// just changed. Other instances rely on the order event consumer.
func (s *OrderService) evictOrdered(ctx context.Context, order *entity.Order) {
	if s.products == nil {
		return
	}
	slugs := order.ProductSlugs()
	if len(slugs) == 0 {
		return
	}
	if err := s.products.Delete(ctx, slugs...); err != nil {
		log.Warn().Err(err).Int64("order_id", order.ID).Msg("Error evicting ordered products")
	}
}

func checkoutError(err error) error {
	var (
		stockErr       *repository.InsufficientStockError
		unknownErr     *repository.UnknownProductError
		unavailableErr *repository.ProductUnavailableError
	)
	switch {
	case errors.As(err, &stockErr), errors.As(err, &unavailableErr):
		return invalid(err.Error())
	case errors.As(err, &unknownErr):
		return invalid("product_id: " + err.Error())
	}
	log.Error().Err(err).Msg("Error creating order")
	return err
}

func (s *OrderService) ListOrders(ctx context.Context, customer *Claims) ([]*entity.Order, error) {
	return s.orderRepo.GetCustomerOrders(ctx, customer.UserID)
}

func (s *OrderService) GetOrder(ctx context.Context, customer *Claims, id int64) (*entity.Order, error) {
	order, err := s.orderRepo.GetCustomerOrder(ctx, customer.UserID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Order not found.")
		}
		return nil, err
	}
	return order, nil
}
