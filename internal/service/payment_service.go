package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/payment"
	"marketplace-service/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// PaymentGateway is satisfied by *payment.Client.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error)
	KeyID() string
}

type PaymentService struct {
	orderRepo   OrderRepository
	gateway     PaymentGateway
	keySecret   string
	currency    string
	kafkaWriter MessageWriter
}

func NewPaymentService(orderRepo OrderRepository, gateway PaymentGateway, keySecret, currency string, kafkaWriter MessageWriter) *PaymentService {
	return &PaymentService{
		orderRepo:   orderRepo,
		gateway:     gateway,
		keySecret:   keySecret,
		currency:    currency,
		kafkaWriter: kafkaWriter,
	}
}

// PaymentSession is what the client needs to open the provider checkout.
type PaymentSession struct {
	RazorpayOrderID string `json:"razorpay_order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Key             string `json:"key"`
}

// StartPayment registers the order total with the payment provider.
func (s *PaymentService) StartPayment(ctx context.Context, customer *Claims, orderID int64) (*PaymentSession, error) {
	if orderID == 0 {
		return nil, invalid("Order ID is required.")
	}

	order, err := s.orderRepo.GetCustomerOrder(ctx, customer.UserID, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Order not found or already paid.")
		}
		return nil, err
	}
	if order.Paid {
		return nil, notFound("Order not found or already paid.")
	}

	amount := order.Total().Mul(hundred).IntPart()
	rzpOrder, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:         amount,
		Currency:       s.currency,
		Receipt:        fmt.Sprintf("order_rcptid_%d", order.ID),
		PaymentCapture: 1,
	})
	if err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Msg("Error creating payment order")
		return nil, err
	}

	if err := s.orderRepo.SetRazorpayOrderID(ctx, order.ID, rzpOrder.ID); err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Msg("Error storing payment order id")
		return nil, err
	}

	currency := rzpOrder.Currency
	if currency == "" {
		currency = s.currency
	}
	if rzpOrder.Amount == 0 {
		rzpOrder.Amount = amount
	}
	return &PaymentSession{
		RazorpayOrderID: rzpOrder.ID,
		Amount:          rzpOrder.Amount,
		Currency:        currency,
		Key:             s.gateway.KeyID(),
	}, nil
}

type VerifyInput struct {
	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string
}

// VerifyPayment checks the provider signature and marks the order paid. A
// replay for an already paid order returns it without touching it.
func (s *PaymentService) VerifyPayment(ctx context.Context, in VerifyInput) (*entity.Order, error) {
	if in.RazorpayOrderID == "" || in.RazorpayPaymentID == "" || in.RazorpaySignature == "" {
		return nil, invalid("Missing Razorpay data.")
	}
	if !payment.VerifySignature(s.keySecret, in.RazorpayOrderID, in.RazorpayPaymentID, in.RazorpaySignature) {
		log.Warn().Str("razorpay_order_id", in.RazorpayOrderID).Msg("payment signature mismatch")
		return nil, invalid("Invalid payment signature.")
	}

	changed, err := s.orderRepo.MarkPaid(ctx, in.RazorpayOrderID, in.RazorpayPaymentID, in.RazorpaySignature)
	if err != nil {
		log.Error().Err(err).Str("razorpay_order_id", in.RazorpayOrderID).Msg("Error marking order paid")
		return nil, err
	}

	order, err := s.orderRepo.GetOrderByRazorpayID(ctx, in.RazorpayOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Order not found.")
		}
		return nil, err
	}

	if changed {
		log.Info().Int64("order_id", order.ID).Msg("order paid")
		notifyOrderEvent(ctx, s.kafkaWriter, order, EventOrderPaid)
	}
	return order, nil
}
