package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                int64           `json:"id"`
	CustomerID        *int64          `json:"-"`
	CustomerEmail     string          `json:"customer_email"`
	FirstName         string          `json:"first_name"`
	LastName          string          `json:"last_name"`
	Email             string          `json:"email"`
	Address           string          `json:"address"`
	PostalCode        string          `json:"postal_code"`
	City              string          `json:"city"`
	Items             []OrderItem     `json:"items"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Paid              bool            `json:"paid"`
	RazorpayOrderID   *string         `json:"razorpay_order_id"`
	RazorpayPaymentID *string         `json:"-"`
	RazorpaySignature *string         `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	return json.Marshal(struct {
		order
		TotalCost string `json:"total_cost"`
	}{order(o), o.TotalCost.StringFixed(2)})
}

// Total sums the frozen item prices. It never looks at the current product
// price.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Cost())
	}
	return total
}

// ProductSlugs lists the slugs of the products on the order.
func (o *Order) ProductSlugs() []string {
	slugs := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Product != nil && item.Product.Slug != "" {
			slugs = append(slugs, item.Product.Slug)
		}
	}
	return slugs
}

// OrderItem keeps the product price as it was when the order was placed.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"-"`
	ProductID *int64          `json:"product_id"`
	Product   *Product        `json:"product"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type item OrderItem
	return json.Marshal(struct {
		item
		Price string `json:"price"`
	}{item(i), i.Price.StringFixed(2)})
}

func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineRequest is one cart line sent at checkout.
type LineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}
