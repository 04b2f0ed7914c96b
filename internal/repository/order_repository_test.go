package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
)

var lockColumns = []string{"id", "name", "slug", "price", "stock", "image", "available"}

const lockSQL = "FROM products WHERE id = ? FOR UPDATE"

func newShippingOrder() *entity.Order {
	customerID := int64(5)
	return &entity.Order{
		CustomerID: &customerID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@shop.io",
		Address:    "12 Analytical St",
		PostalCode: "10001",
		City:       "London",
	}
}

func TestCreateOrderSnapshotsPriceAndDecrementsStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSQL)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(int64(1), "Shoes", "shoes", "10.50", int64(5), nil, true))
	mock.ExpectQuery(regexp.QuoteMeta(lockSQL)).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(int64(2), "Socks", "socks", "2.25", int64(4), "img/socks.png", true))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(42), int64(2), sqlmock.AnyArg(), int64(3), int64(42), int64(1), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(100, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock = ?")).
		WithArgs(int64(3), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock = ?")).
		WithArgs(int64(1), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewOrderRepository(db)
	order, err := repo.CreateOrder(context.Background(), newShippingOrder(), []entity.LineRequest{
		{ProductID: 2, Quantity: 3},
		{ProductID: 1, Quantity: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, int64(42), order.ID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(100), order.Items[0].ID)
	assert.Equal(t, int64(101), order.Items[1].ID)
	assert.True(t, decimal.RequireFromString("2.25").Equal(order.Items[0].Price))
	assert.Equal(t, 1, order.Items[0].Product.Stock)
	assert.True(t, decimal.RequireFromString("27.75").Equal(order.TotalCost))
	assert.False(t, order.Paid)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSQL)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(int64(1), "Shoes", "shoes", "10.50", int64(1), nil, true))
	mock.ExpectRollback()

	repo := NewOrderRepository(db)
	_, err = repo.CreateOrder(context.Background(), newShippingOrder(), []entity.LineRequest{
		{ProductID: 1, Quantity: 2},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, "Not enough stock for Shoes. Available: 1", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRepeatedProductCountsCumulativeQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSQL)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(int64(1), "Shoes", "shoes", "10.50", int64(3), nil, true))
	mock.ExpectRollback()

	repo := NewOrderRepository(db)
	_, err = repo.CreateOrder(context.Background(), newShippingOrder(), []entity.LineRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 1, Quantity: 2},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSQL)).WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(lockColumns))
	mock.ExpectRollback()

	repo := NewOrderRepository(db)
	_, err = repo.CreateOrder(context.Background(), newShippingOrder(), []entity.LineRequest{
		{ProductID: 99, Quantity: 1},
	})

	var unknown *UnknownProductError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(99), unknown.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnavailableProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockSQL)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(int64(1), "Shoes", "shoes", "10.50", int64(9), nil, false))
	mock.ExpectRollback()

	repo := NewOrderRepository(db)
	_, err = repo.CreateOrder(context.Background(), newShippingOrder(), []entity.LineRequest{
		{ProductID: 1, Quantity: 1},
	})

	var unavailable *ProductUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidOnlyOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET paid = TRUE")).
		WithArgs("pay_1", "sig", sqlmock.AnyArg(), "order_rzp").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET paid = TRUE")).
		WithArgs("pay_2", "sig", sqlmock.AnyArg(), "order_rzp").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewOrderRepository(db)
	changed, err := repo.MarkPaid(context.Background(), "order_rzp", "pay_1", "sig")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkPaid(context.Background(), "order_rzp", "pay_2", "sig")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerOrderLoadsItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = ? AND o.customer_id = ?")).
		WithArgs(int64(42), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "customer_email", "first_name", "last_name", "email",
			"address", "postal_code", "city", "paid", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature",
			"created_at", "updated_at"}).
			AddRow(int64(42), int64(5), "ada@shop.io", "Ada", "Lovelace", "ada@shop.io", "12 Analytical St", "10001",
				"London", false, "order_rzp", nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "price", "quantity", "name", "slug", "price", "image"}).
			AddRow(int64(100), int64(42), int64(1), "10.50", int64(2), "Shoes", "shoes", "12.00", nil).
			AddRow(int64(101), int64(42), nil, "3.00", int64(1), nil, nil, nil, nil))

	repo := NewOrderRepository(db)
	order, err := repo.GetCustomerOrder(context.Background(), 5, 42)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, order.Items, 2)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "shoes", order.Items[0].Product.Slug)
	assert.Nil(t, order.Items[1].Product)
	assert.Nil(t, order.Items[1].ProductID)
	// snapshot prices, not the current product price
	assert.True(t, decimal.RequireFromString("24.00").Equal(order.TotalCost))
	require.NotNil(t, order.RazorpayOrderID)
	assert.Equal(t, "order_rzp", *order.RazorpayOrderID)
}
