package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

const orderSelect = `SELECT o.id, o.customer_id, COALESCE(u.email, ''), o.first_name, o.last_name, o.email, o.address, o.postal_code, o.city,
	o.paid, o.razorpay_order_id, o.razorpay_payment_id, o.razorpay_signature, o.created_at, o.updated_at
	FROM orders o LEFT JOIN users u ON u.id = o.customer_id`

const orderItemSelect = `SELECT oi.id, oi.order_id, oi.product_id, oi.price, oi.quantity, p.name, p.slug, p.price, p.image
	FROM order_items oi LEFT JOIN products p ON p.id = oi.product_id
	WHERE oi.order_id = ? ORDER BY oi.id`

type lockedProduct struct {
	id        int64
	name      string
	slug      string
	price     decimal.Decimal
	stock     int
	image     sql.NullString
	available bool
}

// CreateOrder stores the order with its items and takes the ordered quantity
// off each product. Product rows are locked in id order for the whole
// transaction; any line that cannot be served rolls everything back.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order, lines []entity.LineRequest) (*entity.Order, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	lockQuery := `SELECT id, name, slug, price, stock, image, available FROM products WHERE id = ? FOR UPDATE`
	products := make(map[int64]*lockedProduct, len(ids))
	for _, id := range ids {
		p := &lockedProduct{}
		err := tx.QueryRowContext(ctx, lockQuery, id).Scan(&p.id, &p.name, &p.slug, &p.price, &p.stock, &p.image, &p.available)
		if err != nil {
			tx.Rollback()
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &UnknownProductError{ProductID: id}
			}
			return nil, err
		}
		products[id] = p
	}

	// Check every line against the locked stock and snapshot the price
	items := make([]entity.OrderItem, 0, len(lines))
	for _, line := range lines {
		p := products[line.ProductID]
		if !p.available {
			tx.Rollback()
			return nil, &ProductUnavailableError{ProductID: p.id, Name: p.name}
		}
		if p.stock < line.Quantity {
			tx.Rollback()
			return nil, &InsufficientStockError{ProductID: p.id, Name: p.name, Available: p.stock}
		}
		p.stock -= line.Quantity

		productID := p.id
		items = append(items, entity.OrderItem{
			ProductID: &productID,
			Product: &entity.Product{
				ID:        p.id,
				Name:      p.name,
				Slug:      p.slug,
				Price:     p.price,
				Image:     stringPtr(p.image),
				Available: p.available,
			},
			Price:    p.price,
			Quantity: line.Quantity,
		})
	}

	// Insert order
	now := time.Now().UTC()
	orderQuery := `INSERT INTO orders (customer_id, first_name, last_name, email, address, postal_code, city, paid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, nullInt64(order.CustomerID), order.FirstName, order.LastName, order.Email,
		order.Address, order.PostalCode, order.City, now, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Insert order items with batch
	itemQuery := `INSERT INTO order_items (order_id, product_id, price, quantity) VALUES `
	var values []any
	for _, item := range items {
		itemQuery += "(?, ?, ?, ?),"
		values = append(values, orderID, *item.ProductID, item.Price, item.Quantity)
	}
	itemQuery = itemQuery[:len(itemQuery)-1]

	res, err = tx.ExecContext(ctx, itemQuery, values...)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// MySQL reports the first id of a multi-row insert
	firstItemID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	stockQuery := `UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`
	for _, id := range ids {
		p := products[id]
		if _, err := tx.ExecContext(ctx, stockQuery, p.stock, now, p.id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Commit the transaction
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].ID = firstItemID + int64(i)
		items[i].OrderID = orderID
		items[i].Product.Stock = products[*items[i].ProductID].stock
	}

	order.ID = orderID
	order.Items = items
	order.TotalCost = order.Total()
	order.Paid = false
	order.CreatedAt = now
	order.UpdatedAt = now
	return order, nil
}

func scanOrder(row interface{ Scan(...any) error }) (*entity.Order, error) {
	var (
		order      entity.Order
		customerID sql.NullInt64
		rzpOrder   sql.NullString
		rzpPayment sql.NullString
		rzpSig     sql.NullString
	)
	err := row.Scan(&order.ID, &customerID, &order.CustomerEmail, &order.FirstName, &order.LastName, &order.Email,
		&order.Address, &order.PostalCode, &order.City, &order.Paid, &rzpOrder, &rzpPayment, &rzpSig,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	order.CustomerID = int64Ptr(customerID)
	order.RazorpayOrderID = stringPtr(rzpOrder)
	order.RazorpayPaymentID = stringPtr(rzpPayment)
	order.RazorpaySignature = stringPtr(rzpSig)
	return &order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, order *entity.Order) error {
	rows, err := r.db.QueryContext(ctx, orderItemSelect, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = []entity.OrderItem{}
	for rows.Next() {
		var (
			item         entity.OrderItem
			productID    sql.NullInt64
			productName  sql.NullString
			productSlug  sql.NullString
			productPrice decimal.NullDecimal
			productImage sql.NullString
		)
		err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.Price, &item.Quantity,
			&productName, &productSlug, &productPrice, &productImage)
		if err != nil {
			return err
		}
		item.ProductID = int64Ptr(productID)
		if productID.Valid && productName.Valid {
			item.Product = &entity.Product{
				ID:    productID.Int64,
				Name:  productName.String,
				Slug:  productSlug.String,
				Price: productPrice.Decimal,
				Image: stringPtr(productImage),
			}
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	order.TotalCost = order.Total()
	return nil
}

func (r *OrderRepository) getOrder(ctx context.Context, query string, args ...any) (*entity.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id int64) (*entity.Order, error) {
	return r.getOrder(ctx, orderSelect+` WHERE o.id = ?`, id)
}

func (r *OrderRepository) GetCustomerOrder(ctx context.Context, customerID, id int64) (*entity.Order, error) {
	return r.getOrder(ctx, orderSelect+` WHERE o.id = ? AND o.customer_id = ?`, id, customerID)
}

func (r *OrderRepository) GetOrderByRazorpayID(ctx context.Context, razorpayOrderID string) (*entity.Order, error) {
	return r.getOrder(ctx, orderSelect+` WHERE o.razorpay_order_id = ?`, razorpayOrderID)
}

func (r *OrderRepository) GetCustomerOrders(ctx context.Context, customerID int64) ([]*entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderSelect+` WHERE o.customer_id = ? ORDER BY o.created_at DESC, o.id DESC`, customerID)
	if err != nil {
		return nil, err
	}

	orders := []*entity.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) SetRazorpayOrderID(ctx context.Context, id int64, razorpayOrderID string) error {
	query := `UPDATE orders SET razorpay_order_id = ?, updated_at = ? WHERE id = ? AND paid = FALSE`
	_, err := r.db.ExecContext(ctx, query, razorpayOrderID, time.Now().UTC(), id)
	return err
}

// MarkPaid flips the paid flag for the order behind razorpayOrderID. It
// reports false when the order was already paid, leaving the stored payment
// ids untouched.
func (r *OrderRepository) MarkPaid(ctx context.Context, razorpayOrderID, paymentID, signature string) (bool, error) {
	query := `UPDATE orders SET paid = TRUE, razorpay_payment_id = ?, razorpay_signature = ?, updated_at = ?
		WHERE razorpay_order_id = ? AND paid = FALSE`
	res, err := r.db.ExecContext(ctx, query, paymentID, signature, time.Now().UTC(), razorpayOrderID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
