package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"marketplace-service/internal/entity"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

// ProductFilter narrows the public product listing.
type ProductFilter struct {
	CategorySlug string
	Search       string
}

// likeEscaper makes LIKE treat wildcards in user input literally; '\' is
// MySQL's default LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const productSelect = `SELECT p.id, p.name, p.slug, p.description, p.price, p.stock, p.image, p.category_id, c.name, p.seller_id, sp.store_name, p.available, p.created_at, p.updated_at
	FROM products p
	JOIN seller_profiles sp ON sp.id = p.seller_id
	LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row interface{ Scan(...any) error }) (*entity.Product, error) {
	var (
		product      entity.Product
		image        sql.NullString
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)
	err := row.Scan(&product.ID, &product.Name, &product.Slug, &product.Description, &product.Price, &product.Stock,
		&image, &categoryID, &categoryName, &product.SellerID, &product.SellerName, &product.Available,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	product.Image = stringPtr(image)
	product.CategoryID = int64Ptr(categoryID)
	product.CategoryName = stringPtr(categoryName)
	return &product, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*entity.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// GetAvailableProducts lists products customers can buy, newest first.
func (r *ProductRepository) GetAvailableProducts(ctx context.Context, filter ProductFilter) ([]*entity.Product, error) {
	query := productSelect + ` WHERE p.available = TRUE`
	var args []any
	if filter.CategorySlug != "" {
		query += ` AND c.slug = ?`
		args = append(args, filter.CategorySlug)
	}
	if filter.Search != "" {
		query += ` AND p.name LIKE ?`
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`
	return r.queryProducts(ctx, query, args...)
}

func (r *ProductRepository) GetAvailableProductBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	query := productSelect + ` WHERE p.slug = ? AND p.available = TRUE`
	return scanProduct(r.db.QueryRowContext(ctx, query, slug))
}

func (r *ProductRepository) GetSellerProducts(ctx context.Context, sellerID int64) ([]*entity.Product, error) {
	query := productSelect + ` WHERE p.seller_id = ? ORDER BY p.created_at DESC, p.id DESC`
	return r.queryProducts(ctx, query, sellerID)
}

func (r *ProductRepository) GetSellerProductBySlug(ctx context.Context, sellerID int64, slug string) (*entity.Product, error) {
	query := productSelect + ` WHERE p.seller_id = ? AND p.slug = ?`
	return scanProduct(r.db.QueryRowContext(ctx, query, sellerID, slug))
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `INSERT INTO products (seller_id, category_id, name, slug, description, price, stock, image, available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, product.SellerID, nullInt64(product.CategoryID), product.Name, product.Slug,
		product.Description, product.Price, product.Stock, nullString(product.Image), product.Available, now, now)
	if err != nil {
		return nil, translate(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `UPDATE products SET category_id = ?, name = ?, slug = ?, description = ?, price = ?, stock = ?, image = ?, available = ?, updated_at = ?
		WHERE id = ?`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, nullInt64(product.CategoryID), product.Name, product.Slug, product.Description,
		product.Price, product.Stock, nullString(product.Image), product.Available, now, product.ID)
	if err != nil {
		return nil, translate(err)
	}
	product.UpdatedAt = now
	return product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
