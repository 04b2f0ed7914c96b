package migrations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type table struct {
	name  string
	query string
}

// tables are listed parent first so foreign keys resolve.
var tables = []table{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(254) NOT NULL UNIQUE,
			username VARCHAR(150) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'CUSTOMER',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL
		);
	`},
	{"seller_profiles", `
		CREATE TABLE IF NOT EXISTS seller_profiles (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			store_name VARCHAR(255) NOT NULL DEFAULT '',
			description TEXT NULL,
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`},
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL UNIQUE
		);
	`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			seller_id BIGINT NOT NULL,
			category_id BIGINT NULL,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			stock INT UNSIGNED NOT NULL DEFAULT 0,
			image VARCHAR(255) NULL,
			available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			INDEX idx_products_available_created (available, created_at),
			FOREIGN KEY (seller_id) REFERENCES seller_profiles(id) ON DELETE CASCADE,
			FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
		);
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			customer_id BIGINT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(254) NOT NULL,
			address VARCHAR(250) NOT NULL,
			postal_code VARCHAR(20) NOT NULL,
			city VARCHAR(100) NOT NULL,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			razorpay_order_id VARCHAR(255) NULL,
			razorpay_payment_id VARCHAR(255) NULL,
			razorpay_signature VARCHAR(255) NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			INDEX idx_orders_razorpay (razorpay_order_id),
			INDEX idx_orders_customer (customer_id, created_at),
			FOREIGN KEY (customer_id) REFERENCES users(id) ON DELETE SET NULL
		);
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NULL,
			price DECIMAL(10,2) NOT NULL,
			quantity INT UNSIGNED NOT NULL DEFAULT 1,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE SET NULL
		);
	`},
}

// AutoMigrate creates every table that does not exist yet, retrying each
// statement up to retries extra times.
func AutoMigrate(db *sql.DB, retries int, wait time.Duration) error {
	for _, t := range tables {
		_, err := db.Exec(t.query)
		for i := 0; err != nil && i < retries; i++ {
			log.Warn().Err(err).Msgf("Retry %d: creating table %s", i+1, t.name)
			time.Sleep(wait)
			_, err = db.Exec(t.query)
		}
		if err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	return nil
}
