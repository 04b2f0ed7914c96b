package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Image        *string         `json:"image"`
	CategoryID   *int64          `json:"category"`
	CategoryName *string         `json:"category_name"`
	SellerID     int64           `json:"seller"`
	SellerName   string          `json:"seller_name"`
	Available    bool            `json:"available"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MarshalJSON renders the price with two decimals, matching the DECIMAL(10,2)
// column.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{product(p), p.Price.StringFixed(2)})
}

/*
Mysql Schema:

CREATE TABLE products (
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
	...
);
*/
