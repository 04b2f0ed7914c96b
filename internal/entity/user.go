package entity

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleSeller
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SellerProfile is created together with every SELLER user. Products can only
// be listed once an admin sets IsApproved.
type SellerProfile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	StoreName   string    `json:"store_name"`
	Description *string   `json:"description"`
	IsApproved  bool      `json:"is_approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

/*
Mysql Schema:

CREATE TABLE users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	email VARCHAR(254) NOT NULL UNIQUE,
	username VARCHAR(150) NOT NULL UNIQUE,
	password VARCHAR(255) NOT NULL,
	role VARCHAR(50) NOT NULL DEFAULT 'CUSTOMER',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE seller_profiles (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL UNIQUE,
	store_name VARCHAR(255) NOT NULL DEFAULT '',
	description TEXT NULL,
	is_approved BOOLEAN NOT NULL DEFAULT FALSE,
	...
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
*/
