package repository

import (
	"context"
	"database/sql"
	"time"

	"marketplace-service/internal/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

const userColumns = `id, email, username, password, role, is_active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*entity.User, error) {
	user := &entity.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.IsActive, &user.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// CreateUser inserts the user and, for sellers, an unapproved seller profile
// in the same transaction.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userQuery := `INSERT INTO users (email, username, password, role, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, userQuery, user.Email, user.Username, user.PasswordHash, user.Role, true, now)
	if err != nil {
		tx.Rollback()
		return nil, translate(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if user.Role == entity.RoleSeller {
		profileQuery := `INSERT INTO seller_profiles (user_id, store_name, is_approved, created_at, updated_at) VALUES (?, '', FALSE, ?, ?)`
		_, err = tx.ExecContext(ctx, profileQuery, id, now, now)
		if err != nil {
			tx.Rollback()
			return nil, translate(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	user.ID = id
	user.IsActive = true
	user.CreatedAt = now
	return user, nil
}
