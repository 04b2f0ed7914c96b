package repository

import (
	"context"
	"database/sql"
	"time"

	"marketplace-service/internal/entity"
)

type SellerRepository struct {
	db *sql.DB
}

func NewSellerRepository(db *sql.DB) *SellerRepository {
	return &SellerRepository{db}
}

const sellerSelect = `SELECT sp.id, sp.user_id, u.email, sp.store_name, sp.description, sp.is_approved, sp.created_at, sp.updated_at
	FROM seller_profiles sp JOIN users u ON u.id = sp.user_id`

func scanSeller(row interface{ Scan(...any) error }) (*entity.SellerProfile, error) {
	profile := &entity.SellerProfile{}
	var description sql.NullString
	err := row.Scan(&profile.ID, &profile.UserID, &profile.Email, &profile.StoreName, &description, &profile.IsApproved, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	profile.Description = stringPtr(description)
	return profile, nil
}

func (r *SellerRepository) GetByID(ctx context.Context, id int64) (*entity.SellerProfile, error) {
	return scanSeller(r.db.QueryRowContext(ctx, sellerSelect+` WHERE sp.id = ?`, id))
}

func (r *SellerRepository) GetByUserID(ctx context.Context, userID int64) (*entity.SellerProfile, error) {
	return scanSeller(r.db.QueryRowContext(ctx, sellerSelect+` WHERE sp.user_id = ?`, userID))
}

// List returns seller profiles, optionally filtered by approval state.
func (r *SellerRepository) List(ctx context.Context, approved *bool) ([]*entity.SellerProfile, error) {
	query := sellerSelect
	var args []any
	if approved != nil {
		query += ` WHERE sp.is_approved = ?`
		args = append(args, *approved)
	}
	query += ` ORDER BY sp.created_at DESC, sp.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*entity.SellerProfile{}
	for rows.Next() {
		profile, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *SellerRepository) UpdateProfile(ctx context.Context, profile *entity.SellerProfile) (*entity.SellerProfile, error) {
	query := `UPDATE seller_profiles SET store_name = ?, description = ?, updated_at = ? WHERE id = ?`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, profile.StoreName, nullString(profile.Description), now, profile.ID)
	if err != nil {
		return nil, err
	}
	profile.UpdatedAt = now
	return profile, nil
}

func (r *SellerRepository) SetApproval(ctx context.Context, id int64, approved bool) (*entity.SellerProfile, error) {
	query := `UPDATE seller_profiles SET is_approved = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, approved, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
