package repository

import (
	"context"
	"database/sql"

	"marketplace-service/internal/entity"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db}
}

func (r *CategoryRepository) GetCategories(ctx context.Context) ([]*entity.Category, error) {
	query := `SELECT id, name, slug FROM categories ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*entity.Category{}
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id int64) (*entity.Category, error) {
	category := &entity.Category{}
	query := `SELECT id, name, slug FROM categories WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Slug)
	if err != nil {
		return nil, translate(err)
	}
	return category, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	query := `INSERT INTO categories (name, slug) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, category.Name, category.Slug)
	if err != nil {
		return nil, translate(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	category.ID = id
	return category, nil
}
