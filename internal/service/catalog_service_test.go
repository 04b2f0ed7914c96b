package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service/servicetest"
	"marketplace-service/internal/repository"
)

func catalogFixture() (*servicetest.ProductRepo, *servicetest.CategoryRepo) {
	products := servicetest.NewProductRepo(
		&entity.Product{ID: 1, Name: "Mug", Slug: "mug", Price: decimal.RequireFromString("4.50"), Stock: 3, SellerID: 1, Available: true},
		&entity.Product{ID: 2, Name: "Hidden", Slug: "hidden", Price: decimal.RequireFromString("1.00"), SellerID: 1, Available: false},
	)
	categories := servicetest.NewCategoryRepo(&entity.Category{ID: 1, Name: "Kitchen", Slug: "kitchen"})
	return products, categories
}

func TestGetProductReadsThroughCache(t *testing.T) {
	products, categories := catalogFixture()
	cache := servicetest.NewProductCache()
	svc := NewCatalogService(categories, products, cache)
	ctx := context.Background()

	product, err := svc.GetProduct(ctx, "mug")
	require.NoError(t, err)
	assert.Equal(t, "Mug", product.Name)
	assert.Contains(t, cache.Entries, "mug")

	_, err = svc.GetProduct(ctx, "mug")
	require.NoError(t, err)
	assert.Equal(t, 1, products.BySlug)
}

func TestGetProductCacheFailureFallsBack(t *testing.T) {
	products, categories := catalogFixture()
	cache := servicetest.NewProductCache()
	cache.Err = errors.New("redis down")
	svc := NewCatalogService(categories, products, cache)

	product, err := svc.GetProduct(context.Background(), "mug")
	require.NoError(t, err)
	assert.Equal(t, int64(1), product.ID)
}

func TestGetProductHidesUnavailable(t *testing.T) {
	products, categories := catalogFixture()
	svc := NewCatalogService(categories, products, servicetest.NewProductCache())

	_, err := svc.GetProduct(context.Background(), "hidden")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.ListProducts(context.Background(), repository.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mug", list[0].Slug)
}

func TestPreWarmCache(t *testing.T) {
	products, categories := catalogFixture()
	cache := servicetest.NewProductCache()
	svc := NewCatalogService(categories, products, cache)

	n, err := svc.PreWarmCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, cache.Entries, "mug")
	assert.NotContains(t, cache.Entries, "hidden")
}

func TestCreateCategoryNameLength(t *testing.T) {
	products, categories := catalogFixture()
	svc := NewCatalogService(categories, products, nil)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, strings.Repeat("g", 255), "")
	require.NoError(t, err)
	assert.Len(t, category.Slug, 255)

	_, err = svc.CreateCategory(ctx, strings.Repeat("g", 256), "long")
	require.Error(t, err)
	assert.Equal(t, "name: Ensure this field has no more than 255 characters.", err.Error())
}

func TestCreateCategory(t *testing.T) {
	products, categories := catalogFixture()
	svc := NewCatalogService(categories, products, nil)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, "Home & Garden", "")
	require.NoError(t, err)
	assert.Equal(t, "home-garden", category.Slug)

	_, err = svc.CreateCategory(ctx, "Kitchen 2", "kitchen")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "category with this slug already exists.", err.Error())

	_, err = svc.CreateCategory(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateCategory(ctx, "Bad", "not a slug")
	assert.ErrorIs(t, err, ErrValidation)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
