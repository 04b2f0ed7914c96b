package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/repository"
)

type CategoryRepository interface {
	GetCategories(ctx context.Context) ([]*entity.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*entity.Category, error)
	CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
}

type ProductRepository interface {
	GetAvailableProducts(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, error)
	GetAvailableProductBySlug(ctx context.Context, slug string) (*entity.Product, error)
	GetSellerProducts(ctx context.Context, sellerID int64) ([]*entity.Product, error)
	GetSellerProductBySlug(ctx context.Context, sellerID int64, slug string) (*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type ProductCache interface {
	Get(ctx context.Context, slug string) (*entity.Product, bool, error)
	Set(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, slugs ...string) error
}

// CatalogService serves the public storefront.
type CatalogService struct {
	categories CategoryRepository
	products   ProductRepository
	cache      ProductCache
}

func NewCatalogService(categories CategoryRepository, products ProductRepository, cache ProductCache) *CatalogService {
	return &CatalogService{
		categories: categories,
		products:   products,
		cache:      cache,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	return s.categories.GetCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string) (*entity.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name: This field may not be blank.")
	}
	if utf8.RuneCountInString(name) > 255 {
		return nil, invalid("name: Ensure this field has no more than 255 characters.")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if !validSlug.MatchString(slug) {
		return nil, invalid("slug: Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}

	category, err := s.categories.CreateCategory(ctx, &entity.Category{Name: name, Slug: slug})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("category with this slug already exists.")
		}
		log.Error().Err(err).Msg("Error creating category")
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, error) {
	products, err := s.products.GetAvailableProducts(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	return products, nil
}

// GetProduct reads through the product cache. Cache failures only cost a
// database round trip.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*entity.Product, error) {
	if s.cache != nil {
		product, ok, err := s.cache.Get(ctx, slug)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("product cache read failed")
		} else if ok {
			return product, nil
		}
	}

	product, err := s.products.GetAvailableProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("No Product matches the given query.")
		}
		log.Error().Err(err).Msgf("Error getting product %s", slug)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("product cache write failed")
		}
	}
	return product, nil
}

// PreWarmCache loads every available product into the cache and returns
// how many entries were written.
func (s *CatalogService) PreWarmCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	products, err := s.products.GetAvailableProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, product := range products {
		if err := s.cache.Set(ctx, product); err != nil {
			log.Error().Err(err).Str("slug", product.Slug).Msg("Error caching product")
			continue
		}
		warmed++
	}
	log.Info().Int("products", warmed).Msg("product cache warmed")
	return warmed, nil
}
