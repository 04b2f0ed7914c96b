package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/repository"
)

var maxPrice = decimal.New(1, 8)

// ProductInput carries the writable product fields. Nil means the field was
// not sent.
type ProductInput struct {
	Name        *string
	Slug        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Image       *string
	CategoryID  *int64
	Available   *bool
}

// ProductService is the seller dashboard: product CRUD scoped to the
// calling seller.
type ProductService struct {
	products   ProductRepository
	categories CategoryRepository
	cache      ProductCache
}

func NewProductService(products ProductRepository, categories CategoryRepository, cache ProductCache) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		cache:      cache,
	}
}

func (s *ProductService) ListOwn(ctx context.Context, seller *entity.SellerProfile) ([]*entity.Product, error) {
	return s.products.GetSellerProducts(ctx, seller.ID)
}

func (s *ProductService) GetOwn(ctx context.Context, seller *entity.SellerProfile, slug string) (*entity.Product, error) {
	product, err := s.products.GetSellerProductBySlug(ctx, seller.ID, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("No Product matches the given query.")
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, seller *entity.SellerProfile, in ProductInput) (*entity.Product, error) {
	product := &entity.Product{
		SellerID:   seller.ID,
		SellerName: seller.StoreName,
		Available:  true,
	}
	if err := s.apply(ctx, product, in, false); err != nil {
		return nil, err
	}

	created, err := s.products.CreateProduct(ctx, product)
	if err != nil {
		return nil, s.writeError(err)
	}

	log.Info().Int64("product_id", created.ID).Int64("seller_id", seller.ID).Msg("product created")
	return s.GetOwn(ctx, seller, created.Slug)
}

// Update replaces the product (partial=false) or patches the sent fields
// (partial=true).
func (s *ProductService) Update(ctx context.Context, seller *entity.SellerProfile, slug string, in ProductInput, partial bool) (*entity.Product, error) {
	product, err := s.GetOwn(ctx, seller, slug)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, product, in, partial); err != nil {
		return nil, err
	}

	if _, err := s.products.UpdateProduct(ctx, product); err != nil {
		return nil, s.writeError(err)
	}
	s.evict(ctx, slug, product.Slug)

	return s.GetOwn(ctx, seller, product.Slug)
}

func (s *ProductService) Delete(ctx context.Context, seller *entity.SellerProfile, slug string) error {
	product, err := s.GetOwn(ctx, seller, slug)
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, product.ID); err != nil {
		log.Error().Err(err).Msgf("Error deleting product %d", product.ID)
		return err
	}
	s.evict(ctx, product.Slug)
	return nil
}

func (s *ProductService) evict(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, slugs...); err != nil {
		log.Warn().Err(err).Strs("slugs", slugs).Msg("product cache eviction failed")
	}
}

func (s *ProductService) writeError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return invalid("product with this slug already exists.")
	}
	log.Error().Err(err).Msg("Error saving product")
	return err
}

// apply validates in and copies it onto product. A full write requires name,
// description and price and resets omitted optional fields.
func (s *ProductService) apply(ctx context.Context, product *entity.Product, in ProductInput, partial bool) error {
	if !partial {
		switch {
		case in.Name == nil:
			return invalid("name: This field is required.")
		case in.Description == nil:
			return invalid("description: This field is required.")
		case in.Price == nil:
			return invalid("price: This field is required.")
		}
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("name: This field may not be blank.")
		}
		if utf8.RuneCountInString(name) > 255 {
			return invalid("name: Ensure this field has no more than 255 characters.")
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
		product.Price = *in.Price
	}

	switch {
	case in.Stock != nil:
		if *in.Stock < 0 {
			return invalid("stock: Ensure this value is greater than or equal to 0.")
		}
		product.Stock = *in.Stock
	case !partial:
		product.Stock = 0
	}

	switch {
	case in.Available != nil:
		product.Available = *in.Available
	case !partial:
		product.Available = true
	}

	if in.Image != nil || !partial {
		product.Image = in.Image
	}

	if in.CategoryID != nil {
		category, err := s.categories.GetCategoryByID(ctx, *in.CategoryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid(fmt.Sprintf("category: Invalid pk \"%d\" - object does not exist.", *in.CategoryID))
			}
			return err
		}
		product.CategoryID = &category.ID
		product.CategoryName = &category.Name
	} else if !partial {
		product.CategoryID = nil
		product.CategoryName = nil
	}

	switch {
	case in.Slug != nil && *in.Slug != "":
		if !validSlug.MatchString(*in.Slug) {
			return invalid("slug: Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
		}
		product.Slug = *in.Slug
	case product.Slug == "" || (!partial && in.Slug != nil):
		product.Slug = Slugify(product.Name)
	}
	if product.Slug == "" {
		return invalid("slug: Could not derive a slug from the product name.")
	}
	return nil
}

// validatePrice mirrors DECIMAL(10,2).
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return invalid("price: Ensure this value is greater than or equal to 0.")
	}
	if !price.Equal(price.Round(2)) {
		return invalid("price: Ensure that there are no more than 2 decimal places.")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return invalid("price: Ensure that there are no more than 8 digits before the decimal point.")
	}
	return nil
}
