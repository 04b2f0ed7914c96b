package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/repository"
)

const notApprovedSeller = "You are not an approved seller."

type SellerRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.SellerProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*entity.SellerProfile, error)
	List(ctx context.Context, approved *bool) ([]*entity.SellerProfile, error)
	UpdateProfile(ctx context.Context, profile *entity.SellerProfile) (*entity.SellerProfile, error)
	SetApproval(ctx context.Context, id int64, approved bool) (*entity.SellerProfile, error)
}

type SellerService struct {
	repo SellerRepository
}

func NewSellerService(repo SellerRepository) *SellerService {
	return &SellerService{repo: repo}
}

// GetProfile returns the seller profile of the calling user.
func (s *SellerService) GetProfile(ctx context.Context, claims *Claims) (*entity.SellerProfile, error) {
	if claims == nil || claims.Role != entity.RoleSeller {
		return nil, forbidden("Only sellers have a seller profile.")
	}
	profile, err := s.repo.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Seller profile not found.")
		}
		return nil, err
	}
	return profile, nil
}

// ApprovedSeller resolves the caller to an approved seller profile.
func (s *SellerService) ApprovedSeller(ctx context.Context, claims *Claims) (*entity.SellerProfile, error) {
	if claims == nil || claims.Role != entity.RoleSeller {
		return nil, forbidden(notApprovedSeller)
	}
	profile, err := s.repo.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, forbidden(notApprovedSeller)
		}
		return nil, err
	}
	if !profile.IsApproved {
		return nil, forbidden(notApprovedSeller)
	}
	return profile, nil
}

func (s *SellerService) UpdateProfile(ctx context.Context, claims *Claims, storeName string, description *string) (*entity.SellerProfile, error) {
	profile, err := s.GetProfile(ctx, claims)
	if err != nil {
		return nil, err
	}

	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return nil, invalid("store_name: This field may not be blank.")
	}
	if len(storeName) > 255 {
		return nil, invalid("store_name: Ensure this field has no more than 255 characters.")
	}

	profile.StoreName = storeName
	profile.Description = description
	return s.repo.UpdateProfile(ctx, profile)
}

func (s *SellerService) ListSellers(ctx context.Context, approved *bool) ([]*entity.SellerProfile, error) {
	return s.repo.List(ctx, approved)
}

func (s *SellerService) Approve(ctx context.Context, id int64) (*entity.SellerProfile, error) {
	return s.setApproval(ctx, id, true)
}

func (s *SellerService) Revoke(ctx context.Context, id int64) (*entity.SellerProfile, error) {
	return s.setApproval(ctx, id, false)
}

func (s *SellerService) setApproval(ctx context.Context, id int64, approved bool) (*entity.SellerProfile, error) {
	profile, err := s.repo.SetApproval(ctx, id, approved)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Seller not found.")
		}
		log.Error().Err(err).Msgf("Error updating approval for seller %d", id)
		return nil, err
	}
	log.Info().Int64("seller_id", id).Bool("approved", approved).Msg("seller approval changed")
	return profile, nil
}
