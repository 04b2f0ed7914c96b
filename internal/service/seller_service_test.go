package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service/servicetest"
)

func newTestSellerService() (*SellerService, *servicetest.SellerRepo) {
	repo := &servicetest.SellerRepo{Profiles: map[int64]*entity.SellerProfile{
		1: {ID: 1, UserID: 10, StoreName: "Acme", IsApproved: true},
		2: {ID: 2, UserID: 20, StoreName: "", IsApproved: false},
	}}
	return NewSellerService(repo), repo
}

func TestApprovedSeller(t *testing.T) {
	svc, _ := newTestSellerService()
	ctx := context.Background()

	profile, err := svc.ApprovedSeller(ctx, &Claims{UserID: 10, Role: entity.RoleSeller})
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.ID)

	tests := []struct {
		name   string
		claims *Claims
	}{
		{"unapproved seller", &Claims{UserID: 20, Role: entity.RoleSeller}},
		{"customer", &Claims{UserID: 10, Role: entity.RoleCustomer}},
		{"seller without profile", &Claims{UserID: 30, Role: entity.RoleSeller}},
		{"anonymous", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApprovedSeller(ctx, tt.claims)
			assert.ErrorIs(t, err, ErrForbidden)
			assert.Equal(t, "You are not an approved seller.", err.Error())
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newTestSellerService()
	desc := "handmade goods"

	profile, err := svc.UpdateProfile(context.Background(), &Claims{UserID: 20, Role: entity.RoleSeller}, "  Crafts  ", &desc)
	require.NoError(t, err)
	assert.Equal(t, "Crafts", profile.StoreName)
	assert.Equal(t, "handmade goods", *repo.Profiles[2].Description)

	_, err = svc.UpdateProfile(context.Background(), &Claims{UserID: 20, Role: entity.RoleSeller}, " ", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateProfile(context.Background(), &Claims{UserID: 10, Role: entity.RoleCustomer}, "x", nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestApproveAndRevoke(t *testing.T) {
	svc, _ := newTestSellerService()
	ctx := context.Background()

	profile, err := svc.Approve(ctx, 2)
	require.NoError(t, err)
	assert.True(t, profile.IsApproved)

	profile, err = svc.Revoke(ctx, 1)
	require.NoError(t, err)
	assert.False(t, profile.IsApproved)

	_, err = svc.Approve(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSellersFilter(t *testing.T) {
	svc, _ := newTestSellerService()
	approved := true

	all, err := svc.ListSellers(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyApproved, err := svc.ListSellers(context.Background(), &approved)
	require.NoError(t, err)
	require.Len(t, onlyApproved, 1)
	assert.Equal(t, "Acme", onlyApproved[0].StoreName)
}
