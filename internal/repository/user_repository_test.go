package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
)

func TestCreateUserSellerCreatesProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("s@shop.io", "seller", "hash", "SELLER", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seller_profiles")).
		WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewUserRepository(db)
	user, err := repo.CreateUser(context.Background(), &entity.User{
		Email: "s@shop.io", Username: "seller", PasswordHash: "hash", Role: entity.RoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserCustomerSkipsProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	repo := NewUserRepository(db)
	user, err := repo.CreateUser(context.Background(), &entity.User{
		Email: "c@shop.io", Username: "cust", PasswordHash: "hash", Role: entity.RoleCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserProfileFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seller_profiles")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewUserRepository(db)
	_, err = repo.CreateUser(context.Background(), &entity.User{
		Email: "s@shop.io", Username: "seller", PasswordHash: "hash", Role: entity.RoleSeller,
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("missing@shop.io").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password", "role", "is_active", "created_at"}))

	repo := NewUserRepository(db)
	_, err = repo.GetUserByEmail(context.Background(), "missing@shop.io")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("c@shop.io").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password", "role", "is_active", "created_at"}).
			AddRow(int64(4), "c@shop.io", "cust", "hash", "CUSTOMER", true, created))

	repo := NewUserRepository(db)
	user, err := repo.GetUserByEmail(context.Background(), "c@shop.io")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCustomer, user.Role)
	assert.Equal(t, created, user.CreatedAt)
}
