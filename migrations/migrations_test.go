package migrations

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrateCreatesTablesInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.MatchExpectationsInOrder(true)
	for _, name := range []string{"users", "seller_profiles", "categories", "products", "orders", "order_items"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + name + " ").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, AutoMigrate(db, 0, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrateRetriesThenFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users ").WillReturnError(errors.New("connection refused"))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users ").WillReturnError(errors.New("connection refused"))

	err = AutoMigrate(db, 1, 0)
	assert.ErrorContains(t, err, "create table users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrateRecoversOnRetry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users ").WillReturnError(errors.New("connection refused"))
	for _, name := range []string{"users", "seller_profiles", "categories", "products", "orders", "order_items"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + name + " ").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, AutoMigrate(db, 2, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}
