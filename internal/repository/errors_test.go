package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.email'"}
	err := translate(dup)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "email")

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}

func TestDuplicateKey(t *testing.T) {
	assert.Equal(t, "slug", duplicateKey("Duplicate entry 'x' for key 'products.slug'"))
	assert.Equal(t, "username", duplicateKey("Duplicate entry 'x' for key 'username'"))
	assert.Equal(t, "no key here", duplicateKey("no key here"))
}

func TestInsufficientStockMessage(t *testing.T) {
	err := &InsufficientStockError{ProductID: 3, Name: "Bose TWS", Available: 1}
	assert.Equal(t, "Not enough stock for Bose TWS. Available: 1", err.Error())
}
