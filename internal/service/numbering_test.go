package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNextNumberSequencesPerScopeAndYear(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seen := map[string]bool{}
	for i := 1; i <= 5; i++ {
		var number string
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			number, err = nextNumber(tx, "ORD", now)
			return err
		}))
		assert.Equal(t, fmt.Sprintf("ORD-2026-%04d", i), number)
		assert.False(t, seen[number])
		seen[number] = true
	}

	// scopes count independently
	var inv string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = nextNumber(tx, "INV", now)
		return err
	}))
	assert.Equal(t, "INV-2026-0001", inv)

	// a new year restarts the counter
	var nextYear string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		nextYear, err = nextNumber(tx, "ORD", now.AddDate(1, 0, 0))
		return err
	}))
	assert.Equal(t, "ORD-2027-0001", nextYear)
}

func TestNextNumberRollsBackWithAbortedTransaction(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var first string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = nextNumber(tx, "ORD", now)
		return err
	}))
	assert.Equal(t, "ORD-2026-0001", first)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := nextNumber(tx, "ORD", now); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	var next string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		next, err = nextNumber(tx, "ORD", now)
		return err
	}))
	assert.NotEqual(t, first, next)
	assert.Equal(t, "ORD-2026-0002", next)
}
