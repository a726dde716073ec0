package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("lookup: %w", ErrNotFound), expected: true},
		{name: "ErrCardNotFound", err: ErrCardNotFound, expected: true},
		{name: "ErrMemoryStateNotFound", err: ErrMemoryStateNotFound, expected: true},
		{name: "wrapped ErrDeckNotFound", err: fmt.Errorf("resolve: %w", ErrDeckNotFound), expected: true},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: true},
		{name: "ErrReviewLogExists", err: ErrReviewLogExists, expected: true},
		{name: "wrapped ErrReviewLogExists", err: fmt.Errorf("append: %w", ErrReviewLogExists), expected: true},
		{name: "ErrCardNotFound", err: ErrCardNotFound, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDuplicateError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("memory_state", "upsert", "database error", originalErr)

	assert.Equal(t,
		"upsert operation on memory_state failed: database error: database connection failed",
		storeErr.Error())
	assert.ErrorIs(t, storeErr, originalErr)

	bare := NewStoreError("card", "ensure", "empty term", nil)
	assert.Equal(t, "ensure operation on card failed: empty term", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
