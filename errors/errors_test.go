package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf("error: %s %d", "test", 42)
	require.NotNil(t, err)
	assert.Equal(t, "error: test 42", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestIs(t *testing.T) {
	err1 := New("error 1")
	err2 := New("error 2")
	wrapped := Wrap(err1, "wrapped")

	assert.True(t, Is(wrapped, err1))
	assert.False(t, Is(wrapped, err2))
	assert.False(t, Is(nil, err1))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("unknown test"), "allowed values: fisher, chi2")
	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "allowed values: fisher, chi2", hints[0])
}

func TestGetStack(t *testing.T) {
	err := Wrap(New("base"), "context")
	assert.NotNil(t, GetStack(err))
}

func TestSentinelHelpers(t *testing.T) {
	t.Run("invalid config keeps message and category", func(t *testing.T) {
		err := NewInvalidConfigError("tolerance must be >= 0, got %d", -1)
		assert.Equal(t, "tolerance must be >= 0, got -1", err.Error())
		assert.True(t, IsInvalidConfigError(err))
		assert.True(t, IsInvalidConfigError(Wrap(err, "validate")))
		assert.False(t, IsInvalidRequestError(err))
	})

	t.Run("invalid request", func(t *testing.T) {
		err := NewInvalidRequestError("missing %s", "text")
		assert.True(t, IsInvalidRequestError(err))
		assert.Contains(t, err.Error(), "missing text")
	})

	t.Run("not found", func(t *testing.T) {
		err := NewNotFoundError("dataset %q", "psp")
		assert.True(t, IsNotFoundError(err))
		assert.False(t, IsNotFoundError(nil))
	})

	t.Run("computation errors", func(t *testing.T) {
		assert.True(t, IsComputationError(Wrap(ErrPValueOutOfRange, "fisher")))
		assert.True(t, IsComputationError(Wrapf(ErrNotMonotonic, "fdr_bh at %d", 3)))
		assert.False(t, IsComputationError(ErrInvalidConfig))
		assert.False(t, IsComputationError(nil))
	})

	t.Run("stdlib wrapping still matches", func(t *testing.T) {
		err := fmt.Errorf("run: %w", ErrPValueOutOfRange)
		assert.True(t, Is(err, ErrPValueOutOfRange))
	})
}
