package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsType(t *testing.T) {
	base := NotFound("no data for bonds")
	wrapped := Wrapf(base, "loading %s", "bonds")

	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeNotFound))
	assert.Equal(t, "loading bonds: no data for bonds", wrapped.Error())
	assert.True(t, Is(wrapped, base))
}

func TestTypeOfThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", DegenerateData("NVDA has zero volatility"))
	assert.Equal(t, ErrorTypeDegenerateData, TypeOf(err))

	var appErr *AppError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, "NVDA has zero volatility", appErr.Message)
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(fmt.Errorf("plain")))
	assert.False(t, IsType(nil, ErrorTypeUnknown))
}

func TestWithType(t *testing.T) {
	err := WithType(fmt.Errorf("deadline"), ErrorTypeTimeout)
	assert.Equal(t, ErrorTypeTimeout, TypeOf(err))
	assert.Equal(t, "timeout", TypeOf(err).String())
	assert.Nil(t, WithType(nil, ErrorTypeTimeout))
}
