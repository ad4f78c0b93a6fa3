package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"unauthorized", ErrUnauthorized, KindAuthorization},
		{"validation", ErrInvalidThreshold, KindValidation},
		{"wrapped state", fmt.Errorf("ranking: %w", ErrRebalanceTooSoon), KindState},
		{"not found", ErrStrategyNotFound, KindNotFound},
		{"arithmetic", ErrBalanceOverflow, KindArithmetic},
		{"plain error", errors.New("disk full"), KindInternal},
		{"nil", nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "TokenMintsIdentical", CodeOf(fmt.Errorf("register: %w", ErrTokenMintsIdentical)))
	assert.Equal(t, "Internal", CodeOf(errors.New("boom")))
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrPortfolioNotFound, ErrStrategyNotFound))
	assert.True(t, errors.Is(fmt.Errorf("x: %w", ErrEmergencyPaused), ErrEmergencyPaused))
}
