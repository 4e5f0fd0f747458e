package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped malformed", fmt.Errorf("extract intent: %w", ErrMalformedResponse), true},
		{"rate limited", ErrRateLimited, true},
		{"provider status", ErrProviderStatus, true},
		{"schema", ErrSchemaValidation, true},
		{"canceled", context.Canceled, false},
		{"invalid input", ErrInvalidInput, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
