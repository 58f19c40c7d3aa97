package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare ten digits", "1234567890", "+11234567890"},
		{"eleven digits with country code", "15551234567", "+15551234567"},
		{"already formatted", "+15550001234", "+15550001234"},
		{"punctuation stripped", "(555) 000-1234", "+15550001234"},
		{"spaces and dots stripped", "555.000 1234", "+15550001234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAndFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAndFormatRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"letters", "abc"},
		{"letters mixed with digits", "555call4me"},
		{"too short", "12345678"},
		{"too long", "+1234567890123456"},
		{"unsupported country code", "+447911123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAndFormat(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPhone))
		})
	}
}
