package utils

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFormats(t *testing.T) {
	tests := []struct {
		name    string
		gen     func() (string, error)
		pattern string
	}{
		{"ticket", TicketCode, `^T-[0-9A-F]{6}$`},
		{"charter", CharterCode, `^F-[0-9A-F]{6}$`},
		{"parcel", ParcelCode, `^P-[0-9]{6}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := regexp.MustCompile(tt.pattern)
			for i := 0; i < 50; i++ {
				code, err := tt.gen()
				require.NoError(t, err)
				assert.Regexp(t, re, code)
			}
		})
	}
}

func TestUniqueCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Retries On Collision", func(t *testing.T) {
		codes := []string{"T-AAAAAA", "T-BBBBBB", "T-CCCCCC"}
		i := 0
		gen := func() (string, error) {
			c := codes[i]
			i++
			return c, nil
		}
		exists := func(_ context.Context, code string) (bool, error) {
			return code != "T-CCCCCC", nil
		}

		code, err := UniqueCode(ctx, gen, exists)
		require.NoError(t, err)
		assert.Equal(t, "T-CCCCCC", code)
	})

	t.Run("Gives Up", func(t *testing.T) {
		exists := func(context.Context, string) (bool, error) { return true, nil }
		_, err := UniqueCode(ctx, TicketCode, exists)
		assert.Error(t, err)
	})

	t.Run("Lookup Error", func(t *testing.T) {
		exists := func(context.Context, string) (bool, error) { return false, errors.New("db down") }
		_, err := UniqueCode(ctx, TicketCode, exists)
		assert.EqualError(t, err, "db down")
	})
}
