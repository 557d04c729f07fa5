package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpendingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SpendingMode
		wantErr bool
	}{
		{"conservative", ModeConservative, false},
		{"balanced", ModeBalanced, false},
		{"growth", ModeGrowth, false},
		{"Balanced", ModeBalanced, false},
		{" GROWTH ", ModeGrowth, false},
		{"", "", true},
		{"aggressive", "", true},
		{"balanced!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpendingMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRetention(t *testing.T) {
	assert.True(t, ModeConservative.Retention().Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, ModeBalanced.Retention().Equal(decimal.NewFromFloat(0.8)))
	assert.True(t, ModeGrowth.Retention().Equal(decimal.NewFromFloat(0.3)))
}

func TestRetention_PanicsOnInvalidMode(t *testing.T) {
	assert.Panics(t, func() { SpendingMode("nope").Retention() })
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Balanced", ModeBalanced.Title())
	assert.Equal(t, "Conservative", ModeConservative.Title())
}
