package snapshot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloatPtrNilOnZero(t *testing.T) {
	assert.Nil(t, toFloatPtr(decimal.Decimal{}))
	got := toFloatPtr(decimal.NewFromFloat(21.5))
	require.NotNil(t, got)
	assert.Equal(t, 21.5, *got)
}

func TestTenYearYieldDividesByTen(t *testing.T) {
	got := tenYearYield(decimal.NewFromFloat(42.5))
	require.NotNil(t, got)
	assert.Equal(t, 4.25, *got)
	assert.Nil(t, tenYearYield(decimal.Decimal{}))
}
