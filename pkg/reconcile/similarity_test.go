package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSetRatioIdenticalStringsIsMax(t *testing.T) {
	assert.Equal(t, 100, TokenSetRatio("Widget Assembly Kit", "Widget Assembly Kit"))
}

func TestTokenSetRatioIgnoresWordOrder(t *testing.T) {
	a := "Assembly Widget Kit"
	b := "Widget Kit Assembly"
	assert.Equal(t, 100, TokenSetRatio(a, b))
}

func TestTokenSetRatioToleratesOneSidedBoilerplate(t *testing.T) {
	a := "Widget Assembly Kit"
	b := "Qty 5 units of Widget Assembly Kit delivered"
	score := TokenSetRatio(a, b)
	assert.GreaterOrEqual(t, score, DefaultThreshold)
}

func TestTokenSetRatioUnrelatedStringsIsLow(t *testing.T) {
	score := TokenSetRatio("Widget Assembly Kit", "Aerospace Turbine Housing")
	assert.Less(t, score, DefaultThreshold)
}

func TestTokenSetRatioEmptyStringsIsMax(t *testing.T) {
	assert.Equal(t, 100, TokenSetRatio("", ""))
}
