package samr

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerturbAtFullStrengthChangesAmountsAndIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	input := "  Item: Widget | Qty: 2 | Price: 10.00 | Total: 20.00\nPO-1000\n"
	perturbed, desc := Perturb(rng, input, 1.0)
	assert.NotEqual(t, NoPerturbation, desc)
	assert.NotEqual(t, input, perturbed)
}

func TestPerturbAtZeroStrengthNeverChangesAnything(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	input := "  Item: Widget | Qty: 2 | Price: 10.00 | Total: 20.00\nPO-1000\n"
	perturbed, desc := Perturb(rng, input, 0.0)
	assert.Equal(t, NoPerturbation, desc)
	assert.Equal(t, input, perturbed)
}

func TestPerturbPreservesLinesWithoutMatchableTokens(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	input := "a line with no numbers or ids at all"
	perturbed, desc := Perturb(rng, input, 1.0)
	assert.Equal(t, input, perturbed)
	assert.Equal(t, NoPerturbation, desc)
}

func TestPerturbDescriptionNamesEachChange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	input := "Total: 100.00\nTax: 5.00"
	_, desc := Perturb(rng, input, 1.0)
	if desc != NoPerturbation {
		assert.True(t, strings.Contains(desc, "Changed"))
	}
}
