package samr

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalRe = regexp.MustCompile(`\b\d+\.\d{2}\b`)
	docIDRe   = regexp.MustCompile(`\b(INV|PO|GRN)[-_]?(\d{4,8})\b`)
)

var amountDeltas = []float64{-0.05, 0.05, -0.10, 0.10}
var idDeltas = []int{1, -1, 10, -10}

// Perturb adversarially alters context: with probability strength per line
// containing a decimal amount, shift it by one of amountDeltas; with half
// that probability per line containing a document identifier, shift its
// numeric suffix by one of idDeltas. Returns the perturbed context and a
// human-readable description of every change made, per spec.md §4.9 step 2.
func Perturb(rng *rand.Rand, context string, strength float64) (string, string) {
	lines := strings.Split(context, "\n")
	var changes []string

	for i, line := range lines {
		if m := decimalRe.FindString(line); m != "" && rng.Float64() < strength {
			val, err := strconv.ParseFloat(m, 64)
			if err == nil {
				delta := amountDeltas[rng.Intn(len(amountDeltas))]
				perturbed := round2(val + val*delta)
				newStr := strconv.FormatFloat(perturbed, 'f', 2, 64)
				lines[i] = strings.Replace(line, m, newStr, 1)
				changes = append(changes, fmt.Sprintf("Changed %s -> %s", m, newStr))
				line = lines[i]
			}
		}
		if m := docIDRe.FindStringSubmatch(line); m != nil && rng.Float64() < strength*0.5 {
			prefix, numStr := m[1], m[2]
			num, err := strconv.Atoi(numStr)
			if err == nil {
				newNum := num + idDeltas[rng.Intn(len(idDeltas))]
				lines[i] = strings.Replace(line, prefix+numStr, fmt.Sprintf("%s%d", prefix, newNum), 1)
				changes = append(changes, fmt.Sprintf("Changed document number %s -> %d", numStr, newNum))
			}
		}
	}

	description := "No significant perturbation applied"
	if len(changes) > 0 {
		description = strings.Join(changes, "; ")
	}
	return strings.Join(lines, "\n"), description
}

func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// NoPerturbation is the exact sentinel description Perturb returns when
// nothing changed; the caller uses it to decide whether an alert can fire
// at all, per spec.md §4.9 step 4.
const NoPerturbation = "No significant perturbation applied"
