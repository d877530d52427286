// Package reconcile implements the reconciliation matcher (C10): entity
// resolution across PO/GRN/Invoice line items by fuzzy description matching,
// followed by LLM-synthesized verdict.
package reconcile

import (
	"sort"
	"strings"
)

// DefaultThreshold is the minimum token-set ratio (0-100) a candidate match
// must clear, per spec.md §4.10.
const DefaultThreshold = 60

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()[]\"'")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func intersectAndDiff(a, b []string) (intersection, onlyA, onlyB []string) {
	bSet := make(map[string]bool, len(b))
	for _, t := range b {
		bSet[t] = true
	}
	aSet := make(map[string]bool, len(a))
	for _, t := range a {
		aSet[t] = true
		if bSet[t] {
			intersection = append(intersection, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range b {
		if !aSet[t] {
			onlyB = append(onlyB, t)
		}
	}
	return
}

// levenshteinRatio returns a 0-100 similarity score derived from edit
// distance, the base metric TokenSetRatio combines across token subsets.
func levenshteinRatio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	distance := prev[lb]
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return int(100 * (1 - float64(distance)/float64(maxLen)))
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// TokenSetRatio scores two descriptions 0-100 by comparing the shared-token
// set against each side's leftover tokens, so word order and one-sided
// boilerplate ("Qty 5 units of ...") don't depress the score the way a raw
// edit-distance ratio would, per spec.md §4.10's entity resolution step.
func TokenSetRatio(a, b string) int {
	tokensA, tokensB := tokenize(a), tokenize(b)
	intersection, onlyA, onlyB := intersectAndDiff(tokensA, tokensB)

	sorted := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(sorted + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sorted + " " + strings.Join(onlyB, " "))

	best := levenshteinRatio(sorted, combinedA)
	if r := levenshteinRatio(sorted, combinedB); r > best {
		best = r
	}
	if r := levenshteinRatio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}
