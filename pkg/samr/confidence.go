package samr

import (
	"math"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// wilsonZ95 is the z-score for a 95% confidence level, the fixed level
// GET /samr/analytics reports at.
const wilsonZ95 = 1.960

// Interval is a Wilson score confidence interval around an observed rate.
type Interval struct {
	Rate float64
	Low  float64
	High float64
}

// WilsonInterval computes a Wilson score interval for successes/trials,
// the narrower analytics-surface alternative to the original agent's
// per-field Gaussian propagation: spec.md §4.9's analytics endpoint reports
// one alert-rate interval over the rolling feedback window, not a
// per-numeric-field confidence grade.
func WilsonInterval(successes, trials int) Interval {
	if trials == 0 {
		return Interval{Rate: 0, Low: 0, High: 0}
	}
	n := float64(trials)
	p := float64(successes) / n
	z := wilsonZ95
	z2 := z * z

	denom := 1 + z2/n
	center := p + z2/(2*n)
	margin := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n))

	low := (center - margin) / denom
	high := (center + margin) / denom
	if low < 0 {
		low = 0
	}
	if high > 1 {
		high = 1
	}
	return Interval{Rate: p, Low: low, High: high}
}

// Analytics summarizes SAMR alert behavior for one org's feedback window,
// returned by GET /samr/analytics.
type Analytics struct {
	OrgID           string
	Threshold       float64
	ThresholdSource domain.ThresholdSource
	SampleSize      int
	AlertRate       Interval
}

// Summarize builds the analytics response from a feedback window and the
// threshold currently in effect.
func Summarize(orgID string, rows []domain.SAMRFeedback, threshold float64, source domain.ThresholdSource) Analytics {
	var alerts int
	for _, r := range rows {
		if r.SAMRTriggered {
			alerts++
		}
	}
	return Analytics{
		OrgID:           orgID,
		Threshold:       threshold,
		ThresholdSource: source,
		SampleSize:      len(rows),
		AlertRate:       WilsonInterval(alerts, len(rows)),
	}
}
