package samr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NeoOne601/ventro/pkg/domain"
)

func TestWilsonIntervalZeroTrialsReturnsZero(t *testing.T) {
	got := WilsonInterval(0, 0)
	assert.Equal(t, Interval{Rate: 0, Low: 0, High: 0}, got)
}

func TestWilsonIntervalAllSuccessesStillBoundedByOne(t *testing.T) {
	got := WilsonInterval(10, 10)
	assert.Equal(t, 1.0, got.Rate)
	assert.LessOrEqual(t, got.High, 1.0)
	assert.Greater(t, got.Low, 0.5)
}

func TestWilsonIntervalWidensWithFewerTrials(t *testing.T) {
	small := WilsonInterval(3, 5)
	large := WilsonInterval(30, 50)
	assert.InDelta(t, small.Rate, large.Rate, 1e-9)
	assert.Greater(t, small.High-small.Low, large.High-large.Low)
}

func TestSummarizeCountsTriggeredFeedbackAsAlerts(t *testing.T) {
	rows := []domain.SAMRFeedback{
		{OrgID: "org-1", SAMRTriggered: true, SubmittedAt: time.Now()},
		{OrgID: "org-1", SAMRTriggered: false, SubmittedAt: time.Now()},
		{OrgID: "org-1", SAMRTriggered: true, SubmittedAt: time.Now()},
	}
	analytics := Summarize("org-1", rows, 0.9, domain.ThresholdAdaptive)
	assert.Equal(t, 3, analytics.SampleSize)
	assert.InDelta(t, 2.0/3.0, analytics.AlertRate.Rate, 1e-9)
	assert.Equal(t, domain.ThresholdAdaptive, analytics.ThresholdSource)
}
