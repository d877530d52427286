package samr

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// Tuning constants from spec.md §4.9's adaptive threshold algorithm.
const (
	Alpha         = 0.30 // shrinkage toward the global prior
	Beta          = 0.5  // F-beta weight; <1 is precision-weighted
	WindowSize    = 30   // feedback rows considered per org
	MinSamples    = 5    // below this, return the prior unmodified
	CandidateMin  = 0.70
	CandidateMax  = 0.99
	CandidateStep = 0.01
	CacheTTL      = time.Hour
)

// FeedbackStore is the narrow read capability AdaptiveThresholdService needs
// from C16's persistence layer.
type FeedbackStore interface {
	RecentFeedback(ctx context.Context, orgID string, limit int) ([]domain.SAMRFeedback, error)
}

type cacheEntry struct {
	threshold float64
	expiresAt time.Time
}

// AdaptiveThresholdService computes and caches a per-org SAMR divergence
// threshold via a precision-weighted F-beta grid search with Bayesian
// shrinkage toward a global prior, per spec.md §4.9.
type AdaptiveThresholdService struct {
	store       FeedbackStore
	globalPrior float64

	mu    sync.Mutex
	cache map[string]cacheEntry

	cronRunner *cron.Cron
}

// NewAdaptiveThresholdService constructs the service with the given global
// prior (the static config fallback threshold).
func NewAdaptiveThresholdService(store FeedbackStore, globalPrior float64) *AdaptiveThresholdService {
	return &AdaptiveThresholdService{
		store:       store,
		globalPrior: globalPrior,
		cache:       make(map[string]cacheEntry),
	}
}

// GetThreshold returns the org's cached threshold, recomputing on a cache
// miss or stale entry.
func (s *AdaptiveThresholdService) GetThreshold(ctx context.Context, orgID string) float64 {
	s.mu.Lock()
	entry, ok := s.cache[orgID]
	s.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.threshold
	}

	threshold := s.recompute(ctx, orgID)
	s.mu.Lock()
	s.cache[orgID] = cacheEntry{threshold: threshold, expiresAt: time.Now().Add(CacheTTL)}
	s.mu.Unlock()
	return threshold
}

// InvalidateCache drops the cached threshold for orgID, forcing the next
// GetThreshold call to recompute — called whenever new feedback is recorded.
func (s *AdaptiveThresholdService) InvalidateCache(orgID string) {
	s.mu.Lock()
	delete(s.cache, orgID)
	s.mu.Unlock()
}

func (s *AdaptiveThresholdService) recompute(ctx context.Context, orgID string) float64 {
	rows, err := s.store.RecentFeedback(ctx, orgID, WindowSize)
	if err != nil {
		slog.Warn("samr threshold recompute failed, using prior", "org_id", orgID, "error", err)
		return s.globalPrior
	}
	threshold := OptimizeThreshold(rows, s.globalPrior)
	slog.Info("samr threshold recomputed", "org_id", orgID, "threshold", threshold, "samples", len(rows))
	return threshold
}

// StartScheduledRefresh runs a cron job that proactively invalidates every
// cached org threshold on the given spec, so the next request after a
// scheduling tick always recomputes from fresh feedback rather than waiting
// out the full TTL. Grounded on the teacher pack's cron.New(cron.WithSeconds())
// + AddFunc wiring.
func (s *AdaptiveThresholdService) StartScheduledRefresh(spec string) error {
	s.cronRunner = cron.New(cron.WithSeconds())
	_, err := s.cronRunner.AddFunc(spec, func() {
		s.mu.Lock()
		for org := range s.cache {
			delete(s.cache, org)
		}
		s.mu.Unlock()
	})
	if err != nil {
		return err
	}
	s.cronRunner.Start()
	return nil
}

// Stop halts the scheduled refresh job, if one was started.
func (s *AdaptiveThresholdService) Stop() {
	if s.cronRunner != nil {
		s.cronRunner.Stop()
	}
}

// fBeta computes the F-beta score for one candidate threshold's confusion
// counts; returns 0 when the denominator is 0.
func fBeta(tp, fp, fn int, beta float64) float64 {
	beta2 := beta * beta
	denom := (1+beta2)*float64(tp) + beta2*float64(fn) + float64(fp)
	if denom <= 0 {
		return 0
	}
	return (1 + beta2) * float64(tp) / denom
}

// OptimizeThreshold grids over [CandidateMin, CandidateMax] and selects the
// candidate maximizing F-beta, then shrinks it toward prior per spec.md
// §4.9's Bayesian step. Falls back to prior with fewer than MinSamples rows.
func OptimizeThreshold(rows []domain.SAMRFeedback, prior float64) float64 {
	if len(rows) < MinSamples {
		return prior
	}

	bestThreshold := prior
	bestScore := -1.0

	steps := int((CandidateMax-CandidateMin)/CandidateStep + 0.5)
	for i := 0; i <= steps; i++ {
		candidate := CandidateMin + float64(i)*CandidateStep
		var tp, fp, fn int
		for _, row := range rows {
			predictedAlert := row.CosineScore >= candidate
			trueAlert := row.Feedback == domain.FeedbackCorrect && row.SAMRTriggered
			switch {
			case predictedAlert && trueAlert:
				tp++
			case predictedAlert && !trueAlert:
				fp++
			case !predictedAlert && row.Feedback == domain.FeedbackFalseNegative:
				fn++
			}
		}
		score := fBeta(tp, fp, fn, Beta)
		if score > bestScore {
			bestScore = score
			bestThreshold = candidate
		}
	}

	adapted := Alpha*bestThreshold + (1-Alpha)*prior
	return roundTo(adapted, 4)
}

func roundTo(v float64, places int) float64 {
	mult := 1.0
	for i := 0; i < places; i++ {
		mult *= 10
	}
	return float64(int64(v*mult+sign(v)*0.5)) / mult
}
