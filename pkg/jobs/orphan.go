package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// orphanState tracks orphan-detection metrics, thread-safe like
// pkg/queue/orphan.go's orphanState.
type orphanState struct {
	mu        sync.Mutex
	lastScan  string
	recovered int
}

// runOrphanDetection periodically scans for in-progress tasks whose
// heartbeat has gone stale and reaps them, per pkg/queue/orphan.go's
// runOrphanDetection. All pool instances run this independently —
// MarkTimedOut is idempotent against a task that's already terminal.
func (p *Pool) runOrphanDetection(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.detectAndRecoverOrphans(ctx); err != nil {
				slog.Error("orphan detection failed", "error", err)
			}
		}
	}
}

func (p *Pool) detectAndRecoverOrphans(ctx context.Context) error {
	threshold := time.Now().Add(-p.cfg.OrphanThreshold)

	orphans, err := p.store.FindStaleInProgress(ctx, threshold)
	if err != nil {
		return fmt.Errorf("querying stale in-progress tasks: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	if len(orphans) == 0 {
		p.orphans.mu.Lock()
		p.orphans.lastScan = now
		p.orphans.mu.Unlock()
		return nil
	}

	slog.Warn("detected orphaned tasks", "count", len(orphans))

	recovered, failed := 0, 0
	for _, task := range orphans {
		heartbeat := "unknown"
		if task.LastHeartbeatAt != nil {
			heartbeat = task.LastHeartbeatAt.Format(time.RFC3339)
		}
		errMsg := fmt.Sprintf("orphaned: no heartbeat from worker %s since %s", task.WorkerID, heartbeat)
		if err := p.store.MarkTimedOut(ctx, task.ID, errMsg); err != nil {
			slog.Error("failed to recover orphaned task", "task_id", task.ID, "error", err)
			failed++
			continue
		}
		recovered++
	}

	p.orphans.mu.Lock()
	p.orphans.lastScan = now
	p.orphans.recovered += recovered
	p.orphans.mu.Unlock()

	if failed > 0 {
		slog.Warn("orphan recovery completed with failures", "total", len(orphans), "recovered", recovered, "failed", failed)
	}
	return nil
}
