package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// PoolHealth is the worker pool's health snapshot.
type PoolHealth struct {
	IsHealthy        bool
	ActiveWorkers    int
	TotalWorkers     int
	InProgressTasks  int
	MaxConcurrent    int
	WorkerStats      []WorkerHealth
	LastOrphanScan   string
	OrphansRecovered int
}

// Pool runs a fixed-size set of Workers against a shared Store, plus a
// background orphan-detection loop, per pkg/queue/pool.go's WorkerPool.
type Pool struct {
	store    Store
	cfg      Config
	executor Executor
	workers  []*Worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	activeTasks map[string]context.CancelFunc
	mu          sync.RWMutex
	started     bool

	orphans orphanState
}

// NewPool constructs an unstarted worker pool.
func NewPool(store Store, cfg Config, executor Executor) *Pool {
	return &Pool{
		store:       store,
		cfg:         cfg,
		executor:    executor,
		workers:     make([]*Worker, 0, cfg.WorkerCount),
		stopCh:      make(chan struct{}),
		activeTasks: make(map[string]context.CancelFunc),
	}
}

// Start spawns the worker goroutines and the orphan-detection background
// task. Safe to call multiple times; later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	if p.started {
		slog.Warn("job pool already started, ignoring duplicate Start call")
		return
	}
	p.started = true

	slog.Info("starting job pool", "worker_count", p.cfg.WorkerCount)
	for i := 0; i < p.cfg.WorkerCount; i++ {
		worker := newWorker(fmt.Sprintf("jobs-worker-%d", i), p.store, p.cfg, p.executor, p)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanDetection(ctx)
	}()
}

// Stop signals every worker to finish its current task and exit, then
// waits for them (and the orphan scanner) to stop.
func (p *Pool) Stop() {
	slog.Info("stopping job pool")
	for _, w := range p.workers {
		w.Stop()
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("job pool stopped")
}

func (p *Pool) registerTask(taskID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeTasks[taskID] = cancel
}

func (p *Pool) unregisterTask(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeTasks, taskID)
}

// CancelTask triggers context cancellation for a task running on this pool.
// Returns true if the task was found here.
func (p *Pool) CancelTask(taskID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeTasks[taskID]; ok {
		cancel()
		return true
	}
	return false
}

// Health reports the pool's current status.
func (p *Pool) Health(ctx context.Context) PoolHealth {
	active, err := p.store.CountInProgress(ctx)
	if err != nil {
		slog.Error("failed to query in-progress task count for health check", "error", err)
	}

	stats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, w := range p.workers {
		h := w.Health()
		stats[i] = h
		if h.Status == WorkerStatusWorking {
			activeWorkers++
		}
	}

	p.orphans.mu.Lock()
	lastScan := p.orphans.lastScan
	recovered := p.orphans.recovered
	p.orphans.mu.Unlock()

	return PoolHealth{
		IsHealthy:        err == nil && len(p.workers) > 0,
		ActiveWorkers:    activeWorkers,
		TotalWorkers:     len(p.workers),
		InProgressTasks:  active,
		MaxConcurrent:    p.cfg.MaxConcurrentTasks,
		WorkerStats:      stats,
		LastOrphanScan:   lastScan,
		OrphansRecovered: recovered,
	}
}
