package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// WorkerStatus is a worker's current activity.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// WorkerHealth reports one worker's state for the pool health endpoint.
type WorkerHealth struct {
	ID             string
	Status         WorkerStatus
	CurrentTaskID  string
	TasksProcessed int
	LastActivity   time.Time
}

// registry is the subset of Pool a Worker needs for cancel registration;
// kept separate from Pool itself so Worker doesn't need the whole pool.
type registry interface {
	registerTask(taskID string, cancel context.CancelFunc)
	unregisterTask(taskID string)
}

// Worker polls Store for a claimable task and runs it through Executor,
// per pkg/queue/worker.go's run/pollAndProcess/claimNextSession shape —
// generalized from one AlertSession-per-claim to one Task-per-claim.
type Worker struct {
	id       string
	store    Store
	cfg      Config
	executor Executor
	pool     registry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu             sync.RWMutex
	status         WorkerStatus
	currentTaskID  string
	tasksProcessed int
	lastActivity   time.Time
}

func newWorker(id string, store Store, cfg Config, executor Executor, pool registry) *Worker {
	return &Worker{
		id:           id,
		store:        store,
		cfg:          cfg,
		executor:     executor,
		pool:         pool,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker's polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for its current task to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health reports the worker's current state.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Status:         w.status,
		CurrentTaskID:  w.currentTaskID,
		TasksProcessed: w.tasksProcessed,
		LastActivity:   w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	log := slog.With("worker_id", w.id)
	log.Info("job worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("job worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, job worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoTasksAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error claiming/processing task", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *Worker) pollInterval() time.Duration {
	base := w.cfg.PollInterval
	jitter := w.cfg.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

// pollAndProcess claims one task (if capacity allows) and drives it to a
// terminal or retryable state.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	active, err := w.store.CountInProgress(ctx)
	if err != nil {
		return fmt.Errorf("counting in-progress tasks: %w", err)
	}
	if active >= w.cfg.MaxConcurrentTasks {
		return ErrAtCapacity
	}

	task, err := w.store.ClaimNext(ctx, w.id)
	if err != nil {
		return err
	}

	log := slog.With("task_id", task.ID, "task_type", task.Type, "worker_id", w.id)
	log.Info("task claimed")

	w.setStatus(WorkerStatusWorking, task.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	taskCtx, cancelSoft := context.WithTimeout(ctx, w.cfg.SoftTimeout)
	defer cancelSoft()

	w.pool.registerTask(task.ID, cancelSoft)
	defer w.pool.unregisterTask(task.ID)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(taskCtx)
	defer cancelHeartbeat()
	go w.runHeartbeat(heartbeatCtx, task.ID)

	result := w.runWithHardTimeout(taskCtx, task)
	cancelHeartbeat()

	if err := w.finalize(context.Background(), task, result); err != nil {
		log.Error("failed to finalize task", "error", err)
		return err
	}

	w.mu.Lock()
	w.tasksProcessed++
	w.mu.Unlock()

	log.Info("task processing complete", "status", result.Status)
	return nil
}

// runWithHardTimeout runs the executor and, if it has not returned within
// HardTimeout of starting, stops waiting for it rather than blocking this
// worker forever: the task is reported as StatusTimedOut (finalize records
// it via MarkTimedOut) and the worker is freed to claim other tasks. Go
// cannot kill a goroutine, so the abandoned executor call may still be
// running; its context still ends at the soft deadline.
func (w *Worker) runWithHardTimeout(ctx context.Context, task Task) Result {
	done := make(chan Result, 1)
	go func() {
		done <- w.executor.Execute(ctx, task)
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(w.cfg.HardTimeout):
		slog.Warn("task exceeded hard timeout, abandoning executor call", "task_id", task.ID)
		return Result{Status: StatusTimedOut, Error: fmt.Errorf("task exceeded hard timeout of %s", w.cfg.HardTimeout)}
	}
}

func (w *Worker) finalize(ctx context.Context, task Task, result Result) error {
	switch result.Status {
	case StatusCompleted:
		return w.store.Complete(ctx, task.ID)
	case StatusTimedOut:
		msg := "task exceeded hard timeout"
		if result.Error != nil {
			msg = result.Error.Error()
		}
		return w.store.MarkTimedOut(ctx, task.ID, msg)
	default:
		errMsg := "task failed"
		if result.Error != nil {
			errMsg = result.Error.Error()
		}
		if task.Attempts+1 < task.MaxAttempts {
			nextAt := time.Now().Add(w.cfg.Backoff(task.Attempts + 1))
			return w.store.Retry(ctx, task.ID, errMsg, nextAt)
		}
		return w.store.Fail(ctx, task.ID, errMsg)
	}
}

func (w *Worker) runHeartbeat(ctx context.Context, taskID string) {
	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.Heartbeat(ctx, taskID); err != nil {
				slog.Warn("heartbeat update failed", "task_id", taskID, "error", err)
			}
		}
	}
}

func (w *Worker) setStatus(status WorkerStatus, taskID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentTaskID = taskID
	w.lastActivity = time.Now()
}
