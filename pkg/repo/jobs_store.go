package repo

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/task"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/jobs"
	"github.com/google/uuid"
)

// JobStore implements jobs.Store over the Task entity: the durable queue
// row a Worker claims, heartbeats, and finalizes, per spec.md §4.13.
type JobStore struct {
	client *database.Client
}

var _ jobs.Store = (*JobStore)(nil)

func taskTypeOf(t jobs.Type) task.TaskType {
	return task.TaskType(t)
}

func taskStatusOf(s jobs.Status) task.Status {
	return task.Status(s)
}

func fromEnt(t *ent.Task) jobs.Task {
	out := jobs.Task{
		ID:          t.ID,
		Type:        jobs.Type(t.TaskType),
		Payload:     t.Payload,
		BatchID:     t.BatchID,
		Status:      jobs.Status(t.Status),
		Attempts:    t.Attempts,
		MaxAttempts: t.MaxAttempts,
		CreatedAt:   t.CreatedAt,
		ClaimedAt:   t.ClaimedAt,
		LastHeartbeatAt: t.LastHeartbeatAt,
		CompletedAt: t.CompletedAt,
		Error:       t.ErrorMessage,
		WorkerID:    t.WorkerID,
	}
	return out
}

// Enqueue inserts a new pending task, generating an id when the caller
// didn't supply one (jobs.EnqueueBatch/EnqueueReconcileTriplet leave it blank).
func (s *JobStore) Enqueue(ctx context.Context, t jobs.Task) (jobs.Task, error) {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	maxAttempts := t.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}

	created, err := s.client.Task.Create().
		SetID(id).
		SetTaskType(taskTypeOf(t.Type)).
		SetPayload(t.Payload).
		SetNillableBatchID(nonEmptyPtr(t.BatchID)).
		SetStatus(task.StatusPending).
		SetMaxAttempts(maxAttempts).
		SetRunAfter(time.Now()).
		Save(ctx)
	if err != nil {
		return jobs.Task{}, fmt.Errorf("enqueuing task: %w", err)
	}
	return fromEnt(created), nil
}

// ClaimNext atomically claims the oldest runnable pending task, using
// `SELECT ... FOR UPDATE SKIP LOCKED` so concurrent workers never race on
// the same row, grounded on pkg/queue/worker.go's claimNextSession.
func (s *JobStore) ClaimNext(ctx context.Context, workerID string) (jobs.Task, error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return jobs.Task{}, fmt.Errorf("starting claim transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	t, err := tx.Task.Query().
		Where(
			task.StatusEQ(task.StatusPending),
			task.RunAfterLTE(now),
		).
		Order(ent.Asc(task.FieldCreatedAt)).
		Limit(1).
		ForUpdate(entsql.WithLockAction(entsql.SkipLocked)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return jobs.Task{}, jobs.ErrNoTasksAvailable
		}
		return jobs.Task{}, fmt.Errorf("querying pending task: %w", err)
	}

	t, err = t.Update().
		SetStatus(task.StatusInProgress).
		SetClaimedAt(now).
		SetLastHeartbeatAt(now).
		SetWorkerID(workerID).
		AddAttempts(1).
		Save(ctx)
	if err != nil {
		return jobs.Task{}, fmt.Errorf("claiming task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return jobs.Task{}, fmt.Errorf("committing claim: %w", err)
	}

	return fromEnt(t), nil
}

// Heartbeat extends a claimed task's last_heartbeat_at so orphan detection
// doesn't mistake slow-but-alive work for a dead worker.
func (s *JobStore) Heartbeat(ctx context.Context, taskID string) error {
	err := s.client.Task.UpdateOneID(taskID).
		SetLastHeartbeatAt(time.Now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("heartbeating task %s: %w", taskID, err)
	}
	return nil
}

// Complete marks a task as finished successfully.
func (s *JobStore) Complete(ctx context.Context, taskID string) error {
	err := s.client.Task.UpdateOneID(taskID).
		SetStatus(task.StatusCompleted).
		SetCompletedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("completing task %s: %w", taskID, err)
	}
	return nil
}

// Retry schedules a failed-but-retryable task to run again no earlier than
// nextAttemptAt, per the worker's exponential backoff policy.
func (s *JobStore) Retry(ctx context.Context, taskID string, errMsg string, nextAttemptAt time.Time) error {
	err := s.client.Task.UpdateOneID(taskID).
		SetStatus(task.StatusPending).
		SetErrorMessage(errMsg).
		SetRunAfter(nextAttemptAt).
		ClearClaimedAt().
		ClearLastHeartbeatAt().
		ClearWorkerID().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("retrying task %s: %w", taskID, err)
	}
	return nil
}

// Fail marks a task permanently failed after exhausting its retry budget.
func (s *JobStore) Fail(ctx context.Context, taskID string, errMsg string) error {
	err := s.client.Task.UpdateOneID(taskID).
		SetStatus(task.StatusFailed).
		SetErrorMessage(errMsg).
		SetCompletedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failing task %s: %w", taskID, err)
	}
	return nil
}

// CountInProgress reports how many tasks are currently claimed, for the
// worker pool's concurrency cap.
func (s *JobStore) CountInProgress(ctx context.Context) (int, error) {
	n, err := s.client.Task.Query().
		Where(task.StatusEQ(task.StatusInProgress)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting in-progress tasks: %w", err)
	}
	return n, nil
}

// FindStaleInProgress finds claimed tasks whose heartbeat hasn't been seen
// since olderThan — candidates for orphan recovery.
func (s *JobStore) FindStaleInProgress(ctx context.Context, olderThan time.Time) ([]jobs.Task, error) {
	rows, err := s.client.Task.Query().
		Where(
			task.StatusEQ(task.StatusInProgress),
			task.LastHeartbeatAtLT(olderThan),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying stale in-progress tasks: %w", err)
	}
	out := make([]jobs.Task, len(rows))
	for i, r := range rows {
		out[i] = fromEnt(r)
	}
	return out, nil
}

// MarkTimedOut moves an orphaned task to its terminal timed_out state.
func (s *JobStore) MarkTimedOut(ctx context.Context, taskID string, errMsg string) error {
	err := s.client.Task.UpdateOneID(taskID).
		SetStatus(task.StatusTimedOut).
		SetErrorMessage(errMsg).
		SetCompletedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("marking task %s timed out: %w", taskID, err)
	}
	return nil
}

// CountCompletedInBatch reports how many tasks tagged with batchID have
// settled (completed, failed, or timed out), for jobs.BatchReady's
// precondition check.
func (s *JobStore) CountCompletedInBatch(ctx context.Context, batchID string) (int, error) {
	n, err := s.client.Task.Query().
		Where(
			task.BatchIDEQ(batchID),
			task.TaskTypeEQ(task.TaskTypeProcessDocument),
			task.StatusIn(task.StatusCompleted, task.StatusFailed, task.StatusTimedOut),
		).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting settled tasks in batch %s: %w", batchID, err)
	}
	return n, nil
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
