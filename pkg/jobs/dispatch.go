package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/NeoOne601/ventro/pkg/metrics"
)

// TypeDispatcher routes a claimed Task to the Executor registered for its
// Type, implementing the single Executor a Pool/Worker is handed while
// still letting each job kind (process_document, reconcile_session,
// batch_callback) own its own execution logic, per spec.md §4.13's three
// task kinds. A task whose Type has no registered executor fails
// immediately rather than retrying forever against a kind nothing can run.
type TypeDispatcher struct {
	executors map[Type]Executor
}

// NewTypeDispatcher builds a dispatcher over the given type-to-executor map.
func NewTypeDispatcher(executors map[Type]Executor) *TypeDispatcher {
	copied := make(map[Type]Executor, len(executors))
	for k, v := range executors {
		copied[k] = v
	}
	return &TypeDispatcher{executors: copied}
}

// Execute satisfies Executor by delegating to the registered executor for
// task.Type.
func (d *TypeDispatcher) Execute(ctx context.Context, task Task) Result {
	start := time.Now()
	executor, ok := d.executors[task.Type]
	if !ok {
		result := Result{Status: StatusFailed, Error: fmt.Errorf("jobs: no executor registered for task type %q", task.Type)}
		metrics.JobsProcessed.WithLabelValues(string(task.Type), string(result.Status)).Inc()
		return result
	}
	result := executor.Execute(ctx, task)
	metrics.JobDuration.WithLabelValues(string(task.Type)).Observe(time.Since(start).Seconds())
	metrics.JobsProcessed.WithLabelValues(string(task.Type), string(result.Status)).Inc()
	return result
}
