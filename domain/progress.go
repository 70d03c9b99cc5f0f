package domain

import "context"

// ProgressManager manages progress reporting for long-running batch work
type ProgressManager interface {
	// StartTask creates a new progress task with a description and total count
	StartTask(description string, total int) TaskProgress

	// IsInteractive returns true if progress is rendered interactively
	IsInteractive() bool

	// Close cleans up all tasks
	Close()
}

// TaskProgress reports progress of a single task
type TaskProgress interface {
	// Increment adds n to the current progress
	Increment(n int)

	// Describe updates the current item description
	Describe(description string)

	// Complete marks the task as finished
	Complete()
}

// ExecutableTask is one named unit of batch work
type ExecutableTask interface {
	// Name identifies the task in error reports
	Name() string

	// IsEnabled reports whether the task should run
	IsEnabled() bool

	// Execute runs the task and returns its result
	Execute(ctx context.Context) (interface{}, error)
}

// ParallelExecutor runs independent tasks concurrently and collects every
// failure instead of stopping at the first
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}
