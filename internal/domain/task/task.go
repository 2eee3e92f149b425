// Package task defines the Task domain entity.
package task

import (
	"fmt"
	"time"
)

// Status represents the current state of a task.
// Transitions are monotonic: pending -> in_progress -> {completed, failed}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Priority is recorded on every task. The queue is strictly FIFO; priority
// never reorders execution.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority converts a string into a Priority, defaulting to Medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityHigh, PriorityCritical:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// Result holds the structured output of an executed task.
type Result struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Output        string   `json:"output,omitempty"`
	ExecutionTime float64  `json:"execution_time"`
	FilesCreated  []string `json:"files_created,omitempty"`
	FilesDeleted  []string `json:"files_deleted,omitempty"`
	ActionsTaken  []string `json:"actions_taken,omitempty"`
}

// Task represents one instruction assigned to one agent.
type Task struct {
	ID            string     `json:"id"`
	AgentID       string     `json:"agent_id"`
	Instruction   string     `json:"instruction"`
	Priority      Priority   `json:"priority"`
	WorkspacePath string     `json:"workspace_path,omitempty"`
	Status        Status     `json:"status"`
	Result        *Result    `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewID builds a task id from the dispatch counter and creation time.
// The counter makes ids unique within one manager instance; the timestamp
// keeps them distinguishable across restarts.
func NewID(seq int64, at time.Time) string {
	return fmt.Sprintf("task_%d_%d", seq, at.UnixNano())
}

// Start marks the task in progress. Only a pending task may start.
func (t *Task) Start(now time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("task %s is %s, expected pending", t.ID, t.Status)
	}
	t.Status = StatusInProgress
	t.StartedAt = &now
	return nil
}

// Complete finalizes the task with the handler result. The terminal status
// follows the result's success flag. Only an in-progress task may complete.
func (t *Task) Complete(res *Result, now time.Time) error {
	if t.Status != StatusInProgress {
		return fmt.Errorf("task %s is %s, expected in_progress", t.ID, t.Status)
	}
	t.Status = StatusCompleted
	if !res.Success {
		t.Status = StatusFailed
	}
	t.Result = res
	t.CompletedAt = &now
	return nil
}

// Terminal reports whether the task reached a final state.
func (t *Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}
