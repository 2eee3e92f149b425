// Package agent defines the Agent domain entity and its status state machine.
package agent

import (
	"fmt"
	"time"
)

// Status represents the current state of an agent.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)

// ParseStatus converts a string into a Status. Unknown values are rejected.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusIdle, StatusWorking, StatusError, StatusOffline:
		return Status(s), true
	}
	return "", false
}

// Performance tracks an agent's execution history.
type Performance struct {
	TasksCompleted int     `json:"tasks_completed"`
	SuccessRate    float64 `json:"success_rate"`
	AverageTime    float64 `json:"average_time"`
	TotalTime      float64 `json:"total_time"`
}

// Agent represents a named worker with a role and capability tags.
// The dispatch core never invokes a model; an agent is data plus a status.
type Agent struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Role         string      `json:"role"`
	Capabilities []string    `json:"capabilities"`
	RoleKeywords []string    `json:"role_keywords,omitempty"`
	Status       Status      `json:"status"`
	CurrentTask  string      `json:"current_task,omitempty"`
	LastActive   *time.Time  `json:"last_active,omitempty"`
	Performance  Performance `json:"performance"`
}

// transitions is the allowed status transition table. Self-transitions are
// permitted so operator-driven status updates are idempotent.
var transitions = map[Status][]Status{
	StatusIdle:    {StatusIdle, StatusWorking, StatusOffline},
	StatusWorking: {StatusWorking, StatusIdle, StatusError, StatusOffline},
	StatusError:   {StatusError, StatusIdle, StatusOffline},
	StatusOffline: {StatusOffline, StatusIdle},
}

// Transition moves the agent to next, enforcing the transition table.
// Every exit from Working clears the task back-reference so CurrentTask
// is set if and only if the agent is Working.
func (a *Agent) Transition(next Status) error {
	allowed, ok := transitions[a.Status]
	if !ok {
		return fmt.Errorf("unknown agent status %q", a.Status)
	}
	for _, s := range allowed {
		if s == next {
			a.Status = next
			if next != StatusWorking {
				a.CurrentTask = ""
			}
			return nil
		}
	}
	return fmt.Errorf("invalid agent transition %s -> %s", a.Status, next)
}

// StartTask marks the agent Working on the given task id.
func (a *Agent) StartTask(taskID string, now time.Time) error {
	if err := a.Transition(StatusWorking); err != nil {
		return err
	}
	a.CurrentTask = taskID
	a.LastActive = &now
	return nil
}

// FinishTask releases the agent back to Idle after a task, recording the
// wall-clock execution time and whether the handler reported success. The
// running average and success rate are recomputed from cumulative totals.
// A failed handler still releases the agent; Fail is reserved for
// unexpected executor errors.
func (a *Agent) FinishTask(execSeconds float64, succeeded bool, now time.Time) error {
	if err := a.Transition(StatusIdle); err != nil {
		return err
	}
	completed := a.Performance.TasksCompleted
	successes := a.Performance.SuccessRate * float64(completed)
	if succeeded {
		successes++
	}
	completed++
	a.Performance.TasksCompleted = completed
	a.Performance.SuccessRate = successes / float64(completed)
	a.Performance.TotalTime += execSeconds
	a.Performance.AverageTime = a.Performance.TotalTime / float64(completed)
	a.LastActive = &now
	return nil
}

// Fail moves the agent to Error after an unexpected executor fault.
// The transition table clears the task back-reference on exit from Working.
func (a *Agent) Fail(now time.Time) error {
	if err := a.Transition(StatusError); err != nil {
		return err
	}
	a.LastActive = &now
	return nil
}
