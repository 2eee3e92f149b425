package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cfotel "github.com/swarmpilot/swarmpilot/internal/adapter/otel"
	"github.com/swarmpilot/swarmpilot/internal/adapter/ws"
	"github.com/swarmpilot/swarmpilot/internal/domain/agent"
	"github.com/swarmpilot/swarmpilot/internal/domain/intent"
	"github.com/swarmpilot/swarmpilot/internal/domain/task"
)

// run is the executor loop: a single consumer draining the task queue in
// FIFO order. It wakes immediately on enqueue; the tick only bounds how
// long a shutdown signal can go unnoticed. One task executes at a time
// system-wide. After an unexpected error the loop backs off before the
// next receive instead of spinning.
func (m *Manager) run() {
	defer close(m.done)

	for {
		select {
		case <-m.stopCh:
			return
		case id := <-m.queue:
			if err := m.execute(context.Background(), id); err != nil {
				slog.Error("task execution error", "task_id", id, "error", err)
				select {
				case <-time.After(m.cfg.ErrorBackoff):
				case <-m.stopCh:
					return
				}
			}
		case <-time.After(m.cfg.Tick):
			// Idle tick; nothing queued.
		}
	}
}

// execute runs one task to completion. Handler failures are recorded in
// the task result and are not errors; a returned error means the executor
// itself hit an inconsistency and the assigned agent is moved to Error.
func (m *Manager) execute(ctx context.Context, id string) error {
	if m.metrics != nil {
		m.metrics.QueueDepth.Add(ctx, -1)
	}

	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", errUnknownTask, id)
	}
	if t.Status != task.StatusPending {
		m.mu.Unlock()
		return nil
	}

	now := time.Now()
	if err := t.Start(now); err != nil {
		m.mu.Unlock()
		return err
	}

	a, _ := m.registry.Get(t.AgentID)
	if a != nil {
		switch a.Status {
		case agent.StatusIdle:
			if err := a.StartTask(id, now); err != nil {
				slog.Warn("agent start at execution rejected", "agent_id", a.ID, "error", err)
			}
		case agent.StatusWorking:
			// The agent was marked busy at dispatch; point it at the task
			// actually executing now.
			a.CurrentTask = id
		}
	}

	instruction := t.Instruction
	workspace := t.WorkspacePath
	agentID := t.AgentID
	m.mu.Unlock()

	m.hub.BroadcastEvent(ctx, ws.EventTaskStatus, ws.TaskStatusEvent{
		TaskID:  id,
		AgentID: agentID,
		Status:  string(task.StatusInProgress),
	})

	it := m.classifier.Classify(instruction)
	ctx, span := cfotel.StartExecuteSpan(ctx, id, agentID, string(it))
	defer span.End()

	start := time.Now()
	res, panicked := m.runHandler(ctx, it, instruction, workspace)
	execSeconds := time.Since(start).Seconds()
	res.ExecutionTime = execSeconds

	m.mu.Lock()
	finished := time.Now()
	if err := t.Complete(res, finished); err != nil {
		slog.Error("task completion rejected", "task_id", id, "error", err)
	}
	if a != nil {
		var err error
		if panicked {
			err = a.Fail(finished)
		} else {
			err = a.FinishTask(execSeconds, res.Success, finished)
		}
		if err != nil {
			slog.Warn("agent release failed", "agent_id", a.ID, "error", err)
		}
	}
	status := t.Status
	var agentStatus agent.Status
	if a != nil {
		agentStatus = a.Status
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ExecDuration.Record(ctx, execSeconds)
		if res.Success {
			m.metrics.TasksCompleted.Add(ctx, 1)
		} else {
			m.metrics.TasksFailed.Add(ctx, 1)
		}
	}

	m.hub.BroadcastEvent(ctx, ws.EventTaskStatus, ws.TaskStatusEvent{
		TaskID:  id,
		AgentID: agentID,
		Status:  string(status),
		Message: res.Message,
	})
	if a != nil {
		m.hub.BroadcastEvent(ctx, ws.EventAgentStatus, ws.AgentStatusEvent{
			AgentID: agentID,
			Status:  string(agentStatus),
		})
	}

	slog.Info("task finished",
		"task_id", id,
		"agent_id", agentID,
		"intent", it,
		"status", status,
		"duration_s", execSeconds,
	)

	if panicked {
		return fmt.Errorf("handler panicked: %s", res.Message)
	}
	return nil
}

// runHandler dispatches to the intent's handler, converting panics into a
// failed result so the loop survives anything a handler does.
func (m *Manager) runHandler(ctx context.Context, it intent.Intent, instruction, workspace string) (res *task.Result, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			res = &task.Result{Success: false, Message: fmt.Sprintf("Error: %v", r)}
			panicked = true
		}
	}()

	switch it {
	case intent.FileCreate:
		res = m.handleFileCreate(instruction, workspace)
	case intent.FileDelete:
		res = m.handleFileDelete(instruction, workspace)
	case intent.Analyze:
		res = m.handleAnalyze(ctx, workspace)
	case intent.Document:
		res = m.handleDocument(instruction, workspace)
	case intent.WorkspaceTask:
		res = m.handleWorkspaceTask(ctx, instruction, workspace)
	default:
		res = m.handleGeneric(ctx, instruction)
	}
	return res, false
}
