package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/swarmpilot/swarmpilot/internal/adapter/auditlog"
	cfotel "github.com/swarmpilot/swarmpilot/internal/adapter/otel"
	"github.com/swarmpilot/swarmpilot/internal/adapter/ws"
	"github.com/swarmpilot/swarmpilot/internal/domain/agent"
	"github.com/swarmpilot/swarmpilot/internal/domain/task"
)

// DispatchRequest carries one instruction into the core.
type DispatchRequest struct {
	Instruction   string `json:"instruction"`
	WorkspacePath string `json:"workspace_path,omitempty"`
	Priority      string `json:"priority,omitempty"`
}

// Dispatch failure messages. The HTTP layer matches these by equality to
// map a failed result onto a domain error.
const (
	MsgNoAgentAvailable = "No suitable agent available for this instruction"
	MsgQueueFull        = "Task queue is full, try again later"
)

// DispatchResult reports the outcome of SendInstruction. Failures are
// results, never errors; nothing propagates past the dispatcher boundary.
type DispatchResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TaskID        string `json:"task_id,omitempty"`
	AgentID       string `json:"agent_id,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
}

// SendInstruction selects an agent, creates a pending task, and enqueues it
// for the executor. Providing a workspace path makes it the manager's new
// default for subsequent calls. Every call is recorded in the instruction
// log and the audit file, accepted or not.
func (m *Manager) SendInstruction(ctx context.Context, req DispatchRequest) (result DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch panicked", "error", r)
			result = DispatchResult{Success: false, Message: fmt.Sprintf("Error: %v", r)}
		}
	}()

	ctx, span := cfotel.StartDispatchSpan(ctx, req.Instruction)
	defer span.End()

	now := time.Now()
	priority := task.ParsePriority(req.Priority)

	m.mu.Lock()

	if req.WorkspacePath != "" {
		m.workspace = req.WorkspacePath
	}
	workspace := m.workspace

	selected := SelectAgent(req.Instruction, m.registry.All())
	if selected == nil {
		m.appendLog("", "", req.Instruction, false, now)
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.DispatchMisses.Add(ctx, 1)
		}
		m.writeAudit(auditlog.Entry{Instruction: req.Instruction, Priority: string(priority), Workspace: workspace, At: now})
		slog.Info("no agent available", "instruction_len", len(req.Instruction))
		return DispatchResult{Success: false, Message: MsgNoAgentAvailable}
	}

	id := m.nextTaskID(now)
	t := &task.Task{
		ID:            id,
		AgentID:       selected.ID,
		Instruction:   req.Instruction,
		Priority:      priority,
		WorkspacePath: workspace,
		Status:        task.StatusPending,
		CreatedAt:     now,
	}

	select {
	case m.queue <- id:
	default:
		m.appendLog("", selected.ID, req.Instruction, false, now)
		m.mu.Unlock()
		slog.Warn("task queue full", "capacity", m.cfg.QueueCapacity)
		return DispatchResult{Success: false, Message: MsgQueueFull}
	}

	m.tasks[id] = t
	m.taskOrder = append(m.taskOrder, id)

	// Only an idle agent flips to working at dispatch time. A busy agent
	// keeps its state; the new task simply waits its turn in the queue.
	agentWasIdle := selected.Status == agent.StatusIdle
	if agentWasIdle {
		if err := selected.StartTask(id, now); err != nil {
			slog.Warn("agent start rejected", "agent_id", selected.ID, "error", err)
		}
	}

	m.appendLog(id, selected.ID, req.Instruction, true, now)
	estimate := estimateTime(req.Instruction, selected)
	agentName := selected.Name
	agentID := selected.ID
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.TasksDispatched.Add(ctx, 1)
		m.metrics.QueueDepth.Add(ctx, 1)
	}

	m.writeAudit(auditlog.Entry{
		TaskID:      id,
		AgentID:     agentID,
		AgentName:   agentName,
		Instruction: req.Instruction,
		Priority:    string(priority),
		Workspace:   workspace,
		At:          now,
	})

	m.hub.BroadcastEvent(ctx, ws.EventInstructionRecv, ws.InstructionEvent{
		TaskID:      id,
		AgentID:     agentID,
		Instruction: req.Instruction,
	})
	if agentWasIdle {
		m.hub.BroadcastEvent(ctx, ws.EventAgentStatus, ws.AgentStatusEvent{
			AgentID:     agentID,
			Status:      string(agent.StatusWorking),
			CurrentTask: id,
		})
	}

	slog.Info("instruction dispatched",
		"task_id", id,
		"agent_id", agentID,
		"priority", priority,
	)

	return DispatchResult{
		Success:       true,
		Message:       fmt.Sprintf("Task assigned to %s", agentName),
		TaskID:        id,
		AgentID:       agentID,
		EstimatedTime: estimate,
	}
}

// writeAudit appends to the activity trail. Audit failures are logged and
// never fail the dispatch.
func (m *Manager) writeAudit(e auditlog.Entry) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Append(e); err != nil {
		slog.Warn("audit write failed", "error", err)
	}
}

// estimateTime guesses execution time from the agent's rolling average,
// falling back to instruction length buckets for agents with no history.
func estimateTime(instruction string, a *agent.Agent) string {
	if a.Performance.TasksCompleted > 0 && a.Performance.AverageTime > 0 {
		secs := a.Performance.AverageTime
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("~%.0f seconds", secs)
	}

	switch n := len(instruction); {
	case n < 50:
		return "5-15 seconds"
	case n < 150:
		return "15-45 seconds"
	default:
		return "45-90 seconds"
	}
}
