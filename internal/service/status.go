package service

import (
	"context"
	"time"

	"github.com/swarmpilot/swarmpilot/internal/domain/agent"
	"github.com/swarmpilot/swarmpilot/internal/domain/task"
)

// AgentView is the read-only projection of one agent.
type AgentView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Role         string            `json:"role"`
	Capabilities []string          `json:"capabilities"`
	Status       string            `json:"status"`
	CurrentTask  string            `json:"current_task,omitempty"`
	LastActive   *time.Time        `json:"last_active,omitempty"`
	Performance  agent.Performance `json:"performance"`
}

// TaskView is the read-only projection of one task.
type TaskView struct {
	ID            string       `json:"id"`
	AgentID       string       `json:"agent_id"`
	Instruction   string       `json:"instruction"`
	Priority      string       `json:"priority"`
	WorkspacePath string       `json:"workspace_path,omitempty"`
	Status        string       `json:"status"`
	Result        *task.Result `json:"result,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// StatusReport is the aggregate snapshot consumed by dashboards and the
// HTTP surface. Always recomputed from current state; reading never
// mutates anything.
type StatusReport struct {
	Agents             map[string]AgentView `json:"agents"`
	Workspace          string               `json:"workspace,omitempty"`
	ActiveTasks        int                  `json:"active_tasks"`
	CompletedTasks     int                  `json:"completed_tasks"`
	RecentInstructions []LogEntry           `json:"recent_instructions"`
	TaskQueueLength    int                  `json:"task_queue_length"`
}

// recentInstructionCount caps the log tail exposed in status reports.
const recentInstructionCount = 10

// AgentStatus assembles the full status snapshot.
func (m *Manager) AgentStatus(_ context.Context) StatusReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := StatusReport{
		Agents:          make(map[string]AgentView, m.registry.Len()),
		Workspace:       m.workspace,
		TaskQueueLength: len(m.queue),
	}

	for _, a := range m.registry.All() {
		report.Agents[a.ID] = agentView(a)
	}

	for _, id := range m.taskOrder {
		switch m.tasks[id].Status {
		case task.StatusPending, task.StatusInProgress:
			report.ActiveTasks++
		case task.StatusCompleted:
			report.CompletedTasks++
		}
	}

	tail := m.log
	if len(tail) > recentInstructionCount {
		tail = tail[len(tail)-recentInstructionCount:]
	}
	report.RecentInstructions = append([]LogEntry(nil), tail...)

	return report
}

// TaskStatus returns the view of one task.
func (m *Manager) TaskStatus(_ context.Context, taskID string) (TaskView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return TaskView{}, false
	}
	return taskView(t), true
}

// AllTasks returns views of every task in creation order.
func (m *Manager) AllTasks(_ context.Context) []TaskView {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TaskView, 0, len(m.taskOrder))
	for _, id := range m.taskOrder {
		out = append(out, taskView(m.tasks[id]))
	}
	return out
}

func agentView(a *agent.Agent) AgentView {
	return AgentView{
		ID:           a.ID,
		Name:         a.Name,
		Role:         a.Role,
		Capabilities: append([]string(nil), a.Capabilities...),
		Status:       string(a.Status),
		CurrentTask:  a.CurrentTask,
		LastActive:   a.LastActive,
		Performance:  a.Performance,
	}
}

func taskView(t *task.Task) TaskView {
	v := TaskView{
		ID:            t.ID,
		AgentID:       t.AgentID,
		Instruction:   t.Instruction,
		Priority:      string(t.Priority),
		WorkspacePath: t.WorkspacePath,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		StartedAt:     t.StartedAt,
		CompletedAt:   t.CompletedAt,
	}
	if t.Result != nil {
		res := *t.Result
		v.Result = &res
	}
	return v
}
