package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventTaskStatus      = "task.status"
	EventAgentStatus     = "agent.status"
	EventInstructionRecv = "instruction.received"
)

// TaskStatusEvent is broadcast when a task's status changes.
type TaskStatusEvent struct {
	TaskID  string `json:"task_id"`
	AgentID string `json:"agent_id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// AgentStatusEvent is broadcast when an agent's status changes.
type AgentStatusEvent struct {
	AgentID     string `json:"agent_id"`
	Status      string `json:"status"`
	CurrentTask string `json:"current_task,omitempty"`
}

// InstructionEvent is broadcast when a new instruction is accepted.
type InstructionEvent struct {
	TaskID      string `json:"task_id"`
	AgentID     string `json:"agent_id"`
	Instruction string `json:"instruction"`
}

// BroadcastEvent marshals a typed event and broadcasts it. Implements the
// broadcast port.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
