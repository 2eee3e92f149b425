package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/swarmpilot/swarmpilot/internal/adapter/auditlog"
	"github.com/swarmpilot/swarmpilot/internal/domain"
	"github.com/swarmpilot/swarmpilot/internal/service"
)

// Handlers carries the dependencies shared by all HTTP handlers.
type Handlers struct {
	svc   *service.Manager
	audit *auditlog.Writer
}

// NewHandlers builds the handler set around the dispatch manager.
func NewHandlers(svc *service.Manager, audit *auditlog.Writer) *Handlers {
	return &Handlers{svc: svc, audit: audit}
}

type instructionRequest struct {
	Instruction   string `json:"instruction"`
	WorkspacePath string `json:"workspace_path,omitempty"`
	Priority      string `json:"priority,omitempty"`
}

// CreateInstruction accepts a natural-language instruction and dispatches it.
func (h *Handlers) CreateInstruction(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[instructionRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, strings.TrimSpace(req.Instruction), "instruction") {
		return
	}

	res := h.svc.SendInstruction(r.Context(), service.DispatchRequest{
		Instruction:   req.Instruction,
		WorkspacePath: req.WorkspacePath,
		Priority:      req.Priority,
	})
	if !res.Success {
		switch res.Message {
		case service.MsgNoAgentAvailable:
			writeDomainError(w, domain.ErrNoAgentAvailable, "")
		case service.MsgQueueFull:
			writeDomainError(w, domain.ErrQueueFull, "")
		default:
			writeError(w, http.StatusInternalServerError, res.Message)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// GetStatus returns the aggregate agent and task snapshot.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.AgentStatus(r.Context()))
}

// ListTasks returns every tracked task in creation order.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.svc.AllTasks(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTask returns a single task by id.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	v, ok := h.svc.TaskStatus(r.Context(), id)
	if !ok {
		writeDomainError(w, domain.ErrNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetActivity returns the tail of the human-readable activity log.
func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	n := 20
	if raw := r.URL.Query().Get("lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "lines must be a positive integer")
			return
		}
		n = parsed
	}

	lines, err := h.audit.Tail(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read activity log")
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lines": lines,
		"count": len(lines),
	})
}

type agentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateAgentStatus applies an operator-driven agent status change.
func (h *Handlers) UpdateAgentStatus(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[agentStatusRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Status, "status") {
		return
	}

	if h.svc.UpdateAgentStatus(id, req.Status) {
		writeJSON(w, http.StatusOK, map[string]any{"agent_id": id, "status": req.Status})
		return
	}

	// Distinguish an unknown agent from a rejected transition.
	if _, exists := h.svc.AgentStatus(r.Context()).Agents[id]; !exists {
		writeDomainError(w, domain.ErrNotFound, "agent not found")
		return
	}
	writeDomainError(w, fmt.Errorf("%w: invalid status or transition", domain.ErrValidation), "")
}
