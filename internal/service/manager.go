// Package service implements the agent dispatch core: registry, selector,
// dispatcher, background executor, and status reporting.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swarmpilot/swarmpilot/internal/adapter/auditlog"
	"github.com/swarmpilot/swarmpilot/internal/adapter/localllm"
	cfotel "github.com/swarmpilot/swarmpilot/internal/adapter/otel"
	"github.com/swarmpilot/swarmpilot/internal/config"
	"github.com/swarmpilot/swarmpilot/internal/domain"
	"github.com/swarmpilot/swarmpilot/internal/domain/agent"
	"github.com/swarmpilot/swarmpilot/internal/domain/intent"
	"github.com/swarmpilot/swarmpilot/internal/domain/task"
	"github.com/swarmpilot/swarmpilot/internal/port/broadcast"
)

// LogEntry is one record in the in-memory instruction log. The log grows
// for the life of the manager; status reports expose only the tail.
type LogEntry struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id,omitempty"`
	AgentID     string    `json:"agent_id,omitempty"`
	Instruction string    `json:"instruction"`
	Accepted    bool      `json:"accepted"`
	At          time.Time `json:"at"`
}

// Manager owns all dispatch state for one instance: the agent registry,
// the task table, the queue, and the instruction log. Multiple independent
// managers can run in one process; nothing is package-global.
type Manager struct {
	cfg        config.Dispatch
	registry   *Registry
	classifier intent.Classifier
	audit      *auditlog.Writer
	hub        broadcast.Broadcaster
	metrics    *cfotel.Metrics
	llm        *localllm.Client

	mu        sync.Mutex
	tasks     map[string]*task.Task
	taskOrder []string
	log       []LogEntry
	workspace string
	seq       int64

	queue    chan string
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewManager creates a Manager with the given dispatch config and registry.
// Optional collaborators are attached with the Set methods before Start.
func NewManager(cfg config.Dispatch, registry *Registry) *Manager {
	if cfg.QueueCapacity < 1 {
		cfg.QueueCapacity = 1
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 2 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	return &Manager{
		cfg:        cfg,
		registry:   registry,
		classifier: intent.NewKeywordClassifier(),
		hub:        broadcast.Nop{},
		tasks:      make(map[string]*task.Task),
		workspace:  cfg.Workspace,
		queue:      make(chan string, cfg.QueueCapacity),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetClassifier replaces the default keyword classifier.
func (m *Manager) SetClassifier(c intent.Classifier) {
	m.classifier = c
}

// SetAuditLog attaches the append-only activity trail writer.
func (m *Manager) SetAuditLog(w *auditlog.Writer) {
	m.audit = w
}

// SetBroadcaster attaches the real-time event broadcaster.
func (m *Manager) SetBroadcaster(b broadcast.Broadcaster) {
	m.hub = b
}

// SetMetrics attaches metric instruments.
func (m *Manager) SetMetrics(mt *cfotel.Metrics) {
	m.metrics = mt
}

// SetLLM attaches the optional local model client used by the generic handler.
func (m *Manager) SetLLM(c *localllm.Client) {
	m.llm = c
}

// Start launches the background executor. Call at most once.
func (m *Manager) Start() {
	go m.run()
}

// Stop signals the executor to exit and waits for it, up to the configured
// stop timeout. Queued tasks that have not started stay pending.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})

	timeout := m.cfg.StopTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case <-m.done:
	case <-time.After(timeout):
	}
}

// UpdateAgentStatus applies an operator-driven status change, e.g. taking
// an agent offline. Returns false for unknown agents, unknown statuses,
// and transitions the state machine rejects.
func (m *Manager) UpdateAgentStatus(agentID, status string) bool {
	next, ok := agent.ParseStatus(status)
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.registry.Get(agentID)
	if !ok {
		return false
	}
	return a.Transition(next) == nil
}

// nextTaskID advances the dispatch counter. Caller holds m.mu.
func (m *Manager) nextTaskID(now time.Time) string {
	m.seq++
	return task.NewID(m.seq, now)
}

// appendLog records an instruction in the in-memory log. Caller holds m.mu.
func (m *Manager) appendLog(taskID, agentID, instruction string, accepted bool, now time.Time) {
	m.log = append(m.log, LogEntry{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		AgentID:     agentID,
		Instruction: instruction,
		Accepted:    accepted,
		At:          now,
	})
}

var errUnknownTask = fmt.Errorf("%w: unknown task id in queue", domain.ErrNotFound)
