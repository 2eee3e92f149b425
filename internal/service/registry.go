package service

import (
	"github.com/swarmpilot/swarmpilot/internal/config"
	"github.com/swarmpilot/swarmpilot/internal/domain/agent"
)

// Registry holds the fixed set of agents for one manager instance.
// Agents are created at construction and never destroyed; iteration order
// is the definition order, which also breaks selector ties.
type Registry struct {
	order  []string
	agents map[string]*agent.Agent
}

// NewRegistry builds a registry from agent definitions. An empty list
// yields the built-in default agents.
func NewRegistry(defs []config.AgentDef) *Registry {
	if len(defs) == 0 {
		defs = DefaultAgents()
	}
	r := &Registry{agents: make(map[string]*agent.Agent, len(defs))}
	for _, d := range defs {
		a := &agent.Agent{
			ID:           d.ID,
			Name:         d.Name,
			Role:         d.Role,
			Capabilities: d.Capabilities,
			RoleKeywords: d.RoleKeywords,
			Status:       agent.StatusIdle,
		}
		r.order = append(r.order, d.ID)
		r.agents[d.ID] = a
	}
	return r
}

// Get returns the agent with the given id.
func (r *Registry) Get(id string) (*agent.Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// All returns the agents in definition order.
func (r *Registry) All() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.order)
}

// DefaultAgents is the built-in registry used when the config defines none.
func DefaultAgents() []config.AgentDef {
	return []config.AgentDef{
		{
			ID:           "orchestrator",
			Name:         "Orchestrator",
			Role:         "coordination",
			Capabilities: []string{"task_planning", "agent_coordination", "workflow_management"},
			RoleKeywords: []string{"plan", "coordinate", "organize"},
		},
		{
			ID:           "file_manager",
			Name:         "File Manager",
			Role:         "file_operations",
			Capabilities: []string{"file_creation", "file_deletion", "workspace_cleanup"},
			RoleKeywords: []string{"file", "create", "delete"},
		},
		{
			ID:           "analyst",
			Name:         "Workspace Analyst",
			Role:         "analysis",
			Capabilities: []string{"directory_analysis", "code_review", "structure_inspection"},
			RoleKeywords: []string{"analyze", "review", "examine"},
		},
		{
			ID:           "doc_writer",
			Name:         "Doc Writer",
			Role:         "documentation",
			Capabilities: []string{"documentation", "readme_generation", "technical_writing"},
			RoleKeywords: []string{"document", "readme", "explain"},
		},
		{
			ID:           "generalist",
			Name:         "Generalist",
			Role:         "general",
			Capabilities: []string{"general_tasks", "workspace_management"},
			RoleKeywords: []string{"help", "handle"},
		},
	}
}
