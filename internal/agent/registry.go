package agent

import (
	"fmt"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

// Registry is the closed set of agents a plan can name.
type Registry struct {
	Analyst   *Analyst
	Auditor   *Auditor
	Research  *Research
	Optimizer *Optimizer
	Planner   *Planner
	Memory    *MemoryReporter
}

func NewRegistry(deps *Deps) *Registry {
	return &Registry{
		Analyst:   NewAnalyst(deps),
		Auditor:   NewAuditor(deps),
		Research:  NewResearch(deps),
		Optimizer: NewOptimizer(deps),
		Planner:   NewPlanner(deps),
		Memory:    NewMemoryReporter(deps),
	}
}

// Resolve returns the agent for kind. Kinds outside the enumeration and
// unset fields both wrap domain.ErrUnknownAgent.
func (r *Registry) Resolve(kind domain.AgentKind) (domain.Agent, error) {
	var a domain.Agent
	switch kind {
	case domain.AgentAnalyst:
		if r.Analyst != nil {
			a = r.Analyst
		}
	case domain.AgentAuditor:
		if r.Auditor != nil {
			a = r.Auditor
		}
	case domain.AgentResearch:
		if r.Research != nil {
			a = r.Research
		}
	case domain.AgentOptimizer:
		if r.Optimizer != nil {
			a = r.Optimizer
		}
	case domain.AgentPlanner:
		if r.Planner != nil {
			a = r.Planner
		}
	case domain.AgentMemory:
		if r.Memory != nil {
			a = r.Memory
		}
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAgent, kind)
	}
	return a, nil
}
