package domain

type ExecutionMode string

const (
	ModeSingle     ExecutionMode = "SINGLE"
	ModeSequential ExecutionMode = "SEQUENTIAL"
	ModeParallel   ExecutionMode = "PARALLEL"
)

func ValidExecutionMode(m string) bool {
	switch ExecutionMode(m) {
	case ModeSingle, ModeSequential, ModeParallel:
		return true
	}
	return false
}

type RoutingPlan struct {
	Classification  string        `json:"classification"`
	PrimaryAgent    AgentKind     `json:"primary_agent"`
	SecondaryAgents []AgentKind   `json:"secondary_agents"`
	ExecutionMode   ExecutionMode `json:"execution_mode"`
	Reasoning       string        `json:"reasoning"`
	SubTasks        []string      `json:"sub_tasks"`
}

// Agents returns the agents the plan invokes, primary first.
func (p RoutingPlan) Agents() []AgentKind {
	if p.ExecutionMode == ModeSingle {
		return []AgentKind{p.PrimaryAgent}
	}
	out := make([]AgentKind, 0, 1+len(p.SecondaryAgents))
	out = append(out, p.PrimaryAgent)
	return append(out, p.SecondaryAgents...)
}
