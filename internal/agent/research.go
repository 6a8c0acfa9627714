package agent

import (
	"context"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

// Research answers from live web search and needs no property.
type Research struct {
	deps *Deps
}

func NewResearch(deps *Deps) *Research {
	return &Research{deps: deps}
}

func (a *Research) Kind() domain.AgentKind { return domain.AgentResearch }

func (a *Research) Execute(ctx context.Context, message string, actx domain.AgentContext) (domain.AgentResult, error) {
	resp, err := a.deps.generate(ctx, researchPrompt, userPrompt(message, actx), nil, true)
	if err != nil {
		return domain.AgentResult{}, err
	}
	return domain.AgentResult{Agent: a.Kind(), Output: resp.Text, Steps: resp.Steps}, nil
}
