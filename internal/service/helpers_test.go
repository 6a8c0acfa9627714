package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

// fakeAgent records every input it receives.
type fakeAgent struct {
	kind   domain.AgentKind
	output string
	err    error
	panics bool
	delay  time.Duration

	mu     sync.Mutex
	inputs []string
}

func (a *fakeAgent) Kind() domain.AgentKind { return a.kind }

func (a *fakeAgent) Execute(ctx context.Context, message string, actx domain.AgentContext) (domain.AgentResult, error) {
	a.mu.Lock()
	a.inputs = append(a.inputs, message)
	a.mu.Unlock()

	if a.panics {
		panic("agent exploded")
	}
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return domain.AgentResult{}, ctx.Err()
		}
	}
	if a.err != nil {
		return domain.AgentResult{}, a.err
	}
	out := a.output
	if out == "" {
		out = fmt.Sprintf("%s output", a.kind)
	}
	return domain.AgentResult{Agent: a.kind, Output: out}, nil
}

func (a *fakeAgent) Inputs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.inputs...)
}

type fakeResolver map[domain.AgentKind]domain.Agent

func (r fakeResolver) Resolve(kind domain.AgentKind) (domain.Agent, error) {
	a, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAgent, kind)
	}
	return a, nil
}

func newResolver(agents ...*fakeAgent) fakeResolver {
	r := fakeResolver{}
	for _, a := range agents {
		r[a.kind] = a
	}
	return r
}

func collect(seqResults func(func(domain.AgentResult) bool)) []domain.AgentResult {
	var out []domain.AgentResult
	for r := range seqResults {
		out = append(out, r)
	}
	return out
}
