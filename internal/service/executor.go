package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const (
	DefaultAgentTimeout     = 60 * time.Second
	DefaultAgentMaxParallel = 4
)

var errAgentTimeout = errors.New("agent timeout")

// AgentResolver maps an agent kind to its implementation.
type AgentResolver interface {
	Resolve(kind domain.AgentKind) (domain.Agent, error)
}

// Executor runs a routing plan's agents in the plan's execution mode.
type Executor struct {
	agents       AgentResolver
	logger       *zap.Logger
	agentTimeout time.Duration
	maxParallel  int
}

func NewExecutor(agents AgentResolver, logger *zap.Logger) *Executor {
	return &Executor{
		agents:       agents,
		logger:       logger,
		agentTimeout: DefaultAgentTimeout,
		maxParallel:  DefaultAgentMaxParallel,
	}
}

func (e *Executor) SetAgentTimeout(d time.Duration) {
	if d > 0 {
		e.agentTimeout = d
	}
}

func (e *Executor) SetMaxParallel(n int) {
	if n > 0 {
		e.maxParallel = n
	}
}

// Run resolves every agent in the plan up front and returns a single-pass
// sequence of results, one per planned agent. Ranging over it a second time
// yields nothing. Breaking out of the range stops scheduling further agents
// and cancels in-flight ones.
func (e *Executor) Run(ctx context.Context, plan domain.RoutingPlan, message string, actx domain.AgentContext) (iter.Seq[domain.AgentResult], error) {
	kinds := plan.Agents()
	agents := make([]domain.Agent, 0, len(kinds))
	for _, k := range kinds {
		a, err := e.agents.Resolve(k)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	var consumed atomic.Bool
	return func(yield func(domain.AgentResult) bool) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		if plan.ExecutionMode == domain.ModeParallel {
			e.runParallel(ctx, agents, message, actx, yield)
			return
		}
		e.runSequential(ctx, agents, message, actx, yield)
	}, nil
}

// runSequential feeds every earlier output forward verbatim. A SINGLE plan
// is a sequence of one.
func (e *Executor) runSequential(ctx context.Context, agents []domain.Agent, message string, actx domain.AgentContext, yield func(domain.AgentResult) bool) {
	var sofar strings.Builder
	for _, a := range agents {
		if ctx.Err() != nil {
			return
		}

		res := e.invoke(ctx, a, ComposeInput(message, actx.MemoryContext, sofar.String()), actx)
		fmt.Fprintf(&sofar, "[%s]\n%s\n\n", res.Agent, res.Output)

		if !yield(res) {
			return
		}
	}
}

// runParallel gives every agent the same input and yields results as they
// complete. The buffered channel lets workers finish even after the
// consumer stops reading.
func (e *Executor) runParallel(ctx context.Context, agents []domain.Agent, message string, actx domain.AgentContext, yield func(domain.AgentResult) bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := ComposeInput(message, actx.MemoryContext, "")
	results := make(chan domain.AgentResult, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	go func() {
		for _, a := range agents {
			g.Go(func() error {
				results <- e.invoke(gctx, a, input, actx)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		if !yield(res) {
			return
		}
	}
}

// invoke runs one agent under its own timeout and turns errors, panics and
// timeouts into a degraded result attributed to the agent.
func (e *Executor) invoke(parent context.Context, a domain.Agent, input string, actx domain.AgentContext) domain.AgentResult {
	kind := a.Kind()
	ctx, cancel := context.WithTimeoutCause(parent, e.agentTimeout, errAgentTimeout)
	defer cancel()

	type outcome struct {
		res domain.AgentResult
		err error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := a.Execute(ctx, input, actx)
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	if out.err != nil {
		e.logger.Warn("agent failed",
			zap.String("agent", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(out.err))
		var msg string
		switch {
		case errors.Is(context.Cause(ctx), errAgentTimeout):
			msg = fmt.Sprintf("The %s agent did not finish within %s.", kind, e.agentTimeout)
		case parent.Err() != nil:
			msg = fmt.Sprintf("The %s agent was stopped when the turn ended.", kind)
		default:
			msg = fmt.Sprintf("The %s agent could not complete this request: %v", kind, out.err)
		}
		return domain.AgentResult{Agent: kind, Output: msg, Degraded: true}
	}

	out.res.Agent = kind
	e.logger.Debug("agent completed",
		zap.String("agent", string(kind)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("tool_steps", len(out.res.Steps)))
	return out.res
}

// ComposeInput appends the memory context and, for chained agents, the
// output produced so far to the user's message.
func ComposeInput(message, memoryContext, sofar string) string {
	var sb strings.Builder
	sb.WriteString(message)
	if memoryContext != "" {
		sb.WriteString("\n\n")
		sb.WriteString(memoryContext)
	}
	if sofar = strings.TrimSpace(sofar); sofar != "" {
		sb.WriteString("\n\nContext so far:\n")
		sb.WriteString(sofar)
	}
	return sb.String()
}
