package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/scoring"
)

const (
	DefaultTurnTimeout = 3 * time.Minute

	summaryClickDays   = 28
	summaryHistoryDays = 30
)

var (
	ErrTurnMessageEmpty = errors.New("message is required")
	ErrPropertyNotFound = errors.New("property not found")
)

type TurnRequest struct {
	PropertyID  uuid.UUID `json:"property_id"`
	Message     string    `json:"message"`
	Diagnostics string    `json:"diagnostics,omitempty"`
}

// EmitFunc delivers one protocol event. An error means the caller is gone.
type EmitFunc func(domain.Event) error

// TurnService handles one user request end to end: memory retrieval,
// routing, execution and the detached memory write.
type TurnService struct {
	properties domain.PropertyStore
	analytics  domain.AnalyticsStore
	memory     *MemoryService
	router     *Router
	executor   *Executor
	logger     *zap.Logger
	timeout    time.Duration
}

func NewTurnService(
	ps domain.PropertyStore,
	as domain.AnalyticsStore,
	memory *MemoryService,
	router *Router,
	executor *Executor,
	logger *zap.Logger,
) *TurnService {
	return &TurnService{
		properties: ps,
		analytics:  as,
		memory:     memory,
		router:     router,
		executor:   executor,
		logger:     logger,
		timeout:    DefaultTurnTimeout,
	}
}

func (s *TurnService) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// HandleTurn streams status, routing and agent_result events through emit.
// A turn-fatal condition ends the stream with a single error event and is
// also returned.
func (s *TurnService) HandleTurn(ctx context.Context, req TurnRequest, emit EmitFunc) error {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return s.fail(emit, ErrTurnMessageEmpty)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	send := func(ev domain.Event) bool {
		if err := emit(ev); err != nil {
			s.logger.Debug("event consumer gone", zap.Error(err))
			cancel()
			return false
		}
		return true
	}

	actx := domain.AgentContext{Diagnostics: req.Diagnostics}
	var summary *domain.PropertySummary
	if req.PropertyID != uuid.Nil {
		prop, err := lookupProperty(ctx, s.properties, req.PropertyID)
		if err != nil {
			return s.fail(emit, err)
		}
		actx.PropertyID = prop.ID
		actx.PropertyURL = prop.SiteURL
		summary = s.summarize(ctx, prop)
	}

	if !send(domain.StatusEvent("Retrieving institutional memory")) {
		return nil
	}
	actx.MemoryContext = s.memory.RetrieveContext(ctx, actx.PropertyID, message)

	if !send(domain.StatusEvent("Classifying request")) {
		return nil
	}
	plan := s.router.Classify(ctx, message, summary)
	if !send(domain.RoutingEvent(plan)) {
		return nil
	}

	results, err := s.executor.Run(ctx, plan, message, actx)
	if err != nil {
		return s.fail(emit, err)
	}

	var produced []domain.AgentResult
	for res := range results {
		produced = append(produced, res)
		if !send(domain.AgentResultEvent(res)) {
			break
		}
	}

	// Partial results are still worth remembering when the turn is cut short.
	s.memory.RememberTurn(actx.PropertyID, message, produced)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return s.fail(emit, errors.New("turn exceeded its time budget"))
	}
	return nil
}

func (s *TurnService) fail(emit EmitFunc, err error) error {
	s.logger.Warn("turn failed", zap.Error(err))
	if emitErr := emit(domain.ErrorEvent(err.Error())); emitErr != nil {
		s.logger.Debug("could not deliver error event", zap.Error(emitErr))
	}
	return err
}

// summarize gathers the router's property context. Failures degrade to a
// partial summary.
func (s *TurnService) summarize(ctx context.Context, prop *domain.Property) *domain.PropertySummary {
	summary := &domain.PropertySummary{SiteURL: prop.SiteURL}

	clicks, err := s.analytics.TotalClicks(ctx, prop.ID, summaryClickDays)
	if err != nil {
		s.logger.Warn("failed to load recent clicks", zap.String("property_id", prop.ID.String()), zap.Error(err))
	} else {
		summary.RecentClicks = clicks
	}

	history, err := s.analytics.PositionHistory(ctx, prop.ID, summaryHistoryDays)
	if err != nil {
		s.logger.Warn("failed to load position history", zap.String("property_id", prop.ID.String()), zap.Error(err))
		return summary
	}
	summary.DecliningPages = decliningPages(scoring.AnalyzeVelocities(history))
	return summary
}

func decliningPages(velocities []scoring.RankingVelocity) int {
	pages := make(map[string]bool)
	for _, v := range velocities {
		if v.Classification == scoring.RapidDecline || v.Classification == scoring.GradualDecline {
			pages[v.Page] = true
		}
	}
	return len(pages)
}
