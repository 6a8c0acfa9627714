package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

const (
	defaultSleepInterval = 6 * time.Hour
	sleepRunTimeout      = 10 * time.Minute
)

const (
	MergeBatchSize      = 50
	PromotionMinScore   = 0.7
	PromotionMinActions = 3
)

// DuplicateSimilarity is the cosine similarity above which memories merge.
const DuplicateSimilarity float32 = 0.95

const (
	metadataMergedIDs = "merged_ids"
	metadataMergedAt  = "merged_at"
	detailsSteps      = "steps"
)

var ErrSleepCycleRunning = errors.New("sleep cycle already running")

type SleepCycleResult struct {
	Merged        int               `json:"merged"`
	Promoted      int               `json:"promoted"`
	SkillsUpdated int               `json:"skills_updated"`
	Deleted       int64             `json:"deleted"`
	Errors        map[string]string `json:"errors,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	Duration      string            `json:"duration"`
}

// SleepCycle periodically merges near-duplicate memories, promotes
// repeatedly successful actions into skills and drops stale memories.
type SleepCycle struct {
	memories domain.MemoryStore
	actions  domain.ActionStore
	skills   domain.SkillStore
	logger   *zap.Logger
	now      func() time.Time

	running  sync.Mutex
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSleepCycle(ms domain.MemoryStore, as domain.ActionStore, ss domain.SkillStore, logger *zap.Logger) *SleepCycle {
	return &SleepCycle{
		memories: ms,
		actions:  as,
		skills:   ss,
		logger:   logger,
		now:      time.Now,
		interval: defaultSleepInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *SleepCycle) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

func (s *SleepCycle) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("sleep cycle worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), sleepRunTimeout)
				if _, err := s.RunOnce(ctx); err != nil {
					s.logger.Warn("scheduled sleep cycle skipped", zap.Error(err))
				}
				cancel()
			case <-s.stopCh:
				s.logger.Info("sleep cycle worker stopped")
				return
			}
		}
	}()
}

func (s *SleepCycle) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunOnce runs merge, promotion and garbage collection in order. A failing
// step is recorded in the result and does not stop the others. Only one run
// may be in progress at a time.
func (s *SleepCycle) RunOnce(ctx context.Context) (*SleepCycleResult, error) {
	if !s.running.TryLock() {
		return nil, ErrSleepCycleRunning
	}
	defer s.running.Unlock()

	start := s.now()
	result := &SleepCycleResult{StartedAt: start}
	fail := func(step string, err error) {
		if result.Errors == nil {
			result.Errors = make(map[string]string)
		}
		result.Errors[step] = err.Error()
		s.logger.Error("sleep cycle step failed", zap.String("step", step), zap.Error(err))
	}

	if err := s.isolate(func() (err error) {
		result.Merged, err = s.Merge(ctx)
		return err
	}); err != nil {
		fail("merge", err)
	}

	if err := s.isolate(func() (err error) {
		result.Promoted, result.SkillsUpdated, err = s.Promote(ctx)
		return err
	}); err != nil {
		fail("promote", err)
	}

	if err := s.isolate(func() (err error) {
		result.Deleted, err = s.CollectGarbage(ctx)
		return err
	}); err != nil {
		fail("collect_garbage", err)
	}

	result.Duration = s.now().Sub(start).String()
	s.logger.Info("sleep cycle complete",
		zap.Int("merged", result.Merged),
		zap.Int("promoted", result.Promoted),
		zap.Int("skills_updated", result.SkillsUpdated),
		zap.Int64("deleted", result.Deleted),
		zap.Int("failed_steps", len(result.Errors)))

	return result, nil
}

func (s *SleepCycle) isolate(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Merge folds near-identical episodic memories into one survivor. Each merge
// commits on its own, so a failure leaves earlier merges in place. Returns
// the number of memories merged away.
func (s *SleepCycle) Merge(ctx context.Context) (int, error) {
	batch, err := s.memories.ListRecentByKind(ctx, domain.MemoryKindEpisodic, MergeBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list recent memories: %w", err)
	}

	removed := make(map[uuid.UUID]bool)
	merged := 0
	var errs []error

	for _, m := range batch {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if removed[m.ID] {
			continue
		}

		dups, err := s.memories.FindDuplicates(ctx, m, DuplicateSimilarity)
		if err != nil {
			errs = append(errs, fmt.Errorf("find duplicates of %s: %w", m.ID, err))
			continue
		}

		members := []domain.MemoryRecord{m}
		for _, d := range dups {
			if !removed[d.ID] {
				members = append(members, d.MemoryRecord)
			}
		}
		if len(members) < 2 {
			continue
		}

		winner := pickWinner(members)
		var (
			total  float32
			losers []uuid.UUID
		)
		for _, mem := range members {
			total += mem.Weight
			if mem.ID != winner.ID {
				losers = append(losers, mem.ID)
			}
		}
		weight := total / float32(len(members))

		if err := s.memories.Merge(ctx, winner.ID, weight, mergedMetadata(winner, members, s.now()), losers); err != nil {
			errs = append(errs, fmt.Errorf("merge into %s: %w", winner.ID, err))
			continue
		}

		for _, id := range losers {
			removed[id] = true
		}
		merged += len(losers)

		s.logger.Debug("merged duplicate memories",
			zap.String("winner_id", winner.ID.String()),
			zap.Int("merged", len(losers)),
			zap.Float32("weight", weight))
	}

	return merged, errors.Join(errs...)
}

// pickWinner prefers the most accessed memory, then the most recently
// created one, then the lowest id.
func pickWinner(members []domain.MemoryRecord) domain.MemoryRecord {
	winner := members[0]
	for _, m := range members[1:] {
		switch {
		case m.AccessCount != winner.AccessCount:
			if m.AccessCount > winner.AccessCount {
				winner = m
			}
		case !m.CreatedAt.Equal(winner.CreatedAt):
			if m.CreatedAt.After(winner.CreatedAt) {
				winner = m
			}
		case m.ID.String() < winner.ID.String():
			winner = m
		}
	}
	return winner
}

// mergedMetadata carries forward ids merged on earlier runs, both the
// winner's and the losers'.
func mergedMetadata(winner domain.MemoryRecord, members []domain.MemoryRecord, now time.Time) map[string]any {
	meta := make(map[string]any, len(winner.Metadata)+2)
	for k, v := range winner.Metadata {
		meta[k] = v
	}

	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && id != winner.ID.String() && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, m := range members {
		for _, id := range metadataIDs(m.Metadata) {
			add(id)
		}
		add(m.ID.String())
	}
	sort.Strings(ids)

	meta[metadataMergedIDs] = ids
	meta[metadataMergedAt] = now.UTC().Format(time.RFC3339)
	return meta
}

func metadataIDs(meta map[string]any) []string {
	switch v := meta[metadataMergedIDs].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Promote turns action types with enough successful evidence into skills and
// folds unclaimed evidence into skills that already exist. Evidence is claimed
// by identity, so an action measured long after it ran still counts once.
// Returns the number of skills created and updated.
func (s *SleepCycle) Promote(ctx context.Context) (int, int, error) {
	actions, err := s.actions.ListSuccessful(ctx, PromotionMinScore)
	if err != nil {
		return 0, 0, fmt.Errorf("list successful actions: %w", err)
	}

	groups := make(map[string][]domain.ActionRecord)
	var order []string
	for _, a := range actions {
		if _, ok := groups[a.ActionType]; !ok {
			order = append(order, a.ActionType)
		}
		groups[a.ActionType] = append(groups[a.ActionType], a)
	}

	var (
		promoted, updated int
		errs              []error
	)
	for _, actionType := range order {
		acts := groups[actionType]

		existing, err := s.skills.GetByStrategy(ctx, actionType)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if len(acts) < PromotionMinActions {
				continue
			}
			skill := newSkill(actionType, acts)
			if err := s.skills.Create(ctx, skill, actionIDs(acts)); err != nil {
				if errors.Is(err, store.ErrConflict) {
					continue
				}
				errs = append(errs, fmt.Errorf("create skill %q: %w", actionType, err))
				continue
			}
			promoted++
			s.logger.Info("promoted strategy to skill",
				zap.String("strategy", actionType),
				zap.Int("supporting_actions", len(acts)))

		case err != nil:
			errs = append(errs, fmt.Errorf("lookup skill %q: %w", actionType, err))

		default:
			ok, err := s.foldEvidence(ctx, existing, acts)
			if err != nil {
				errs = append(errs, fmt.Errorf("update skill %q: %w", actionType, err))
				continue
			}
			if ok {
				updated++
			}
		}
	}

	return promoted, updated, errors.Join(errs...)
}

// newSkill builds a skill from qualifying actions sorted oldest first. The
// action that crossed the threshold sets the initial rate and context.
func newSkill(actionType string, acts []domain.ActionRecord) *domain.SkillRecord {
	trigger := acts[PromotionMinActions-1]
	newest := acts[len(acts)-1]

	tags := []string{domain.SkillTagAutoPromoted}
	if trigger.AgentType != "" {
		tags = append(tags, strings.ToLower(string(trigger.AgentType)))
	}

	steps := actionSteps(trigger)
	if len(steps) == 0 {
		for _, a := range acts {
			if steps = actionSteps(a); len(steps) > 0 {
				break
			}
		}
	}

	return &domain.SkillRecord{
		PropertyID:      commonProperty(acts),
		StrategyName:    actionType,
		Description:     fmt.Sprintf("Auto-promoted from %d successful %q actions.", len(acts), actionType),
		ContextPattern:  trigger.ContextSummary,
		Steps:           steps,
		SuccessRate:     *trigger.SuccessScore,
		TimesApplied:    len(acts),
		Tags:            tags,
		EvidenceThrough: newest.ExecutedAt,
	}
}

// foldEvidence re-averages the success rate over actions not yet counted
// toward any skill.
func (s *SleepCycle) foldEvidence(ctx context.Context, skill *domain.SkillRecord, acts []domain.ActionRecord) (bool, error) {
	var (
		sum     float64
		fresh   []uuid.UUID
		through = skill.EvidenceThrough
	)
	for _, a := range acts {
		if a.SkillID != nil {
			continue
		}
		sum += *a.SuccessScore
		fresh = append(fresh, a.ID)
		if a.ExecutedAt.After(through) {
			through = a.ExecutedAt
		}
	}
	if len(fresh) == 0 {
		return false, nil
	}

	times := skill.TimesApplied + len(fresh)
	rate := (skill.SuccessRate*float64(skill.TimesApplied) + sum) / float64(times)
	if err := s.skills.UpdateStats(ctx, skill.ID, rate, times, through, fresh); err != nil {
		return false, err
	}
	return true, nil
}

func actionIDs(acts []domain.ActionRecord) []uuid.UUID {
	ids := make([]uuid.UUID, len(acts))
	for i, a := range acts {
		ids[i] = a.ID
	}
	return ids
}

func commonProperty(acts []domain.ActionRecord) *uuid.UUID {
	id := acts[0].PropertyID
	for _, a := range acts[1:] {
		if a.PropertyID != id {
			return nil
		}
	}
	return &id
}

func actionSteps(a domain.ActionRecord) []string {
	switch v := a.Details[detailsSteps].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// CollectGarbage deletes old, low-weight, rarely used memories. Brand
// protected memories are never removed.
func (s *SleepCycle) CollectGarbage(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-domain.CollectableAge)
	n, err := s.memories.DeleteStale(ctx, cutoff, domain.CollectableWeight, domain.CollectableAccessCount)
	if err != nil {
		return 0, fmt.Errorf("delete stale memories: %w", err)
	}
	return n, nil
}
