package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionRecord is evidence that an agent applied a strategy for a property.
// SuccessScore stays nil until impact is measured. SkillID is set once the
// action has been counted toward a skill.
type ActionRecord struct {
	ID             uuid.UUID      `json:"id"`
	PropertyID     uuid.UUID      `json:"property_id"`
	AgentType      AgentKind      `json:"agent_type"`
	ActionType     string         `json:"action_type"`
	ContextSummary string         `json:"context_summary"`
	Details        map[string]any `json:"details,omitempty"`
	SuccessScore   *float64       `json:"success_score,omitempty"`
	ExecutedAt     time.Time      `json:"executed_at"`
	SkillID        *uuid.UUID     `json:"skill_id,omitempty"`
}

// SkillRecord is a strategy promoted from repeated successful actions.
// A nil PropertyID means the skill is global.
type SkillRecord struct {
	ID              uuid.UUID  `json:"id"`
	PropertyID      *uuid.UUID `json:"property_id,omitempty"`
	StrategyName    string     `json:"strategy_name"`
	Description     string     `json:"description"`
	ContextPattern  string     `json:"context_pattern"`
	Steps           []string   `json:"steps"`
	SuccessRate     float64    `json:"success_rate"`
	TimesApplied    int        `json:"times_applied"`
	Tags            []string   `json:"tags"`
	EvidenceThrough time.Time  `json:"evidence_through"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const SkillTagAutoPromoted = "auto-promoted"
