package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActionKind string

const (
	ActionCall        ActionKind = "call"
	ActionVisit       ActionKind = "visit"
	ActionPropose     ActionKind = "propose"
	ActionRecover     ActionKind = "recover"
	ActionConsolidate ActionKind = "consolidate"
	ActionFollow      ActionKind = "follow"
)

type Priority string

const (
	PriorityUrgent    Priority = "urgent"
	PriorityImportant Priority = "important"
	PriorityUseful    Priority = "useful"
)

// Rank gives the total order urgent < important < useful. Unknown values
// sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityImportant:
		return 1
	case PriorityUseful:
		return 2
	default:
		return 3
	}
}

type SuggestionStatus string

const (
	StatusNew       SuggestionStatus = "new"
	StatusCompleted SuggestionStatus = "completed"
	StatusPostponed SuggestionStatus = "postponed"
	StatusIgnored   SuggestionStatus = "ignored"
)

// Terminal statuses are never reactivated; a fresh condition produces a new
// row under a new trigger key.
func (s SuggestionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusIgnored
}

// ActiveStatuses are the statuses returned by "active" queries and counted
// toward the per-run guard set.
var ActiveStatuses = []SuggestionStatus{StatusNew, StatusPostponed}

// Suggestion is one proposed next action. ClientName is resolved through
// fieldcrypt at generation time and stored cleartext on the row, so a
// persisted suggestion never needs re-decryption to display.
//
// The (user_id, trigger_key) unique index is the idempotency guarantee: for
// a given owner and trigger key at most one row exists, enforced by the
// store's on-conflict insert, not by application checks.
type Suggestion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_suggestions_owner_trigger_key" json:"user_id"`
	ClientID   uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	ClientName string    `gorm:"not null" json:"client_name"`

	ActionKind  ActionKind     `gorm:"type:varchar(16);not null" json:"action_kind"`
	ActionText  string         `gorm:"not null" json:"action_text"`
	Reason      string         `gorm:"not null" json:"reason"`
	ContextData datatypes.JSON `gorm:"type:jsonb" json:"context_data"`

	Priority Priority         `gorm:"type:varchar(12);not null;index" json:"priority"`
	Status   SuggestionStatus `gorm:"type:varchar(12);not null;default:'new';index" json:"status"`

	TriggerKey string `gorm:"not null;uniqueIndex:idx_suggestions_owner_trigger_key" json:"trigger_key"`

	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (Suggestion) TableName() string { return "suggestions" }
