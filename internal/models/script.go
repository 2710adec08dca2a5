package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Script record statuses. A record starts as completed or error and moves
// through the feedback statuses afterwards.
const (
	StatusCompleted             = "completed"
	StatusError                 = "error"
	StatusPendingReview         = "pending_review"
	StatusCompletedWithFeedback = "completed_with_feedback"
	StatusNeedsAttention        = "needs_attention"
	StatusPendingRevision       = "pending_revision"
)

// AnalyzedScript is one analysis attempt for an uploaded script, successful
// or not. The five breakdown columns hold the analyzer output verbatim.
type AnalyzedScript struct {
	ID                    uuid.UUID
	Filename              string
	OriginalFilename      string
	FileSizeBytes         int64
	ScriptData            json.RawMessage
	CastBreakdown         json.RawMessage
	CostBreakdown         json.RawMessage
	LocationBreakdown     json.RawMessage
	PropsBreakdown        json.RawMessage
	ProcessingTimeSeconds sql.NullFloat64
	APICallsUsed          int
	Status                string
	ErrorMessage          sql.NullString
	TotalScenes           int
	TotalCharacters       int
	TotalLocations        int
	EstimatedBudget       float64
	BudgetCategory        string
	ProjectID             uuid.NullUUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ScriptStatistics aggregates the whole analyzed_scripts relation.
type ScriptStatistics struct {
	TotalScripts          int
	CompletedScripts      int
	ErrorScripts          int
	SuccessRate           float64
	AverageProcessingTime float64
	TotalFileSizeMB       float64
}
