package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DefaultProjectDurationDays seeds estimated_duration_days when a script is
// attached to a project that has no estimate of its own.
const DefaultProjectDurationDays = 30

type Project struct {
	ID                    uuid.UUID
	Title                 string
	Description           sql.NullString
	Status                string
	UserID                uuid.NullUUID
	BudgetTotal           float64
	EstimatedDurationDays int
	ScriptFilename        sql.NullString
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ProjectUpdate carries a partial update. Nil fields are left untouched.
type ProjectUpdate struct {
	Title                 *string
	Description           *string
	Status                *string
	BudgetTotal           *float64
	EstimatedDurationDays *int
	ScriptFilename        *string
}

// Empty reports whether the update would change nothing.
func (u ProjectUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.BudgetTotal == nil && u.EstimatedDurationDays == nil && u.ScriptFilename == nil
}
