package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"script-analysis-backend/internal/analysis"
	"script-analysis-backend/internal/models"
)

const scriptColumns = `id, filename, original_filename, file_size_bytes,
	script_data, cast_breakdown, cost_breakdown, location_breakdown, props_breakdown,
	processing_time_seconds, api_calls_used, status, error_message,
	total_scenes, total_characters, total_locations, estimated_budget, budget_category,
	project_id, created_at, updated_at`

// Sortable columns exposed to clients, mapped to their real column names.
// Anything else sorts by created_at.
var scriptOrderColumns = map[string]string{
	"created_at":      "created_at",
	"filename":        "filename",
	"processing_time": "processing_time_seconds",
	"budget":          "estimated_budget",
}

// CreateScriptParams carries everything needed to persist one analysis
// attempt. APICallsUsed is always set by the caller (the handlers default it
// to analyzer.DefaultAPICalls when the client omits it).
type CreateScriptParams struct {
	Filename              string
	OriginalFilename      string
	FileSizeBytes         int64
	RawPayload            interface{}
	ProcessingTimeSeconds *float64
	APICallsUsed          int
	ProjectID             uuid.NullUUID
}

// CreateScript persists one analysis attempt. The write is two-tier: the
// normalized payload is inserted as a completed record inside a transaction,
// and if that fails for any reason a minimal error record is written instead
// so the attempt still leaves a trail. Only the fallback insert failing is
// returned as an error.
func (s *Store) CreateScript(params CreateScriptParams) (*models.AnalyzedScript, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	rec := analysis.Normalize(params.RawPayload)
	md := analysis.DeriveMetadata(rec)
	now := time.Now().UTC()

	script := &models.AnalyzedScript{
		ID:                    uuid.New(),
		Filename:              params.Filename,
		OriginalFilename:      params.OriginalFilename,
		FileSizeBytes:         params.FileSizeBytes,
		ProcessingTimeSeconds: nullFloat(params.ProcessingTimeSeconds),
		APICallsUsed:          params.APICallsUsed,
		Status:                models.StatusCompleted,
		TotalScenes:           md.SceneCount,
		TotalCharacters:       md.CharacterCount,
		TotalLocations:        md.LocationCount,
		EstimatedBudget:       md.EstimatedBudget,
		BudgetCategory:        md.BudgetCategory,
		ProjectID:             params.ProjectID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.insertCompletedScript(script, rec); err != nil {
		s.logger.Errorw("failed to create analyzed script", "filename", params.Filename, "error", err)
		return s.createErrorScript(params, err)
	}

	s.logger.Infow("created analyzed script", "script_id", script.ID, "filename", script.Filename)
	return script, nil
}

func (s *Store) insertCompletedScript(script *models.AnalyzedScript, rec analysis.CanonicalRecord) error {
	docs := make([]string, 0, 5)
	for _, doc := range []map[string]interface{}{
		rec.ScriptData, rec.CastBreakdown, rec.CostBreakdown, rec.LocationBreakdown, rec.PropsBreakdown,
	} {
		b, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis document: %w", err)
		}
		docs = append(docs, string(b))
	}
	script.ScriptData = json.RawMessage(docs[0])
	script.CastBreakdown = json.RawMessage(docs[1])
	script.CostBreakdown = json.RawMessage(docs[2])
	script.LocationBreakdown = json.RawMessage(docs[3])
	script.PropsBreakdown = json.RawMessage(docs[4])

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO analyzed_scripts (
			id, filename, original_filename, file_size_bytes,
			script_data, cast_breakdown, cost_breakdown, location_breakdown, props_breakdown,
			processing_time_seconds, api_calls_used, status,
			total_scenes, total_characters, total_locations, estimated_budget, budget_category,
			project_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		script.ID, script.Filename, script.OriginalFilename, script.FileSizeBytes,
		docs[0], docs[1], docs[2], docs[3], docs[4],
		script.ProcessingTimeSeconds, script.APICallsUsed, script.Status,
		script.TotalScenes, script.TotalCharacters, script.TotalLocations,
		script.EstimatedBudget, script.BudgetCategory,
		script.ProjectID, script.CreatedAt, script.UpdatedAt,
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// createErrorScript writes the minimal fallback record for a failed primary
// insert. It deliberately omits the breakdown documents, metadata and
// project link so the insert has as few ways to fail as the schema allows.
func (s *Store) createErrorScript(params CreateScriptParams, cause error) (*models.AnalyzedScript, error) {
	now := time.Now().UTC()
	script := &models.AnalyzedScript{
		ID:                    uuid.New(),
		Filename:              params.Filename,
		OriginalFilename:      params.OriginalFilename,
		FileSizeBytes:         params.FileSizeBytes,
		ProcessingTimeSeconds: nullFloat(params.ProcessingTimeSeconds),
		APICallsUsed:          params.APICallsUsed,
		Status:                models.StatusError,
		ErrorMessage:          sql.NullString{String: cause.Error(), Valid: true},
		BudgetCategory:        analysis.DefaultBudgetCategory,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	_, err := s.db.Exec(`
		INSERT INTO analyzed_scripts (
			id, filename, original_filename, file_size_bytes,
			processing_time_seconds, api_calls_used, status, error_message,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		script.ID, script.Filename, script.OriginalFilename, script.FileSizeBytes,
		script.ProcessingTimeSeconds, script.APICallsUsed, script.Status, script.ErrorMessage,
		script.CreatedAt, script.UpdatedAt,
	)
	if err != nil {
		s.logger.Errorw("failed to create error record", "filename", params.Filename, "error", err)
		return nil, fmt.Errorf("database operation failed: %w", cause)
	}

	return script, nil
}

// ListScripts returns a page of scripts sorted by a whitelisted column.
func (s *Store) ListScripts(skip, limit int, orderBy, orderDirection string) ([]models.AnalyzedScript, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	column, ok := scriptOrderColumns[orderBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(orderDirection, "asc") {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM analyzed_scripts ORDER BY %s %s LIMIT $1 OFFSET $2`,
		scriptColumns, column, direction)
	rows, err := s.db.Query(query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve scripts: %w", err)
	}
	defer rows.Close()

	return scanScripts(rows)
}

// SearchScripts matches a case-insensitive substring against filename or
// original_filename, newest first.
func (s *Store) SearchScripts(term string, skip, limit int) ([]models.AnalyzedScript, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToLower(term) + "%"
	query := fmt.Sprintf(`SELECT %s FROM analyzed_scripts
		WHERE LOWER(filename) LIKE $1 OR LOWER(original_filename) LIKE $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, scriptColumns)
	rows, err := s.db.Query(query, pattern, pattern, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to search scripts: %w", err)
	}
	defer rows.Close()

	return scanScripts(rows)
}

// ListScriptsByStatus returns a page of scripts in one status, newest first.
func (s *Store) ListScriptsByStatus(status string, skip, limit int) ([]models.AnalyzedScript, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM analyzed_scripts
		WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, scriptColumns)
	rows, err := s.db.Query(query, status, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve scripts by status: %w", err)
	}
	defer rows.Close()

	return scanScripts(rows)
}

// ListScriptsForProject returns every script linked to a project, newest
// first.
func (s *Store) ListScriptsForProject(projectID uuid.UUID) ([]models.AnalyzedScript, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM analyzed_scripts
		WHERE project_id = $1 ORDER BY created_at DESC`, scriptColumns)
	rows, err := s.db.Query(query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve project scripts: %w", err)
	}
	defer rows.Close()

	return scanScripts(rows)
}

// LatestCompletedScriptForProject returns the newest successful analysis for
// a project, or nil when the project has none. Used for project rollups.
func (s *Store) LatestCompletedScriptForProject(projectID uuid.UUID) (*models.AnalyzedScript, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM analyzed_scripts
		WHERE project_id = $1 AND status IN ('completed', 'completed_with_feedback')
		ORDER BY created_at DESC LIMIT 1`, scriptColumns)
	script, err := scanScript(s.db.QueryRow(query, projectID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve latest project script: %w", err)
	}
	return script, nil
}

// GetScript returns a script by id, or nil when it does not exist.
func (s *Store) GetScript(id uuid.UUID) (*models.AnalyzedScript, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM analyzed_scripts WHERE id = $1`, scriptColumns)
	script, err := scanScript(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve script %s: %w", id, err)
	}
	return script, nil
}

// DeleteScript removes a script by id, reporting whether a row existed.
func (s *Store) DeleteScript(id uuid.UUID) (bool, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return false, err
	}

	result, err := s.db.Exec(`DELETE FROM analyzed_scripts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete script %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete script %s: %w", id, err)
	}
	if affected == 0 {
		return false, nil
	}

	s.logger.Infow("deleted analyzed script", "script_id", id)
	return true, nil
}

// CountScripts counts scripts, optionally restricted to one status.
func (s *Store) CountScripts(statusFilter *string) (int, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return 0, err
	}

	var (
		count int
		err   error
	)
	if statusFilter != nil && *statusFilter != "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM analyzed_scripts WHERE status = $1`, *statusFilter).Scan(&count)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM analyzed_scripts`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count scripts: %w", err)
	}
	return count, nil
}

// ApplyFeedback records a review decision on a script and returns the
// updated record, or nil when the script does not exist.
//
// Approved feedback marks the record completed_with_feedback. Rejections
// requesting reanalysis move it to pending_revision and replace the error
// message with the feedback; plain rejections move it to needs_attention.
// Outside the reanalysis path, non-empty feedback text is appended to
// whatever error message is already there.
func (s *Store) ApplyFeedback(id uuid.UUID, approved bool, feedbackText string, requestReanalysis bool) (*models.AnalyzedScript, error) {
	script, err := s.GetScript(id)
	if err != nil {
		return nil, err
	}
	if script == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	if !approved && requestReanalysis {
		script.Status = models.StatusPendingRevision
		script.ErrorMessage = sql.NullString{String: "Human feedback: " + feedbackText, Valid: true}
	} else {
		if approved {
			script.Status = models.StatusCompletedWithFeedback
		} else {
			script.Status = models.StatusNeedsAttention
		}
		if feedbackText != "" {
			combined := strings.TrimSpace(script.ErrorMessage.String + "\nHuman feedback: " + feedbackText)
			script.ErrorMessage = sql.NullString{String: combined, Valid: true}
		}
	}
	script.UpdatedAt = now

	_, err = s.db.Exec(`UPDATE analyzed_scripts SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		script.Status, script.ErrorMessage, script.UpdatedAt, script.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to process feedback for script %s: %w", id, err)
	}

	s.logger.Infow("applied feedback", "script_id", id, "status", script.Status)
	return script, nil
}

// ScriptStatistics aggregates the whole table for the statistics endpoint.
// Average processing time covers completed scripts only.
func (s *Store) ScriptStatistics() (*models.ScriptStatistics, error) {
	if err := s.EnsureScriptsTable(); err != nil {
		return nil, err
	}

	stats := &models.ScriptStatistics{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM analyzed_scripts`).Scan(&stats.TotalScripts); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM analyzed_scripts WHERE status = 'completed'`).Scan(&stats.CompletedScripts); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM analyzed_scripts WHERE status = 'error'`).Scan(&stats.ErrorScripts); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	var avgProcessing sql.NullFloat64
	if err := s.db.QueryRow(`SELECT AVG(processing_time_seconds) FROM analyzed_scripts WHERE status = 'completed'`).Scan(&avgProcessing); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	var totalBytes sql.NullInt64
	if err := s.db.QueryRow(`SELECT SUM(file_size_bytes) FROM analyzed_scripts`).Scan(&totalBytes); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	if stats.TotalScripts > 0 {
		stats.SuccessRate = float64(stats.CompletedScripts) / float64(stats.TotalScripts) * 100
	}
	stats.AverageProcessingTime = avgProcessing.Float64
	stats.TotalFileSizeMB = float64(totalBytes.Int64) / (1024 * 1024)

	return stats, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScript(row rowScanner) (*models.AnalyzedScript, error) {
	var script models.AnalyzedScript
	// JSON columns come back as TEXT on SQLite and can be NULL on error
	// records, so they go through NullString rather than json.RawMessage.
	var docs [5]sql.NullString
	err := row.Scan(
		&script.ID, &script.Filename, &script.OriginalFilename, &script.FileSizeBytes,
		&docs[0], &docs[1], &docs[2], &docs[3], &docs[4],
		&script.ProcessingTimeSeconds, &script.APICallsUsed, &script.Status, &script.ErrorMessage,
		&script.TotalScenes, &script.TotalCharacters, &script.TotalLocations,
		&script.EstimatedBudget, &script.BudgetCategory,
		&script.ProjectID, &script.CreatedAt, &script.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	script.ScriptData = rawDoc(docs[0])
	script.CastBreakdown = rawDoc(docs[1])
	script.CostBreakdown = rawDoc(docs[2])
	script.LocationBreakdown = rawDoc(docs[3])
	script.PropsBreakdown = rawDoc(docs[4])
	return &script, nil
}

func rawDoc(v sql.NullString) json.RawMessage {
	if !v.Valid {
		return nil
	}
	return json.RawMessage(v.String)
}

func scanScripts(rows *sql.Rows) ([]models.AnalyzedScript, error) {
	scripts := []models.AnalyzedScript{}
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan script row: %w", err)
		}
		scripts = append(scripts, *script)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script rows: %w", err)
	}
	return scripts, nil
}
