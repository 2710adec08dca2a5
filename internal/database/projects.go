package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"script-analysis-backend/internal/models"
)

const projectColumns = `id, title, description, status, user_id,
	budget_total, estimated_duration_days, script_filename, created_at, updated_at`

// CreateProject inserts a new active project.
func (s *Store) CreateProject(title string, description *string, userID uuid.NullUUID) (*models.Project, error) {
	if err := s.EnsureProjectsTable(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.New(),
		Title:       title,
		Description: nullString(description),
		Status:      "active",
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(`
		INSERT INTO projects (
			id, title, description, status, user_id,
			budget_total, estimated_duration_days, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		project.ID, project.Title, project.Description, project.Status, project.UserID,
		project.BudgetTotal, project.EstimatedDurationDays, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Infow("created project", "project_id", project.ID, "title", project.Title)
	return project, nil
}

// ListProjects returns a page of projects, newest first, optionally filtered
// to one owner.
func (s *Store) ListProjects(userID uuid.NullUUID, skip, limit int) ([]models.Project, error) {
	if err := s.EnsureProjectsTable(); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	if userID.Valid {
		query := fmt.Sprintf(`SELECT %s FROM projects WHERE user_id = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3`, projectColumns)
		rows, err = s.db.Query(query, userID, limit, skip)
	} else {
		query := fmt.Sprintf(`SELECT %s FROM projects
			ORDER BY created_at DESC LIMIT $1 OFFSET $2`, projectColumns)
		rows, err = s.db.Query(query, limit, skip)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project rows: %w", err)
	}
	return projects, nil
}

// CountProjects counts projects, optionally restricted to one owner.
func (s *Store) CountProjects(userID uuid.NullUUID) (int, error) {
	if err := s.EnsureProjectsTable(); err != nil {
		return 0, err
	}

	var (
		count int
		err   error
	)
	if userID.Valid {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM projects WHERE user_id = $1`, userID).Scan(&count)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// GetProject returns a project by id, or nil when it does not exist.
func (s *Store) GetProject(id uuid.UUID) (*models.Project, error) {
	if err := s.EnsureProjectsTable(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)
	project, err := scanProject(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve project %s: %w", id, err)
	}
	return project, nil
}

// UpdateProject applies a partial update and returns the refreshed project,
// or nil when the project does not exist. An empty update is a plain read.
func (s *Store) UpdateProject(id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	if err := s.EnsureProjectsTable(); err != nil {
		return nil, err
	}
	if update.Empty() {
		return s.GetProject(id)
	}

	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.BudgetTotal != nil {
		add("budget_total", *update.BudgetTotal)
	}
	if update.EstimatedDurationDays != nil {
		add("estimated_duration_days", *update.EstimatedDurationDays)
	}
	if update.ScriptFilename != nil {
		add("script_filename", *update.ScriptFilename)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", id, err)
	}
	if affected == 0 {
		return nil, nil
	}

	s.logger.Infow("updated project", "project_id", id)
	return s.GetProject(id)
}

// DeleteProject removes a project, reporting whether it existed. Its scripts
// are kept as audit history with the project link cleared, never deleted.
func (s *Store) DeleteProject(id uuid.UUID) (bool, error) {
	if err := s.EnsureProjectsTable(); err != nil {
		return false, err
	}
	if err := s.EnsureScriptsTable(); err != nil {
		return false, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`UPDATE analyzed_scripts SET project_id = NULL WHERE project_id = $1`, id); err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to unlink project scripts: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to delete project %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	s.logger.Infow("deleted project", "project_id", id)
	return true, nil
}

// ReconcileProjectRollups re-derives each project's denormalized budget,
// script filename and duration from its newest successful script, fixing any
// rows that drifted. Returns how many projects were updated.
func (s *Store) ReconcileProjectRollups() (int, error) {
	if err := s.EnsureProjectsTable(); err != nil {
		return 0, err
	}

	projects, err := s.ListProjects(uuid.NullUUID{}, 0, reconcileBatchSize)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range projects {
		project := &projects[i]
		latest, err := s.LatestCompletedScriptForProject(project.ID)
		if err != nil {
			return updated, err
		}
		if latest == nil {
			continue
		}

		stale := project.BudgetTotal != latest.EstimatedBudget ||
			!project.ScriptFilename.Valid || project.ScriptFilename.String != latest.Filename ||
			project.EstimatedDurationDays == 0
		if !stale {
			continue
		}

		duration := project.EstimatedDurationDays
		if duration == 0 {
			duration = models.DefaultProjectDurationDays
		}

		_, err = s.db.Exec(`UPDATE projects
			SET budget_total = $1, script_filename = $2, estimated_duration_days = $3, updated_at = $4
			WHERE id = $5`,
			latest.EstimatedBudget, latest.Filename, duration, time.Now().UTC(), project.ID)
		if err != nil {
			return updated, fmt.Errorf("failed to reconcile project %s: %w", project.ID, err)
		}
		updated++
		s.logger.Infow("reconciled project rollup", "project_id", project.ID,
			"budget_total", latest.EstimatedBudget, "script_filename", latest.Filename)
	}
	return updated, nil
}

// reconcileBatchSize bounds one reconciliation sweep.
const reconcileBatchSize = 1000

func scanProject(row rowScanner) (*models.Project, error) {
	var project models.Project
	err := row.Scan(
		&project.ID, &project.Title, &project.Description, &project.Status, &project.UserID,
		&project.BudgetTotal, &project.EstimatedDurationDays, &project.ScriptFilename,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
