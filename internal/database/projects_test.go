package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"script-analysis-backend/internal/models"
)

func TestCreateAndGetProject(t *testing.T) {
	store := newTestStore(t)

	description := "Sci-fi feature, two leads"
	ownerID := uuid.New()
	project, err := store.CreateProject("Nostromo", &description, uuid.NullUUID{UUID: ownerID, Valid: true})
	require.NoError(t, err)

	assert.Equal(t, "Nostromo", project.Title)
	assert.Equal(t, "active", project.Status)
	assert.Equal(t, 0.0, project.BudgetTotal)
	assert.Equal(t, 0, project.EstimatedDurationDays)

	fetched, err := store.GetProject(project.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, project.ID, fetched.ID)
	assert.Equal(t, description, fetched.Description.String)
	assert.Equal(t, ownerID, fetched.UserID.UUID)
	assert.False(t, fetched.ScriptFilename.Valid)
}

func TestGetProjectMissing(t *testing.T) {
	store := newTestStore(t)

	project, err := store.GetProject(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, project)
}

func TestListProjectsAndCount(t *testing.T) {
	store := newTestStore(t)

	owner := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	other := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	_, err := store.CreateProject("Mine A", nil, owner)
	require.NoError(t, err)
	_, err = store.CreateProject("Mine B", nil, owner)
	require.NoError(t, err)
	_, err = store.CreateProject("Theirs", nil, other)
	require.NoError(t, err)
	_, err = store.CreateProject("Nobody's", nil, uuid.NullUUID{})
	require.NoError(t, err)

	all, err := store.ListProjects(uuid.NullUUID{}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := store.ListProjects(owner, 0, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	total, err := store.CountProjects(uuid.NullUUID{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	n, err := store.CountProjects(owner)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpdateProjectPartial(t *testing.T) {
	store := newTestStore(t)

	description := "initial"
	project, err := store.CreateProject("Draft", &description, uuid.NullUUID{})
	require.NoError(t, err)

	title := "Final Cut"
	budget := 75000.0
	updated, err := store.UpdateProject(project.ID, models.ProjectUpdate{
		Title:       &title,
		BudgetTotal: &budget,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Final Cut", updated.Title)
	assert.Equal(t, 75000.0, updated.BudgetTotal)
	assert.Equal(t, "initial", updated.Description.String, "untouched fields keep their values")
	assert.Equal(t, "active", updated.Status)
}

func TestUpdateProjectEmptyUpdateIsARead(t *testing.T) {
	store := newTestStore(t)

	project, err := store.CreateProject("Unchanged", nil, uuid.NullUUID{})
	require.NoError(t, err)

	updated, err := store.UpdateProject(project.ID, models.ProjectUpdate{})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, project.ID, updated.ID)
	assert.WithinDuration(t, project.UpdatedAt, updated.UpdatedAt, time.Second)
}

func TestUpdateProjectMissing(t *testing.T) {
	store := newTestStore(t)

	title := "ghost"
	updated, err := store.UpdateProject(uuid.New(), models.ProjectUpdate{Title: &title})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestDeleteProjectOrphansScripts(t *testing.T) {
	store := newTestStore(t)

	project, err := store.CreateProject("Doomed", nil, uuid.NullUUID{})
	require.NoError(t, err)
	link := uuid.NullUUID{UUID: project.ID, Valid: true}

	linked, err := store.CreateScript(CreateScriptParams{
		Filename: "linked.pdf", OriginalFilename: "linked.pdf", FileSizeBytes: 10,
		RawPayload: scriptPayload(100), APICallsUsed: 2, ProjectID: link,
	})
	require.NoError(t, err)
	loose := mustCreateScript(t, store, "loose.pdf", 100)

	deleted, err := store.DeleteProject(project.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := store.GetProject(project.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// The analysis record survives as history, only the link is cleared.
	orphan, err := store.GetScript(linked.ID)
	require.NoError(t, err)
	require.NotNil(t, orphan)
	assert.False(t, orphan.ProjectID.Valid)

	untouched, err := store.GetScript(loose.ID)
	require.NoError(t, err)
	require.NotNil(t, untouched)

	deleted, err = store.DeleteProject(project.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReconcileProjectRollups(t *testing.T) {
	store := newTestStore(t)

	project, err := store.CreateProject("Stale", nil, uuid.NullUUID{})
	require.NoError(t, err)
	link := uuid.NullUUID{UUID: project.ID, Valid: true}

	_, err = store.CreateScript(CreateScriptParams{
		Filename: "budgeted.pdf", OriginalFilename: "budgeted.pdf", FileSizeBytes: 10,
		RawPayload: scriptPayload(50000), APICallsUsed: 2, ProjectID: link,
	})
	require.NoError(t, err)

	updated, err := store.ReconcileProjectRollups()
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	refreshed, err := store.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, refreshed.BudgetTotal)
	assert.Equal(t, "budgeted.pdf", refreshed.ScriptFilename.String)
	assert.Equal(t, models.DefaultProjectDurationDays, refreshed.EstimatedDurationDays)

	// A second sweep finds nothing to fix.
	updated, err = store.ReconcileProjectRollups()
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestReconcileProjectRollupsSkipsProjectsWithoutScripts(t *testing.T) {
	store := newTestStore(t)

	project, err := store.CreateProject("Empty", nil, uuid.NullUUID{})
	require.NoError(t, err)

	updated, err := store.ReconcileProjectRollups()
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	refreshed, err := store.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, refreshed.BudgetTotal)
	assert.False(t, refreshed.ScriptFilename.Valid)
}

func TestReconcileProjectRollupsTracksNewerScript(t *testing.T) {
	store := newTestStore(t)

	project, err := store.CreateProject("Evolving", nil, uuid.NullUUID{})
	require.NoError(t, err)
	link := uuid.NullUUID{UUID: project.ID, Valid: true}

	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	v1, err := store.CreateScript(CreateScriptParams{
		Filename: "v1.pdf", OriginalFilename: "v1.pdf", FileSizeBytes: 10,
		RawPayload: scriptPayload(10000), APICallsUsed: 2, ProjectID: link,
	})
	require.NoError(t, err)
	setCreatedAt(t, store, v1.ID, base)

	_, err = store.ReconcileProjectRollups()
	require.NoError(t, err)

	v2, err := store.CreateScript(CreateScriptParams{
		Filename: "v2.pdf", OriginalFilename: "v2.pdf", FileSizeBytes: 10,
		RawPayload: scriptPayload(20000), APICallsUsed: 2, ProjectID: link,
	})
	require.NoError(t, err)
	setCreatedAt(t, store, v2.ID, base.Add(time.Hour))

	updated, err := store.ReconcileProjectRollups()
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	refreshed, err := store.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, 20000.0, refreshed.BudgetTotal)
	assert.Equal(t, "v2.pdf", refreshed.ScriptFilename.String)
	assert.Equal(t, models.DefaultProjectDurationDays, refreshed.EstimatedDurationDays)
}
