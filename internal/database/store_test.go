package database

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"script-analysis-backend/internal/logging"
	"script-analysis-backend/internal/models"
)

// newTestStore opens a uniquely named in-memory SQLite database. The pool is
// pinned to one connection so the shared-cache database cannot be dropped by
// pool churn mid-test.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := Open("sqlite", dsn, logging.NewNop())
	require.NoError(t, err)
	store.db.SetMaxOpenConns(1)

	t.Cleanup(func() { store.Close() })
	return store
}

func scriptPayload(budget float64) map[string]interface{} {
	return map[string]interface{}{
		"script_data": map[string]interface{}{
			"scenes":           []interface{}{map[string]interface{}{"number": 1.0}, map[string]interface{}{"number": 2.0}},
			"total_characters": []interface{}{"RIPLEY", "DALLAS", "ASH"},
			"total_locations":  []interface{}{"NOSTROMO BRIDGE"},
		},
		"cast_breakdown": map[string]interface{}{"leads": []interface{}{"RIPLEY"}},
		"cost_breakdown": map[string]interface{}{
			"total_costs":     budget,
			"budget_category": "High",
		},
		"location_breakdown": map[string]interface{}{"stages": 2.0},
		"props_breakdown":    map[string]interface{}{"hero_props": []interface{}{"flamethrower"}},
	}
}

func mustCreateScript(t *testing.T, store *Store, filename string, budget float64) *models.AnalyzedScript {
	t.Helper()

	processing := 10.0
	script, err := store.CreateScript(CreateScriptParams{
		Filename:              filename,
		OriginalFilename:      "original_" + filename,
		FileSizeBytes:         2048,
		RawPayload:            scriptPayload(budget),
		ProcessingTimeSeconds: &processing,
		APICallsUsed:          2,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, script.Status)
	return script
}

// setCreatedAt rewrites a script's created_at so ordering tests are
// deterministic regardless of insert timing.
func setCreatedAt(t *testing.T, store *Store, id uuid.UUID, ts time.Time) {
	t.Helper()

	_, err := store.db.Exec(`UPDATE analyzed_scripts SET created_at = $1 WHERE id = $2`, ts, id)
	require.NoError(t, err)
}

// createRestrictedScriptsTable pre-creates analyzed_scripts with an extra
// CHECK constraint, letting tests force insert failures through real SQL.
func createRestrictedScriptsTable(t *testing.T, store *Store, check string) {
	t.Helper()

	ddl := strings.TrimSuffix(strings.TrimSpace(createScriptsTableSQL), ")") +
		", CHECK (" + check + "))"
	_, err := store.db.Exec(ddl)
	require.NoError(t, err)
}
