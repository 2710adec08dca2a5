package database

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAllCreatesTables(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.EnsureAll())

	for _, table := range []string{"users", "projects", "analyzed_scripts"} {
		_, err := store.db.Exec("SELECT 1 FROM " + table + " LIMIT 1")
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestEnsureScriptsTableIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.EnsureScriptsTable())
	script := mustCreateScript(t, store, "repeat.pdf", 1000)

	// Re-running the guard must not recreate or clear the table.
	require.NoError(t, store.EnsureScriptsTable())
	require.NoError(t, store.EnsureScriptsTable())

	fetched, err := store.GetScript(script.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
}

func TestEnsureTablesConcurrent(t *testing.T) {
	store := newTestStore(t)

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.EnsureAll()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestEnsureTableRespectsExistingSchema(t *testing.T) {
	store := newTestStore(t)

	// A pre-existing table, whatever its shape, must be left alone.
	createRestrictedScriptsTable(t, store, "status <> 'never'")
	require.NoError(t, store.EnsureScriptsTable())

	var n int
	err := store.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'analyzed_scripts'`,
	).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
