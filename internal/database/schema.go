package database

import "fmt"

// Table creation is lazy: every store operation probes for its table first
// and creates it on demand, so a fresh database needs no migration step
// before serving traffic. The DDL below sticks to column types and defaults
// that both Postgres and SQLite accept.

const createUsersTableSQL = `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		username VARCHAR(100) UNIQUE NOT NULL,
		full_name VARCHAR(255),
		hashed_password VARCHAR(255),
		oauth_provider VARCHAR(50),
		oauth_id VARCHAR(255),
		profile_picture_url VARCHAR(500),
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

var userIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	`CREATE INDEX IF NOT EXISTS idx_users_oauth ON users(oauth_provider, oauth_id)`,
}

const createProjectsTableSQL = `
	CREATE TABLE IF NOT EXISTS projects (
		id VARCHAR PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		status VARCHAR(50) DEFAULT 'active',
		user_id VARCHAR,
		budget_total FLOAT DEFAULT 0,
		estimated_duration_days INTEGER DEFAULT 0,
		script_filename VARCHAR(255),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

var projectIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_projects_title ON projects(title)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id)`,
}

const createScriptsTableSQL = `
	CREATE TABLE IF NOT EXISTS analyzed_scripts (
		id VARCHAR PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		original_filename VARCHAR(255) NOT NULL,
		file_size_bytes BIGINT NOT NULL,
		script_data JSON,
		cast_breakdown JSON,
		cost_breakdown JSON,
		location_breakdown JSON,
		props_breakdown JSON,
		processing_time_seconds FLOAT,
		api_calls_used INTEGER DEFAULT 2,
		status VARCHAR(50) DEFAULT 'completed',
		error_message TEXT,
		total_scenes INTEGER DEFAULT 0,
		total_characters INTEGER DEFAULT 0,
		total_locations INTEGER DEFAULT 0,
		estimated_budget FLOAT DEFAULT 0,
		budget_category VARCHAR(20) DEFAULT 'Medium',
		project_id VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

var scriptIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_analyzed_scripts_filename ON analyzed_scripts(filename)`,
	`CREATE INDEX IF NOT EXISTS idx_analyzed_scripts_status ON analyzed_scripts(status)`,
	`CREATE INDEX IF NOT EXISTS idx_analyzed_scripts_created_at ON analyzed_scripts(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_analyzed_scripts_project_id ON analyzed_scripts(project_id)`,
}

// EnsureUsersTable creates the users table and its indexes if missing.
func (s *Store) EnsureUsersTable() error {
	return s.ensureTable("users", createUsersTableSQL, userIndexSQL)
}

// EnsureProjectsTable creates the projects table and its indexes if missing.
func (s *Store) EnsureProjectsTable() error {
	return s.ensureTable("projects", createProjectsTableSQL, projectIndexSQL)
}

// EnsureScriptsTable creates the analyzed_scripts table and its indexes if
// missing.
func (s *Store) EnsureScriptsTable() error {
	return s.ensureTable("analyzed_scripts", createScriptsTableSQL, scriptIndexSQL)
}

// EnsureAll creates every table, called once at startup so the first request
// never pays the DDL cost.
func (s *Store) EnsureAll() error {
	if err := s.EnsureUsersTable(); err != nil {
		return err
	}
	if err := s.EnsureProjectsTable(); err != nil {
		return err
	}
	return s.EnsureScriptsTable()
}

// ensureTable probes the table with a cheap SELECT and runs the DDL only when
// the probe fails. In-process callers are serialized on a mutex; cross-process
// races are left to IF NOT EXISTS, with a re-probe to swallow the benign
// loser's error.
func (s *Store) ensureTable(name, createSQL string, indexSQL []string) error {
	if s.tableExists(name) {
		return nil
	}

	s.ddl.Lock()
	defer s.ddl.Unlock()

	if s.tableExists(name) {
		return nil
	}

	s.logger.Infow("creating table", "table", name)
	if _, err := s.db.Exec(createSQL); err != nil {
		if s.tableExists(name) {
			return nil
		}
		return fmt.Errorf("failed to create %s table: %w", name, err)
	}
	for _, idx := range indexSQL {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) tableExists(name string) bool {
	_, err := s.db.Exec("SELECT 1 FROM " + name + " LIMIT 1")
	return err == nil
}
