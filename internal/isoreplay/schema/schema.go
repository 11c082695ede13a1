// Package schema provisions and resets the tables test cases run against
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wrale/isoreplay/internal/isoreplay/database"
)

//go:embed sql
var schemaFiles embed.FS

var (
	schemaFilePattern = regexp.MustCompile(`^(\d{3})_(.+)\.sql$`)
	functionPattern   = regexp.MustCompile(`(?si)CREATE(?:\s+OR\s+REPLACE)?\s+FUNCTION.*?LANGUAGE`)
)

// Tables lists the tables owned by the schema, in creation order
var Tables = []string{"main", "second_table"}

// Script is one embedded schema file
type Script struct {
	Version     int
	Description string
	Body        string
}

// Manager provisions the schema of one dialect
type Manager struct {
	db      *sql.DB
	dialect string
	logger  zerolog.Logger
}

// NewManager creates a manager for dialect ("postgres", "mysql" or "sqlite3")
func NewManager(db *sql.DB, dialect string, logger zerolog.Logger) (*Manager, error) {
	if _, err := schemaFiles.ReadDir(path.Join("sql", dialect)); err != nil {
		return nil, fmt.Errorf("no schema for dialect %q", dialect)
	}
	return &Manager{
		db:      db,
		dialect: dialect,
		logger:  logger.With().Str("component", "schema").Logger(),
	}, nil
}

// LoadScripts reads the embedded scripts of the dialect in version order
func (m *Manager) LoadScripts() ([]Script, error) {
	dir := path.Join("sql", m.dialect)
	entries, err := schemaFiles.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading schema: %w", err)
	}

	var scripts []Script
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		matches := schemaFilePattern.FindStringSubmatch(filename)
		if matches == nil {
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid schema version in %s: %w", filename, err)
		}

		content, err := schemaFiles.ReadFile(path.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("error reading schema %s: %w", filename, err)
		}

		scripts = append(scripts, Script{
			Version:     version,
			Description: matches[2],
			Body:        string(content),
		})
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Version < scripts[j].Version
	})

	return scripts, nil
}

// Setup drops and recreates every table
func (m *Manager) Setup(ctx context.Context) error {
	scripts, err := m.LoadScripts()
	if err != nil {
		return err
	}

	for _, script := range scripts {
		err := database.RunInTx(ctx, m.db, nil, func(tx *database.Tx) error {
			for _, stmt := range splitStatements(script.Body) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("error executing statement: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			m.logger.Error().Err(err).Int("version", script.Version).Msg("error applying schema")
			return database.MapError(err, "schema.Setup")
		}
		m.logger.Debug().Int("version", script.Version).Str("description", script.Description).Msg("schema applied")
	}

	return nil
}

// Reset empties every table, keeping their definitions. Errors are mapped to
// their domain category, so a missing table reports NOT_FOUND.
func (m *Manager) Reset(ctx context.Context) error {
	for _, table := range Tables {
		stmt := "TRUNCATE TABLE " + table
		if m.dialect == database.DriverSQLite {
			stmt = "DELETE FROM " + table
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			m.logger.Error().Err(err).Str("table", table).Msg("error resetting table")
			return database.MapError(err, "schema.Reset")
		}
	}
	return nil
}

// SetGlobalIsolation makes level the server default on MySQL/MariaDB. Other
// dialects receive the level through each transaction's options instead.
func (m *Manager) SetGlobalIsolation(ctx context.Context, level sql.IsolationLevel) error {
	name := database.IsolationSQL(level)
	if m.dialect != database.DriverMySQL || name == "" {
		return nil
	}
	if _, err := m.db.ExecContext(ctx, "SET GLOBAL TRANSACTION ISOLATION LEVEL "+name); err != nil {
		return fmt.Errorf("error setting global isolation: %w", err)
	}
	m.logger.Info().Str("isolation", name).Msg("global isolation level set")
	return nil
}

// splitStatements splits SQL into individual statements while preserving functions
func splitStatements(sql string) []string {
	// Extract function definitions first
	functions := functionPattern.FindAllString(sql, -1)
	for i, fn := range functions {
		sql = strings.Replace(sql, fn, fmt.Sprintf("--FUNCTION_%d--", i), 1)
	}

	statements := strings.Split(sql, ";")

	var result []string
	for _, statement := range statements {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}
		for j, fn := range functions {
			statement = strings.Replace(statement, fmt.Sprintf("--FUNCTION_%d--", j), fn, 1)
		}
		result = append(result, statement)
	}

	return result
}
