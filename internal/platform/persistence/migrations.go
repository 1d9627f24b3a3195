package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
)

// ErrDirtySchema means a previous migration failed halfway; an operator has to
// repair the schema and force the version before the service can start.
var ErrDirtySchema = errors.New("database schema is dirty")

// migrateLogger forwards golang-migrate's output to slog at debug level
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return false
}

// RunMigrations brings the schema at databaseURL up to the newest migration in
// migrationsPath, which may be given with or without the file:// scheme.
func RunMigrations(logger *slog.Logger, databaseURL string, migrationsPath string) (err error) {
	switch {
	case migrationsPath == "":
		return errors.New("migrations path cannot be empty")
	case databaseURL == "":
		return errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(sourceURL(migrationsPath), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{logger: logger.With("component", "migrate")}
	defer func() {
		sourceErr, dbErr := m.Close()
		if closeErr := errors.Join(sourceErr, dbErr); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close migrate instance: %w", closeErr)
		}
	}()

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	to, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("Database schema is up to date", "from_version", from, "version", to)
	return nil
}

func sourceURL(migrationsPath string) string {
	if strings.HasPrefix(migrationsPath, "file://") {
		return migrationsPath
	}
	return "file://" + migrationsPath
}
