// Package schema executes idempotent initialization scripts against
// newly-reachable databases. Templates are plain SQL files resolved by name
// from a configured directory; scripts are expected to be written so that
// re-execution is harmless, though the orchestrator only triggers them once.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

// ErrTemplateNotFound reports a service whose schema template has no script
// at the expected location. Non-fatal: the instance is still usable.
var ErrTemplateNotFound = errors.New("schema template not found")

type Bootstrapper struct {
	templatesDir string
	logger       zerolog.Logger
}

func NewBootstrapper(templatesDir string, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		templatesDir: templatesDir,
		logger:       logger.With().Str("component", "schema-bootstrapper").Logger(),
	}
}

// Initialize resolves the template and executes it over a short-lived
// administrative connection using the database's master credentials. The
// caller must have captured host and port first.
func (b *Bootstrapper) Initialize(ctx context.Context, database *model.Database, template string) error {
	path := filepath.Join(b.templatesDir, template+".sql")
	script, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			b.logger.Warn().
				Str("database_id", database.ID).
				Str("template", template).
				Str("path", path).
				Msg("schema template not found")
			return fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return fmt.Errorf("read schema template %s: %w", path, err)
	}

	driver, dsn, err := connectionDSN(database)
	if err != nil {
		return err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s connection: %w", driver, err)
	}
	defer conn.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping %s: %w", database.InstanceIdentifier, err)
	}

	if _, err := conn.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("execute schema template %s: %w", template, err)
	}

	b.logger.Info().
		Str("database_id", database.ID).
		Str("template", template).
		Msg("schema initialized")
	return nil
}

// connectionDSN builds the driver name and DSN for the database's engine.
func connectionDSN(database *model.Database) (driver, dsn string, err error) {
	if database.Host == nil || database.Port == nil {
		return "", "", fmt.Errorf("database %s has no endpoint yet", database.ID)
	}

	switch database.Engine {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(database.Username, database.Password),
			Host:     fmt.Sprintf("%s:%d", *database.Host, *database.Port),
			Path:     database.DatabaseName,
			RawQuery: "sslmode=prefer",
		}
		return "pgx", u.String(), nil
	case "mysql", "mariadb":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?multiStatements=true",
			database.Username, database.Password, *database.Host, *database.Port, database.DatabaseName), nil
	default:
		return "", "", fmt.Errorf("unsupported engine %q", database.Engine)
	}
}
