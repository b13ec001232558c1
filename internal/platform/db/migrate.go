package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies pending schema migrations from the given directory.
// A DSN with the postgres:// scheme is rewritten for the pgx/v5 driver.
func Migrate(dsn, migrationsPath string) error {
	if migrationsPath == "" {
		return nil
	}
	url := dsn
	if len(url) > 11 && url[:11] == "postgres://" {
		url = "pgx5://" + url[11:]
	}
	m, err := migrate.New("file://"+migrationsPath, url)
	if err != nil {
		return fmt.Errorf("platform/db: init migrations: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: apply migrations: %w", err)
	}
	return nil
}
