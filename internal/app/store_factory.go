package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hum-Bao/canvas-enable-totals/internal/store"
	"github.com/Hum-Bao/canvas-enable-totals/internal/store/postgres"
	"github.com/Hum-Bao/canvas-enable-totals/internal/store/redisstore"
	"github.com/Hum-Bao/canvas-enable-totals/internal/store/sqlite"
)

const sqlitePrefix = "sqlite://"

// DetectDatabaseType maps a DSN to a backend. Anything unrecognised is a sqlite path.
func DetectDatabaseType(dsn string) store.DatabaseType {
	switch {
	case strings.HasPrefix(dsn, "postgres"):
		return store.DBTypePostgres
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return store.DBTypeRedis
	default:
		return store.DBTypeSQLite
	}
}

func NewStore(ctx context.Context, dsn, migrationsDir string) (store.SettingsStore, error) {
	var (
		s   store.SettingsStore
		err error
	)

	switch DetectDatabaseType(dsn) {
	case store.DBTypePostgres:
		s, err = postgres.NewPostgresStore(dsn, migrationsDir)
	case store.DBTypeRedis:
		s, err = redisstore.NewRedisStore(ctx, dsn)
	case store.DBTypeSQLite:
		s, err = sqlite.NewSQLiteStore(&store.DBConfig{
			DSN:           strings.TrimPrefix(dsn, sqlitePrefix),
			Type:          store.DBTypeSQLite,
			MigrationsDir: migrationsDir,
		})
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}

	if err != nil {
		return nil, err
	}
	return s, nil
}
