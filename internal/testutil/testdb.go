package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"career-bingo/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const initMigration = "000001_init.up.sql"

var testSchemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SchemaDSN creates a throwaway schema on TEST_POSTGRES_DSN, loads the init
// migration into it and returns a DSN whose search_path points there. The
// schema is dropped in t.Cleanup. Without TEST_POSTGRES_DSN the test is
// skipped.
func SchemaDSN(t *testing.T) string {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	ctx := context.Background()
	schema := fmt.Sprintf("bingo_test_%d", time.Now().UnixNano())

	createSQL, err := schemaDDL("CREATE SCHEMA %s", schema)
	if err != nil {
		t.Fatalf("invalid schema name: %v", err)
	}
	if err := execSQL(ctx, cfg.TestPostgresDSN, createSQL); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if dropSQL, err := schemaDDL("DROP SCHEMA %s CASCADE", schema); err == nil {
			_ = execSQL(context.Background(), cfg.TestPostgresDSN, dropSQL)
		}
	})

	dsn := withSearchPath(cfg.TestPostgresDSN, schema)
	ddl, err := readInitMigration()
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if err := execSQL(ctx, dsn, ddl); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return dsn
}

func execSQL(ctx context.Context, dsn, sql string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	_, err = pool.Exec(ctx, sql)
	return err
}

// readInitMigration walks up from the working directory until it finds
// migrations/.
func readInitMigration() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, "migrations", initMigration)
		if b, err := os.ReadFile(p); err == nil {
			return string(b), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found from %s", initMigration, dir)
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

func schemaDDL(format, schema string) (string, error) {
	if !testSchemaNamePattern.MatchString(schema) {
		return "", fmt.Errorf("schema %q does not match required pattern", schema)
	}
	return fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()), nil
}
