// Package testutil provides a PostgreSQL harness for sqlscope integration
// tests.
//
// A single container is started per test binary (or an external server named
// by SQLSCOPE_TEST_DSN is used). A template database is loaded with the
// catalog fixture once, and every DB call copies it into a fresh database
// dropped at cleanup.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed testdata/catalog.sql
var catalogSQL string

// Singleton container state
var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error

	templateOnce sync.Once
	templateName string
	templateErr  error
)

// ensureSingleton returns the admin DSN, starting the PostgreSQL container
// on first use unless the environment names an external server.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		if ext := ExternalDatabaseFromEnv(); ext.DSN != "" {
			singletonDSN = ext.DSN
			return
		}

		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		singletonDSN = dsn
		// Container is not stored - ryuk will handle cleanup automatically
	})

	return singletonDSN, singletonErr
}

// ensureTemplate creates the template database holding the catalog fixture.
func ensureTemplate(adminDSN string) (string, error) {
	templateOnce.Do(func() {
		templateName = uniqueDBName("sqlscope_template")

		if err := createDatabase(adminDSN, templateName, ""); err != nil {
			templateErr = fmt.Errorf("failed to create template database: %w", err)
			return
		}

		db, err := sql.Open("pgx", replaceDBName(adminDSN, templateName))
		if err != nil {
			templateErr = err
			return
		}
		defer func() { _ = db.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := db.ExecContext(ctx, catalogSQL); err != nil {
			templateErr = fmt.Errorf("loading catalog fixture: %w", err)
			return
		}
	})

	return templateName, templateErr
}

// DSN creates a fresh database holding the catalog fixture and returns its
// connection string: customers(id, name, email) and orders(id, customer_id,
// status, total, paid, created_at, shipped_at). The database is dropped when
// the test completes.
func DSN(tb testing.TB) string {
	tb.Helper()

	adminDSN, err := ensureSingleton()
	require.NoError(tb, err, "failed to start PostgreSQL")

	tmpl, err := ensureTemplate(adminDSN)
	require.NoError(tb, err, "failed to create template database")

	dbName := uniqueDBName("test")
	require.NoError(tb, createDatabase(adminDSN, dbName, tmpl), "failed to create test database")

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = dropDatabase(ctx, adminDSN, dbName)
	})

	return replaceDBName(adminDSN, dbName)
}

// DB returns a pgx-backed connection to a fresh catalog database.
// Works with both *testing.T and *testing.B.
func DB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := sql.Open("pgx", DSN(tb))
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping(), "failed to ping test database")
	if n := ExternalDatabaseFromEnv().PoolSize; n > 0 {
		db.SetMaxOpenConns(n)
	}

	// Registered after DSN's cleanup, so it runs before the drop.
	tb.Cleanup(func() { _ = db.Close() })

	return db
}

// CopyRows bulk-loads rows into table with COPY FROM through the pgx
// connection underneath db.
func CopyRows(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]any) (int64, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var n int64
	err = conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("not a pgx connection (got %T)", driverConn)
		}
		n, err = c.Conn().CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("COPY FROM %s: %w", table, err)
	}
	return n, nil
}

func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// createDatabase creates name, copied from template when one is given.
func createDatabase(adminDSN, name, template string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stmt := "CREATE DATABASE " + name
	if template != "" {
		// A template cannot be copied while anyone is connected to it.
		_, _ = db.Exec(`SELECT pg_terminate_backend(pid) FROM pg_stat_activity
			WHERE datname = $1 AND pid <> pg_backend_pid()`, template)
		stmt += " WITH TEMPLATE " + template
	}
	_, err = db.Exec(stmt)
	return err
}

func dropDatabase(ctx context.Context, adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)")
	return err
}
