// Package dialect connects rendered sqlscope statements to database drivers.
//
// A Dialect pairs a bind naming scheme with the way its driver expects
// arguments: positional values for $1 and ? placeholders, sql.Named values
// for :name and @name placeholders.
//
//	d := dialect.Postgres
//	engine := d.Engine()
//	q := engine.Query(script).SetCondition("id", sqlscope.Is, sqlscope.Number(7))
//	rows, err := dialect.QueryContext(ctx, db, d, q)
//
// The package does not import any driver. Register the driver a Dialect
// names (blank import) in the program that opens the database.
package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pthm/sqlscope"
)

// ErrUnknownDialect is returned by Lookup for names no dialect answers to.
var ErrUnknownDialect = errors.New("unknown dialect")

// ErrNoDriver is returned by Open for dialects without a bundled driver.
var ErrNoDriver = errors.New("dialect has no database/sql driver")

// Dialect describes how one DBMS receives bind parameters.
type Dialect struct {
	// Name identifies the dialect in configuration.
	Name string
	// Driver is the database/sql driver name, empty when none is bundled.
	Driver string
	// Hints enable the DBMS's quoting extensions in scripts.
	Hints sqlscope.Hints
	// Namer writes the DBMS's placeholder syntax.
	Namer sqlscope.BindNamer

	aliases []string
	named   bool
}

var (
	// Postgres uses $n placeholders through the pgx stdlib driver.
	Postgres = Dialect{
		Name:    "postgres",
		Driver:  "pgx",
		Hints:   sqlscope.HintPostgres,
		Namer:   sqlscope.DollarNamer,
		aliases: []string{"postgresql", "pgx"},
	}

	// PostgresPQ uses $n placeholders through lib/pq.
	PostgresPQ = Dialect{
		Name:    "postgres-pq",
		Driver:  "postgres",
		Hints:   sqlscope.HintPostgres,
		Namer:   sqlscope.DollarNamer,
		aliases: []string{"pq", "libpq"},
	}

	// MySQL uses positional ? placeholders.
	MySQL = Dialect{
		Name:    "mysql",
		Driver:  "mysql",
		Namer:   sqlscope.QuestionNamer,
		aliases: []string{"mariadb"},
	}

	// SQLServer uses @name placeholders bound with sql.Named.
	SQLServer = Dialect{
		Name:    "sqlserver",
		Driver:  "sqlserver",
		Namer:   sqlscope.AtNamer,
		aliases: []string{"mssql"},
		named:   true,
	}

	// SQLite uses :name placeholders bound with sql.Named.
	SQLite = Dialect{
		Name:    "sqlite",
		Driver:  "sqlite",
		Namer:   sqlscope.ColonNamer,
		aliases: []string{"sqlite3"},
		named:   true,
	}

	// Oracle uses :name placeholders and q'[...]' quoting. No driver is
	// bundled; render with it and execute through a driver of your choice.
	Oracle = Dialect{
		Name:  "oracle",
		Hints: sqlscope.HintOracle,
		Namer: sqlscope.ColonNamer,
		named: true,
	}
)

// All returns every built-in dialect.
func All() []Dialect {
	return []Dialect{Postgres, PostgresPQ, PgxNamed, MySQL, SQLServer, SQLite, Oracle}
}

// Names returns the names of the built-in dialects, sorted.
func Names() []string {
	var names []string
	for _, d := range All() {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the dialect answering to name or one of its aliases.
func Lookup(name string) (Dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, d := range All() {
		if d.Name == key {
			return d, nil
		}
		for _, a := range d.aliases {
			if a == key {
				return d, nil
			}
		}
	}
	return Dialect{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownDialect, name, strings.Join(Names(), ", "))
}

// String returns the dialect name.
func (d Dialect) String() string {
	return d.Name
}

// Named reports whether arguments are passed as sql.Named values.
func (d Dialect) Named() bool {
	return d.named
}

// Engine returns an engine that writes this dialect's placeholders and
// recognizes its quoting. opts are applied after the dialect's own options.
func (d Dialect) Engine(opts ...sqlscope.Option) *sqlscope.Engine {
	base := []sqlscope.Option{
		sqlscope.WithBindNamer(d.Namer),
		sqlscope.WithHints(d.Hints),
	}
	return sqlscope.New(append(base, opts...)...)
}

// Args shapes bind parameters for the driver.
func (d Dialect) Args(params []sqlscope.BindParameter) []any {
	args := make([]any, len(params))
	for i, p := range params {
		if d.named {
			args[i] = sql.Named(p.Name, p.Value)
		} else {
			args[i] = p.Value
		}
	}
	return args
}

// Render returns the statement text of q and its driver arguments. q must
// come from an engine using this dialect's namer.
func (d Dialect) Render(q *sqlscope.Query) (string, []any, error) {
	text, err := q.SQL()
	if err != nil {
		return "", nil, err
	}
	return text, d.Args(q.Parameters()), nil
}

// Open opens a database handle with the dialect's driver and verifies the
// connection.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	if d.Driver == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoDriver, d.Name)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.Name, err)
	}
	return db, nil
}

// QueryContext renders q and runs it on db.
func QueryContext(ctx context.Context, db Execer, d Dialect, q *sqlscope.Query) (*sql.Rows, error) {
	text, args, err := d.Render(q)
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, text, args...)
}

// ExecContext renders q and executes it on db.
func ExecContext(ctx context.Context, db Execer, d Dialect, q *sqlscope.Query) (sql.Result, error) {
	text, args, err := d.Render(q)
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, text, args...)
}
