package dialect

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pthm/sqlscope"
)

// PgxNamed renders @name placeholders for pgx's native named arguments.
// Use it with QueryPgx and ExecPgx rather than database/sql.
var PgxNamed = Dialect{
	Name:   "pgx-named",
	Driver: "pgx",
	Hints:  sqlscope.HintPostgres,
	Namer:  sqlscope.AtNamer,
}

// PgxQuerier is implemented by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NamedArgs converts bind parameters into pgx named arguments.
func NamedArgs(params []sqlscope.BindParameter) pgx.NamedArgs {
	args := make(pgx.NamedArgs, len(params))
	for _, p := range params {
		args[p.Name] = p.Value
	}
	return args
}

// QueryPgx renders q and runs it on conn with named arguments. q must come
// from PgxNamed.Engine().
func QueryPgx(ctx context.Context, conn PgxQuerier, q *sqlscope.Query) (pgx.Rows, error) {
	text, err := q.SQL()
	if err != nil {
		return nil, err
	}
	return conn.Query(ctx, text, NamedArgs(q.Parameters()))
}

// ExecPgx renders q and executes it on conn with named arguments.
func ExecPgx(ctx context.Context, conn PgxQuerier, q *sqlscope.Query) (pgconn.CommandTag, error) {
	text, err := q.SQL()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return conn.Exec(ctx, text, NamedArgs(q.Parameters()))
}
