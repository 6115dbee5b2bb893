package test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlscope"
	"github.com/pthm/sqlscope/pkg/dialect"
	"github.com/pthm/sqlscope/test/testutil"
)

const ordersScript = `SELECT o.id
FROM orders o
JOIN customers c ON c.id = o.customer_id
{WHERE {o.customer_id [customer]}
  {o.status [status]}
  {c.name [name]}
  {o.total [total]}
  {o.paid [paid]}
  {o.created_at [created]}
  {o.shipped_at [shipped]}
  @{({o.status [either]} {o.total [over]})}}
ORDER BY o.id`

func orderIDs(t *testing.T, rows *sql.Rows) []int64 {
	t.Helper()
	defer func() { _ = rows.Close() }()
	ids := []int64{}
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestPostgres_Conditions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	ctx := context.Background()
	engine := dialect.Postgres.Engine()

	tests := []struct {
		name       string
		conditions func(q *sqlscope.Query)
		want       []int64
	}{
		{
			name:       "no conditions",
			conditions: func(*sqlscope.Query) {},
			want:       []int64{10, 11, 12, 13, 14},
		},
		{
			name: "any of",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("customer", sqlscope.IsAnyOf, sqlscope.Number(1, 2))
			},
			want: []int64{10, 11, 12},
		},
		{
			name: "single element list collapses",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("customer", sqlscope.IsAnyOf, sqlscope.Number(3))
			},
			want: []int64{13, 14},
		},
		{
			name: "string match and not equal",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("name", sqlscope.Contains, sqlscope.String("Hop").Match(sqlscope.MatchAnywhere)).
					SetCondition("status", sqlscope.IsNot, sqlscope.String("shipped"))
			},
			want: []int64{14},
		},
		{
			name: "between",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("total", sqlscope.IsBetween, sqlscope.Number(30, 130))
			},
			want: []int64{10, 11, 14},
		},
		{
			name: "bool",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("paid", sqlscope.Is, sqlscope.Bool(false))
			},
			want: []int64{11, 12},
		},
		{
			name: "dates",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("created", sqlscope.IsGreaterThanOrEqualTo,
					sqlscope.Date(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)))
			},
			want: []int64{12, 13, 14},
		},
		{
			name: "null",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("shipped", sqlscope.IsNot, sqlscope.NullDate()).
					SetCondition("created", sqlscope.IsLessThan, sqlscope.Expr("now()"))
			},
			want: []int64{10, 13},
		},
		{
			name: "or scope",
			conditions: func(q *sqlscope.Query) {
				q.SetCondition("either", sqlscope.Is, sqlscope.String("cancelled")).
					SetCondition("over", sqlscope.IsGreaterThan, sqlscope.Number(400))
			},
			want: []int64{12, 13},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := engine.Query(ordersScript)
			tt.conditions(q)
			rows, err := dialect.QueryContext(ctx, db, dialect.Postgres, q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, orderIDs(t, rows))
		})
	}
}

func TestPostgres_CompoundParameter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	q := dialect.Postgres.Engine().
		Query("SELECT id FROM orders {WHERE ({status [status.Item|OR]})} ORDER BY id").
		SetCondition("status", sqlscope.IsAnyOf, sqlscope.String("pending", "cancelled"))

	text, err := q.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM orders WHERE (status = $1 OR status = $2) ORDER BY id", text)

	rows, err := dialect.QueryContext(context.Background(), db, dialect.Postgres, q)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12, 14}, orderIDs(t, rows))
}

func TestPostgres_DollarQuoting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	q := dialect.Postgres.Engine().
		Query("SELECT $tag${not [markup]}$tag$ AS raw FROM orders {WHERE id [id]}").
		SetCondition("id", sqlscope.Is, sqlscope.Number(10))

	var raw string
	text, args, err := dialect.Postgres.Render(q)
	require.NoError(t, err)
	require.NoError(t, db.QueryRowContext(context.Background(), text, args...).Scan(&raw))
	assert.Equal(t, "{not [markup]}", raw)
}

func TestPostgres_LibPQ(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := dialect.Open(ctx, dialect.PostgresPQ, testutil.DSN(t))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	q := dialect.PostgresPQ.Engine().
		Query("UPDATE orders SET status = 'archived' {WHERE {status [status]} {created_at [before]}}").
		SetCondition("status", sqlscope.Is, sqlscope.String("cancelled")).
		SetCondition("before", sqlscope.IsLessThan, sqlscope.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	res, err := dialect.ExecContext(ctx, db, dialect.PostgresPQ, q)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPostgres_PgxNamedArgs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db := testutil.DB(t)
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	q := dialect.PgxNamed.Engine().
		Query("SELECT id FROM orders {WHERE {customer_id [customer]} {paid [paid]}} ORDER BY id").
		SetCondition("customer", sqlscope.IsAnyOf, sqlscope.Number(1, 3)).
		SetCondition("paid", sqlscope.Is, sqlscope.Bool(true))

	var ids []int64
	err = conn.Raw(func(driverConn any) error {
		rows, err := dialect.QueryPgx(ctx, driverConn.(*stdlib.Conn).Conn(), q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 13, 14}, ids)
}

func TestPostgres_CopyRows(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db := testutil.DB(t)

	rows := make([][]any, 0, 100)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 100 {
		rows = append(rows, []any{int64(1000 + i), int64(2), "bulk", float64(i), false, created})
	}
	n, err := testutil.CopyRows(ctx, db, "orders",
		[]string{"id", "customer_id", "status", "total", "paid", "created_at"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)

	q := dialect.Postgres.Engine().
		Query("SELECT count(*) FROM orders {WHERE {status [status]} {total [total]}}").
		SetCondition("status", sqlscope.Is, sqlscope.String("bulk")).
		SetCondition("total", sqlscope.IsLessThan, sqlscope.Number(10))
	text, args, err := dialect.Postgres.Render(q)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, text, args...).Scan(&count))
	assert.Equal(t, 10, count)
}
