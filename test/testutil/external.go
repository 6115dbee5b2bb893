package testutil

import (
	"net"
	"net/url"
	"os"
	"strconv"
)

// ExternalDatabase points the integration tests at a running PostgreSQL
// server instead of a container.
type ExternalDatabase struct {
	// DSN is the admin connection string. Catalog databases are created
	// next to the one it names.
	DSN string
	// PoolSize caps open connections per test database; zero leaves the
	// database/sql default.
	PoolSize int
}

// ExternalDatabaseFromEnv reads SQLSCOPE_TEST_DSN (or DATABASE_URL), or
// assembles a DSN from SQLSCOPE_TEST_PGHOST and its siblings. A zero value
// means the tests start their own container.
func ExternalDatabaseFromEnv() ExternalDatabase {
	pool := poolSize(os.Getenv("SQLSCOPE_TEST_POOL_SIZE"))
	for _, key := range []string{"SQLSCOPE_TEST_DSN", "DATABASE_URL"} {
		if dsn := os.Getenv(key); dsn != "" {
			return ExternalDatabase{DSN: dsn, PoolSize: pool}
		}
	}

	host := os.Getenv("SQLSCOPE_TEST_PGHOST")
	if host == "" {
		return ExternalDatabase{}
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, envOr("SQLSCOPE_TEST_PGPORT", "5432")),
		Path:   "/" + envOr("SQLSCOPE_TEST_PGDATABASE", "postgres"),
	}
	user := envOr("SQLSCOPE_TEST_PGUSER", "postgres")
	if pw := os.Getenv("SQLSCOPE_TEST_PGPASSWORD"); pw != "" {
		u.User = url.UserPassword(user, pw)
	} else {
		u.User = url.User(user)
	}
	u.RawQuery = url.Values{"sslmode": {envOr("SQLSCOPE_TEST_PGSSLMODE", "disable")}}.Encode()
	return ExternalDatabase{DSN: u.String(), PoolSize: pool}
}

// poolSize parses a pool size; anything but a positive integer means no cap.
func poolSize(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// replaceDBName swaps the database in a URL DSN, keeping its parameters.
func replaceDBName(dsn, db string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}
	u.Path = "/" + db
	u.RawPath = ""
	return u.String()
}
