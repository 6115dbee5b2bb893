package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pthm/sqlscope"
	"github.com/pthm/sqlscope/pkg/dialect"
)

const (
	maxWalkDepth = 25
)

// Config represents the sqlscope configuration from sqlscope.yaml.
type Config struct {
	// Dialect names the target DBMS; see dialect.Lookup.
	Dialect string `mapstructure:"dialect" json:"dialect"`

	Hints     HintsConfig     `mapstructure:"hints" json:"hints"`
	Cache     CacheConfig     `mapstructure:"cache" json:"cache"`
	Variables VariablesConfig `mapstructure:"variables" json:"variables"`
	Database  DatabaseConfig  `mapstructure:"database" json:"database"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
}

// HintsConfig enables DBMS quoting extensions on top of the dialect's own.
type HintsConfig struct {
	Oracle   bool `mapstructure:"oracle" json:"oracle"`
	Postgres bool `mapstructure:"postgres" json:"postgres"`
}

// CacheConfig sizes the parse cache.
type CacheConfig struct {
	Capacity int `mapstructure:"capacity" json:"capacity"`
}

// VariablesConfig controls screening of inlined variables.
type VariablesConfig struct {
	Strict bool `mapstructure:"strict" json:"strict"`
}

// DatabaseConfig holds database connection settings for exec.
type DatabaseConfig struct {
	URL    string `mapstructure:"url" json:"url"`
	Driver string `mapstructure:"driver" json:"driver,omitempty"`

	// Discrete Postgres settings, used when URL is empty.
	Host     string `mapstructure:"host" json:"host,omitempty"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name,omitempty"`
	User     string `mapstructure:"user" json:"user,omitempty"`
	Password string `mapstructure:"password" json:"-"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SQLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "postgres")

	v.SetDefault("hints.oracle", false)
	v.SetDefault("hints.postgres", false)

	v.SetDefault("cache.capacity", sqlscope.DefaultCacheCapacity)

	v.SetDefault("variables.strict", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	v.SetDefault("log.level", "warn")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for sqlscope.yaml or sqlscope.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"sqlscope.yaml", "sqlscope.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root.
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// ResolvedDialect returns the configured dialect with database.driver, when
// set, replacing the dialect's own driver name.
func (c *Config) ResolvedDialect() (dialect.Dialect, error) {
	d, err := dialect.Lookup(c.Dialect)
	if err != nil {
		return dialect.Dialect{}, err
	}
	if c.Database.Driver != "" {
		d.Driver = c.Database.Driver
	}
	return d, nil
}

// EngineHints returns the hints enabled by the hints section. They are
// added to the dialect's own hints.
func (c *Config) EngineHints() sqlscope.Hints {
	var h sqlscope.Hints
	if c.Hints.Oracle {
		h |= sqlscope.HintOracle
	}
	if c.Hints.Postgres {
		h |= sqlscope.HintPostgres
	}
	return h
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a Postgres DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if !strings.HasPrefix(strings.ToLower(c.Dialect), "postgres") && !strings.EqualFold(c.Dialect, "pgx") {
		return "", fmt.Errorf("database.url is required for dialect %s", c.Dialect)
	}
	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
