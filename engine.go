package sqlscope

import (
	"go.uber.org/zap"

	"github.com/pthm/sqlscope/internal/markup"
)

// Engine holds the configuration shared by queries: parse cache, bind
// naming, hints, globals and logging. It is safe for concurrent use; create
// one per application and a Query per statement.
type Engine struct {
	cache   *ParseCache
	namer   BindNamer
	logger  *zap.Logger
	hints   Hints
	globals globals
	strict  bool

	anonymous bool
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	cache    *ParseCache
	cacheSet bool
	namer    BindNamer
	logger   *zap.Logger
	hints    Hints
	globals  map[string]string
	strict   bool
}

// WithCache sets the parse cache. Several engines may share one cache.
// A nil cache disables caching: every parse tokenizes the script.
func WithCache(c *ParseCache) Option {
	return func(cfg *engineConfig) {
		cfg.cache = c
		cfg.cacheSet = true
	}
}

// WithBindNamer sets the bind parameter naming scheme. Defaults to ColonNamer.
func WithBindNamer(n BindNamer) Option {
	return func(cfg *engineConfig) {
		if n != nil {
			cfg.namer = n
		}
	}
}

// WithLogger sets the logger. Cache activity, declined parameters and minted
// bind parameters are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *engineConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithHints sets the default hints of new queries.
func WithHints(h Hints) Option {
	return func(cfg *engineConfig) {
		cfg.hints = h
	}
}

// WithGlobals adds or overrides [Global.key] entries. Keys are matched
// case-insensitively.
func WithGlobals(m map[string]string) Option {
	return func(cfg *engineConfig) {
		if cfg.globals == nil {
			cfg.globals = make(map[string]string, len(m))
		}
		for k, v := range m {
			cfg.globals[k] = v
		}
	}
}

// WithStrictVariables makes variables that look like SQL injection fail the
// query instead of logging a warning.
func WithStrictVariables(strict bool) Option {
	return func(cfg *engineConfig) {
		cfg.strict = strict
	}
}

// New creates an engine. Without WithCache it owns a private cache of
// DefaultCacheCapacity entries.
func New(opts ...Option) *Engine {
	cfg := &engineConfig{
		namer:  ColonNamer,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.cacheSet {
		cfg.cache = NewParseCache()
	}
	return &Engine{
		cache:   cfg.cache,
		namer:   cfg.namer,
		logger:  cfg.logger,
		hints:   cfg.hints,
		globals: newGlobals(cfg.globals),
		strict:  cfg.strict,

		anonymous: IsAnonymous(cfg.namer),
	}
}

// Query starts a statement for script using the engine's default hints.
func (e *Engine) Query(script string) *Query {
	return &Query{
		engine:     e,
		script:     script,
		hints:      e.hints,
		conditions: make(map[string]*condition),
		variables:  make(map[string]variable),
	}
}

// Cache returns the engine's parse cache, or nil when caching is disabled.
func (e *Engine) Cache() *ParseCache {
	return e.cache
}

// Validate tokenizes script with the engine's hints and returns any
// *TokenizeError. Valid scripts are added to the cache.
func (e *Engine) Validate(script string) error {
	_, err := e.parse(script, e.hints)
	return err
}

func (e *Engine) parse(script string, hints Hints) (*markup.Tree, error) {
	if e.cache == nil {
		return markup.Tokenize(script, hints)
	}
	tree, hit, cleared, err := e.cache.load(cacheKey{script: script, hints: hints})
	if err != nil {
		return nil, err
	}
	if cleared {
		e.logger.Debug("parse cache full, cleared", zap.Int("capacity", e.cache.Capacity()))
	}
	e.logger.Debug("parse cache lookup", zap.Bool("hit", hit), zap.Int("script_len", len(script)))
	return tree, nil
}
