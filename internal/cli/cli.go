// Package cli implements the graphscope command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/buildinfo"
	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/config"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/session"
	"github.com/matzehuels/graphscope/pkg/store"
	"github.com/matzehuels/graphscope/pkg/store/file"
	"github.com/matzehuels/graphscope/pkg/store/mongo"
	"github.com/matzehuels/graphscope/pkg/store/remote"
	"github.com/matzehuels/graphscope/pkg/store/sqlite"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "graphscope"

	// Store backend names, as written in the config file.
	backendFile   = "file"
	backendSQLite = "sqlite"
	backendMongo  = "mongo"
	backendRemote = "remote"

	// Cache backend names.
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	out        io.Writer
}

// New creates a new CLI instance with a default logger and default config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Graphscope explores large entity graphs one neighbourhood at a time",
		Long: `Graphscope renders an entity-relationship graph progressively: only source
documents and their direct neighbours are shown at first, and further nodes are
revealed by expanding them one hop at a time.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.neighboursCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file before any command runs.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	var (
		cfg config.Config
		err error
	)
	if c.configPath != "" {
		if _, statErr := os.Stat(c.configPath); statErr != nil {
			return fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.LoadFrom(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	c.Config = cfg
	c.Logger.Debug("loaded config", "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	if ttl := c.Config.Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case cacheNone:
		return cache.NewNullCache(), nil
	case cacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
			Prefix:   appName + ":",
		})
	default:
		dir, err := c.cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Store Factory
// =============================================================================

// openStore opens the configured graph store. A non-empty path overrides the
// configured file or database path. Lookups are observed and, unless noCache
// is set, cached in the configured cache backend.
func (c *CLI) openStore(ctx context.Context, path string, noCache bool) (store.Store, error) {
	cfg := c.Config.Store
	if path != "" {
		cfg.Path = path
		if cfg.Backend != backendSQLite {
			cfg.Backend = backendFile
		}
	}

	s, err := c.openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s = store.Observed(s, cfg.Backend)

	// A file store already reloads on change, so caching it would only serve
	// stale data.
	if noCache || cfg.Backend == backendFile {
		return s, nil
	}
	cc, err := c.newCache(ctx, false)
	if err != nil {
		c.Logger.Warn("store cache unavailable", "err", err)
		return s, nil
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), storeScope(cfg))
	return &cachedStore{Store: store.Cached(s, cc, keyer, cfg.Backend), cache: cc}, nil
}

// storeScope names the graph a store serves, so lookups against two
// databases or endpoints never share cache entries.
func storeScope(cfg config.StoreConfig) string {
	loc := cfg.Path
	switch cfg.Backend {
	case backendMongo:
		loc = cfg.URI + "/" + cfg.Database
	case backendRemote:
		loc = cfg.URL + "/" + cfg.Database
	}
	return "graph:" + cache.Hash([]byte(loc))[:12] + ":"
}

func (c *CLI) openBackend(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case backendFile:
		return file.Open(cfg.Path)
	case backendSQLite:
		return sqlite.Open(ctx, cfg.Path)
	case backendMongo:
		return mongo.Connect(ctx, mongo.Config{
			URI:            cfg.URI,
			Database:       cfg.Database,
			ConnectTimeout: cfg.Timeout.Duration,
		})
	case backendRemote:
		return remote.New(remote.Config{
			URL:       cfg.URL,
			URI:       cfg.URI,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Database:  cfg.Database,
			Documents: cfg.Documents,
			Timeout:   cfg.Timeout.Duration,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

// cachedStore closes the lookup cache together with the store.
type cachedStore struct {
	store.Store
	cache cache.Cache
}

func (s *cachedStore) Close() error {
	err := s.Store.Close()
	if cerr := s.cache.Close(); err == nil {
		err = cerr
	}
	return err
}

// =============================================================================
// Session Factory
// =============================================================================

// openSessions opens the configured session store.
func (c *CLI) openSessions(ctx context.Context) (session.Store, error) {
	cfg := c.Config.Session
	switch cfg.Backend {
	case session.BackendFile:
		return session.NewFileStore(cfg.Dir)
	case session.BackendRedis:
		return session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
		})
	default:
		return session.NewMemoryStore(), nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/graphscope/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderDefaults returns pipeline options seeded from the config file.
func (c *CLI) renderDefaults() pipeline.Options {
	return pipeline.Options{
		Layout: c.Config.Render.Layout,
		View:   c.Config.Render.View,
		Height: c.Config.Render.Height,
		Logger: c.Logger,
	}
}

// parseList splits a comma-separated flag value, dropping empty items.
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
