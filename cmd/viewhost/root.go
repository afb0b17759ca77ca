package main

import (
	"fmt"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/viewhost"
	"github.com/aretw0/viewhost/internal/logging"
	"github.com/aretw0/viewhost/pkg/adapters/bolt"
	"github.com/aretw0/viewhost/pkg/adapters/memory"
	"github.com/aretw0/viewhost/pkg/adapters/redis"
	"github.com/aretw0/viewhost/pkg/adapters/sim"
	"github.com/aretw0/viewhost/pkg/config"
	"github.com/aretw0/viewhost/pkg/content"
	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "viewhost",
	Short: "viewhost hosts declarative documents on a simulated view",
	Long: `viewhost prepares and renders documents, queues their commands and keeps a
backstack of displaced documents. It can replay YAML scenarios or serve an HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Configuration file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// openCache builds the package cache named by the configuration. The returned
// close func is never nil.
func openCache(cfg config.CacheConfig) (ports.PackageCache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.CacheNone:
		return nil, noop, nil
	case config.CacheRedis:
		opts := []redis.Option{redis.WithTTL(cfg.TTL)}
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		redisOpts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("parse redis url: %w", err)
		}
		c := redis.NewFromClient(goredis.NewClient(redisOpts), opts...)
		return c, c.Close, nil
	case config.CacheBolt:
		c, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		return memory.NewCache(), noop, nil
	}
}

type host struct {
	vh     *viewhost.Viewhost
	engine *sim.Engine
	closer func() error
}

func (h *host) Close() {
	h.vh.Destroy()
	_ = h.closer()
}

// newHost wires a Viewhost on the simulated engine from cfg.
func newHost(cfg config.Config, logger *slog.Logger, opts ...viewhost.Option) (*host, error) {
	cache, closeCache, err := openCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open package cache: %w", err)
	}
	loaderOpts := []content.Option{
		content.WithLogger(logger),
		content.WithBaseURL(cfg.Packages.BaseURL),
		content.WithConcurrency(cfg.Packages.Concurrency),
	}
	if cache != nil {
		loaderOpts = append(loaderOpts, content.WithCache(cache))
	}
	if cfg.Packages.Dir != "" {
		loaderOpts = append(loaderOpts, content.WithOverride(content.DirOverride(cfg.Packages.Dir)))
	}

	engine := sim.NewEngine(sim.WithLogger(logger))
	opts = append([]viewhost.Option{
		viewhost.WithConfig(cfg),
		viewhost.WithLogger(logger),
		viewhost.WithPackageLoader(content.NewLoader(loaderOpts...)),
	}, opts...)
	vh, err := viewhost.New(engine, opts...)
	if err != nil {
		_ = closeCache()
		return nil, err
	}
	return &host{vh: vh, engine: engine, closer: closeCache}, nil
}

// logHooks logs lifecycle events at debug level.
func logHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(e *domain.StateEvent) {
			logger.Debug("document state", "token", e.Token, "from", e.From, "to", e.To)
		},
		OnMilestone: func(e *domain.MilestoneEvent) {
			logger.Debug("document milestone", "token", e.Token, "milestone", e.Milestone, "elapsed", e.Elapsed)
		},
		OnBackstack: func(e *domain.BackstackEvent) {
			logger.Debug("backstack", "action", e.Action, "backstack_id", e.ID, "depth", e.Depth)
		},
	}
}

