// Package bootstrap wires configuration into a ready underwriting engine and
// its optional storage and notification services.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/services/cache"
	"loan-underwriting-engine/internal/services/database"
	s3service "loan-underwriting-engine/internal/services/s3"
	"loan-underwriting-engine/internal/services/ses"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/underwriting"
	"loan-underwriting-engine/internal/utils"
)

// CacheTTL bounds how stale a read-through Redis entry may get.
const CacheTTL = 10 * time.Minute

// App holds every long-lived dependency of a process.
type App struct {
	Config      *config.Config
	Engine      *underwriting.Engine
	DB          *database.DB
	Evaluations *database.EvaluationRepository
	Standards   *database.StandardsRepository
	Redis       *redis.Client
	Objects     *s3service.Service
	Notifier    *ses.Service

	lenders []underwriting.Lender
	source  standards.Source
}

// Option customizes New.
type Option func(*App)

// WithLenders replaces the default lender panel.
func WithLenders(lenders []underwriting.Lender) Option {
	return func(a *App) { a.lenders = lenders }
}

// WithSource forces a standards source instead of the configured one.
func WithSource(source standards.Source) Option {
	return func(a *App) { a.source = source }
}

// New connects whatever cfg enables and builds the engine. Unreachable
// backing stores are logged and skipped: the engine still runs on the
// default standards table.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	logger := utils.GetLogger()
	app := &App{Config: cfg}
	for _, opt := range opts {
		opt(app)
	}

	if cfg.HasDatabase() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			logger.Warn("Database unavailable, continuing without persistence", zap.Error(err))
		} else {
			app.DB = db
			app.Evaluations = database.NewEvaluationRepository(db)
			app.Standards = database.NewStandardsRepository(db)
		}
	}

	if cfg.RedisAddr != "" {
		app.Redis = cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	if cfg.StandardsSource == config.SourceS3 || cfg.S3Bucket != "" {
		svc, err := s3service.NewService(ctx, cfg)
		if err != nil {
			logger.Warn("S3 unavailable", zap.Error(err))
		} else {
			app.Objects = svc
		}
	}

	if cfg.SESSenderEmail != "" {
		notifier, err := ses.NewService(ctx, cfg)
		if err != nil {
			logger.Warn("SES unavailable, decision emails disabled", zap.Error(err))
		} else {
			app.Notifier = notifier
		}
	}

	source := app.source
	if source == nil {
		var err error
		if source, err = app.NewSource(); err != nil {
			app.Close()
			return nil, err
		}
	}

	engineOpts := []underwriting.Option{
		underwriting.WithStressPolicy(StressPolicy(cfg)),
		underwriting.WithLogger(logger),
	}
	if len(app.lenders) > 0 {
		engineOpts = append(engineOpts, underwriting.WithLenders(app.lenders))
	}
	app.Engine = underwriting.NewEngine(standards.NewResolver(source, standards.WithLogger(logger)), engineOpts...)

	logger.Info("Underwriting engine ready",
		zap.String("standards_source", cfg.StandardsSource),
		zap.Bool("database", app.DB != nil),
		zap.Bool("redis", app.Redis != nil),
		zap.Bool("notifications", app.Notifier != nil),
	)

	return app, nil
}

// NewSource builds the standards source named by STANDARDS_SOURCE. A Redis
// source reads through to PostgreSQL when a database is connected.
func (a *App) NewSource() (standards.Source, error) {
	switch a.Config.StandardsSource {
	case "", config.SourceDefaults:
		return standards.EmptySource{}, nil

	case config.SourcePostgres:
		if a.DB == nil {
			return standards.EmptySource{}, nil
		}
		return a.Standards, nil

	case config.SourcePostgresFunction:
		if a.DB == nil {
			return standards.EmptySource{}, nil
		}
		return database.NewStandardsFunctionSource(a.DB), nil

	case config.SourceRedis:
		if a.Redis == nil {
			return nil, fmt.Errorf("standards source %q requires REDIS_ADDR", config.SourceRedis)
		}
		var opts []cache.Option
		if a.DB != nil {
			opts = append(opts, cache.WithFallthrough(a.Standards, CacheTTL))
		}
		return cache.NewRedisSource(a.Redis, opts...), nil

	case config.SourceS3:
		if a.Objects == nil {
			return standards.EmptySource{}, nil
		}
		return s3service.NewSnapshotSource(a.Objects, a.Config.StandardsS3Key, s3service.DefaultRefresh), nil

	default:
		return nil, fmt.Errorf("unknown standards source %q", a.Config.StandardsSource)
	}
}

// StressPolicy returns the configured stress scenario.
func StressPolicy(cfg *config.Config) underwriting.StressPolicy {
	policy := underwriting.DefaultStressPolicy()
	if cfg.StressMortgageRate > 0 {
		policy.MortgageRate = cfg.StressMortgageRate
	}
	if cfg.StressCreditMargin >= 0 {
		policy.CreditMargin = cfg.StressCreditMargin
	}
	return policy
}

// Close releases every connection the app opened.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
