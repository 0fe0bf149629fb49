package container

import (
	"context"
	"fmt"
	"time"

	"upgradify/internal/config"
	"upgradify/internal/dashboard"
	"upgradify/internal/handler"
	"upgradify/internal/metrics"
	"upgradify/internal/middleware"
	"upgradify/internal/repository"
	"upgradify/internal/service"
	"upgradify/internal/service/auth"
	"upgradify/internal/session"
	"upgradify/pkg/database"
	"upgradify/pkg/logger"
	"upgradify/pkg/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB

	Registry  *prometheus.Registry
	Metrics   *metrics.Collector
	Federator *auth.GoogleFederator
	Provider  service.IdentityProvider
	Profiles  repository.ProfileRepository
	Store     *session.Store
	Content   dashboard.ContentProvider
}

// New creates a new dependency injection container. Redis is optional: if it
// cannot be reached the container proceeds without caching. A configured
// database that cannot be reached is an error.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   log,
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.NewCollector(c.Registry)

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	if err := c.initProfiles(ctx); err != nil {
		c.Close(ctx)
		return nil, err
	}

	if err := c.initProvider(); err != nil {
		c.Close(ctx)
		return nil, err
	}

	content, err := dashboard.NewStaticProvider()
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("failed to load dashboard content: %w", err)
	}
	c.Content = content

	c.Store = session.NewStore(c.Provider, c.Profiles, log,
		session.WithOperationTimeout(cfg.SessionOperationTimeout),
		session.WithObserver(c.Metrics),
	)

	return c, nil
}

func (c *Container) initProfiles(ctx context.Context) error {
	var profiles repository.ProfileRepository
	if c.Config.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, c.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
		profiles = repository.NewProfileRepository(db)
		c.Logger.Info("Using Postgres profile store")
	} else {
		profiles = repository.NewMemoryProfileRepository()
		c.Logger.Info("DATABASE_URL not configured, using in-memory profile store")
	}

	if c.RedisClient != nil {
		profiles = repository.NewCachedProfileRepository(profiles, c.RedisClient, c.Config.ProfileCacheTTL, c.Logger.Logger)
	}
	c.Profiles = profiles
	return nil
}

func (c *Container) initProvider() error {
	var federator auth.Federator
	if c.Config.GoogleEnabled() {
		googleCfg := auth.GoogleConfig{
			ClientID:     c.Config.GoogleClientID,
			ClientSecret: c.Config.GoogleClientSecret,
			RedirectURL:  c.Config.GoogleRedirectURL,
		}
		if !c.Config.OpenBrowser {
			googleCfg.OpenURL = func(url string) error {
				c.Logger.WithField("url", url).Info("Open this URL to continue Google sign-in")
				return nil
			}
		}
		c.Federator = auth.NewGoogleFederator(googleCfg, c.Logger)
		federator = c.Federator
	}

	switch c.Config.IdentityProvider {
	case config.ProviderSupabase:
		var tokens auth.TokenStore = auth.NewMemoryTokenStore()
		if c.RedisClient != nil {
			tokens = auth.NewRedisTokenStore(c.RedisClient)
		}
		c.Provider = auth.NewSupabaseProvider(auth.SupabaseConfig{
			URL:       c.Config.SupabaseURL,
			AnonKey:   c.Config.SupabaseAnonKey,
			JWTSecret: c.Config.SupabaseJWTSecret,
		}, federator, tokens, c.Logger)
	case config.ProviderLocal:
		c.Provider = auth.NewLocalProvider(federator, c.Logger)
	default:
		return fmt.Errorf("unknown identity provider %q", c.Config.IdentityProvider)
	}

	c.Logger.WithFields(map[string]interface{}{
		"provider": c.Config.IdentityProvider,
		"google":   c.Federator != nil,
	}).Info("Identity provider configured")
	return nil
}

// RouterConfig assembles the HTTP layer's dependencies
func (c *Container) RouterConfig() handler.RouterConfig {
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = c.Config.AllowedOrigins

	routerCfg := handler.RouterConfig{
		Store:                   c.Store,
		Content:                 c.Content,
		Observer:                c.Metrics,
		Logger:                  c.Logger,
		CORS:                    corsConfig,
		ReadyTimeout:            c.Config.ReadyTimeout,
		CredentialRatePerMinute: c.Config.CredentialRatePerMinute,
		HealthChecks:            c.HealthChecks(),
		HTTPMetrics:             c.Metrics,
		MetricsHandler:          metrics.Handler(c.Registry),
	}
	if c.Federator != nil {
		routerCfg.GoogleCallback = c.Federator.HandleCallback
	}
	return routerCfg
}

// HealthChecks returns probes for the configured backing services
func (c *Container) HealthChecks() []handler.HealthCheck {
	var checks []handler.HealthCheck
	if c.RedisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: c.RedisClient.Health})
	}
	if c.DB != nil {
		checks = append(checks, handler.HealthCheck{Name: "postgres", Check: c.DB.Health})
	}
	return checks
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Close disposes the Session Store and releases connections
func (c *Container) Close(ctx context.Context) {
	if c.Store != nil {
		c.Store.Dispose()
	}
	if cached, ok := c.Profiles.(*repository.CachedProfileRepository); ok {
		cached.Wait()
	}

	if c.RedisClient != nil {
		healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.RedisClient.Health(healthCtx); err != nil {
			c.Logger.WithError(err).Warn("Redis health check failed before closing")
		}
		cancel()

		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Error("Failed to close Redis connection")
		} else {
			c.Logger.Info("Redis connection closed successfully")
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection pool closed successfully")
	}
}
