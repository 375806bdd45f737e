package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/adapters/chat"
	"github.com/target/storefront-go/internal/apiclient"
	"github.com/target/storefront-go/internal/observability/statsd"
	"github.com/target/storefront-go/internal/service"
)

// App holds every client-side service, wired to one session.
type App struct {
	Config      config.AppConfig
	Logger      *slog.Logger
	Storage     *Storage
	Metrics     *statsd.Client
	Session     *service.SessionService
	Cart        *service.CartService
	Catalog     *service.CatalogService
	Reviews     *service.ReviewService
	Orders      *service.OrderService
	Profile     *service.ProfileService
	Preferences *service.PreferenceService
	Guard       service.Guard
	Chat        *chat.Dialer
}

// AppOptions overrides parts of the default wiring.
type AppOptions struct {
	Logger *slog.Logger
	// Storage replaces the configured backend. It is closed with the App.
	Storage *Storage
	// APIOptions is passed to apiclient.New; Logger and Metrics are filled in when empty.
	APIOptions apiclient.Options
}

// BuildApp assembles the services described by cfg.
func BuildApp(ctx context.Context, cfg config.AppConfig, opts AppOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	storage := opts.Storage
	if storage == nil {
		var err error
		storage, err = BuildStore(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("build storage: %w", err)
		}
	}

	metricsClient, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		// Metrics are best-effort; keep going with a discarding client.
		logger.WarnContext(ctx, "statsd unavailable, metrics disabled", "error", err)
		metricsClient, _ = statsd.NewClient(statsd.Config{Logger: logger})
	}

	apiOpts := opts.APIOptions
	if apiOpts.Logger == nil {
		apiOpts.Logger = logger
	}
	if apiOpts.Metrics == nil {
		apiOpts.Metrics = metricsClient
	}
	base, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, apiOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("api client: %w", err), storage.Close(), metricsClient.Close())
	}

	session := service.NewSessionService(service.SessionServiceOptions{
		Client: base,
		Store:  storage.Store,
		Config: service.SessionServiceConfig{
			HydratePolicy: cfg.Session.HydratePolicy,
			Logger:        logger,
			Metrics:       metricsClient,
		},
	})

	dialer, err := chat.NewDialer(chat.DialerOptions{
		BaseURL: cfg.API.WSBaseURL,
		Tokens:  session.TokenSource(),
		Logger:  logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("chat dialer: %w", err), storage.Close(), metricsClient.Close())
	}

	cart := service.NewCartService(service.CartServiceOptions{
		Session: session,
		Store:   storage.Store,
		Config:  service.CartServiceConfig{LineItemsExpr: cfg.Cart.LineItemsExpr, Logger: logger},
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: storage,
		Metrics: metricsClient,
		Session: session,
		Cart:    cart,
		Catalog: service.NewCatalogService(service.CatalogServiceOptions{
			Session: session,
			Staff:   session,
			Logger:  logger,
		}),
		Reviews:     service.NewReviewService(service.ReviewServiceOptions{Session: session}),
		Orders:      service.NewOrderService(service.OrderServiceOptions{Session: session, Cart: cart, Logger: logger}),
		Profile:     service.NewProfileService(service.ProfileServiceOptions{Session: session}),
		Preferences: service.NewPreferenceService(service.PreferenceServiceOptions{Store: storage.Store, Config: cfg.Preferences}),
		Guard:       service.NewGuard(),
		Chat:        dialer,
	}, nil
}

// Close flushes metrics and releases storage connections.
func (a *App) Close() error {
	return errors.Join(a.Metrics.Close(), a.Storage.Close())
}
