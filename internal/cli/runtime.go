package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storefront-console/storefront/internal/api"
	"github.com/storefront-console/storefront/internal/auth"
	"github.com/storefront-console/storefront/internal/config"
	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/logging"
	"github.com/storefront-console/storefront/internal/metrics"
)

const msgNotSignedIn = "You are not signed in. Run 'storefront login' first."

// runtime is the composition root of one command invocation.
type runtime struct {
	manager  *config.Manager
	cfg      *config.Config
	logger   *logging.Logger
	theme    interfaces.Theme
	store    interfaces.TokenStore
	session  *auth.Session
	client   *api.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	closeStore func() error
}

// openRuntime loads configuration and wires the logger, token store,
// session, metrics and API client.
func openRuntime(ctx context.Context, opts *options) (*runtime, error) {
	bootstrapLogging(opts.debug)

	manager, err := config.NewManager(config.WithConfigPath(opts.configPath))
	if err != nil {
		return nil, err
	}
	cfg, err := manager.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}

	logger, err := newLogger(cfg.Log, opts.debug, manager.LogPath())
	if err != nil {
		return nil, err
	}
	logging.SetGlobalLogger(logger)

	var (
		store      interfaces.TokenStore
		closeStore func() error
	)
	err = logger.WithComponent("auth").LogOperation("open token store", func() error {
		var openErr error
		store, closeStore, openErr = auth.OpenStore(ctx, cfg.TokenStore, manager.DataDir())
		return openErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	session := auth.NewSession(store, cfg.TokenStore.Backend).WithLogger(logger.WithComponent("auth"))

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	client, err := api.NewClient(api.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RatePerSecond: cfg.API.RatePerSecond,
		Burst:         cfg.API.Burst,
		Tokens:        session,
		Observer:      m,
		Logger:        logger.WithComponent("api"),
	})
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	return &runtime{
		manager:    manager,
		cfg:        cfg,
		logger:     logger.WithComponent("cli"),
		theme:      config.ThemeFor(cfg.Theme),
		store:      store,
		session:    session,
		client:     client,
		registry:   registry,
		metrics:    m,
		closeStore: closeStore,
	}, nil
}

// bootstrapLogging covers configuration loading, before the log file is
// known. Without --debug it is silent; load errors are returned anyway.
func bootstrapLogging(debug bool) {
	cfg := logging.Config{Level: logging.WarnLevel, Format: "text", Output: "discard"}
	if debug {
		cfg.Level, cfg.Output = logging.DebugLevel, "stderr"
	}
	_ = logging.InitGlobalLogger(cfg)
}

// newLogger writes to the log file so command output and the UI stay clean.
// --debug sends everything to stderr instead.
func newLogger(cfg config.LogConfig, debug bool, defaultFile string) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Level)
	format := cfg.Format
	output := cfg.File
	if output == "" {
		output = defaultFile
	}
	if format == "pretty" {
		// No colour codes in files.
		format = "text"
	}

	if debug {
		level, output, format = logging.DebugLevel, "stderr", cfg.Format
	}
	return logging.NewLogger(logging.Config{Level: level, Format: format, Output: output})
}

func (rt *runtime) Close() {
	if err := rt.closeStore(); err != nil {
		rt.logger.Warn("Failed to close token store", "error", err.Error())
	}
}

// handler creates an operation handler reporting to this runtime's metrics.
func (rt *runtime) handler(overrides apperrors.Messages) *apperrors.Handler {
	return apperrors.NewHandler(overrides,
		apperrors.WithObserver(rt.metrics),
		apperrors.WithLogger(rt.logger.WithComponent("errors")),
	)
}

// requireSession fails with an AUTH error when nobody is signed in.
func (rt *runtime) requireSession(ctx context.Context, label string) error {
	if rt.session.CheckSession(ctx) {
		return nil
	}
	return apperrors.NewClassifiedError(&apperrors.LocalFault{Message: msgNotSignedIn}).
		WithCategory(apperrors.CategoryAuth).
		WithContext(label).
		WithLogger(rt.logger.WithComponent("errors")).
		Build()
}

// run executes op under h and returns the classified error on failure.
func run[T any](ctx context.Context, h *apperrors.Handler, label string, op func(context.Context) (T, error)) (T, error) {
	result, err := apperrors.Execute(ctx, h, op, label)
	if err != nil {
		if ce := h.CurrentError(); ce != nil {
			return result, ce
		}
		return result, err
	}
	return result, nil
}
