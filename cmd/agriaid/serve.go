package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/agriaid/agriaid/agent"
	"github.com/agriaid/agriaid/compose"
	"github.com/agriaid/agriaid/config"
	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
	"github.com/agriaid/agriaid/metrics"
	"github.com/agriaid/agriaid/model"
	anthropicmodel "github.com/agriaid/agriaid/model/anthropic"
	openaimodel "github.com/agriaid/agriaid/model/openai"
	"github.com/agriaid/agriaid/orchestrator"
	"github.com/agriaid/agriaid/provider"
	"github.com/agriaid/agriaid/registry"
	"github.com/agriaid/agriaid/router"
	"github.com/agriaid/agriaid/session"
	"github.com/agriaid/agriaid/transport"
	"github.com/agriaid/agriaid/webhook"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the SMS webhook and pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg).WithContext("service", "agriaid")

	store, err := registry.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer store.Close()

	mdl, err := buildModel(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	sessions := session.NewInMemoryStore(func(o *session.Options) {
		o.TTL = cfg.SessionTTL
		o.MaxInteractions = cfg.SessionMaxInteractions
		o.Logger = logger.WithComponent("session")
	})

	gateway := provider.NewGateway(buildProviders(cfg, store), func(o *provider.GatewayOptions) {
		o.Timeout = cfg.ProviderTimeout
		o.Retry = map[core.ProviderTag]*provider.RetryPolicy{
			core.TagWeather: provider.DefaultRetryPolicy(),
			core.TagSoil:    provider.DefaultRetryPolicy(),
			core.TagNDVI:    provider.DefaultRetryPolicy(),
		}
		o.Logger = logger.WithComponent("gateway")
	})

	rt := router.New(func(o *router.Options) {
		o.Registrations = store
		o.Logger = logger.WithComponent("router")
	})

	ag := agent.New(mdl, func(o *agent.Options) {
		o.Counter = agent.NewTokenCounter(mdl.Info().Name)
		o.Logger = logger.WithComponent("agent")
	})

	composer := compose.New(func(o *compose.Options) { o.MaxLength = cfg.SMSMaxLength })

	sender := transport.NewAfricasTalking(func(o *transport.AfricasTalkingOptions) {
		if cfg.ATBaseURL != "" {
			o.BaseURL = cfg.ATBaseURL
		}
		o.Username = cfg.ATUsername
		o.APIKey = cfg.ATAPIKey
		o.SenderID = cfg.ATSenderID
		o.Logger = logger.WithComponent("transport")
	})

	orch := orchestrator.New(sessions, rt, gateway, ag, composer, sender, func(o *orchestrator.Options) {
		o.MaxInteractions = cfg.SessionMaxInteractions
		o.Logger = logger.WithComponent("orchestrator")
		o.Metrics = m
	})

	hooks := webhook.NewServer(orch, func(o *webhook.Options) { o.Logger = logger.WithComponent("webhook") })

	mux := http.NewServeMux()
	mux.Handle("/", hooks.Routes())
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "model", mdl.Info().Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	orch.Stop()
	return nil
}

func buildProviders(cfg *config.Config, store *registry.Store) []provider.Provider {
	providers := []provider.Provider{
		provider.NewAgrovetLookup(store),
		provider.NewSoil(),
	}
	if cal, err := provider.NewCropCalendar(); err == nil {
		providers = append(providers, cal)
	}
	if cfg.OpenWeatherAPIKey != "" {
		providers = append(providers, provider.NewWeather(func(o *provider.WeatherOptions) {
			o.APIKey = cfg.OpenWeatherAPIKey
		}))
	}
	if cfg.NDVIBaseURL != "" {
		providers = append(providers, provider.NewNDVI(func(o *provider.NDVIOptions) {
			o.BaseURL = cfg.NDVIBaseURL
		}))
	}
	return providers
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.ModelProvider {
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.AnthropicAPIKey
		}), nil
	case "mock":
		return model.NewMockModel("local-mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func newLogger(cfg *config.Config) *logging.AgriAidLogger {
	level := logging.LogLevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = logging.LogLevelDebug
	case "warn":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewSlogLogger(level, cfg.LogFormat, false)
}
