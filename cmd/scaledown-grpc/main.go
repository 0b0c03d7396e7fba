package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poly-workshop/go-webmods/app"
	"github.com/poly-workshop/scaledown-gateway/internal/application/gateway"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/auth"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/config"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/health"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/llmprovider/dashscope"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/llmprovider/gemini"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/server/grpcserver"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/transport/grpcadapter"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/videocallback"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs"
	}
	app.InitWithConfigPath("scaledown-grpc", configPath)

	cfg, err := config.LoadGRPC()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geminiProvider := gemini.NewProvider(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Timeout)
	if !geminiProvider.Configured() {
		slog.Warn("gemini api key is empty; generation calls will fail until API_KEY is set")
	}
	providers := map[string]gateway.TextProvider{
		"gemini": geminiProvider,
		"dashscope": dashscope.NewProvider(
			cfg.Providers.DashScope.BaseURL,
			cfg.Providers.DashScope.APIKey,
			cfg.Providers.DashScope.Timeout,
		),
	}

	var observer gateway.VideoObserver
	if cfg.Video.CallbackURL != "" {
		observer = videocallback.New(cfg.Video.CallbackURL, nil, 0)
	}

	appSvc := gateway.NewService(providers, geminiProvider, gateway.Options{
		Models: gateway.ModelSet{
			Reasoning:   cfg.Models.Reasoning,
			Compression: cfg.Models.Compression,
			Video:       cfg.Models.Video,
		},
		APIKey: cfg.Gemini.APIKey,
		Poll: gateway.PollPolicy{
			Interval: cfg.Video.PollInterval,
			MaxPolls: cfg.Video.MaxPolls,
			MaxWait:  cfg.Video.MaxWait,
		},
		Observer: observer,
	})
	convs := gateway.NewConversations(appSvc, gateway.WithIdleTTL(cfg.Chat.IdleTTL))

	serviceTokens := make([]auth.ServiceToken, 0, len(cfg.Auth.ServiceTokens))
	for _, t := range cfg.Auth.ServiceTokens {
		serviceTokens = append(serviceTokens, auth.ServiceToken{Name: t.Name, Token: t.Token})
	}
	authMgr := auth.NewManager(serviceTokens)

	grpcSrv, err := grpcserver.New(cfg.GRPC.Listen, grpcadapter.NewGatewayService(appSvc, convs), authMgr)
	if err != nil {
		slog.Error("create grpc server failed", "error", err)
		os.Exit(1)
	}

	healthMux := http.NewServeMux()
	health.Register(healthMux, health.All(
		health.ServingChecker("grpc server", grpcSrv.Serving),
		health.ConfiguredChecker("gemini api key", geminiProvider.Configured),
	))
	healthSrv := &http.Server{
		Addr:              cfg.Health.Listen,
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcSrv.Start()
	}()
	go func() {
		slog.Info("health listening", "addr", cfg.Health.Listen)
		errCh <- healthSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthSrv.Shutdown(shutdownCtx)
		_ = grpcSrv.Stop(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server exited", "error", err)
			os.Exit(1)
		}
	}
}
