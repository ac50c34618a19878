// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

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

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/chatroom/internal/api"
	"github.com/holomush/chatroom/internal/auth"
	"github.com/holomush/chatroom/internal/chat"
	"github.com/holomush/chatroom/internal/observability"
)

// NewServeCmd creates the serve subcommand. A nil deps uses the defaults.
func NewServeCmd(opts *rootOptions, deps *ServeDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chatroom API server",
		Long: `Start the HTTP API server. Metrics and health probes are served on a
separate listener (metrics.addr) unless it is empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, cmd, deps.withDefaults())
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions, cmd *cobra.Command, deps *ServeDeps) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate config").Wrap(err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}
	gin.SetMode(gin.ReleaseMode)

	logger.Info("starting chatroom server",
		"http_addr", cfg.HTTP.Addr,
		"driver", cfg.Database.Driver,
		"log_format", cfg.Log.Format)

	st, err := deps.StoreFactory(ctx, cfg, logger)
	if err != nil {
		return oops.With("operation", "open store").Wrap(err)
	}
	defer st.Close()

	tokens, err := auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return oops.With("operation", "create token issuer").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serviceDeps := chat.Deps{
		Users:    st.Users,
		Rooms:    st.Rooms,
		Messages: st.Messages,
		Hasher:   auth.NewArgon2idHasherWithParams(cfg.Auth.Argon2.Params()),
		Tokens:   tokens,
		Logger:   logger,
	}
	routerCfg := api.Config{Tokens: tokens, Logger: logger}

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, map[string]observability.ReadinessCheck{
			"database": st.Ping,
		}, logger)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)

		serviceDeps.Metrics = obsServer.Metrics()
		routerCfg.Metrics = obsServer.Metrics()
	}

	svc, err := chat.NewService(serviceDeps)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.With("operation", "create chat service").Wrap(err)
	}
	routerCfg.Service = svc

	router, err := api.NewRouter(routerCfg)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.With("operation", "create router").Wrap(err)
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.With("operation", "listen").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Chatroom server started")
	logger.Info("chatroom server ready", "http_addr", listener.Addr().String())

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		serveErr = oops.With("operation", "serve http").Wrap(err)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}

func stopObservability(srv ObservabilityServer, logger *slog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when an error arrives, the channel closes or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
