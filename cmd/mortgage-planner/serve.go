package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/mortgage-planner/internal/config"
	"github.com/iwvelando/mortgage-planner/internal/server"
	"github.com/iwvelando/mortgage-planner/internal/store"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var (
		serverConfigPath string
		address          string
		noStore          bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts, serverConfigPath, address, noStore)
		},
	}
	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "addr", "", "listen address override")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "serve without a persistent store")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options, serverConfigPath, address string, noStore bool) error {
	srvCfg, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		return err
	}
	if address != "" {
		srvCfg.Address = address
	}

	logger, err := initializeLogger(srvCfg.Logging, opts.logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo *store.Repository
	if !noStore {
		app, err := opts.loadAppConfig()
		if err != nil {
			return err
		}
		kv, err := store.Open(ctx, app.Store, config.DataDir())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := kv.Close(); closeErr != nil {
				logger.Warn("failed to close store",
					zap.String("op", "main.runServe"),
					zap.Error(closeErr),
				)
			}
		}()
		repo = store.NewRepository(kv, logger)
	}

	httpServer := &http.Server{
		Addr:              srvCfg.Address,
		Handler:           server.NewHandler(logger, repo, srvCfg.UploadSizeBytes(), srvCfg.Version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main.runServe"),
			zap.String("address", srvCfg.Address),
			zap.Int64("max_upload_bytes", srvCfg.UploadSizeBytes()),
			zap.Bool("store", repo != nil),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main.runServe"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
