package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kinderslides/kinderslides/internal/monitoring"
)

var (
	servePort  int
	serveTopic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port

		catalog, err := loadCatalog(serveTopic)
		if err != nil {
			return err
		}

		env, err := initResolver(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		deps := serverDeps{
			Resolver:    env.Resolver,
			Catalog:     catalog,
			Session:     env.Session,
			Backend:     env.Backend,
			CORSOrigins: cfg.Server.CORSOrigins,
		}

		var checker *monitoring.Checker
		if env.Store != nil {
			deps.History = env.Store
			deps.Collector = monitoring.NewCollector(env.Store, env.Session)
			checker = monitoring.NewChecker(deps.Collector, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
			// Resolutions walk several queries and profiles.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  120 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if checker != nil {
			g.Go(func() error {
				checker.Run(gctx)
				return nil
			})
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveTopic, "file", "", "custom topics file (.yaml, .yml or .xlsx)")
	rootCmd.AddCommand(serveCmd)
}
