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

	"github.com/sells-group/estate-cli/internal/generate"
	"github.com/sells-group/estate-cli/internal/records"
	"github.com/sells-group/estate-cli/internal/refresh"
	"github.com/sells-group/estate-cli/internal/scrape"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnswer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Make sure every configured city has something to answer from.
		if _, err := generate.All(env.Records, generate.Options{Cities: cfg.Scrape.Cities}); err != nil {
			zap.L().Warn("generate: initial data failed", zap.Error(err))
		}

		runner, err := scrape.FromConfig(cfg.Scrape, records.NewWriter(env.Records))
		if err != nil {
			return err
		}
		sched := refresh.NewScheduler(ctx, runner, cfg.Scrape, cfg.Data.Dir)
		sched.OnComplete = func(cities []string) {
			for _, c := range cities {
				env.Cache.Invalidate(c)
			}
		}
		go sched.Run()

		if cfg.Data.Watch {
			go func() {
				if err := env.Cache.Watch(ctx); err != nil {
					zap.L().Warn("records: watch failed", zap.Error(err))
				}
			}()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		h := &server{
			answers:    env.Pipeline,
			refresher:  sched,
			scraper:    runner,
			dataDir:    cfg.Data.Dir,
			freshHours: cfg.Scrape.FrequencyHours,
			cities:     cfg.Scrape.Cities,
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           h.routes(cfg.Server.CORSOrigins, time.Duration(cfg.Server.RequestTimeout)*time.Second),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		sched.Wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
