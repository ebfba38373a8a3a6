package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	api "github.com/mind-engage/examgrade/internal/api/http"
	authmw "github.com/mind-engage/examgrade/internal/auth/middleware"
	"github.com/mind-engage/examgrade/internal/config"
	"github.com/mind-engage/examgrade/internal/exam"
	"github.com/mind-engage/examgrade/internal/grading"
	"github.com/mind-engage/examgrade/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			cfg.HTTPAddr = v
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
}

func serve(parent context.Context, cfg config.Config) error {
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	be, err := openStore(openCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer be.close()

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if cfg.EnableMetrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	validator := grading.NewValidator(
		grading.WithCaseSensitive(cfg.GradingCaseSensitive),
		grading.WithLogger(log),
	)
	coord := exam.NewCoordinator(be.store, exam.NewScorer(validator),
		exam.WithLogger(log.Named("submit")),
		exam.WithMetrics(m),
		exam.WithSiteID(cfg.SiteID),
	)

	deps := api.Deps{
		Store:           be.store,
		Coordinator:     coord,
		Presenter:       exam.NewPresenter(),
		Auth:            authmw.NewAuthService(cfg.AuthSecret),
		Log:             log,
		EnableLocalAuth: cfg.EnableLocalAuth,
		Login: authmw.LoginConfig{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			AllowDevUsers: cfg.Mode == config.ModeOffline,
		},
		CORSOrigins: cfg.CORSOrigins(),
		Metrics:     m,
		Ready:       be.ready,
	}
	if reg != nil {
		deps.Gatherer = reg
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
