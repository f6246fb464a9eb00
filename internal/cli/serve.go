package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dimconv/internal/convert"
	"dimconv/internal/httpserver"
	"dimconv/internal/metrics"
	"dimconv/internal/web"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web form and the /api/convert proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (env HTTP_ADDR, default :8080)")
	_ = a.v.BindPFlag("http_addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(parent context.Context) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel, os.Stdout)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	service, err := newService(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	page, err := web.NewPage(web.PageDeps{
		Converter: service,
		Catalog:   service.Catalog(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:  logger,
		Metrics: m,
		Page:    page,
		Static:  web.Static(),
		Convert: convert.Handler(service),
		Formats: convert.FormatsHandler(service.Catalog()),
	})

	// WriteTimeout должен быть больше таймаута исходящего клиента.
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("provider", cfg.LLM.Provider),
			slog.String("model", cfg.LLM.Model),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
