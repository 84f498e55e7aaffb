package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/webaudit/internal/api"
	"github.com/khanhnv2901/webaudit/internal/cache"
	"github.com/khanhnv2901/webaudit/internal/localapi"
	"github.com/khanhnv2901/webaudit/internal/orchestrator"
	"github.com/khanhnv2901/webaudit/internal/prober"
	"github.com/khanhnv2901/webaudit/internal/psi"
	"github.com/khanhnv2901/webaudit/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit engine as an HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		rateBurst, _ := cmd.Flags().GetInt("rate-burst")
		snapshotDir, _ := cmd.Flags().GetString("snapshot-dir")
		notifyTo, _ := cmd.Flags().GetString("lead-notify-to")
		resendFrom, _ := cmd.Flags().GetString("resend-from")

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		cfg := currentEngineConfig()

		var psiClient orchestrator.PSIClient
		if cfg.PSIAPIKey != "" {
			psiClient = psi.New(cfg.PSIAPIKey)
		}

		orc := orchestrator.New(prober.New(), orchestrator.Options{
			OverallBudget: budgetDuration(cfg.BudgetMs),
			PSI:           psiClient,
			Debug:         cfg.Debug,
		})

		store, err := snapshot.NewDiskStore(snapshotDir, cfg.BlobPublicURL)
		if err != nil {
			return fmt.Errorf("failed to init snapshot store: %w", err)
		}

		mailer := localapi.NewResendMailer(cfg.ResendAPIKey, resendFrom)

		server := api.NewServer(api.Config{
			Orchestrator:     orc,
			Cache:            cache.New(cacheTTLDuration(cfg.CacheTTLMs)),
			Snapshots:        store,
			ShareBase:        cfg.ShareBase,
			LeadHandler:      &localapi.LeadHandler{Mailer: mailer, NotifyTo: notifyTo, Logger: logger},
			RenderPDFHandler: &localapi.RenderPDFHandler{Mailer: mailer, Logger: logger},
			Logger:           logger,
			CORSOrigins:      corsOrigins,
			RateLimit:        rateLimit,
			RateBurst:        rateBurst,
		})

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("%s audit engine listening on %s\n", colorInfo("→"), addr)
			fmt.Printf("%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Printf("\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}
			fmt.Printf("%s Server shutdown complete\n", colorSuccess("✓"))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address for the HTTP server")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	serveCmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().Int("rate-limit", 10, "Rate limit per IP for /lead and /send-pdf (requests/second, 0 = disabled)")
	serveCmd.Flags().Int("rate-burst", 20, "Rate limit burst size")
	serveCmd.Flags().String("snapshot-dir", "./snapshots", "Directory for saved report snapshots")
	serveCmd.Flags().String("lead-notify-to", "", "Address that receives /lead notifications")
	serveCmd.Flags().String("resend-from", "audits@example.com", "From address used for outbound transactional email")
}
