package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alrobwilloliver/ytdigest/internal/digest"
	"github.com/alrobwilloliver/ytdigest/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the summarize and transcript endpoints plus the summary library.

Set YTDIGEST_SERVER_KEY to require an API key (X-API-Key or Bearer token).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := digest.Open(ctx, cfg, logger, digest.Parts{Summarizer: true, Library: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			logger.Info("starting server",
				slog.String("addr", cfg.Server.Addr),
				slog.String("provider", svc.Provider.Name()),
				slog.String("summarizer", cfg.Summarizer.Backend))

			return server.New(svc, svc.Library, cfg.Server, logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: :8080)")
	return cmd
}
