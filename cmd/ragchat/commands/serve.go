package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ragchat/internal/domain"
	"ragchat/internal/logging"
	"ragchat/internal/server"
)

func NewServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		Long: `Load and embed the corpus, then serve POST /api/chat.

A corpus that cannot be read is logged and the server starts with retrieval
disabled; chat requests then fail with "no corpus loaded" until
POST /api/corpus/refresh succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			log := logging.New(cfg.Log.Level, cfg.Log.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.rag.LoadCorpus(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				var loadErr *domain.CorpusLoadError
				if !errors.As(err, &loadErr) {
					log.Error("corpus embedding failed, retrieval disabled", "error", err)
				} else {
					log.Error("corpus not loaded, retrieval disabled", "path", loadErr.Path, "error", loadErr.Err)
				}
			}

			srv := server.New(a.chat, a.rag, server.Options{MaxBodyBytes: cfg.Server.MaxBodyBytes}, log)
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
