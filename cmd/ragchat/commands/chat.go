package commands

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragchat/internal/client"
	"ragchat/internal/logging"
	"ragchat/internal/tui"
)

func NewChatCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		Long: `Open an interactive chat. With --server the questions go to a running
ragchat server; otherwise the corpus is loaded and embedded in-process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var (
				port    tui.ChatPort
				title   string
				summary string
			)
			if serverURL != "" {
				c := client.New(serverURL, cfg.Server.RequestTimeout()+cfg.Server.RequestTimeout()/2)
				info, err := c.Corpus(ctx)
				if err != nil {
					return fmt.Errorf("reach server: %w", err)
				}
				port, title, summary = c, "ragchat "+serverURL, info.Summary
			} else {
				// Keep log output off the terminal the TUI draws on.
				log := logging.NewWriter(io.Discard, cfg.Log.Level, cfg.Log.Format)
				a, err := buildApp(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer a.Close()
				info, err := a.rag.LoadCorpus(ctx)
				if err != nil {
					return err
				}
				port, title, summary = a.chat, "ragchat "+info.Source, info.Summary
			}

			m := tui.New(port, title, summary, cfg.Server.RequestTimeout())
			_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running ragchat server, e.g. http://localhost:5000")
	return cmd
}
