package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragchat/internal/config"
)

var cfgPath string

// NewRootCmd creates the ragchat root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragchat",
		Short: "Retrieval-augmented chat over a plain-text corpus",
		Long: `ragchat answers questions from a small text corpus.

The corpus is split on a separator line, embedded once at startup and kept
in memory. Each question retrieves the closest passages and sends them with
the conversation to a generation provider.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/ragchat/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewChunksCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}
