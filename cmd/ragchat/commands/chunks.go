package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/internal/domain"
)

func NewChunksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks [file]",
		Short: "Print how a corpus file is chunked",
		Long: `Split a corpus file with the configured separator, header marker and
chunker and print the resulting chunks. Defaults to corpus.path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := cfg.Corpus.Path
			if len(args) == 1 {
				path = args[0]
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return &domain.CorpusLoadError{Path: path, Err: err}
			}
			ch, err := newChunker(cfg)
			if err != nil {
				return err
			}
			chunks, err := ch.Chunk(domain.Document{ID: "corpus", Path: path, Content: string(data)})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range chunks {
				fmt.Fprintf(out, "[%d] %s\n", c.Index, strings.ReplaceAll(c.Text, "\n", "\n    "))
			}
			fmt.Fprintf(out, "%d chunks\n", len(chunks))
			return nil
		},
	}
	return cmd
}
