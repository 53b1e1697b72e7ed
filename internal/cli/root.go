// Package cli is the command-line entry point: it loads configuration,
// assembles the pipeline and hands control to the interactive loop.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	topK       int
	metric     string
	backend    string
	noGenerate bool
	tui        bool
	debug      bool
}

// NewRootCommand builds the rag command.
func NewRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "rag [files or globs...]",
		Short: "Ask questions about local text files",
		Long: `rag splits local text files into chunks, embeds them, builds a similarity
index once and then answers questions interactively from the most similar chunks.

Example usage:
  rag docs.txt                     # search one file
  rag "notes/**/*.md" -k 5         # search a glob, five chunks per query
  rag docs.txt --metric l2 --tui   # squared-L2 index, full-screen UI`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "path to YAML config file (default ./config.yaml, then ~/.config/rag/config.yaml)")
	f.IntVarP(&opts.topK, "top-k", "k", 0, "number of chunks retrieved per query")
	f.StringVar(&opts.metric, "metric", "", "similarity metric: ip, l2 or cosine")
	f.StringVar(&opts.backend, "backend", "", "index backend: auto, flat or qdrant")
	f.BoolVar(&opts.noGenerate, "no-generate", false, "print retrieved context only")
	f.BoolVar(&opts.tui, "tui", false, "run the full-screen terminal UI")
	f.BoolVar(&opts.debug, "debug", false, "human-readable debug logging")
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
