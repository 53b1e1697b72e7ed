package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ragloc/internal/config"
	"ragloc/internal/domain"
	"ragloc/internal/embedding"
	"ragloc/internal/logging"
	"ragloc/internal/repl"
	"ragloc/internal/service"
	"ragloc/internal/tui"
)

func run(cmd *cobra.Command, args []string, opts options) error {
	ctx := cmd.Context()
	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, cmd, opts, args)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	metric, err := domain.ParseMetric(cfg.Index.Metric)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded", zap.String("path", cfgPath), zap.Strings("inputs", cfg.Input.Paths))

	provider, closeProvider, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	builder, err := selectBackend(ctx, cfg, metric, logger)
	if err != nil {
		return err
	}

	svcOpts := []service.Option{
		service.WithLexicalFallback(cfg.Retrieve.LexicalFallback),
		service.WithLogger(logger),
	}
	if sum := buildSummarizer(cfg); sum != nil {
		svcOpts = append(svcOpts, service.WithSummarizer(sum, cfg.Summarizer.MaxSentences))
	}
	composer, err := buildComposer(cfg, logger)
	if err != nil {
		return err
	}
	if composer != nil {
		svcOpts = append(svcOpts, service.WithComposer(composer))
	}
	bar := newProgress(os.Stderr)
	svcOpts = append(svcOpts, service.WithProgress(bar))

	batch := 0
	if cfg.Embedder.OpenAI != nil {
		batch = cfg.Embedder.OpenAI.BatchSize
	}
	enc := embedding.NewEncoder(provider, metric,
		embedding.WithBatchSize(batch),
		embedding.WithLogger(logger),
	)
	svc := service.NewRAGService(buildChunker(cfg), enc, builder, svcOpts...)

	summary, err := svc.IngestDocuments(ctx, cfg.Input.Paths)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	st := svc.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d documents into %d chunks (embedder=%s, backend=%s, metric=%s, dim=%d)\n",
		st.Documents, st.Chunks, st.Embedder, st.Backend, st.Metric, st.Dimension)
	if summary != "" {
		fmt.Fprintf(out, "Summary: %s\n", summary)
	}

	if opts.tui {
		final, err := tea.NewProgram(tui.New(ctx, svc, cfg.Retrieve.TopK, summary), tea.WithContext(ctx)).Run()
		if err != nil {
			return err
		}
		if m, ok := final.(tui.Model); ok {
			return m.Err()
		}
		return nil
	}
	return repl.New(svc, cfg.Retrieve.TopK, out).Run(ctx, cmd.InOrStdin())
}

func loadConfig(path string) (*config.AppConfig, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	return config.LoadDefault()
}

// applyOverrides lets explicitly set flags and positional paths win over the
// config file.
func applyOverrides(cfg *config.AppConfig, cmd *cobra.Command, opts options, args []string) {
	if len(args) > 0 {
		cfg.Input.Paths = args
	}
	f := cmd.Flags()
	if f.Changed("top-k") {
		cfg.Retrieve.TopK = opts.topK
	}
	if f.Changed("metric") {
		cfg.Index.Metric = opts.metric
	}
	if f.Changed("backend") {
		cfg.Index.Backend = opts.backend
	}
	if opts.noGenerate {
		cfg.Generator.Type = "none"
	}
	if opts.debug {
		cfg.Logging.Debug = true
	}
}

// newProgress returns a progress callback that lazily creates a bar once the
// total is known.
func newProgress(w io.Writer) func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
			)
		}
		_ = bar.Set(done)
	}
}
