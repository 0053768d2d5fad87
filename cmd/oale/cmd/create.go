package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openauslaw/oale/internal/config"
	"github.com/openauslaw/oale/internal/pipeline"
	"github.com/openauslaw/oale/internal/ui"
)

func newCreateCmd() *cobra.Command {
	var (
		configPath         string
		input              string
		output             string
		model              string
		backend            string
		chunkSize          int
		chunkingBatchSize  int
		embeddingBatchSize int
		workers            int
		noTUI              bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create or update the embeddings from the corpus",
		Long: `Create or update the derived embeddings store.

The corpus is compared against any existing store: records whose document
left the corpus are removed, records damaged by an interrupted run are
removed along with the rest of their document, and only documents without
an intact set of records are chunked and embedded.

Changing the model or chunk size invalidates the existing store, which is
rebuilt from scratch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags override the config file.
			if cmd.Flags().Changed("input") {
				cfg.CorpusPath = input
			}
			if cmd.Flags().Changed("output") {
				cfg.DataDir = output
			}
			if cmd.Flags().Changed("model") {
				cfg.Model = model
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backend = backend
			}
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("chunking-batch-size") {
				cfg.ChunkingBatchSize = chunkingBatchSize
			}
			if cmd.Flags().Changed("embedding-batch-size") {
				cfg.EmbeddingBatchSize = embeddingBatchSize
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Absolutize(); err != nil {
				return err
			}

			renderer := ui.NewRenderer(ui.Config{
				Output:     cmd.OutOrStdout(),
				ForcePlain: noTUI,
			})
			if err := renderer.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = renderer.Stop() }()

			runner := pipeline.NewRunner(cfg, slog.Default(), renderer)
			_, err = runner.Run(ctx)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "oale.yaml", "Path to YAML config file")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to the corpus JSONL file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Directory for the derived stores")
	cmd.Flags().StringVar(&model, "model", "", "Embedding model identifier")
	cmd.Flags().StringVar(&backend, "backend", "", "Embedding backend: ollama or static")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximum tokens per chunk, header included")
	cmd.Flags().IntVar(&chunkingBatchSize, "chunking-batch-size", 0, "Documents per chunking batch")
	cmd.Flags().IntVar(&embeddingBatchSize, "embedding-batch-size", 0, "Chunks per embedding backend call")
	cmd.Flags().IntVar(&workers, "workers", 0, "Chunking worker pool size")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}
