package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/photoform/internal/batch"
	"github.com/lehigh-university-libraries/photoform/internal/metrics"
)

func newBatchCmd(flags *globalFlags) *cobra.Command {
	var (
		dataset     string
		outputDir   string
		concurrency int
		xlsx        bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render every form in a dataset of submissions",
		Long: `Renders one billing form per document in a Parquet or JSONL dataset.

Each row is one photo entry: document_id, kind, title, site_address, slot,
category, custom_text and photo_path. Photo paths are resolved against the
dataset directory. A manifest.yaml describing every rendered document is
written to the output directory.`,
		Example: `  # Render a parquet dataset
  photoform batch --dataset submissions.parquet --output forms/

  # JSONL input, 8 workers, PDF and XLSX
  photoform batch --dataset submissions.jsonl --output forms/ --concurrency 8 --xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			composer, err := newComposer(cfg)
			if err != nil {
				return err
			}

			loader := batch.NewLoader(dataset)
			rows, err := loader.Load()
			if err != nil {
				return err
			}

			docs, err := batch.Group(rows)
			if err != nil {
				return fmt.Errorf("failed to group rows: %w", err)
			}
			slog.Info("Dataset loaded", "dataset", dataset, "rows", len(rows), "documents", len(docs))

			runner, err := batch.NewRunner(batch.RunnerConfig{
				Composer:    composer,
				OutputDir:   outputDir,
				Concurrency: concurrency,
				XLSX:        xlsx,
				Metrics:     metrics.New(prometheus.NewRegistry()),
			})
			if err != nil {
				return err
			}

			manifest, err := runner.Run(cmd.Context(), dataset, docs, loader.Dir())
			if err != nil {
				return err
			}

			failed := manifest.Failed()
			slog.Info("Batch complete",
				"documents", len(manifest.Documents),
				"failed", failed,
				"output", outputDir)

			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed, see %s", failed, len(manifest.Documents), batch.ManifestFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "Parquet or JSONL dataset (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "forms", "Output directory")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", runtime.NumCPU(), "Documents rendered in parallel")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Also write an XLSX workbook per document")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}
