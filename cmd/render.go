package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/photoform/internal/batch"
	"github.com/lehigh-university-libraries/photoform/internal/filename"
	"github.com/lehigh-university-libraries/photoform/internal/sheet"
)

func newRenderCmd(flags *globalFlags) *cobra.Command {
	var (
		specPath string
		outPath  string
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one billing form from a YAML document file",
		Long: `Renders a single billing form described by a YAML document file.

Photo paths in the file are resolved against the file's directory. Photos
that cannot be read or decoded are reported and their entries are rendered
without a photo.`,
		Example: `  # Render to a file named after the site address
  photoform render --spec site.yaml

  # Render PDF and XLSX
  photoform render --spec site.yaml --out form.pdf --xlsx form.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			composer, err := newComposer(cfg)
			if err != nil {
				return err
			}

			doc, baseDir, err := batch.LoadDocumentFile(specPath)
			if err != nil {
				return err
			}

			spec, warnings := doc.Spec(baseDir, cfg.Layout.TargetAspectRatio)
			for _, w := range warnings {
				slog.Warn("Entry rendered without photo", "err", w)
			}

			pdf, err := composer.ComposePDF(spec)
			if err != nil {
				return fmt.Errorf("failed to render PDF: %w", err)
			}

			if outPath == "" {
				outPath = filename.ForDocument(spec.SiteAddress, spec.Title, "pdf")
			}
			if err := os.WriteFile(outPath, pdf, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			slog.Info("PDF written", "path", outPath, "entries", len(spec.Entries), "bytes", len(pdf))

			if xlsxPath != "" {
				data, err := sheet.ComposeXLSX(spec, cfg.Layout)
				if err != nil {
					return fmt.Errorf("failed to render XLSX: %w", err)
				}
				if err := os.WriteFile(xlsxPath, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", xlsxPath, err)
				}
				slog.Info("XLSX written", "path", xlsxPath, "bytes", len(data))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "YAML document file (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "PDF output path (default: named after the site address)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write an XLSX workbook to this path")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}
