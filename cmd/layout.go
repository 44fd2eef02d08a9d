package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/photoform/internal/batch"
	"github.com/lehigh-university-libraries/photoform/internal/layout"
)

func newLayoutCmd(flags *globalFlags) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the computed page geometry of a document as YAML",
		Long: `Computes the layout of a YAML document file without rendering it and
prints every box in points, origin at the top-left of the page.`,
		Example: `  photoform layout --spec site.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			doc, baseDir, err := batch.LoadDocumentFile(specPath)
			if err != nil {
				return err
			}

			spec, warnings := doc.Spec(baseDir, cfg.Layout.TargetAspectRatio)
			for _, w := range warnings {
				slog.Warn("Entry laid out without photo", "err", w)
			}

			out, err := yaml.Marshal(layout.Compute(spec, cfg.Layout))
			if err != nil {
				return fmt.Errorf("failed to encode layout: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "YAML document file (required)")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}
