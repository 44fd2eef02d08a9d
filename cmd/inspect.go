package cmd

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.pdf>",
		Short: "Validate a rendered PDF and print its page count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			api.DisableConfigDir()
			if err := api.ValidateFile(path, nil); err != nil {
				return fmt.Errorf("invalid PDF %s: %w", path, err)
			}

			pages, err := api.PageCountFile(path)
			if err != nil {
				return fmt.Errorf("failed to count pages: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid, %d page(s)\n", path, pages)
			return nil
		},
	}

	return cmd
}
