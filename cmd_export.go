package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minios-linux/langsurface/exporter"
	"github.com/minios-linux/langsurface/i18n"
	"github.com/minios-linux/langsurface/project"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: i18n.T("Export CSV, single JSON or one JSON file per language"),
	}
	cmd.AddCommand(
		newExportSingleCmd("csv", i18n.T("Export the project as CSV"), ".csv", func(p *project.Project) ([]byte, error) {
			return exporter.CSV(p), nil
		}),
		newExportSingleCmd("json", i18n.T("Export the project as one language-map JSON file"), ".json", exporter.SingleJSON),
		newExportMultiCmd(),
	)
	return cmd
}

func newExportSingleCmd(use, short, ext string, render func(*project.Project) ([]byte, error)) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				data, err := render(p)
				if err != nil {
					return err
				}
				if output == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if output == "" {
					output = exporter.SafeFileName(p.Name) + ext
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				logSuccess(i18n.T("Wrote %s"), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default: <project>"+ext+")")
	return cmd
}

func newExportMultiCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "multi-json",
		Short: i18n.T("Export one JSON file per language"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				files, err := exporter.MultiJSON(p)
				if err != nil {
					return err
				}
				paths, err := exporter.WriteFiles(dir, files)
				if err != nil {
					return err
				}
				for _, path := range paths {
					logSuccess(i18n.T("Wrote %s"), path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Output directory")
	return cmd
}
