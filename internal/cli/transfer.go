package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/studiocore/internal/factory"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	var (
		output   string
		template string
	)

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Write a project factory as JSON",
		Long: `Write the stored factory of a project as JSON, to stdout or a file.

Examples:
  studio export 6f1c2a9e-...                      # print to stdout
  studio export 6f1c2a9e-... -o lighthouse.json
  studio export 6f1c2a9e-... --template "Coastal" # fresh ids, marked as template`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := s.GetFactory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if f == nil {
				// Projects created outside a factory can still be exported.
				if f, err = s.AssembleFactory(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			if f == nil {
				return fmt.Errorf("project %s not found", args[0])
			}
			if template != "" {
				if f, err = factory.CreateTemplate(f, template); err != nil {
					return err
				}
			}

			data, err := f.ToJSON()
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprintln(e.out, string(data))
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			e.printf("%s exported %s (%d entities) to %s\n", okText("✓"), f.ProjectID(), f.TotalEntities(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	cmd.Flags().StringVar(&template, "template", "", "export as a template with this name")

	return cmd
}

// ImportCmd returns the import command
func ImportCmd() *cobra.Command {
	var (
		template string
		replace  bool
	)

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Save a project factory read from JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read factory: %w", err)
			}
			f, err := factory.FromJSON(data)
			if err != nil {
				return err
			}
			if template != "" {
				if f, err = factory.CreateTemplate(f, template); err != nil {
					return err
				}
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if replace {
				if err := s.ReplaceFactory(ctx, f); err != nil {
					return err
				}
			} else {
				has, err := s.HasFactory(ctx, f.ProjectID())
				if err != nil {
					return err
				}
				if has {
					return fmt.Errorf("factory %s already exists (use --replace or --template)", f.ProjectID())
				}
				if err := s.SaveFactory(ctx, f); err != nil {
					return err
				}
			}
			e.printf("%s imported %s %q (%d entities)\n", okText("✓"), f.ProjectID(), f.Project.Title, f.TotalEntities())
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "import as a new template with fresh ids")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace an existing factory with the same id")

	return cmd
}
