package cli

import (
	"github.com/spf13/cobra"

	"github.com/kittclouds/studiocore/internal/initializer"
	"github.com/kittclouds/studiocore/internal/store"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var clearFirst bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Bring the store to a usable state",
		Long: `Run the launch sequence against the configured store:
- migrate the legacy box store when both engines are enabled
- clear the store when clear_database_on_launch is set
- populate an empty store with the bundled sample projects

Running it again on a populated store writes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if clearFirst {
				e.cfg.Flags.ClearDatabaseOnLaunch = true
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var opts []initializer.Option
			if e.cfg.MigrationNeeded() {
				legacy, err := store.OpenBox(e.cfg, e.log)
				if err != nil {
					return err
				}
				defer legacy.Close()
				opts = append(opts, initializer.WithLegacy(legacy))
			}

			ini := initializer.New(s, e.cfg.Flags, e.log, opts...)
			ini.Start(cmd.Context())
			report, err := ini.Wait()
			if report != nil {
				printInitReport(e, report)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&clearFirst, "clear", false, "clear every table before populating")

	return cmd
}

func printInitReport(e *env, r *initializer.Report) {
	if r.Migration != nil {
		printMigrationReport(e, r.Migration)
	}
	if r.Cleared {
		e.printf("%s cleared all data\n", warnText("!"))
	}
	if r.Existing > 0 {
		e.printf("%s store already holds %d factories, nothing to populate\n", okText("✓"), r.Existing)
		return
	}
	for _, id := range r.Succeeded {
		e.printf("%s populated %s\n", okText("✓"), id)
	}
	for _, f := range r.Failures {
		e.printf("%s %s (%s): %v\n", failText("✗"), f.ID, f.Title, f.Err)
	}
	e.printf("%d factories, %d entities written\n", len(r.Succeeded), r.EntitiesWritten)
}
