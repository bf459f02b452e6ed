package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kittclouds/studiocore/internal/initializer"
	"github.com/kittclouds/studiocore/internal/store"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the legacy box store into SQLite",
		Long: `Copy every project of the box store into the SQLite store as a factory,
along with users and avatars. Projects already present are skipped, so the
command can be re-run after a partial failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if e.cfg.Storage.BoxDir == "" || e.cfg.Storage.SQLitePath == "" {
				return fmt.Errorf("migrate needs both storage.box_dir and storage.sqlite_path")
			}

			legacy, err := store.OpenBox(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer legacy.Close()
			target, err := store.OpenSQLite(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer target.Close()

			report, err := initializer.Migrate(cmd.Context(), legacy, target, e.log)
			if report != nil {
				printMigrationReport(e, report)
			}
			if err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d projects failed to migrate", len(report.Failures))
			}
			return nil
		},
	}

	return cmd
}

func printMigrationReport(e *env, r *initializer.MigrationReport) {
	for _, id := range r.Migrated {
		e.printf("%s migrated %s\n", okText("✓"), id)
	}
	for _, f := range r.Failures {
		e.printf("%s %s: %v\n", failText("✗"), f.ID, f.Err)
	}
	e.printf("migrated %d, skipped %d, failed %d, users %d, avatars %d\n",
		len(r.Migrated), len(r.Skipped), len(r.Failures), r.Users, r.Avatars)
}
