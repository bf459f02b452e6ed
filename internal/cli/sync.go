package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kittclouds/studiocore/internal/remote"
)

// SyncCmd returns the sync command
func SyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [project-id...]",
		Short: "Pull projects from the remote API",
		Long: `Download projects from remote.base_url and save what changed.

With no arguments every project the server lists is synced. Requests are
conditional, so unchanged resources cost a 304 and are not rewritten. A
failed sync leaves the local copy as it was.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			client, err := remote.NewFromConfig(e.cfg.Remote, e.log)
			if err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			syncer := remote.NewSyncer(client, s, e.log)

			if len(args) == 0 {
				reports, failed, err := syncer.SyncAll(cmd.Context())
				if err != nil {
					return err
				}
				for _, r := range reports {
					printSyncReport(e, r)
				}
				for id, ferr := range failed {
					e.printf("%s %s: %v\n", failText("✗"), id, ferr)
				}
				if len(failed) > 0 {
					return fmt.Errorf("%d projects failed to sync", len(failed))
				}
				return nil
			}

			failures := 0
			for _, id := range args {
				r, err := syncer.SyncProject(cmd.Context(), id)
				if err != nil {
					e.printf("%s %s: %v\n", failText("✗"), id, err)
					failures++
					continue
				}
				printSyncReport(e, r)
			}
			if failures > 0 {
				return fmt.Errorf("%d projects failed to sync", failures)
			}
			return nil
		},
	}

	return cmd
}

func printSyncReport(e *env, r *remote.SyncReport) {
	if r.Written() == 0 {
		e.printf("%s %s up to date\n", okText("✓"), r.ProjectID)
		return
	}
	e.printf("%s %s: %d characters, %d stories, %d scripts, %d storyboards",
		okText("✓"), r.ProjectID, r.Characters, r.Stories, r.Scripts, r.Storyboards)
	if r.Project {
		e.printf(", project updated")
	}
	e.printf("\n")
}
