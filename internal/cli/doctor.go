package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/studiocore/internal/config"
	"github.com/kittclouds/studiocore/internal/remote"
	"github.com/kittclouds/studiocore/internal/store"
)

// Check statuses.
const (
	checkOK   = "ok"
	checkWarn = "warn"
	checkFail = "fail"
)

// CheckResult is the outcome of one doctor check.
type CheckResult struct {
	Name    string
	Status  string
	Details string // only shown when Status is not ok
}

func (r CheckResult) icon() string {
	switch r.Status {
	case checkOK:
		return okText("✓")
	case checkWarn:
		return warnText("⚠")
	default:
		return failText("✗")
	}
}

// DoctorCmd returns the doctor command
func DoctorCmd() *cobra.Command {
	var (
		quiet   bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage and remote health",
		Long: `Check that the studio environment is usable:
- the configuration file parses and validates
- the selected store opens and has no orphaned rows
- the legacy box store has no undecodable objects
- the remote API answers (skip with --offline)

Examples:
  studio doctor            # full check
  studio doctor --quiet    # exit code only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := runChecks(cmd.Context(), offline)

			failed := false
			for _, r := range results {
				if r.Status == checkFail {
					failed = true
				}
			}
			if !quiet {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Check              Status")
				fmt.Fprintln(out, "─────────────────────────")
				for _, r := range results {
					fmt.Fprintf(out, "%-18s %s\n", r.Name, r.icon())
				}
				for _, r := range results {
					if r.Status != checkOK && r.Details != "" {
						fmt.Fprintf(out, "\n%s: %s\n", r.Name, r.Details)
					}
				}
				fmt.Fprintln(out)
			}
			if failed {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing, report through the exit code")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the remote check")

	return cmd
}

func runChecks(ctx context.Context, offline bool) []CheckResult {
	cfg, err := config.Load(configPath)
	if err != nil {
		return []CheckResult{{Name: "config", Status: checkFail, Details: err.Error()}}
	}
	results := []CheckResult{{Name: "config", Status: checkOK}}
	results = append(results, checkStore(ctx, cfg)...)
	if cfg.Flags.UseBoxStore {
		results = append(results, checkBoxStore(cfg))
	}
	if !offline {
		results = append(results, checkRemote(ctx, cfg))
	}
	return results
}

func checkStore(ctx context.Context, cfg *config.Config) []CheckResult {
	s, err := store.Open(cfg, nil)
	if err != nil {
		return []CheckResult{{Name: "store", Status: checkFail, Details: err.Error()}}
	}
	defer s.Close()
	results := []CheckResult{{Name: "store", Status: checkOK}}

	n, err := s.CountFactories(ctx)
	switch {
	case err != nil:
		results = append(results, CheckResult{Name: "factories", Status: checkFail, Details: err.Error()})
	case n == 0:
		results = append(results, CheckResult{Name: "factories", Status: checkWarn, Details: "store is empty, run studio init"})
	default:
		results = append(results, CheckResult{Name: "factories", Status: checkOK})
	}

	orphans, err := s.CheckIntegrity(ctx)
	switch {
	case err != nil:
		results = append(results, CheckResult{Name: "integrity", Status: checkFail, Details: err.Error()})
	case len(orphans) > 0:
		details := fmt.Sprintf("%d orphaned rows, first: %s", len(orphans), orphans[0])
		results = append(results, CheckResult{Name: "integrity", Status: checkFail, Details: details})
	default:
		results = append(results, CheckResult{Name: "integrity", Status: checkOK})
	}
	return results
}

func checkBoxStore(cfg *config.Config) CheckResult {
	if _, err := os.Stat(cfg.BoxPath()); os.IsNotExist(err) {
		return CheckResult{Name: "box store", Status: checkOK}
	}
	b, err := store.NewBoxStoreAt(cfg.BoxPath())
	if err != nil {
		return CheckResult{Name: "box store", Status: checkFail, Details: err.Error()}
	}
	defer b.Close()
	if corrupt := b.Corrupt(); len(corrupt) > 0 {
		return CheckResult{Name: "box store", Status: checkWarn, Details: fmt.Sprintf("undecodable objects: %v", corrupt)}
	}
	return CheckResult{Name: "box store", Status: checkOK}
}

func checkRemote(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg.Remote.BaseURL == "" {
		return CheckResult{Name: "remote", Status: checkWarn, Details: "remote.base_url is not set"}
	}
	client, err := remote.NewFromConfig(cfg.Remote, nil)
	if err != nil {
		return CheckResult{Name: "remote", Status: checkFail, Details: err.Error()}
	}
	if _, _, err := client.Projects(ctx); err != nil {
		return CheckResult{Name: "remote", Status: checkFail, Details: err.Error()}
	}
	return CheckResult{Name: "remote", Status: checkOK}
}
