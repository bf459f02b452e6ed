package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kittclouds/studiocore/internal/factory"
	"github.com/kittclouds/studiocore/internal/store"
)

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	var cast string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and stored factories",
		Long: `Show the number of rows per table and the header of every stored factory.

With --cast, show the character relationship graph of one project instead,
most connected character first.`,
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

			if cast != "" {
				return printCast(e, s, cmd, cast)
			}

			counts, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			e.printf("%s (%s)\n", boldText("Tables"), s.Kind())
			for _, t := range store.Tables {
				e.printf("  %-20s %6d\n", t.Name, counts[t.Name])
			}

			summaries, err := s.ListFactories(cmd.Context())
			if err != nil {
				return err
			}
			e.printf("\n%s\n", boldText("Factories"))
			if len(summaries) == 0 {
				e.printf("  (none)\n")
			}
			for _, f := range summaries {
				var kind string
				switch {
				case f.IsTemplate:
					kind = warnText("template")
				case f.IsSample:
					kind = "sample"
				default:
					kind = "project"
				}
				e.printf("  %s  %-32s %-8s v%d  %d entities\n", f.ID, f.Title, kind, f.SchemaVersion, f.TotalEntities)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cast, "cast", "", "show the cast graph of this project")

	return cmd
}

func printCast(e *env, s *store.Store, cmd *cobra.Command, id string) error {
	f, err := s.AssembleFactory(cmd.Context(), id)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("project %s not found", id)
	}

	g := factory.CastGraph(f)
	centrality := g.DegreeCentrality()
	ids := make([]string, 0, len(f.Characters))
	for _, c := range f.Characters {
		ids = append(ids, c.ID)
	}
	sort.SliceStable(ids, func(i, j int) bool { return centrality[ids[i]] > centrality[ids[j]] })

	e.printf("%s %s: %d characters, %d relationships\n", boldText("Cast"), f.Project.Title, g.NodeCount(), g.EdgeCount())
	for _, cid := range ids {
		n := g.GetNode(cid)
		e.printf("  %-24s %.2f\n", n.Label, centrality[cid])
		for _, l := range g.Outgoing(cid) {
			e.printf("    -> %-20s %s (%.1f)\n", l.Target.Label, l.Edge.Relation, l.Edge.Weight)
		}
	}
	for _, n := range g.OrphanNodes() {
		e.printf("  %s %s has no relationships\n", warnText("!"), n.Label)
	}
	return nil
}
