package initializer

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/kittclouds/studiocore/internal/store"
)

// MigrationReport is the outcome of one migration.
type MigrationReport struct {
	Migrated []string
	// Skipped lists factories the target already had.
	Skipped  []string
	Failures []Failure
	Users    int
	Avatars  int
}

// Migrate copies every project of from into to as a factory, then the
// users and avatars to doesn't have yet. Projects already stored as
// factories in to are skipped, so running it twice writes nothing the
// second time. A project that fails is reported and the rest continue.
func Migrate(ctx context.Context, from, to *store.Store, log logrus.FieldLogger) (*MigrationReport, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"from": from.Kind(), "to": to.Kind()})
	report := &MigrationReport{}

	ids, err := legacyProjectIDs(ctx, from)
	if err != nil {
		return report, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		has, err := to.HasFactory(ctx, id)
		if err != nil {
			return report, err
		}
		if has {
			report.Skipped = append(report.Skipped, id)
			continue
		}

		// Rows are the current state; the stored factory only fills in what
		// rows cannot hold.
		f, err := from.AssembleFactory(ctx, id)
		if err == nil && f == nil {
			f, err = from.GetFactory(ctx, id)
		}
		if err != nil {
			report.Failures = append(report.Failures, Failure{ID: id, Err: err})
			log.WithError(err).WithField("factory", id).Warn("failed to read legacy project")
			continue
		}
		if f == nil {
			continue
		}

		if err := to.SaveFactory(ctx, f); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failures = append(report.Failures, Failure{ID: id, Title: f.Project.Title, Err: err})
			log.WithError(err).WithField("factory", id).Warn("failed to migrate project")
			continue
		}
		report.Migrated = append(report.Migrated, id)
	}

	if err := migrateAccounts(ctx, from, to, report); err != nil {
		return report, err
	}

	log.WithFields(logrus.Fields{
		"migrated": len(report.Migrated),
		"skipped":  len(report.Skipped),
		"failed":   len(report.Failures),
		"users":    report.Users,
	}).Info("migration finished")
	return report, nil
}

// legacyProjectIDs returns every project id and every factory id of s,
// sorted and without duplicates.
func legacyProjectIDs(ctx context.Context, s *store.Store) ([]string, error) {
	seen := make(map[string]bool)
	projects, err := s.Projects.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy projects: %w", err)
	}
	for _, p := range projects {
		seen[p.ID] = true
	}
	factoryIDs, err := s.ListFactoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy factories: %w", err)
	}
	for _, id := range factoryIDs {
		seen[id] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func migrateAccounts(ctx context.Context, from, to *store.Store, report *MigrationReport) error {
	users, err := from.Users.List(ctx, "")
	if err != nil {
		return err
	}
	for _, u := range users {
		existing, err := to.Users.Get(ctx, u.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := to.Users.Save(ctx, u); err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
		report.Users++
	}

	avatars, err := from.Avatars.List(ctx, "")
	if err != nil {
		return err
	}
	for _, a := range avatars {
		existing, err := to.Avatars.Get(ctx, a.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := to.Avatars.Save(ctx, a); err != nil {
			report.Failures = append(report.Failures, Failure{ID: a.ID, Title: a.Name, Err: err})
			continue
		}
		report.Avatars++
	}
	return nil
}
