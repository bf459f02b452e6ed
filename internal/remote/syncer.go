package remote

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kittclouds/studiocore/internal/store"
)

// SyncReport says what one SyncProject call wrote. Counts are zero for a
// resource the server reported unchanged.
type SyncReport struct {
	ProjectID   string
	Project     bool
	Characters  int
	Stories     int
	Scripts     int
	Storyboards int
	// Unchanged lists the resources answered with 304.
	Unchanged []string
}

// Written returns the number of values saved.
func (r *SyncReport) Written() int {
	n := r.Characters + r.Stories + r.Scripts + r.Storyboards
	if r.Project {
		n++
	}
	return n
}

// Syncer merges remote project data into a store.
type Syncer struct {
	client *Client
	store  *store.Store
	log    logrus.FieldLogger
}

// NewSyncer creates a syncer writing into s.
func NewSyncer(c *Client, s *store.Store, log logrus.FieldLogger) *Syncer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Syncer{client: c, store: s, log: log.WithField("component", "sync")}
}

// projectResources are the paths below a project that SyncProject reads.
var projectResources = []string{"", "characters", "stories", "scripts", "storyboards"}

// fetched is one downloaded resource waiting to be saved.
type fetched struct {
	name    string
	url     string
	changed bool
	save    func(context.Context) error
}

// SyncProject downloads the project and its characters, stories, scripts
// and storyboards, then saves whatever changed, parents first. Nothing is
// written unless every download succeeded, so a failed sync leaves the
// stored data as it was. ETags of resources that did not make it into the
// store are forgotten, so the next sync downloads them again. A project
// with no local row is downloaded in full.
func (s *Syncer) SyncProject(ctx context.Context, id string) (*SyncReport, error) {
	report := &SyncReport{ProjectID: id}
	log := s.log.WithField("project", id)

	var pending []fetched
	forget := func(from int) {
		for _, f := range pending[from:] {
			if f.changed {
				s.client.Cache().Set(f.url, "")
			}
		}
	}

	// Cached ETags only hold while the project is stored.
	local, err := s.store.Projects.Get(ctx, id)
	if err != nil {
		return report, err
	}
	if local == nil {
		for _, sub := range projectResources {
			s.client.Cache().Set(s.client.URL(projectPath(id, sub)), "")
		}
	}

	project, changed, err := s.client.Project(ctx, id)
	if err != nil {
		return report, err
	}
	pending = append(pending, fetched{name: "project", url: s.client.URL(projectPath(id, "")), changed: changed,
		save: func(ctx context.Context) error {
			if err := s.store.Projects.Save(ctx, project); err != nil {
				return err
			}
			report.Project = true
			return nil
		}})

	characters, changed, err := s.client.ProjectCharacters(ctx, id)
	if err != nil {
		forget(0)
		return report, err
	}
	pending = append(pending, fetched{name: "characters", url: s.client.URL(projectPath(id, "characters")), changed: changed,
		save: func(ctx context.Context) error {
			var err error
			report.Characters, err = saveAll(ctx, s.store.Characters, characters)
			return err
		}})

	stories, changed, err := s.client.ProjectStories(ctx, id)
	if err != nil {
		forget(0)
		return report, err
	}
	pending = append(pending, fetched{name: "stories", url: s.client.URL(projectPath(id, "stories")), changed: changed,
		save: func(ctx context.Context) error {
			var err error
			report.Stories, err = saveAll(ctx, s.store.Stories, stories)
			return err
		}})

	scripts, changed, err := s.client.ProjectScripts(ctx, id)
	if err != nil {
		forget(0)
		return report, err
	}
	pending = append(pending, fetched{name: "scripts", url: s.client.URL(projectPath(id, "scripts")), changed: changed,
		save: func(ctx context.Context) error {
			var err error
			report.Scripts, err = saveAll(ctx, s.store.Scripts, scripts)
			return err
		}})

	storyboards, changed, err := s.client.ProjectStoryboards(ctx, id)
	if err != nil {
		forget(0)
		return report, err
	}
	pending = append(pending, fetched{name: "storyboards", url: s.client.URL(projectPath(id, "storyboards")), changed: changed,
		save: func(ctx context.Context) error {
			var err error
			report.Storyboards, err = saveAll(ctx, s.store.Storyboards, storyboards)
			return err
		}})

	for i, f := range pending {
		if !f.changed {
			report.Unchanged = append(report.Unchanged, f.name)
			continue
		}
		if err := ctx.Err(); err != nil {
			forget(i)
			return report, err
		}
		if err := f.save(ctx); err != nil {
			forget(i)
			return report, fmt.Errorf("sync %s of project %s: %w", f.name, id, err)
		}
	}

	log.WithFields(logrus.Fields{
		"written":   report.Written(),
		"unchanged": len(report.Unchanged),
	}).Info("synced project")
	return report, nil
}

// SyncAll syncs every project the server lists. A project that fails is
// logged and returned in the error map; the others still sync.
func (s *Syncer) SyncAll(ctx context.Context) ([]*SyncReport, map[string]error, error) {
	projects, changed, err := s.client.Projects(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !changed {
		// Unchanged list: sync what is stored locally.
		local, err := s.store.Projects.List(ctx, "")
		if err != nil {
			return nil, nil, err
		}
		for _, p := range local {
			projects = append(projects, *p)
		}
	}

	var reports []*SyncReport
	failed := make(map[string]error)
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return reports, failed, err
		}
		r, err := s.SyncProject(ctx, p.ID)
		if err != nil {
			s.log.WithError(err).WithField("project", p.ID).Warn("sync failed")
			failed[p.ID] = err
			continue
		}
		reports = append(reports, r)
	}
	return reports, failed, nil
}

func saveAll[T any](ctx context.Context, repo store.Repository[T], values []T) (int, error) {
	for i := range values {
		if err := repo.Save(ctx, &values[i]); err != nil {
			return i, err
		}
	}
	return len(values), nil
}
