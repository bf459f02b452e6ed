// Package factory bundles one project and everything it owns into a
// versioned, serializable aggregate used for templates, samples, export
// and transfer. A factory is never a row of its own; it is built on demand
// and stored only as its components.
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kittclouds/studiocore/internal/domain"
	"github.com/kittclouds/studiocore/pkg/graph"
)

// SchemaVersion is stamped on every factory this code creates.
const SchemaVersion = 2

// Metadata describes how a factory came to be. IsTemplate and IsSample are
// never both set.
type Metadata struct {
	SchemaVersion   int       `json:"schemaVersion"`
	IsTemplate      bool      `json:"isTemplate"`
	IsSample        bool      `json:"isSample"`
	TemplateName    string    `json:"templateName"`
	SourceProjectID *string   `json:"sourceProjectId"`
	Author          string    `json:"author"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ProjectFactory is the aggregate. Bible and Publishing are optional.
type ProjectFactory struct {
	Project      domain.Project            `json:"project"`
	Characters   []domain.Character        `json:"characters"`
	Stories      []domain.Story            `json:"stories"`
	Scripts      []domain.Script           `json:"scripts"`
	Storyboards  []domain.Storyboard       `json:"storyboards"`
	Contents     []domain.Content          `json:"contents"`
	Deliverables []domain.Deliverable      `json:"deliverables"`
	Bible        *domain.ProjectBible      `json:"bible"`
	Publishing   *domain.PublishingProject `json:"publishing"`
	Metadata     Metadata                  `json:"metadata"`
}

// ProjectID returns the id of the bundled project.
func (f *ProjectFactory) ProjectID() string {
	return f.Project.ID
}

// TotalEntities counts the project, every collection member and the
// publishing project. It is for reporting only.
func (f *ProjectFactory) TotalEntities() int {
	n := 1 + len(f.Characters) + len(f.Stories) + len(f.Scripts) +
		len(f.Storyboards) + len(f.Contents) + len(f.Deliverables)
	if f.Publishing != nil {
		n++
	}
	return n
}

// =============================================================================
// Construction
// =============================================================================

// CreateEmpty wraps a bare project.
func CreateEmpty(project domain.Project) *ProjectFactory {
	now := time.Now().UTC()
	return &ProjectFactory{
		Project: project,
		Metadata: Metadata{
			SchemaVersion: SchemaVersion,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

// Option fills in part of a sample factory.
type Option func(*ProjectFactory)

func WithCharacters(c ...domain.Character) Option {
	return func(f *ProjectFactory) { f.Characters = append(f.Characters, c...) }
}

func WithStories(s ...domain.Story) Option {
	return func(f *ProjectFactory) { f.Stories = append(f.Stories, s...) }
}

func WithScripts(s ...domain.Script) Option {
	return func(f *ProjectFactory) { f.Scripts = append(f.Scripts, s...) }
}

func WithStoryboards(s ...domain.Storyboard) Option {
	return func(f *ProjectFactory) { f.Storyboards = append(f.Storyboards, s...) }
}

func WithContents(c ...domain.Content) Option {
	return func(f *ProjectFactory) { f.Contents = append(f.Contents, c...) }
}

func WithDeliverables(d ...domain.Deliverable) Option {
	return func(f *ProjectFactory) { f.Deliverables = append(f.Deliverables, d...) }
}

func WithBible(b domain.ProjectBible) Option {
	return func(f *ProjectFactory) { f.Bible = &b }
}

func WithPublishing(p domain.PublishingProject) Option {
	return func(f *ProjectFactory) { f.Publishing = &p }
}

func WithAuthor(author string) Option {
	return func(f *ProjectFactory) { f.Metadata.Author = author }
}

// CreateSample builds a factory flagged as bundled sample data.
func CreateSample(project domain.Project, opts ...Option) *ProjectFactory {
	f := CreateEmpty(project)
	for _, opt := range opts {
		opt(f)
	}
	f.Metadata.IsSample = true
	f.Metadata.IsTemplate = false
	return f
}

// CreateTemplate deep-copies source under fresh ids. Every internal
// reference is remapped, so the template can be saved next to its source.
func CreateTemplate(source *ProjectFactory, name string) (*ProjectFactory, error) {
	data, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("failed to copy factory: %w", err)
	}
	var copied ProjectFactory
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("failed to copy factory: %w", err)
	}

	rekey(&copied)

	sourceID := source.ProjectID()
	now := time.Now().UTC()
	if name != "" {
		copied.Project.Title = name
	}
	copied.Project.CreatedAt = now
	copied.Project.UpdatedAt = now
	copied.Metadata = Metadata{
		SchemaVersion:   SchemaVersion,
		IsTemplate:      true,
		TemplateName:    name,
		SourceProjectID: &sourceID,
		Author:          source.Metadata.Author,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return &copied, nil
}

// =============================================================================
// JSON
// =============================================================================

// ToJSON encodes the whole aggregate compactly.
func (f *ProjectFactory) ToJSON() ([]byte, error) {
	return json.Marshal(f)
}

// FromJSON decodes a whole aggregate. Unknown keys are ignored and enum
// values fall back to their defaults.
func FromJSON(data []byte) (*ProjectFactory, error) {
	var f ProjectFactory
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode factory: %w", err)
	}
	if f.Metadata.SchemaVersion == 0 {
		f.Metadata.SchemaVersion = 1
	}
	return &f, nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks that every member belongs to the project. Scripts must
// also belong to one of the factory's stories and reference only the cast.
func (f *ProjectFactory) Validate() error {
	pid := f.Project.ID
	if pid == "" {
		return fmt.Errorf("%w: factory has no project id", domain.ErrInvalid)
	}
	if f.Metadata.IsSample && f.Metadata.IsTemplate {
		return fmt.Errorf("%w: factory %s is both sample and template", domain.ErrInvalid, pid)
	}

	cast := CastGraph(f)
	for _, c := range f.Characters {
		if c.ProjectID != pid {
			return fmt.Errorf("%w: character %s belongs to %s", domain.ErrInvalid, c.ID, c.ProjectID)
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if dangling := cast.DanglingTargets(); len(dangling) > 0 {
		l := dangling[0]
		return fmt.Errorf("%w: relationship %s -> %s leaves the cast", domain.ErrInvalid, l.Source.ID, l.Target.ID)
	}

	stories := make(map[string]bool, len(f.Stories))
	for _, s := range f.Stories {
		if s.ProjectID != pid {
			return fmt.Errorf("%w: story %s belongs to %s", domain.ErrInvalid, s.ID, s.ProjectID)
		}
		if err := s.Validate(); err != nil {
			return err
		}
		stories[s.ID] = true
	}
	for _, s := range f.Scripts {
		if s.ProjectID != pid {
			return fmt.Errorf("%w: script %s belongs to %s", domain.ErrInvalid, s.ID, s.ProjectID)
		}
		if err := s.Validate(); err != nil {
			return err
		}
		if !stories[s.StoryID] {
			return fmt.Errorf("%w: script %s belongs to unknown story %q", domain.ErrInvalid, s.ID, s.StoryID)
		}
		for _, id := range s.CharacterIDs() {
			if n := cast.GetNode(id); n == nil || n.Kind != "character" {
				return fmt.Errorf("%w: script %s references unknown character %q", domain.ErrInvalid, s.ID, id)
			}
		}
	}
	for _, b := range f.Storyboards {
		if b.ProjectID != pid {
			return fmt.Errorf("%w: storyboard %s belongs to %s", domain.ErrInvalid, b.ID, b.ProjectID)
		}
		if err := b.Validate(); err != nil {
			return err
		}
	}
	for _, c := range f.Contents {
		if c.ProjectID != pid {
			return fmt.Errorf("%w: content %s belongs to %s", domain.ErrInvalid, c.ID, c.ProjectID)
		}
	}
	for _, d := range f.Deliverables {
		if d.ProjectID != pid {
			return fmt.Errorf("%w: deliverable %s belongs to %s", domain.ErrInvalid, d.ID, d.ProjectID)
		}
	}
	if f.Publishing != nil && f.Publishing.ProjectID != pid {
		return fmt.Errorf("%w: publishing %s belongs to %s", domain.ErrInvalid, f.Publishing.ID, f.Publishing.ProjectID)
	}
	return nil
}

// CastGraph returns the character relationship graph. Relationship
// targets outside the cast show up as dangling nodes.
func CastGraph(f *ProjectFactory) *graph.Graph {
	g := graph.New()
	for _, c := range f.Characters {
		g.EnsureNode(c.ID, c.Name, "character")
	}
	for _, c := range f.Characters {
		for _, rel := range c.Relationships {
			g.AddEdge(rel.CharacterID, rel.TargetCharacterID, string(rel.RelationshipType), rel.Strength)
		}
	}
	return g
}
