package factory

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/studiocore/internal/domain"
)

func lighthouse(t *testing.T) *ProjectFactory {
	t.Helper()
	samples, err := Samples()
	require.NoError(t, err)
	require.NotEmpty(t, samples)
	return samples[0]
}

// ids collects every id the factory owns, references excluded.
func ids(f *ProjectFactory) []string {
	out := []string{f.Project.ID}
	for _, c := range f.Characters {
		out = append(out, c.ID)
		for _, r := range c.Relationships {
			out = append(out, r.ID)
		}
	}
	for _, s := range f.Stories {
		out = append(out, s.ID)
	}
	for _, s := range f.Scripts {
		out = append(out, s.ID)
		for _, a := range s.Acts {
			out = append(out, a.ID)
		}
		for _, sc := range s.Scenes() {
			out = append(out, sc.ID)
			for _, l := range sc.Dialogue {
				out = append(out, l.ID)
			}
		}
	}
	for _, b := range f.Storyboards {
		out = append(out, b.ID)
		for _, sc := range b.Scenes {
			out = append(out, sc.ID)
			for _, fr := range sc.Frames {
				out = append(out, fr.ID)
			}
		}
	}
	for _, c := range f.Contents {
		out = append(out, c.ID)
	}
	for _, d := range f.Deliverables {
		out = append(out, d.ID)
	}
	if f.Bible != nil {
		out = append(out, f.Bible.ID)
	}
	if f.Publishing != nil {
		out = append(out, f.Publishing.ID)
	}
	return out
}

func TestSamples(t *testing.T) {
	samples, err := Samples()
	require.NoError(t, err)
	require.Len(t, samples, 3)

	seen := make(map[string]bool)
	for _, f := range samples {
		assert.NoError(t, f.Validate(), f.Project.Title)
		assert.True(t, f.Metadata.IsSample)
		assert.False(t, f.Metadata.IsTemplate)
		assert.Equal(t, SchemaVersion, f.Metadata.SchemaVersion)
		assert.False(t, seen[f.ProjectID()], "duplicate sample project %s", f.ProjectID())
		seen[f.ProjectID()] = true
	}

	first := samples[0]
	assert.Equal(t, "The Lighthouse Keeper", first.Project.Title)
	assert.True(t, first.Scripts[0].ActStructured())
	assert.NotNil(t, first.Bible)
	assert.NotNil(t, first.Publishing)
}

func TestTotalEntities(t *testing.T) {
	f := lighthouse(t)
	// project, 2 characters, story, script, storyboard, content,
	// deliverable, publishing
	assert.Equal(t, 9, f.TotalEntities())

	empty := CreateEmpty(domain.Project{ID: "P1"})
	assert.Equal(t, 1, empty.TotalEntities())
}

func TestCreateEmpty(t *testing.T) {
	f := CreateEmpty(domain.Project{ID: "P1", Title: "Blank"})
	assert.Equal(t, "P1", f.ProjectID())
	assert.Equal(t, SchemaVersion, f.Metadata.SchemaVersion)
	assert.False(t, f.Metadata.IsSample)
	assert.False(t, f.Metadata.IsTemplate)
	assert.WithinDuration(t, time.Now(), f.Metadata.CreatedAt, time.Minute)
	assert.NoError(t, f.Validate())
}

func TestCreateSampleWithOptions(t *testing.T) {
	p := domain.Project{ID: "P1"}
	f := CreateSample(p,
		WithCharacters(domain.Character{ID: "C1", ProjectID: "P1"}),
		WithDeliverables(domain.Deliverable{ID: "D1", ProjectID: "P1"}),
		WithPublishing(domain.PublishingProject{ID: "PB1", ProjectID: "P1"}),
		WithAuthor("tests"),
	)
	assert.True(t, f.Metadata.IsSample)
	assert.Equal(t, "tests", f.Metadata.Author)
	assert.Len(t, f.Characters, 1)
	assert.Equal(t, 4, f.TotalEntities())
	assert.NoError(t, f.Validate())
}

// =============================================================================
// Templates
// =============================================================================

func TestCreateTemplate(t *testing.T) {
	source := lighthouse(t)
	before, err := source.ToJSON()
	require.NoError(t, err)

	tmpl, err := CreateTemplate(source, "Coastal short")
	require.NoError(t, err)

	after, err := source.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after), "source is untouched")

	assert.True(t, tmpl.Metadata.IsTemplate)
	assert.False(t, tmpl.Metadata.IsSample)
	assert.Equal(t, "Coastal short", tmpl.Metadata.TemplateName)
	assert.Equal(t, "Coastal short", tmpl.Project.Title)
	require.NotNil(t, tmpl.Metadata.SourceProjectID)
	assert.Equal(t, source.ProjectID(), *tmpl.Metadata.SourceProjectID)
	assert.Equal(t, source.TotalEntities(), tmpl.TotalEntities())

	sourceIDs := make(map[string]bool)
	for _, id := range ids(source) {
		sourceIDs[id] = true
	}
	templateIDs := ids(tmpl)
	for _, id := range templateIDs {
		assert.False(t, sourceIDs[id], "template reuses id %s", id)
	}
	assert.Len(t, templateIDs, len(sourceIDs))

	require.NoError(t, tmpl.Validate(), "every internal reference was remapped")

	// Cross references land on the remapped targets.
	script := tmpl.Scripts[0]
	assert.Equal(t, tmpl.Stories[0].ScriptID, script.ID)
	assert.Equal(t, tmpl.Stories[0].ID, script.StoryID)
	for _, act := range script.Acts {
		for _, scene := range act.SceneScripts {
			require.NotNil(t, scene.ActID)
			assert.Equal(t, act.ID, *scene.ActID)
		}
	}
	lines := make(map[string]bool)
	for _, scene := range script.Scenes() {
		for _, l := range scene.Dialogue {
			lines[l.ID] = true
		}
	}
	for _, scene := range tmpl.Storyboards[0].Scenes {
		for _, frame := range scene.Frames {
			if frame.DialogueLineID != nil {
				assert.True(t, lines[*frame.DialogueLineID], "frame %s points at a template line", frame.ID)
			}
		}
	}
}

func TestCreateTemplateKeepsExternalReferences(t *testing.T) {
	owner := "user-1"
	avatar := "avatar-1"
	source := CreateEmpty(domain.Project{ID: "P1", OwnerID: &owner})
	source.Characters = []domain.Character{{ID: "C1", ProjectID: "P1", AvatarID: &avatar}}

	tmpl, err := CreateTemplate(source, "")
	require.NoError(t, err)

	assert.NotEqual(t, "P1", tmpl.ProjectID())
	assert.Equal(t, &owner, tmpl.Project.OwnerID)
	assert.Equal(t, &avatar, tmpl.Characters[0].AvatarID)
	assert.Empty(t, tmpl.Project.Title)
}

// =============================================================================
// Validation
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProjectFactory)
	}{
		{"no project id", func(f *ProjectFactory) { f.Project.ID = "" }},
		{"sample and template", func(f *ProjectFactory) { f.Metadata.IsTemplate = true }},
		{"foreign character", func(f *ProjectFactory) { f.Characters[0].ProjectID = "elsewhere" }},
		{"relationship outside cast", func(f *ProjectFactory) {
			f.Characters[0].Relationships[0].TargetCharacterID = "stranger"
		}},
		{"story without script", func(f *ProjectFactory) { f.Stories[0].ScriptID = "" }},
		{"script of unknown story", func(f *ProjectFactory) { f.Scripts[0].StoryID = "lost" }},
		{"script with both modes", func(f *ProjectFactory) {
			f.Scripts[0].SceneScripts = f.Scripts[0].Acts[0].SceneScripts
		}},
		{"line by unknown character", func(f *ProjectFactory) {
			f.Scripts[0].Acts[0].SceneScripts[0].CharacterIDs = []string{"ghost"}
		}},
		{"foreign storyboard", func(f *ProjectFactory) { f.Storyboards[0].ProjectID = "elsewhere" }},
		{"foreign deliverable", func(f *ProjectFactory) { f.Deliverables[0].ProjectID = "elsewhere" }},
		{"foreign publishing", func(f *ProjectFactory) { f.Publishing.ProjectID = "elsewhere" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := lighthouse(t)
			tt.mutate(f)
			assert.ErrorIs(t, f.Validate(), domain.ErrInvalid)
		})
	}
}

func TestCastGraph(t *testing.T) {
	f := lighthouse(t)
	g := CastGraph(f)
	assert.Empty(t, g.DanglingTargets())
	for _, c := range f.Characters {
		n := g.GetNode(c.ID)
		require.NotNil(t, n)
		assert.Equal(t, "character", n.Kind)
	}
}

// =============================================================================
// JSON and components
// =============================================================================

func TestJSONRoundTrip(t *testing.T) {
	f := lighthouse(t)
	data, err := f.ToJSON()
	require.NoError(t, err)

	got, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestFromJSONTolerance(t *testing.T) {
	f, err := FromJSON([]byte(`{"project":{"id":"P1","type":3,"status":"bogus"},"extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectTypeCommercial, f.Project.Type)
	assert.Equal(t, domain.ProjectStatusDraft, f.Project.Status)
	assert.Equal(t, 1, f.Metadata.SchemaVersion, "missing metadata reads as the first schema")

	_, err = FromJSON([]byte(`{"project":`))
	assert.Error(t, err)
}

func TestComponentsRoundTrip(t *testing.T) {
	f := lighthouse(t)
	c, err := SerializeComponents(f)
	require.NoError(t, err)
	assert.Len(t, c, len(ComponentNames))
	assert.Positive(t, c.Size())

	got, fallbacks, err := DeserializeFromComponents(c)
	require.NoError(t, err)
	assert.Empty(t, fallbacks)
	assert.Equal(t, f, got)
}

func TestEmptyFactoryComponents(t *testing.T) {
	f := CreateEmpty(domain.Project{ID: "P1", Title: "Blank", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	c, err := SerializeComponents(f)
	require.NoError(t, err)

	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{ComponentProject, ComponentMetadata}, keys)

	got, fallbacks, err := DeserializeFromComponents(c)
	require.NoError(t, err)
	assert.Empty(t, fallbacks)
	assert.Equal(t, f, got)
}

func TestComponentTooLarge(t *testing.T) {
	f := CreateEmpty(domain.Project{ID: "P1"})
	f.Contents = []domain.Content{{
		ID:        "big",
		ProjectID: "P1",
		Type:      domain.ContentText,
		Body:      strings.Repeat("x", MaxComponentBytes),
	}}
	_, err := SerializeComponents(f)
	assert.ErrorIs(t, err, ErrComponentTooLarge)
}

func TestCorruptComponentsFallBack(t *testing.T) {
	f := lighthouse(t)
	c, err := SerializeComponents(f)
	require.NoError(t, err)

	c[ComponentCharacters] = "{broken"
	c[ComponentMetadata] = "[]"
	delete(c, ComponentBible)

	got, fallbacks, err := DeserializeFromComponents(c)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ComponentCharacters, ComponentMetadata}, fallbacks)
	assert.Nil(t, got.Characters)
	assert.Nil(t, got.Bible)
	assert.Equal(t, 1, got.Metadata.SchemaVersion)
	assert.Equal(t, f.Scripts, got.Scripts)
	assert.Equal(t, f.Project, got.Project)
}

func TestCorruptProjectComponentFails(t *testing.T) {
	_, _, err := DeserializeFromComponents(Components{ComponentProject: "nope"})
	assert.Error(t, err)
}

func TestDeserializeWithoutProject(t *testing.T) {
	got, fallbacks, err := DeserializeFromComponents(Components{})
	require.NoError(t, err)
	assert.Empty(t, fallbacks)
	assert.Empty(t, got.ProjectID())
	assert.Equal(t, 1, got.Metadata.SchemaVersion)
}
