package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/kittclouds/studiocore/internal/domain"
)

// Repository stores one kind of domain value. Aggregates (scripts,
// characters, storyboards) are saved and loaded with everything they own.
type Repository[T any] interface {
	// Save writes the value parent-first. It is not atomic: on error the
	// rows written so far stay in place.
	Save(ctx context.Context, v *T) error
	// Get returns nil, nil when the value does not exist.
	Get(ctx context.Context, id string) (*T, error)
	// List returns the values owned by parentID, or all of them when
	// parentID is "".
	List(ctx context.Context, parentID string) ([]*T, error)
	// Delete removes the value and everything it owns, innermost first.
	Delete(ctx context.Context, id string) error
}

// Repositories bundles one repository per kind over a single backend.
type Repositories struct {
	Projects     Repository[domain.Project]
	Stories      Repository[domain.Story]
	Scripts      Repository[domain.Script]
	Characters   Repository[domain.Character]
	Storyboards  Repository[domain.Storyboard]
	Contents     Repository[domain.Content]
	Deliverables Repository[domain.Deliverable]
	Publishing   Repository[domain.PublishingProject]
	Users        Repository[domain.User]
	Avatars      Repository[domain.Avatar]
}

// NewRepositories wires every repository to b.
func NewRepositories(b Backend) *Repositories {
	return &Repositories{
		Projects: &repo[domain.Project, *ProjectRow]{
			backend: b,
			table:   TableProjects,
			id:      func(p *domain.Project) string { return p.ID },
			flatten: func(p *domain.Project) []tableRow { return one(TableProjects, toProjectRow(*p)) },
			build:   leaf(projectFromRow),
		},
		Stories: &repo[domain.Story, *StoryRow]{
			backend: b,
			table:   TableStories,
			id:      func(s *domain.Story) string { return s.ID },
			check:   checkStory,
			flatten: func(s *domain.Story) []tableRow { return one(TableStories, toStoryRow(*s)) },
			build:   leaf(storyFromRow),
		},
		Scripts: &repo[domain.Script, *ScriptRow]{
			backend: b,
			table:   TableScripts,
			id:      func(s *domain.Script) string { return s.ID },
			check:   checkScript,
			owns:    []*Table{TableActs, TableSceneScripts, TableDialogueLines},
			flatten: flattenScript,
			build:   buildScript,
		},
		Characters: &repo[domain.Character, *CharacterRow]{
			backend: b,
			table:   TableCharacters,
			id:      func(c *domain.Character) string { return c.ID },
			check:   checkCharacter,
			owns:    []*Table{TableRelationships},
			flatten: flattenCharacter,
			build:   buildCharacter,
		},
		Storyboards: &repo[domain.Storyboard, *StoryboardRow]{
			backend: b,
			table:   TableStoryboards,
			id:      func(s *domain.Storyboard) string { return s.ID },
			check:   checkStoryboard,
			owns:    []*Table{TableStoryboardScenes, TableFrames},
			flatten: flattenStoryboard,
			build:   buildStoryboard,
		},
		Contents: &repo[domain.Content, *ContentRow]{
			backend: b,
			table:   TableContents,
			id:      func(c *domain.Content) string { return c.ID },
			check:   projectChild(func(c *domain.Content) string { return c.ProjectID }),
			flatten: func(c *domain.Content) []tableRow { return one(TableContents, toContentRow(*c)) },
			build:   leaf(contentFromRow),
		},
		Deliverables: &repo[domain.Deliverable, *DeliverableRow]{
			backend: b,
			table:   TableDeliverables,
			id:      func(d *domain.Deliverable) string { return d.ID },
			check:   projectChild(func(d *domain.Deliverable) string { return d.ProjectID }),
			flatten: func(d *domain.Deliverable) []tableRow { return one(TableDeliverables, toDeliverableRow(*d)) },
			build:   leaf(deliverableFromRow),
		},
		Publishing: &repo[domain.PublishingProject, *PublishingRow]{
			backend: b,
			table:   TablePublishing,
			id:      func(p *domain.PublishingProject) string { return p.ID },
			check:   projectChild(func(p *domain.PublishingProject) string { return p.ProjectID }),
			flatten: func(p *domain.PublishingProject) []tableRow { return one(TablePublishing, toPublishingRow(*p)) },
			build:   leaf(publishingFromRow),
		},
		Users: &repo[domain.User, *UserRow]{
			backend: b,
			table:   TableUsers,
			id:      func(u *domain.User) string { return u.ID },
			flatten: func(u *domain.User) []tableRow { return one(TableUsers, toUserRow(*u)) },
			build:   leaf(userFromRow),
		},
		Avatars: &repo[domain.Avatar, *AvatarRow]{
			backend: b,
			table:   TableAvatars,
			id:      func(a *domain.Avatar) string { return a.ID },
			check:   checkAvatar,
			flatten: func(a *domain.Avatar) []tableRow { return one(TableAvatars, toAvatarRow(*a)) },
			build:   leaf(avatarFromRow),
		},
	}
}

// =============================================================================
// Generic repository
// =============================================================================

type tableRow struct {
	table *Table
	row   Row
}

func one(t *Table, r Row) []tableRow {
	return []tableRow{{table: t, row: r}}
}

type repo[T any, P Row] struct {
	backend Backend
	table   *Table
	id      func(*T) string
	check   func(context.Context, Backend, *T) error
	// owns lists the child tables that travel with the value.
	owns []*Table
	// flatten returns the rows of the value parent-first.
	flatten func(*T) []tableRow
	build   func(context.Context, Backend, P) (T, error)
}

func leaf[T any, P Row](fromRow func(P) T) func(context.Context, Backend, P) (T, error) {
	return func(_ context.Context, _ Backend, r P) (T, error) {
		return fromRow(r), nil
	}
}

func projectChild[T any](projectID func(*T) string) func(context.Context, Backend, *T) error {
	return func(ctx context.Context, b Backend, v *T) error {
		return requireParent(ctx, b, TableProjects, projectID(v))
	}
}

func (r *repo[T, P]) Save(ctx context.Context, v *T) error {
	id := r.id(v)
	if id == "" {
		return fmt.Errorf("%w: %s row without id", domain.ErrInvalid, r.table.Name)
	}
	if r.check != nil {
		if err := r.check(ctx, r.backend, v); err != nil {
			return err
		}
	}

	previous, err := collectTree(ctx, r.backend, r.table, id, followOnly(r.owns))
	if err != nil {
		return err
	}

	rows := r.flatten(v)
	for _, tr := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.backend.Put(ctx, tr.table, tr.row); err != nil {
			return err
		}
		delete(previous[tr.table.Name], tr.row.RowID())
	}

	// Whatever is left was dropped from the aggregate.
	return deleteCollected(ctx, r.backend, previous)
}

func (r *repo[T, P]) Get(ctx context.Context, id string) (*T, error) {
	row, ok, err := getRow[P](ctx, r.backend, r.table, id)
	if err != nil || !ok {
		return nil, err
	}
	v, err := r.build(ctx, r.backend, row)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repo[T, P]) List(ctx context.Context, parentID string) ([]*T, error) {
	rows, err := listRows[P](ctx, r.backend, r.table, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		v, err := r.build(ctx, r.backend, row)
		if err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

func (r *repo[T, P]) Delete(ctx context.Context, id string) error {
	return deleteTree(ctx, r.backend, r.table, id)
}

// =============================================================================
// Ownership traversal
// =============================================================================

// children maps a table name to the tables whose parent column points at it.
var children = func() map[string][]*Table {
	m := make(map[string][]*Table)
	for _, t := range Tables {
		if t.ParentTable != "" {
			m[t.ParentTable] = append(m[t.ParentTable], t)
		}
	}
	return m
}()

func followAll(*Table) bool { return true }

// followOnly restricts a walk to the given child tables.
func followOnly(tables []*Table) func(*Table) bool {
	allowed := make(map[string]bool, len(tables))
	for _, t := range tables {
		allowed[t.Name] = true
	}
	return func(t *Table) bool { return allowed[t.Name] }
}

// collectTree returns the ids of the row and the rows below it in the
// tables follow accepts, keyed by table. A missing root yields an empty
// result.
func collectTree(ctx context.Context, b Backend, t *Table, id string, follow func(*Table) bool) (map[string]map[string]bool, error) {
	found := make(map[string]map[string]bool)
	ok, err := exists(ctx, b, t, id)
	if err != nil || !ok {
		return found, err
	}
	var walk func(t *Table, id string) error
	walk = func(t *Table, id string) error {
		if found[t.Name] == nil {
			found[t.Name] = make(map[string]bool)
		}
		if found[t.Name][id] {
			return nil
		}
		found[t.Name][id] = true
		for _, child := range children[t.Name] {
			if !follow(child) {
				continue
			}
			rows, err := b.List(ctx, child, id)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if err := walk(child, row.RowID()); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return found, walk(t, id)
}

// deleteCollected removes ids table by table, innermost table first, so
// no row ever outlives a row it depends on.
func deleteCollected(ctx context.Context, b Backend, ids map[string]map[string]bool) error {
	for _, t := range deletionOrder {
		set := ids[t.Name]
		if len(set) == 0 {
			continue
		}
		sorted := make([]string, 0, len(set))
		for id := range set {
			sorted = append(sorted, id)
		}
		sort.Strings(sorted)
		for _, id := range sorted {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.Delete(ctx, t, id); err != nil {
				return fmt.Errorf("failed to delete %s %q: %w", t.Name, id, err)
			}
		}
	}
	return nil
}

func deleteTree(ctx context.Context, b Backend, t *Table, id string) error {
	ids, err := collectTree(ctx, b, t, id, followAll)
	if err != nil {
		return err
	}
	return deleteCollected(ctx, b, ids)
}

// =============================================================================
// Checks
// =============================================================================

func checkStory(ctx context.Context, b Backend, s *domain.Story) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return requireParent(ctx, b, TableProjects, s.ProjectID)
}

func checkCharacter(ctx context.Context, b Backend, c *domain.Character) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return requireParent(ctx, b, TableProjects, c.ProjectID)
}

func checkStoryboard(ctx context.Context, b Backend, s *domain.Storyboard) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return requireParent(ctx, b, TableProjects, s.ProjectID)
}

func checkAvatar(ctx context.Context, b Backend, a *domain.Avatar) error {
	return requireParent(ctx, b, TableUsers, a.UserID)
}

// =============================================================================
// Scripts
// =============================================================================

func checkScript(ctx context.Context, b Backend, s *domain.Script) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := requireParent(ctx, b, TableProjects, s.ProjectID); err != nil {
		return err
	}
	if err := requireParent(ctx, b, TableStories, s.StoryID); err != nil {
		return err
	}
	referenced := s.CharacterIDs()
	if len(referenced) == 0 {
		return nil
	}
	cast, err := b.List(ctx, TableCharacters, s.ProjectID)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(cast))
	for _, c := range cast {
		known[c.RowID()] = true
	}
	for _, id := range referenced {
		if !known[id] {
			return fmt.Errorf("%w: script %s references %q", ErrUnknownCharacter, s.ID, id)
		}
	}
	return nil
}

func flattenScript(s *domain.Script) []tableRow {
	rows := one(TableScripts, toScriptRow(*s))
	for _, act := range s.Acts {
		rows = append(rows, tableRow{TableActs, toActRow(act)})
	}
	for _, scene := range s.Scenes() {
		rows = append(rows, tableRow{TableSceneScripts, toSceneScriptRow(scene)})
		for _, line := range scene.Dialogue {
			rows = append(rows, tableRow{TableDialogueLines, toDialogueLineRow(line)})
		}
	}
	return rows
}

func buildScript(ctx context.Context, b Backend, r *ScriptRow) (domain.Script, error) {
	script := scriptFromRow(r)

	actRows, err := listRows[*ActRow](ctx, b, TableActs, r.ID)
	if err != nil {
		return script, err
	}
	sceneRows, err := listRows[*SceneScriptRow](ctx, b, TableSceneScripts, r.ID)
	if err != nil {
		return script, err
	}

	scenes := make([]domain.SceneScript, 0, len(sceneRows))
	for _, sr := range sceneRows {
		scene := sceneScriptFromRow(sr)
		lineRows, err := listRows[*DialogueLineRow](ctx, b, TableDialogueLines, sr.ID)
		if err != nil {
			return script, err
		}
		for _, lr := range lineRows {
			scene.Dialogue = append(scene.Dialogue, dialogueLineFromRow(lr))
		}
		scenes = append(scenes, scene)
	}

	if len(actRows) == 0 {
		if len(scenes) > 0 {
			script.SceneScripts = scenes
		}
		return script, nil
	}

	script.Acts = make([]domain.Act, len(actRows))
	index := make(map[string]int, len(actRows))
	for i, ar := range actRows {
		script.Acts[i] = actFromRow(ar)
		index[ar.ID] = i
	}
	for _, scene := range scenes {
		if scene.ActID == nil {
			continue
		}
		if i, ok := index[*scene.ActID]; ok {
			script.Acts[i].SceneScripts = append(script.Acts[i].SceneScripts, scene)
		}
	}
	return script, nil
}

// =============================================================================
// Characters
// =============================================================================

func flattenCharacter(c *domain.Character) []tableRow {
	rows := one(TableCharacters, toCharacterRow(*c))
	for _, rel := range c.Relationships {
		rows = append(rows, tableRow{TableRelationships, toRelationshipRow(rel)})
	}
	return rows
}

func buildCharacter(ctx context.Context, b Backend, r *CharacterRow) (domain.Character, error) {
	character := characterFromRow(r)
	relRows, err := listRows[*RelationshipRow](ctx, b, TableRelationships, r.ID)
	if err != nil {
		return character, err
	}
	for _, rr := range relRows {
		character.Relationships = append(character.Relationships, relationshipFromRow(rr))
	}
	return character, nil
}

// =============================================================================
// Storyboards
// =============================================================================

func flattenStoryboard(s *domain.Storyboard) []tableRow {
	rows := one(TableStoryboards, toStoryboardRow(*s))
	for _, scene := range s.Scenes {
		rows = append(rows, tableRow{TableStoryboardScenes, toStoryboardSceneRow(scene)})
		for _, frame := range scene.Frames {
			rows = append(rows, tableRow{TableFrames, toFrameRow(frame)})
		}
	}
	return rows
}

func buildStoryboard(ctx context.Context, b Backend, r *StoryboardRow) (domain.Storyboard, error) {
	board := storyboardFromRow(r)
	sceneRows, err := listRows[*StoryboardSceneRow](ctx, b, TableStoryboardScenes, r.ID)
	if err != nil {
		return board, err
	}
	for _, sr := range sceneRows {
		scene := storyboardSceneFromRow(sr)
		frameRows, err := listRows[*FrameRow](ctx, b, TableFrames, sr.ID)
		if err != nil {
			return board, err
		}
		for _, fr := range frameRows {
			scene.Frames = append(scene.Frames, frameFromRow(fr))
		}
		board.Scenes = append(board.Scenes, scene)
	}
	return board, nil
}
