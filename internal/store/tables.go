package store

import (
	"fmt"

	"github.com/kittclouds/studiocore/pkg/graph"
)

// Table describes how one row type is laid out. The first column is
// always the primary key "id".
type Table struct {
	Name         string
	ParentTable  string // owning table, "" for roots
	ParentColumn string
	OrderColumn  string
	Columns      []string

	newRow func() Row
	fields func(Row) []any
}

// New returns an empty row of the table's type.
func (t *Table) New() Row { return t.newRow() }

// Fields returns pointers to the row's fields in column order.
func (t *Table) Fields(r Row) []any { return t.fields(r) }

type rowPtr[R any] interface {
	*R
	Row
}

func defineTable[R any, P rowPtr[R]](name, parentTable, parentColumn, orderColumn string, columns []string, fields func(P) []any) *Table {
	return &Table{
		Name:         name,
		ParentTable:  parentTable,
		ParentColumn: parentColumn,
		OrderColumn:  orderColumn,
		Columns:      columns,
		newRow:       func() Row { return P(new(R)) },
		fields:       func(r Row) []any { return fields(r.(P)) },
	}
}

var (
	TableProjects = defineTable("projects", "", "", "created_at",
		[]string{"id", "title", "description", "type", "status", "phase", "priority", "owner_id", "tags", "created_at", "updated_at"},
		func(r *ProjectRow) []any {
			return []any{&r.ID, &r.Title, &r.Description, &r.Type, &r.Status, &r.Phase, &r.Priority, &r.OwnerID, &r.Tags, &r.CreatedAt, &r.UpdatedAt}
		})

	TableStories = defineTable("stories", "projects", "project_id", "created_at",
		[]string{"id", "project_id", "script_id", "title", "logline", "synopsis", "genre", "themes", "status", "created_at", "updated_at"},
		func(r *StoryRow) []any {
			return []any{&r.ID, &r.ProjectID, &r.ScriptID, &r.Title, &r.Logline, &r.Synopsis, &r.Genre, &r.Themes, &r.Status, &r.CreatedAt, &r.UpdatedAt}
		})

	TableScripts = defineTable("scripts", "projects", "project_id", "created_at",
		[]string{"id", "project_id", "story_id", "title", "format", "version", "created_at", "updated_at"},
		func(r *ScriptRow) []any {
			return []any{&r.ID, &r.ProjectID, &r.StoryID, &r.Title, &r.Format, &r.Version, &r.CreatedAt, &r.UpdatedAt}
		})

	TableActs = defineTable("acts", "scripts", "script_id", "act_number",
		[]string{"id", "script_id", "act_number", "title", "summary"},
		func(r *ActRow) []any {
			return []any{&r.ID, &r.ScriptID, &r.ActNumber, &r.Title, &r.Summary}
		})

	TableSceneScripts = defineTable("scene_scripts", "scripts", "script_id", "scene_number",
		[]string{"id", "script_id", "act_id", "scene_number", "heading", "location", "time_of_day", "description", "character_ids"},
		func(r *SceneScriptRow) []any {
			return []any{&r.ID, &r.ScriptID, &r.ActID, &r.SceneNumber, &r.Heading, &r.Location, &r.TimeOfDay, &r.Description, &r.CharacterIDs}
		})

	TableDialogueLines = defineTable("dialogue_lines", "scene_scripts", "scene_id", "line_order",
		[]string{"id", "scene_id", "character_id", "character_name", "text", "parenthetical", "emotion", "line_order"},
		func(r *DialogueLineRow) []any {
			return []any{&r.ID, &r.SceneID, &r.CharacterID, &r.CharacterName, &r.Text, &r.Parenthetical, &r.Emotion, &r.LineOrder}
		})

	TableCharacters = defineTable("characters", "projects", "project_id", "created_at",
		[]string{"id", "project_id", "name", "role", "description", "backstory", "avatar_id", "traits", "created_at", "updated_at"},
		func(r *CharacterRow) []any {
			return []any{&r.ID, &r.ProjectID, &r.Name, &r.Role, &r.Description, &r.Backstory, &r.AvatarID, &r.Traits, &r.CreatedAt, &r.UpdatedAt}
		})

	TableRelationships = defineTable("character_relationships", "characters", "character_id", "id",
		[]string{"id", "character_id", "target_character_id", "relationship_type", "strength", "description"},
		func(r *RelationshipRow) []any {
			return []any{&r.ID, &r.CharacterID, &r.TargetCharacterID, &r.RelationshipType, &r.Strength, &r.Description}
		})

	TableStoryboards = defineTable("storyboards", "projects", "project_id", "created_at",
		[]string{"id", "project_id", "story_id", "script_id", "title", "created_at", "updated_at"},
		func(r *StoryboardRow) []any {
			return []any{&r.ID, &r.ProjectID, &r.StoryID, &r.ScriptID, &r.Title, &r.CreatedAt, &r.UpdatedAt}
		})

	TableStoryboardScenes = defineTable("storyboard_scenes", "storyboards", "storyboard_id", "scene_number",
		[]string{"id", "storyboard_id", "scene_number", "title", "description", "script_scene_id"},
		func(r *StoryboardSceneRow) []any {
			return []any{&r.ID, &r.StoryboardID, &r.SceneNumber, &r.Title, &r.Description, &r.ScriptSceneID}
		})

	TableFrames = defineTable("frames", "storyboard_scenes", "scene_id", "frame_number",
		[]string{"id", "scene_id", "frame_number", "description", "shot_type", "camera_movement", "duration_ms", "image_url", "dialogue_line_id", "notes"},
		func(r *FrameRow) []any {
			return []any{&r.ID, &r.SceneID, &r.FrameNumber, &r.Description, &r.ShotType, &r.CameraMovement, &r.DurationMs, &r.ImageURL, &r.DialogueLineID, &r.Notes}
		})

	TableContents = defineTable("contents", "projects", "project_id", "created_at",
		[]string{"id", "project_id", "type", "title", "body", "url", "metadata", "created_at"},
		func(r *ContentRow) []any {
			return []any{&r.ID, &r.ProjectID, &r.Type, &r.Title, &r.Body, &r.URL, &r.Metadata, &r.CreatedAt}
		})

	TableDeliverables = defineTable("deliverables", "projects", "project_id", "created_at",
		[]string{"id", "project_id", "name", "description", "status", "due_date", "created_at"},
		func(r *DeliverableRow) []any {
			return []any{&r.ID, &r.ProjectID, &r.Name, &r.Description, &r.Status, &r.DueDate, &r.CreatedAt}
		})

	TablePublishing = defineTable("publishing_projects", "projects", "project_id", "created_at",
		[]string{"id", "project_id", "title", "description", "platform", "status", "channels", "scheduled_at", "published_at", "created_at", "updated_at"},
		func(r *PublishingRow) []any {
			return []any{&r.ID, &r.ProjectID, &r.Title, &r.Description, &r.Platform, &r.Status, &r.Channels, &r.ScheduledAt, &r.PublishedAt, &r.CreatedAt, &r.UpdatedAt}
		})

	TableUsers = defineTable("users", "", "", "created_at",
		[]string{"id", "email", "display_name", "tier", "created_at"},
		func(r *UserRow) []any {
			return []any{&r.ID, &r.Email, &r.DisplayName, &r.Tier, &r.CreatedAt}
		})

	TableAvatars = defineTable("avatars", "users", "user_id", "created_at",
		[]string{"id", "user_id", "character_id", "name", "image_url", "style", "created_at"},
		func(r *AvatarRow) []any {
			return []any{&r.ID, &r.UserID, &r.CharacterID, &r.Name, &r.ImageURL, &r.Style, &r.CreatedAt}
		})

	TableFactories = defineTable("factories", "projects", "id", "updated_at",
		[]string{"id", "title", "schema_version", "is_template", "is_sample", "total_entities", "components", "updated_at"},
		func(r *FactoryRow) []any {
			return []any{&r.ID, &r.Title, &r.SchemaVersion, &r.IsTemplate, &r.IsSample, &r.TotalEntities, &r.Components, &r.UpdatedAt}
		})

	TableComponents = defineTable("factory_components", "factories", "factory_id", "id",
		[]string{"id", "factory_id", "name", "payload", "updated_at"},
		func(r *ComponentRow) []any {
			return []any{&r.ID, &r.FactoryID, &r.Name, &r.Payload, &r.UpdatedAt}
		})
)

// Tables lists every table in declaration order.
var Tables = []*Table{
	TableProjects, TableStories, TableScripts, TableActs, TableSceneScripts, TableDialogueLines,
	TableCharacters, TableRelationships, TableStoryboards, TableStoryboardScenes, TableFrames,
	TableContents, TableDeliverables, TablePublishing, TableUsers, TableAvatars,
	TableFactories, TableComponents,
}

// references are ownership links beyond the primary parent column. A
// scene belongs to its act as well as its script, and a script to its
// story as well as its project.
var references = []struct {
	table, column, parent string
}{
	{"scene_scripts", "act_id", "acts"},
	{"scripts", "story_id", "stories"},
}

// ownershipGraph links every table to the tables that own it.
func ownershipGraph() *graph.Graph {
	g := graph.New()
	for _, t := range Tables {
		g.EnsureNode(t.Name, t.Name, "table")
	}
	for _, t := range Tables {
		if t.ParentTable != "" {
			g.AddEdge(t.Name, t.ParentTable, "owned_by", 1)
		}
	}
	for _, ref := range references {
		g.AddEdge(ref.table, ref.parent, "owned_by", 1)
	}
	return g
}

// deletionOrder lists tables innermost first: no table appears after a
// table that owns it.
var deletionOrder = func() []*Table {
	names, err := ownershipGraph().TopoSort()
	if err != nil {
		panic(fmt.Sprintf("store: table ownership graph: %v", err))
	}
	byName := make(map[string]*Table, len(Tables))
	for _, t := range Tables {
		byName[t.Name] = t
	}
	order := make([]*Table, 0, len(names))
	for _, name := range names {
		order = append(order, byName[name])
	}
	return order
}()

// DeletionOrder returns the table names in the order ClearAllData uses.
func DeletionOrder() []string {
	names := make([]string, len(deletionOrder))
	for i, t := range deletionOrder {
		names[i] = t.Name
	}
	return names
}
