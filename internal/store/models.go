// Package store persists the project graph as flat rows.
//
// Two engines implement Backend: BoxStore, the legacy key-object store
// (one JSON object per row on a hackpadfs filesystem), and SQLiteStore,
// the relational store. Repositories sit on top and convert between rows
// and domain values; nothing above this package knows which engine runs.
package store

// Row is one flat storage record.
type Row interface {
	RowID() string
	// RowParent is the id of the owning row, "" for roots.
	RowParent() string
	// RowOrder sorts siblings.
	RowOrder() int64
}

// ProjectRow is the stored form of a project. Enums are stored by name.
type ProjectRow struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	Phase       string      `json:"phase"`
	Priority    string      `json:"priority"`
	OwnerID     Opt[string] `json:"owner_id"`
	Tags        string      `json:"tags"` // JSON []string
	CreatedAt   int64       `json:"created_at"`
	UpdatedAt   int64       `json:"updated_at"`
}

type StoryRow struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	ScriptID  string `json:"script_id"`
	Title     string `json:"title"`
	Logline   string `json:"logline"`
	Synopsis  string `json:"synopsis"`
	Genre     string `json:"genre"`
	Themes    string `json:"themes"` // JSON []string
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type ScriptRow struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	StoryID   string `json:"story_id"`
	Title     string `json:"title"`
	Format    string `json:"format"`
	Version   int    `json:"version"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type ActRow struct {
	ID        string      `json:"id"`
	ScriptID  string      `json:"script_id"`
	ActNumber int         `json:"act_number"`
	Title     string      `json:"title"`
	Summary   Opt[string] `json:"summary"`
}

// SceneScriptRow has no act id in flat-structured scripts.
type SceneScriptRow struct {
	ID           string      `json:"id"`
	ScriptID     string      `json:"script_id"`
	ActID        Opt[string] `json:"act_id"`
	SceneNumber  int         `json:"scene_number"`
	Heading      string      `json:"heading"`
	Location     string      `json:"location"`
	TimeOfDay    string      `json:"time_of_day"`
	Description  string      `json:"description"`
	CharacterIDs string      `json:"character_ids"` // JSON []string
}

type DialogueLineRow struct {
	ID            string      `json:"id"`
	SceneID       string      `json:"scene_id"`
	CharacterID   string      `json:"character_id"`
	CharacterName string      `json:"character_name"`
	Text          string      `json:"text"`
	Parenthetical Opt[string] `json:"parenthetical"`
	Emotion       Opt[string] `json:"emotion"`
	LineOrder     int         `json:"line_order"`
}

type CharacterRow struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"project_id"`
	Name        string      `json:"name"`
	Role        string      `json:"role"`
	Description string      `json:"description"`
	Backstory   Opt[string] `json:"backstory"`
	AvatarID    Opt[string] `json:"avatar_id"`
	Traits      string      `json:"traits"` // JSON []string
	CreatedAt   int64       `json:"created_at"`
	UpdatedAt   int64       `json:"updated_at"`
}

type RelationshipRow struct {
	ID                string  `json:"id"`
	CharacterID       string  `json:"character_id"`
	TargetCharacterID string  `json:"target_character_id"`
	RelationshipType  string  `json:"relationship_type"`
	Strength          float64 `json:"strength"`
	Description       string  `json:"description"`
}

type StoryboardRow struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	StoryID   string `json:"story_id"`
	ScriptID  string `json:"script_id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type StoryboardSceneRow struct {
	ID            string      `json:"id"`
	StoryboardID  string      `json:"storyboard_id"`
	SceneNumber   int         `json:"scene_number"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	ScriptSceneID Opt[string] `json:"script_scene_id"`
}

type FrameRow struct {
	ID             string      `json:"id"`
	SceneID        string      `json:"scene_id"`
	FrameNumber    int         `json:"frame_number"`
	Description    string      `json:"description"`
	ShotType       string      `json:"shot_type"`
	CameraMovement string      `json:"camera_movement"`
	DurationMs     int64       `json:"duration_ms"`
	ImageURL       Opt[string] `json:"image_url"`
	DialogueLineID Opt[string] `json:"dialogue_line_id"`
	Notes          Opt[string] `json:"notes"`
}

type ContentRow struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"project_id"`
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	URL       Opt[string] `json:"url"`
	Metadata  string      `json:"metadata"` // JSON map[string]string
	CreatedAt int64       `json:"created_at"`
}

type DeliverableRow struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     Opt[int64] `json:"due_date"`
	CreatedAt   int64      `json:"created_at"`
}

type PublishingRow struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Platform    string     `json:"platform"`
	Status      string     `json:"status"`
	Channels    string     `json:"channels"` // JSON []string
	ScheduledAt Opt[int64] `json:"scheduled_at"`
	PublishedAt Opt[int64] `json:"published_at"`
	CreatedAt   int64      `json:"created_at"`
	UpdatedAt   int64      `json:"updated_at"`
}

type UserRow struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
	CreatedAt   int64  `json:"created_at"`
}

type AvatarRow struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	CharacterID Opt[string] `json:"character_id"`
	Name        string      `json:"name"`
	ImageURL    string      `json:"image_url"`
	Style       string      `json:"style"`
	CreatedAt   int64       `json:"created_at"`
}

// FactoryRow marks a fully written factory. It is keyed by project id and
// written after every component, so its presence means the factory is
// complete.
type FactoryRow struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	SchemaVersion int    `json:"schema_version"`
	IsTemplate    int    `json:"is_template"`
	IsSample      int    `json:"is_sample"`
	TotalEntities int    `json:"total_entities"`
	Components    string `json:"components"` // JSON []string of stored component names
	UpdatedAt     int64  `json:"updated_at"`
}

// ComponentRow holds one serialized factory component.
type ComponentRow struct {
	ID        string `json:"id"` // factory id + "/" + name
	FactoryID string `json:"factory_id"`
	Name      string `json:"name"`
	Payload   string `json:"payload"`
	UpdatedAt int64  `json:"updated_at"`
}

func (r *ProjectRow) RowID() string     { return r.ID }
func (r *ProjectRow) RowParent() string { return "" }
func (r *ProjectRow) RowOrder() int64   { return r.CreatedAt }

func (r *StoryRow) RowID() string     { return r.ID }
func (r *StoryRow) RowParent() string { return r.ProjectID }
func (r *StoryRow) RowOrder() int64   { return r.CreatedAt }

func (r *ScriptRow) RowID() string     { return r.ID }
func (r *ScriptRow) RowParent() string { return r.ProjectID }
func (r *ScriptRow) RowOrder() int64   { return r.CreatedAt }

func (r *ActRow) RowID() string     { return r.ID }
func (r *ActRow) RowParent() string { return r.ScriptID }
func (r *ActRow) RowOrder() int64   { return int64(r.ActNumber) }

func (r *SceneScriptRow) RowID() string     { return r.ID }
func (r *SceneScriptRow) RowParent() string { return r.ScriptID }
func (r *SceneScriptRow) RowOrder() int64   { return int64(r.SceneNumber) }

func (r *DialogueLineRow) RowID() string     { return r.ID }
func (r *DialogueLineRow) RowParent() string { return r.SceneID }
func (r *DialogueLineRow) RowOrder() int64   { return int64(r.LineOrder) }

func (r *CharacterRow) RowID() string     { return r.ID }
func (r *CharacterRow) RowParent() string { return r.ProjectID }
func (r *CharacterRow) RowOrder() int64   { return r.CreatedAt }

func (r *RelationshipRow) RowID() string     { return r.ID }
func (r *RelationshipRow) RowParent() string { return r.CharacterID }
func (r *RelationshipRow) RowOrder() int64   { return 0 }

func (r *StoryboardRow) RowID() string     { return r.ID }
func (r *StoryboardRow) RowParent() string { return r.ProjectID }
func (r *StoryboardRow) RowOrder() int64   { return r.CreatedAt }

func (r *StoryboardSceneRow) RowID() string     { return r.ID }
func (r *StoryboardSceneRow) RowParent() string { return r.StoryboardID }
func (r *StoryboardSceneRow) RowOrder() int64   { return int64(r.SceneNumber) }

func (r *FrameRow) RowID() string     { return r.ID }
func (r *FrameRow) RowParent() string { return r.SceneID }
func (r *FrameRow) RowOrder() int64   { return int64(r.FrameNumber) }

func (r *ContentRow) RowID() string     { return r.ID }
func (r *ContentRow) RowParent() string { return r.ProjectID }
func (r *ContentRow) RowOrder() int64   { return r.CreatedAt }

func (r *DeliverableRow) RowID() string     { return r.ID }
func (r *DeliverableRow) RowParent() string { return r.ProjectID }
func (r *DeliverableRow) RowOrder() int64   { return r.CreatedAt }

func (r *PublishingRow) RowID() string     { return r.ID }
func (r *PublishingRow) RowParent() string { return r.ProjectID }
func (r *PublishingRow) RowOrder() int64   { return r.CreatedAt }

func (r *UserRow) RowID() string     { return r.ID }
func (r *UserRow) RowParent() string { return "" }
func (r *UserRow) RowOrder() int64   { return r.CreatedAt }

func (r *AvatarRow) RowID() string     { return r.ID }
func (r *AvatarRow) RowParent() string { return r.UserID }
func (r *AvatarRow) RowOrder() int64   { return r.CreatedAt }

func (r *FactoryRow) RowID() string     { return r.ID }
func (r *FactoryRow) RowParent() string { return r.ID }
func (r *FactoryRow) RowOrder() int64   { return r.UpdatedAt }

func (r *ComponentRow) RowID() string     { return r.ID }
func (r *ComponentRow) RowParent() string { return r.FactoryID }
func (r *ComponentRow) RowOrder() int64   { return 0 }
