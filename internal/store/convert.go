package store

import (
	"encoding/json"
	"time"

	"github.com/kittclouds/studiocore/internal/domain"
)

// Converters between domain values and rows. Each pair is a pure inverse
// for values that satisfy the domain invariants, up to normalization.
// Timestamps are stored as Unix milliseconds and read back truncated to
// the millisecond in UTC. An empty list or map reads back as nil. An
// optional set to its zero value reads back as absent.

// =============================================================================
// Helpers
// =============================================================================

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func encodeList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeList ignores corrupt input.
func decodeList(s string) []string {
	var v []string
	if s == "" || json.Unmarshal([]byte(s), &v) != nil || len(v) == 0 {
		return nil
	}
	return v
}

func encodeMap(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeMap(s string) map[string]string {
	var m map[string]string
	if s == "" || json.Unmarshal([]byte(s), &m) != nil || len(m) == 0 {
		return nil
	}
	return m
}

// =============================================================================
// Project
// =============================================================================

func toProjectRow(p domain.Project) *ProjectRow {
	return &ProjectRow{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Type:        string(p.Type),
		Status:      string(p.Status),
		Phase:       string(p.Phase),
		Priority:    string(p.Priority),
		OwnerID:     OptFrom(p.OwnerID),
		Tags:        encodeList(p.Tags),
		CreatedAt:   millis(p.CreatedAt),
		UpdatedAt:   millis(p.UpdatedAt),
	}
}

func projectFromRow(r *ProjectRow) domain.Project {
	return domain.Project{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Type:        domain.ParseProjectType(r.Type),
		Status:      domain.ParseProjectStatus(r.Status),
		Phase:       domain.ParseProjectPhase(r.Phase),
		Priority:    domain.ParsePriority(r.Priority),
		OwnerID:     r.OwnerID.Ptr(),
		Tags:        decodeList(r.Tags),
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

// =============================================================================
// Story and script tree
// =============================================================================

func toStoryRow(s domain.Story) *StoryRow {
	return &StoryRow{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		ScriptID:  s.ScriptID,
		Title:     s.Title,
		Logline:   s.Logline,
		Synopsis:  s.Synopsis,
		Genre:     string(s.Genre),
		Themes:    encodeList(s.Themes),
		Status:    string(s.Status),
		CreatedAt: millis(s.CreatedAt),
		UpdatedAt: millis(s.UpdatedAt),
	}
}

func storyFromRow(r *StoryRow) domain.Story {
	return domain.Story{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		ScriptID:  r.ScriptID,
		Title:     r.Title,
		Logline:   r.Logline,
		Synopsis:  r.Synopsis,
		Genre:     domain.ParseGenre(r.Genre),
		Themes:    decodeList(r.Themes),
		Status:    domain.ParseStoryStatus(r.Status),
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
}

// toScriptRow drops the nested acts and scenes; they have rows of their own.
func toScriptRow(s domain.Script) *ScriptRow {
	return &ScriptRow{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		StoryID:   s.StoryID,
		Title:     s.Title,
		Format:    string(s.Format),
		Version:   s.Version,
		CreatedAt: millis(s.CreatedAt),
		UpdatedAt: millis(s.UpdatedAt),
	}
}

func scriptFromRow(r *ScriptRow) domain.Script {
	return domain.Script{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		StoryID:   r.StoryID,
		Title:     r.Title,
		Format:    domain.ParseScriptFormat(r.Format),
		Version:   r.Version,
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
}

func toActRow(a domain.Act) *ActRow {
	return &ActRow{
		ID:        a.ID,
		ScriptID:  a.ScriptID,
		ActNumber: a.ActNumber,
		Title:     a.Title,
		Summary:   OptFrom(a.Summary),
	}
}

func actFromRow(r *ActRow) domain.Act {
	return domain.Act{
		ID:        r.ID,
		ScriptID:  r.ScriptID,
		ActNumber: r.ActNumber,
		Title:     r.Title,
		Summary:   r.Summary.Ptr(),
	}
}

func toSceneScriptRow(s domain.SceneScript) *SceneScriptRow {
	return &SceneScriptRow{
		ID:           s.ID,
		ScriptID:     s.ScriptID,
		ActID:        OptFrom(s.ActID),
		SceneNumber:  s.SceneNumber,
		Heading:      s.Heading,
		Location:     s.Location,
		TimeOfDay:    string(s.TimeOfDay),
		Description:  s.Description,
		CharacterIDs: encodeList(s.CharacterIDs),
	}
}

func sceneScriptFromRow(r *SceneScriptRow) domain.SceneScript {
	return domain.SceneScript{
		ID:           r.ID,
		ScriptID:     r.ScriptID,
		ActID:        r.ActID.Ptr(),
		SceneNumber:  r.SceneNumber,
		Heading:      r.Heading,
		Location:     r.Location,
		TimeOfDay:    domain.ParseTimeOfDay(r.TimeOfDay),
		Description:  r.Description,
		CharacterIDs: decodeList(r.CharacterIDs),
	}
}

func toDialogueLineRow(l domain.DialogueLine) *DialogueLineRow {
	return &DialogueLineRow{
		ID:            l.ID,
		SceneID:       l.SceneID,
		CharacterID:   l.CharacterID,
		CharacterName: l.CharacterName,
		Text:          l.Text,
		Parenthetical: OptFrom(l.Parenthetical),
		Emotion:       OptFrom(l.Emotion),
		LineOrder:     l.Order,
	}
}

func dialogueLineFromRow(r *DialogueLineRow) domain.DialogueLine {
	return domain.DialogueLine{
		ID:            r.ID,
		SceneID:       r.SceneID,
		CharacterID:   r.CharacterID,
		CharacterName: r.CharacterName,
		Text:          r.Text,
		Parenthetical: r.Parenthetical.Ptr(),
		Emotion:       r.Emotion.Ptr(),
		Order:         r.LineOrder,
	}
}

// =============================================================================
// Characters
// =============================================================================

func toCharacterRow(c domain.Character) *CharacterRow {
	return &CharacterRow{
		ID:          c.ID,
		ProjectID:   c.ProjectID,
		Name:        c.Name,
		Role:        string(c.Role),
		Description: c.Description,
		Backstory:   OptFrom(c.Backstory),
		AvatarID:    OptFrom(c.AvatarID),
		Traits:      encodeList(c.Traits),
		CreatedAt:   millis(c.CreatedAt),
		UpdatedAt:   millis(c.UpdatedAt),
	}
}

func characterFromRow(r *CharacterRow) domain.Character {
	return domain.Character{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Role:        domain.ParseCharacterRole(r.Role),
		Description: r.Description,
		Backstory:   r.Backstory.Ptr(),
		AvatarID:    r.AvatarID.Ptr(),
		Traits:      decodeList(r.Traits),
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

func toRelationshipRow(rel domain.CharacterRelationship) *RelationshipRow {
	return &RelationshipRow{
		ID:                rel.ID,
		CharacterID:       rel.CharacterID,
		TargetCharacterID: rel.TargetCharacterID,
		RelationshipType:  string(rel.RelationshipType),
		Strength:          rel.Strength,
		Description:       rel.Description,
	}
}

func relationshipFromRow(r *RelationshipRow) domain.CharacterRelationship {
	return domain.CharacterRelationship{
		ID:                r.ID,
		CharacterID:       r.CharacterID,
		TargetCharacterID: r.TargetCharacterID,
		RelationshipType:  domain.ParseRelationshipType(r.RelationshipType),
		Strength:          r.Strength,
		Description:       r.Description,
	}
}

// =============================================================================
// Storyboards
// =============================================================================

func toStoryboardRow(b domain.Storyboard) *StoryboardRow {
	return &StoryboardRow{
		ID:        b.ID,
		ProjectID: b.ProjectID,
		StoryID:   b.StoryID,
		ScriptID:  b.ScriptID,
		Title:     b.Title,
		CreatedAt: millis(b.CreatedAt),
		UpdatedAt: millis(b.UpdatedAt),
	}
}

func storyboardFromRow(r *StoryboardRow) domain.Storyboard {
	return domain.Storyboard{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		StoryID:   r.StoryID,
		ScriptID:  r.ScriptID,
		Title:     r.Title,
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
}

func toStoryboardSceneRow(s domain.Scene) *StoryboardSceneRow {
	return &StoryboardSceneRow{
		ID:            s.ID,
		StoryboardID:  s.StoryboardID,
		SceneNumber:   s.SceneNumber,
		Title:         s.Title,
		Description:   s.Description,
		ScriptSceneID: OptFrom(s.ScriptSceneID),
	}
}

func storyboardSceneFromRow(r *StoryboardSceneRow) domain.Scene {
	return domain.Scene{
		ID:            r.ID,
		StoryboardID:  r.StoryboardID,
		SceneNumber:   r.SceneNumber,
		Title:         r.Title,
		Description:   r.Description,
		ScriptSceneID: r.ScriptSceneID.Ptr(),
	}
}

func toFrameRow(f domain.Frame) *FrameRow {
	return &FrameRow{
		ID:             f.ID,
		SceneID:        f.SceneID,
		FrameNumber:    f.FrameNumber,
		Description:    f.Description,
		ShotType:       string(f.ShotType),
		CameraMovement: string(f.CameraMovement),
		DurationMs:     f.DurationMs,
		ImageURL:       OptFrom(f.ImageURL),
		DialogueLineID: OptFrom(f.DialogueLineID),
		Notes:          OptFrom(f.Notes),
	}
}

func frameFromRow(r *FrameRow) domain.Frame {
	return domain.Frame{
		ID:             r.ID,
		SceneID:        r.SceneID,
		FrameNumber:    r.FrameNumber,
		Description:    r.Description,
		ShotType:       domain.ParseShotType(r.ShotType),
		CameraMovement: domain.ParseCameraMovement(r.CameraMovement),
		DurationMs:     r.DurationMs,
		ImageURL:       r.ImageURL.Ptr(),
		DialogueLineID: r.DialogueLineID.Ptr(),
		Notes:          r.Notes.Ptr(),
	}
}

// =============================================================================
// Project attachments
// =============================================================================

func toContentRow(c domain.Content) *ContentRow {
	return &ContentRow{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Type:      string(c.Type),
		Title:     c.Title,
		Body:      c.Body,
		URL:       OptFrom(c.URL),
		Metadata:  encodeMap(c.Metadata),
		CreatedAt: millis(c.CreatedAt),
	}
}

func contentFromRow(r *ContentRow) domain.Content {
	return domain.Content{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Type:      domain.ParseContentType(r.Type),
		Title:     r.Title,
		Body:      r.Body,
		URL:       r.URL.Ptr(),
		Metadata:  decodeMap(r.Metadata),
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

func toDeliverableRow(d domain.Deliverable) *DeliverableRow {
	return &DeliverableRow{
		ID:          d.ID,
		ProjectID:   d.ProjectID,
		Name:        d.Name,
		Description: d.Description,
		Status:      string(d.Status),
		DueDate:     OptTime(d.DueDate),
		CreatedAt:   millis(d.CreatedAt),
	}
}

func deliverableFromRow(r *DeliverableRow) domain.Deliverable {
	return domain.Deliverable{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Description: r.Description,
		Status:      domain.ParseDeliverableStatus(r.Status),
		DueDate:     r.DueDate.TimePtr(),
		CreatedAt:   fromMillis(r.CreatedAt),
	}
}

func toPublishingRow(p domain.PublishingProject) *PublishingRow {
	return &PublishingRow{
		ID:          p.ID,
		ProjectID:   p.ProjectID,
		Title:       p.Title,
		Description: p.Description,
		Platform:    string(p.Platform),
		Status:      string(p.Status),
		Channels:    encodeList(p.Channels),
		ScheduledAt: OptTime(p.ScheduledAt),
		PublishedAt: OptTime(p.PublishedAt),
		CreatedAt:   millis(p.CreatedAt),
		UpdatedAt:   millis(p.UpdatedAt),
	}
}

func publishingFromRow(r *PublishingRow) domain.PublishingProject {
	return domain.PublishingProject{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Platform:    domain.ParsePublishingPlatform(r.Platform),
		Status:      domain.ParsePublishingStatus(r.Status),
		Channels:    decodeList(r.Channels),
		ScheduledAt: r.ScheduledAt.TimePtr(),
		PublishedAt: r.PublishedAt.TimePtr(),
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

// =============================================================================
// Users
// =============================================================================

func toUserRow(u domain.User) *UserRow {
	return &UserRow{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Tier:        string(u.Tier),
		CreatedAt:   millis(u.CreatedAt),
	}
}

func userFromRow(r *UserRow) domain.User {
	return domain.User{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Tier:        domain.ParseSubscriptionTier(r.Tier),
		CreatedAt:   fromMillis(r.CreatedAt),
	}
}

func toAvatarRow(a domain.Avatar) *AvatarRow {
	return &AvatarRow{
		ID:          a.ID,
		UserID:      a.UserID,
		CharacterID: OptFrom(a.CharacterID),
		Name:        a.Name,
		ImageURL:    a.ImageURL,
		Style:       a.Style,
		CreatedAt:   millis(a.CreatedAt),
	}
}

func avatarFromRow(r *AvatarRow) domain.Avatar {
	return domain.Avatar{
		ID:          r.ID,
		UserID:      r.UserID,
		CharacterID: r.CharacterID.Ptr(),
		Name:        r.Name,
		ImageURL:    r.ImageURL,
		Style:       r.Style,
		CreatedAt:   fromMillis(r.CreatedAt),
	}
}
