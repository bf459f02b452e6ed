package domain

import (
	"fmt"
	"time"
)

// Story belongs to a project and always points at its script.
type Story struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	ScriptID  string      `json:"scriptId"`
	Title     string      `json:"title"`
	Logline   string      `json:"logline"`
	Synopsis  string      `json:"synopsis"`
	Genre     Genre       `json:"genre"`
	Themes    []string    `json:"themes"`
	Status    StoryStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Validate checks the fields a story cannot be saved without.
func (s Story) Validate() error {
	if s.ID == "" || s.ProjectID == "" {
		return fmt.Errorf("%w: story needs id and project id", ErrInvalid)
	}
	if s.ScriptID == "" {
		return fmt.Errorf("%w: story %s has no script", ErrInvalid, s.ID)
	}
	return nil
}

// Script is organised either in acts or as a flat list of scenes.
type Script struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"projectId"`
	StoryID      string        `json:"storyId"`
	Title        string        `json:"title"`
	Format       ScriptFormat  `json:"format"`
	Version      int           `json:"version"`
	Acts         []Act         `json:"acts"`
	SceneScripts []SceneScript `json:"sceneScripts"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ActStructured reports whether the script is organised in acts.
func (s Script) ActStructured() bool {
	return len(s.Acts) > 0
}

// Scenes returns every scene of the script in reading order, whichever
// mode the script uses.
func (s Script) Scenes() []SceneScript {
	if !s.ActStructured() {
		return s.SceneScripts
	}
	var out []SceneScript
	for _, act := range s.Acts {
		out = append(out, act.SceneScripts...)
	}
	return out
}

// Validate enforces the single-mode rule and the ownership ids of every
// nested element.
func (s Script) Validate() error {
	if s.ID == "" || s.ProjectID == "" || s.StoryID == "" {
		return fmt.Errorf("%w: script needs id, project id and story id", ErrInvalid)
	}
	if len(s.Acts) > 0 && len(s.SceneScripts) > 0 {
		return fmt.Errorf("%w: script %s has both acts and flat scenes", ErrInvalid, s.ID)
	}
	seenActs := make(map[int]bool, len(s.Acts))
	for _, act := range s.Acts {
		if act.ID == "" || act.ScriptID != s.ID {
			return fmt.Errorf("%w: act %q does not belong to script %s", ErrInvalid, act.ID, s.ID)
		}
		if seenActs[act.ActNumber] {
			return fmt.Errorf("%w: script %s repeats act number %d", ErrInvalid, s.ID, act.ActNumber)
		}
		seenActs[act.ActNumber] = true
		for _, scene := range act.SceneScripts {
			if scene.ActID == nil || *scene.ActID != act.ID {
				return fmt.Errorf("%w: scene %s is not linked to act %s", ErrInvalid, scene.ID, act.ID)
			}
		}
	}
	for _, scene := range s.SceneScripts {
		if scene.ActID != nil {
			return fmt.Errorf("%w: flat scene %s references act %s", ErrInvalid, scene.ID, *scene.ActID)
		}
	}
	for _, scene := range s.Scenes() {
		if scene.ID == "" || scene.ScriptID != s.ID {
			return fmt.Errorf("%w: scene %q does not belong to script %s", ErrInvalid, scene.ID, s.ID)
		}
		for _, line := range scene.Dialogue {
			if line.ID == "" || line.SceneID != scene.ID {
				return fmt.Errorf("%w: dialogue line %q does not belong to scene %s", ErrInvalid, line.ID, scene.ID)
			}
			if line.CharacterID == "" {
				return fmt.Errorf("%w: dialogue line %s has no character", ErrInvalid, line.ID)
			}
		}
	}
	return nil
}

// CharacterIDs returns every character referenced by the script's scenes
// and dialogue, without duplicates.
func (s Script) CharacterIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, scene := range s.Scenes() {
		for _, id := range scene.CharacterIDs {
			add(id)
		}
		for _, line := range scene.Dialogue {
			add(line.CharacterID)
		}
	}
	return ids
}

// Act groups scenes; ActNumber orders acts within a script.
type Act struct {
	ID           string        `json:"id"`
	ScriptID     string        `json:"scriptId"`
	ActNumber    int           `json:"actNumber"`
	Title        string        `json:"title"`
	Summary      *string       `json:"summary"`
	SceneScripts []SceneScript `json:"sceneScripts"`
}

// SceneScript is a written scene. CharacterIDs only references
// characters, it does not own them.
type SceneScript struct {
	ID           string         `json:"id"`
	ScriptID     string         `json:"scriptId"`
	ActID        *string        `json:"actId"`
	SceneNumber  int            `json:"sceneNumber"`
	Heading      string         `json:"heading"`
	Location     string         `json:"location"`
	TimeOfDay    TimeOfDay      `json:"timeOfDay"`
	Description  string         `json:"description"`
	CharacterIDs []string       `json:"characterIds"`
	Dialogue     []DialogueLine `json:"dialogue"`
}

// DialogueLine is one spoken line. CharacterName is a cached copy; the id
// is what counts.
type DialogueLine struct {
	ID            string  `json:"id"`
	SceneID       string  `json:"sceneId"`
	CharacterID   string  `json:"characterId"`
	CharacterName string  `json:"characterName"`
	Text          string  `json:"text"`
	Parenthetical *string `json:"parenthetical"`
	Emotion       *string `json:"emotion"`
	Order         int     `json:"order"`
}
