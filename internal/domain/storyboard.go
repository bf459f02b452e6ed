package domain

import (
	"fmt"
	"time"
)

// Storyboard visualises a story's script as scenes of frames.
type Storyboard struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	StoryID   string    `json:"storyId"`
	ScriptID  string    `json:"scriptId"`
	Title     string    `json:"title"`
	Scenes    []Scene   `json:"scenes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Scene is a storyboard scene, not to be confused with SceneScript.
type Scene struct {
	ID            string  `json:"id"`
	StoryboardID  string  `json:"storyboardId"`
	SceneNumber   int     `json:"sceneNumber"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	ScriptSceneID *string `json:"scriptSceneId"`
	Frames        []Frame `json:"frames"`
}

// Frame is a single panel of a storyboard scene.
type Frame struct {
	ID             string         `json:"id"`
	SceneID        string         `json:"sceneId"`
	FrameNumber    int            `json:"frameNumber"`
	Description    string         `json:"description"`
	ShotType       ShotType       `json:"shotType"`
	CameraMovement CameraMovement `json:"cameraMovement"`
	DurationMs     int64          `json:"durationMs"`
	ImageURL       *string        `json:"imageUrl"`
	DialogueLineID *string        `json:"dialogueLineId"`
	Notes          *string        `json:"notes"`
}

func (b Storyboard) Validate() error {
	if b.ID == "" || b.ProjectID == "" {
		return fmt.Errorf("%w: storyboard needs id and project id", ErrInvalid)
	}
	for _, scene := range b.Scenes {
		if scene.ID == "" || scene.StoryboardID != b.ID {
			return fmt.Errorf("%w: scene %q does not belong to storyboard %s", ErrInvalid, scene.ID, b.ID)
		}
		for _, frame := range scene.Frames {
			if frame.ID == "" || frame.SceneID != scene.ID {
				return fmt.Errorf("%w: frame %q does not belong to scene %s", ErrInvalid, frame.ID, scene.ID)
			}
		}
	}
	return nil
}

// FrameCount returns the number of frames across all scenes.
func (b Storyboard) FrameCount() int {
	n := 0
	for _, scene := range b.Scenes {
		n += len(scene.Frames)
	}
	return n
}
