package domain

import (
	"fmt"
	"time"
)

// Character belongs to one project and owns its outgoing relationships.
type Character struct {
	ID            string                  `json:"id"`
	ProjectID     string                  `json:"projectId"`
	Name          string                  `json:"name"`
	Role          CharacterRole           `json:"role"`
	Description   string                  `json:"description"`
	Backstory     *string                 `json:"backstory"`
	AvatarID      *string                 `json:"avatarId"`
	Traits        []string                `json:"traits"`
	Relationships []CharacterRelationship `json:"relationships"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// CharacterRelationship is a directed, weighted edge to another character.
type CharacterRelationship struct {
	ID                string           `json:"id"`
	CharacterID       string           `json:"characterId"`
	TargetCharacterID string           `json:"targetCharacterId"`
	RelationshipType  RelationshipType `json:"relationshipType"`
	Strength          float64          `json:"strength"`
	Description       string           `json:"description"`
}

func (c Character) Validate() error {
	if c.ID == "" || c.ProjectID == "" {
		return fmt.Errorf("%w: character needs id and project id", ErrInvalid)
	}
	for _, rel := range c.Relationships {
		if rel.ID == "" || rel.CharacterID != c.ID {
			return fmt.Errorf("%w: relationship %q does not start at character %s", ErrInvalid, rel.ID, c.ID)
		}
		if rel.TargetCharacterID == "" || rel.TargetCharacterID == c.ID {
			return fmt.Errorf("%w: relationship %s has no valid target", ErrInvalid, rel.ID)
		}
		if rel.Strength < 0 || rel.Strength > 1 {
			return fmt.Errorf("%w: relationship %s strength %.2f outside [0,1]", ErrInvalid, rel.ID, rel.Strength)
		}
	}
	return nil
}
