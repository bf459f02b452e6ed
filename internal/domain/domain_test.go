package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumParseByNameAndOrdinal(t *testing.T) {
	assert.Equal(t, ProjectTypeSeries, ParseProjectType("series"))
	assert.Equal(t, ProjectTypeSeries, ParseProjectType("SERIES"))
	assert.Equal(t, ProjectTypeSeries, ParseProjectType("1"), "legacy ordinal rows still decode")
	assert.Equal(t, 1, ProjectTypeSeries.Ordinal())
}

func TestEnumUnknownFallsBack(t *testing.T) {
	assert.Equal(t, TierFree, ParseSubscriptionTier("platinum"))
	assert.Equal(t, TierFree, ParseSubscriptionTier("99"))
	assert.Equal(t, TierFree, ParseSubscriptionTier(""))
	assert.Equal(t, RelationshipOther, ParseRelationshipType("nemesis"))
	assert.False(t, SubscriptionTier("platinum").Valid())
}

func TestEnumJSONTolerance(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","tier":"pro","unknownField":true}`), &u))
	assert.Equal(t, TierPro, u.Tier)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","tier":2}`), &u))
	assert.Equal(t, TierStudio, u.Tier)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","tier":{"broken":1}}`), &u))
	assert.Equal(t, TierFree, u.Tier)

	out, err := json.Marshal(User{ID: "u2", Tier: TierEnterprise})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"tier":"enterprise"`)
}

func TestScriptValidateModes(t *testing.T) {
	actID := "A1"
	flat := Script{
		ID: "S1", ProjectID: "P1", StoryID: "ST1",
		SceneScripts: []SceneScript{{ID: "SC1", ScriptID: "S1", SceneNumber: 1}},
	}
	require.NoError(t, flat.Validate())
	assert.False(t, flat.ActStructured())

	acted := Script{
		ID: "S2", ProjectID: "P1", StoryID: "ST1",
		Acts: []Act{{ID: actID, ScriptID: "S2", ActNumber: 1, SceneScripts: []SceneScript{
			{ID: "SC2", ScriptID: "S2", ActID: &actID, SceneNumber: 1},
		}}},
	}
	require.NoError(t, acted.Validate())
	assert.Len(t, acted.Scenes(), 1)

	both := acted
	both.SceneScripts = []SceneScript{{ID: "SC3", ScriptID: "S2"}}
	assert.ErrorIs(t, both.Validate(), ErrInvalid)
}

func TestScriptValidateDialogueOwnership(t *testing.T) {
	s := Script{
		ID: "S1", ProjectID: "P1", StoryID: "ST1",
		SceneScripts: []SceneScript{{
			ID: "SC1", ScriptID: "S1",
			Dialogue: []DialogueLine{{ID: "D1", SceneID: "OTHER", CharacterID: "C1"}},
		}},
	}
	assert.ErrorIs(t, s.Validate(), ErrInvalid)
}

func TestScriptCharacterIDs(t *testing.T) {
	s := Script{
		SceneScripts: []SceneScript{
			{ID: "SC1", CharacterIDs: []string{"C1", "C2"}, Dialogue: []DialogueLine{{CharacterID: "C3"}}},
			{ID: "SC2", CharacterIDs: []string{"C2"}},
		},
	}
	assert.Equal(t, []string{"C1", "C2", "C3"}, s.CharacterIDs())
}

func TestStoryNeedsScript(t *testing.T) {
	assert.ErrorIs(t, Story{ID: "ST1", ProjectID: "P1"}.Validate(), ErrInvalid)
	assert.NoError(t, Story{ID: "ST1", ProjectID: "P1", ScriptID: "S1"}.Validate())
}

func TestCharacterValidateRelationships(t *testing.T) {
	c := Character{ID: "C1", ProjectID: "P1", Relationships: []CharacterRelationship{
		{ID: "R1", CharacterID: "C1", TargetCharacterID: "C2", Strength: 0.5},
	}}
	require.NoError(t, c.Validate())

	c.Relationships[0].Strength = 1.5
	assert.ErrorIs(t, c.Validate(), ErrInvalid)

	c.Relationships[0].Strength = 0.5
	c.Relationships[0].TargetCharacterID = "C1"
	assert.ErrorIs(t, c.Validate(), ErrInvalid)
}
