package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/studiocore/internal/domain"
	"github.com/kittclouds/studiocore/internal/logging"
)

// =============================================================================
// Backend Factory for Testing Both Implementations
// =============================================================================

// backendFactory creates a backend for testing.
// We test both BoxStore and SQLiteStore with the same test suite.
type backendFactory func() (Backend, error)

func boxStoreFactory() (Backend, error) {
	fs, err := mem.NewFS()
	if err != nil {
		return nil, err
	}
	return NewBoxStore(fs, "boxes")
}

func sqliteStoreFactory() (Backend, error) {
	return NewSQLiteStore()
}

// runTestsForAllStores runs a test function against both backends.
func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, s *Store)) {
	factories := map[string]backendFactory{
		"BoxStore":    boxStoreFactory,
		"SQLiteStore": sqliteStoreFactory,
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			b, err := factory()
			require.NoError(t, err, "Failed to create backend")
			s := New(b, name, logging.Discard())
			defer s.Close()
			testFn(t, s)
		})
	}
}

// recordingBackend logs every write and can fail one chosen Put.
type recordingBackend struct {
	Backend

	mu     sync.Mutex
	ops    []string
	failOn string // "table/id"
}

func (r *recordingBackend) Put(ctx context.Context, t *Table, row Row) error {
	key := t.Name + "/" + row.RowID()
	if key == r.failOn {
		return fmt.Errorf("injected failure on %s", key)
	}
	if err := r.Backend.Put(ctx, t, row); err != nil {
		return err
	}
	r.record("put " + key)
	return nil
}

func (r *recordingBackend) Delete(ctx context.Context, t *Table, id string) error {
	if err := r.Backend.Delete(ctx, t, id); err != nil {
		return err
	}
	r.record("delete " + t.Name + "/" + id)
	return nil
}

func (r *recordingBackend) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingBackend) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

// =============================================================================
// Fixtures
// =============================================================================

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func timep(t time.Time) *time.Time { return &t }

func fixtureProject(id string) domain.Project {
	return domain.Project{
		ID:          id,
		Title:       "Project " + id,
		Description: "A test project",
		Type:        domain.ProjectTypeFilm,
		Status:      domain.ProjectStatusInProgress,
		Phase:       domain.PhaseProduction,
		Priority:    domain.PriorityHigh,
		OwnerID:     strp("user-1"),
		Tags:        []string{"drama", "test"},
		CreatedAt:   t0,
		UpdatedAt:   t0.Add(time.Hour),
	}
}

func fixtureCharacter(projectID, id string, rels ...domain.CharacterRelationship) domain.Character {
	return domain.Character{
		ID:            id,
		ProjectID:     projectID,
		Name:          "Character " + id,
		Role:          domain.RoleProtagonist,
		Description:   "desc",
		Backstory:     strp("born somewhere"),
		Traits:        []string{"brave"},
		Relationships: rels,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
}

// flatScript is the P1/S1/SC1/D1 graph: one flat scene with one line by C1.
func flatScript(projectID string) domain.Script {
	return domain.Script{
		ID:        "S1",
		ProjectID: projectID,
		StoryID:   "ST1",
		Title:     "Pilot",
		Format:    domain.FormatScreenplay,
		Version:   1,
		SceneScripts: []domain.SceneScript{{
			ID:           "SC1",
			ScriptID:     "S1",
			SceneNumber:  1,
			Heading:      "INT. KITCHEN - DAY",
			Location:     "Kitchen",
			TimeOfDay:    domain.TimeDay,
			Description:  "Morning.",
			CharacterIDs: []string{"C1"},
			Dialogue: []domain.DialogueLine{{
				ID:            "D1",
				SceneID:       "SC1",
				CharacterID:   "C1",
				CharacterName: "Character C1",
				Text:          "Hello.",
				Parenthetical: strp("quietly"),
				Order:         0,
			}},
		}},
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func actScript(projectID string) domain.Script {
	return domain.Script{
		ID:        "S2",
		ProjectID: projectID,
		StoryID:   "ST1",
		Title:     "Feature",
		Format:    domain.FormatScreenplay,
		Version:   2,
		Acts: []domain.Act{
			{
				ID: "A1", ScriptID: "S2", ActNumber: 1, Title: "Setup", Summary: strp("Things begin"),
				SceneScripts: []domain.SceneScript{
					{ID: "A1-1", ScriptID: "S2", ActID: strp("A1"), SceneNumber: 1, TimeOfDay: domain.TimeNight, CharacterIDs: []string{"C1"}},
					{ID: "A1-2", ScriptID: "S2", ActID: strp("A1"), SceneNumber: 2, TimeOfDay: domain.TimeDawn,
						Dialogue: []domain.DialogueLine{
							{ID: "L1", SceneID: "A1-2", CharacterID: "C1", Text: "One", Order: 0},
							{ID: "L2", SceneID: "A1-2", CharacterID: "C1", Text: "Two", Emotion: strp("sad"), Order: 1},
						}},
				},
			},
			{
				ID: "A2", ScriptID: "S2", ActNumber: 2, Title: "Payoff",
				SceneScripts: []domain.SceneScript{
					{ID: "A2-1", ScriptID: "S2", ActID: strp("A2"), SceneNumber: 3, TimeOfDay: domain.TimeDusk},
				},
			},
		},
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func fixtureStoryboard(projectID string) domain.Storyboard {
	return domain.Storyboard{
		ID:        "B1",
		ProjectID: projectID,
		StoryID:   "ST1",
		ScriptID:  "S1",
		Title:     "Boards",
		Scenes: []domain.Scene{{
			ID:            "BS1",
			StoryboardID:  "B1",
			SceneNumber:   1,
			Title:         "Kitchen",
			ScriptSceneID: strp("SC1"),
			Frames: []domain.Frame{
				{ID: "F1", SceneID: "BS1", FrameNumber: 1, ShotType: domain.ShotWide, CameraMovement: domain.CameraStatic, DurationMs: 2000},
				{ID: "F2", SceneID: "BS1", FrameNumber: 2, ShotType: domain.ShotCloseUp, CameraMovement: domain.CameraPan, DurationMs: 1500,
					ImageURL: strp("https://img/2.png"), DialogueLineID: strp("D1"), Notes: strp("hold")},
			},
		}},
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

// seedProject saves P1 with character C1 and story ST1.
func fixtureStory(projectID, id string) domain.Story {
	return domain.Story{
		ID: id, ProjectID: projectID, ScriptID: "S1", Title: "Story",
		Genre: domain.GenreDrama, Status: domain.StoryStatusDraft,
		CreatedAt: t0, UpdatedAt: t0,
	}
}

func seedProject(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	p := fixtureProject("P1")
	require.NoError(t, s.Projects.Save(ctx, &p))
	c := fixtureCharacter("P1", "C1")
	require.NoError(t, s.Characters.Save(ctx, &c))
	story := fixtureStory("P1", "ST1")
	require.NoError(t, s.Stories.Save(ctx, &story))
}

// =============================================================================
// Round trips
// =============================================================================

func TestProjectRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "ProjectRoundTrip", func(t *testing.T, s *Store) {
		ctx := context.Background()
		p := fixtureProject("P1")
		require.NoError(t, s.Projects.Save(ctx, &p))

		got, err := s.Projects.Get(ctx, "P1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, p, *got)

		// Update in place
		p.Title = "Renamed"
		p.OwnerID = nil
		require.NoError(t, s.Projects.Save(ctx, &p))
		got, err = s.Projects.Get(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Nil(t, got.OwnerID)

		missing, err := s.Projects.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestTimestampsReadBackAsUTCMillis(t *testing.T) {
	runTestsForAllStores(t, "TimestampsReadBackAsUTCMillis", func(t *testing.T, s *Store) {
		ctx := context.Background()
		east := time.FixedZone("UTC+2", 2*60*60)
		p := fixtureProject("P1")
		p.CreatedAt = time.Date(2024, 3, 1, 11, 0, 0, 123456789, east)
		require.NoError(t, s.Projects.Save(ctx, &p))

		got, err := s.Projects.Get(ctx, "P1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 123000000, time.UTC), got.CreatedAt)
		assert.Equal(t, time.UTC, got.CreatedAt.Location())
	})
}

func TestFlatScriptScenario(t *testing.T) {
	runTestsForAllStores(t, "FlatScriptScenario", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)

		rec := &recordingBackend{Backend: s.Backend()}
		repos := NewRepositories(rec)

		script := flatScript("P1")
		require.NoError(t, repos.Scripts.Save(ctx, &script))

		assert.Equal(t, []string{
			"put scripts/S1",
			"put scene_scripts/SC1",
			"put dialogue_lines/D1",
		}, rec.Ops())

		got, err := s.Scripts.Get(ctx, "S1")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.SceneScripts, 1)
		assert.Empty(t, got.Acts)
		assert.Equal(t, script.SceneScripts[0], got.SceneScripts[0])
		assert.Equal(t, script.SceneScripts[0].Dialogue[0], got.SceneScripts[0].Dialogue[0])
		assert.Equal(t, script, *got)
	})
}

func TestActScriptRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "ActScriptRoundTrip", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)

		script := actScript("P1")
		require.NoError(t, s.Scripts.Save(ctx, &script))

		got, err := s.Scripts.Get(ctx, "S2")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, script, *got)
		assert.True(t, got.ActStructured())
		assert.Len(t, got.Scenes(), 3)
	})
}

func TestScriptSaveRemovesDroppedChildren(t *testing.T) {
	runTestsForAllStores(t, "ScriptSaveRemovesDroppedChildren", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)

		script := actScript("P1")
		require.NoError(t, s.Scripts.Save(ctx, &script))

		// Drop act 2 and the second line of A1-2.
		script.Acts = script.Acts[:1]
		script.Acts[0].SceneScripts[1].Dialogue = script.Acts[0].SceneScripts[1].Dialogue[:1]
		require.NoError(t, s.Scripts.Save(ctx, &script))

		got, err := s.Scripts.Get(ctx, "S2")
		require.NoError(t, err)
		assert.Equal(t, script, *got)

		row, err := s.Backend().Get(ctx, TableActs, "A2")
		require.NoError(t, err)
		assert.Nil(t, row)
		row, err = s.Backend().Get(ctx, TableDialogueLines, "L2")
		require.NoError(t, err)
		assert.Nil(t, row)

		orphans, err := s.CheckIntegrity(ctx)
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})
}

func TestCharacterRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "CharacterRoundTrip", func(t *testing.T, s *Store) {
		ctx := context.Background()
		p := fixtureProject("P1")
		require.NoError(t, s.Projects.Save(ctx, &p))

		c1 := fixtureCharacter("P1", "C1",
			domain.CharacterRelationship{ID: "R1", CharacterID: "C1", TargetCharacterID: "C2", RelationshipType: domain.RelationshipRival, Strength: 0.75, Description: "old feud"},
			domain.CharacterRelationship{ID: "R2", CharacterID: "C1", TargetCharacterID: "C3", RelationshipType: domain.RelationshipMentor, Strength: 0.25},
		)
		c1.AvatarID = strp("AV1")
		require.NoError(t, s.Characters.Save(ctx, &c1))

		got, err := s.Characters.Get(ctx, "C1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c1, *got)

		list, err := s.Characters.List(ctx, "P1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, c1, *list[0])
	})
}

func TestStoryboardRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "StoryboardRoundTrip", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)

		board := fixtureStoryboard("P1")
		require.NoError(t, s.Storyboards.Save(ctx, &board))

		got, err := s.Storyboards.Get(ctx, "B1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, board, *got)
		assert.Equal(t, 2, got.FrameCount())
	})
}

func TestAttachmentsRoundTrip(t *testing.T) {
	runTestsForAllStores(t, "AttachmentsRoundTrip", func(t *testing.T, s *Store) {
		ctx := context.Background()
		p := fixtureProject("P1")
		require.NoError(t, s.Projects.Save(ctx, &p))

		content := domain.Content{
			ID: "CT1", ProjectID: "P1", Type: domain.ContentImage, Title: "Scout",
			URL: strp("https://img/scout.jpg"), Metadata: map[string]string{"camera": "X100"}, CreatedAt: t0,
		}
		deliverable := domain.Deliverable{
			ID: "DL1", ProjectID: "P1", Name: "Cut", Status: domain.DeliverableInProgress,
			DueDate: timep(t0.Add(72 * time.Hour)), CreatedAt: t0,
		}
		publishing := domain.PublishingProject{
			ID: "PB1", ProjectID: "P1", Title: "Release", Platform: domain.PlatformVimeo,
			Status: domain.PublishingScheduled, Channels: []string{"main"},
			ScheduledAt: timep(t0.Add(24 * time.Hour)), CreatedAt: t0, UpdatedAt: t0,
		}
		require.NoError(t, s.Contents.Save(ctx, &content))
		require.NoError(t, s.Deliverables.Save(ctx, &deliverable))
		require.NoError(t, s.Publishing.Save(ctx, &publishing))

		gotContent, err := s.Contents.Get(ctx, "CT1")
		require.NoError(t, err)
		assert.Equal(t, content, *gotContent)

		gotDeliverable, err := s.Deliverables.Get(ctx, "DL1")
		require.NoError(t, err)
		assert.Equal(t, deliverable, *gotDeliverable)

		gotPublishing, err := s.Publishing.Get(ctx, "PB1")
		require.NoError(t, err)
		assert.Equal(t, publishing, *gotPublishing)
		assert.Nil(t, gotPublishing.PublishedAt)
	})
}

func TestUserAndAvatar(t *testing.T) {
	runTestsForAllStores(t, "UserAndAvatar", func(t *testing.T, s *Store) {
		ctx := context.Background()
		u := domain.User{ID: "U1", Email: "a@b.c", DisplayName: "Ann", Tier: domain.TierStudio, CreatedAt: t0}
		require.NoError(t, s.Users.Save(ctx, &u))

		a := domain.Avatar{ID: "AV1", UserID: "U1", Name: "Ann's hero", Style: "ink", CreatedAt: t0}
		require.NoError(t, s.Avatars.Save(ctx, &a))

		gotUser, err := s.Users.Get(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, u, *gotUser)

		avatars, err := s.Avatars.List(ctx, "U1")
		require.NoError(t, err)
		require.Len(t, avatars, 1)
		assert.Equal(t, a, *avatars[0])
		assert.Nil(t, avatars[0].CharacterID)

		// Deleting the user takes its avatars with it.
		require.NoError(t, s.Users.Delete(ctx, "U1"))
		n, err := s.Backend().Count(ctx, TableAvatars)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestUnknownTierReadsAsFree(t *testing.T) {
	runTestsForAllStores(t, "UnknownTierReadsAsFree", func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.Backend().Put(ctx, TableUsers, &UserRow{ID: "U9", Email: "x@y.z", Tier: "platinum", CreatedAt: t0.UnixMilli()}))
		require.NoError(t, s.Backend().Put(ctx, TableUsers, &UserRow{ID: "U8", Email: "o@y.z", Tier: "1", CreatedAt: t0.UnixMilli()}))

		u, err := s.Users.Get(ctx, "U9")
		require.NoError(t, err)
		assert.Equal(t, domain.TierFree, u.Tier)

		legacy, err := s.Users.Get(ctx, "U8")
		require.NoError(t, err)
		assert.Equal(t, domain.TierPro, legacy.Tier, "legacy ordinal decodes through the value table")
	})
}

func TestCorruptJSONColumnReadsEmpty(t *testing.T) {
	runTestsForAllStores(t, "CorruptJSONColumnReadsEmpty", func(t *testing.T, s *Store) {
		ctx := context.Background()
		row := toProjectRow(fixtureProject("P1"))
		row.Tags = "[not json"
		require.NoError(t, s.Backend().Put(ctx, TableProjects, row))

		p, err := s.Projects.Get(ctx, "P1")
		require.NoError(t, err)
		assert.Nil(t, p.Tags)
		assert.Equal(t, "Project P1", p.Title)
	})
}

// =============================================================================
// Referential errors
// =============================================================================

func TestMissingParent(t *testing.T) {
	runTestsForAllStores(t, "MissingParent", func(t *testing.T, s *Store) {
		ctx := context.Background()

		c := fixtureCharacter("ghost", "C1")
		err := s.Characters.Save(ctx, &c)
		assert.ErrorIs(t, err, ErrMissingParent)

		a := domain.Avatar{ID: "AV1", UserID: "nobody"}
		assert.ErrorIs(t, s.Avatars.Save(ctx, &a), ErrMissingParent)

		n, err := s.Backend().Count(ctx, TableCharacters)
		require.NoError(t, err)
		assert.Zero(t, n, "nothing is written when the parent check fails")
	})
}

func TestUnknownCharacter(t *testing.T) {
	runTestsForAllStores(t, "UnknownCharacter", func(t *testing.T, s *Store) {
		ctx := context.Background()
		p := fixtureProject("P1")
		require.NoError(t, s.Projects.Save(ctx, &p))
		story := fixtureStory("P1", "ST1")
		require.NoError(t, s.Stories.Save(ctx, &story))

		script := flatScript("P1")
		err := s.Scripts.Save(ctx, &script)
		assert.ErrorIs(t, err, ErrUnknownCharacter)

		got, err := s.Scripts.Get(ctx, "S1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestScriptWithUnknownStory(t *testing.T) {
	runTestsForAllStores(t, "ScriptWithUnknownStory", func(t *testing.T, s *Store) {
		ctx := context.Background()
		p := fixtureProject("P1")
		require.NoError(t, s.Projects.Save(ctx, &p))
		c := fixtureCharacter("P1", "C1")
		require.NoError(t, s.Characters.Save(ctx, &c))

		script := flatScript("P1")
		script.StoryID = "ST404"
		assert.ErrorIs(t, s.Scripts.Save(ctx, &script), ErrMissingParent)

		n, err := s.Backend().Count(ctx, TableScripts)
		require.NoError(t, err)
		assert.Zero(t, n)

		orphans, err := s.CheckIntegrity(ctx)
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})
}

func TestInvalidScriptRejected(t *testing.T) {
	runTestsForAllStores(t, "InvalidScriptRejected", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)

		script := actScript("P1")
		script.SceneScripts = flatScript("P1").SceneScripts
		assert.ErrorIs(t, s.Scripts.Save(ctx, &script), domain.ErrInvalid)
	})
}

// =============================================================================
// Partial writes and cancellation
// =============================================================================

func TestCascadeFailureLeavesPartialState(t *testing.T) {
	runTestsForAllStores(t, "CascadeFailureLeavesPartialState", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)

		rec := &recordingBackend{Backend: s.Backend(), failOn: "dialogue_lines/D1"}
		script := flatScript("P1")
		err := NewRepositories(rec).Scripts.Save(ctx, &script)
		require.Error(t, err)

		got, err := s.Scripts.Get(ctx, "S1")
		require.NoError(t, err)
		require.NotNil(t, got, "parent stays written")
		require.Len(t, got.SceneScripts, 1)
		assert.Empty(t, got.SceneScripts[0].Dialogue)
	})
}

func TestCancelledSaveStopsBetweenWrites(t *testing.T) {
	runTestsForAllStores(t, "CancelledSaveStopsBetweenWrites", func(t *testing.T, s *Store) {
		seedProject(t, s)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		script := flatScript("P1")
		err := s.Scripts.Save(ctx, &script)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

// =============================================================================
// Deletion
// =============================================================================

func TestDeletionOrder(t *testing.T) {
	order := DeletionOrder()
	require.Len(t, order, len(Tables))

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	before := [][2]string{
		{"dialogue_lines", "scene_scripts"},
		{"scene_scripts", "acts"},
		{"acts", "scripts"},
		{"scripts", "stories"},
		{"stories", "projects"},
		{"frames", "storyboard_scenes"},
		{"storyboard_scenes", "storyboards"},
		{"character_relationships", "characters"},
		{"factory_components", "factories"},
		{"factories", "projects"},
		{"avatars", "users"},
	}
	for _, pair := range before {
		assert.Less(t, pos[pair[0]], pos[pair[1]], "%s must be deleted before %s", pair[0], pair[1])
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	runTestsForAllStores(t, "DeleteProjectCascades", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)
		script := actScript("P1")
		require.NoError(t, s.Scripts.Save(ctx, &script))
		flat := flatScript("P1")
		require.NoError(t, s.Scripts.Save(ctx, &flat))
		board := fixtureStoryboard("P1")
		require.NoError(t, s.Storyboards.Save(ctx, &board))

		other := fixtureProject("P2")
		require.NoError(t, s.Projects.Save(ctx, &other))

		rec := &recordingBackend{Backend: s.Backend()}
		require.NoError(t, New(rec, "recorded", logging.Discard()).DeleteProject(ctx, "P1"))

		// Deletions follow the table order, so no row outlives its owner.
		pos := make(map[string]int)
		for i, name := range DeletionOrder() {
			pos[name] = i
		}
		last := -1
		for _, op := range rec.Ops() {
			key, ok := strings.CutPrefix(op, "delete ")
			require.True(t, ok, "unexpected op %s", op)
			table, _, _ := strings.Cut(key, "/")
			assert.GreaterOrEqual(t, pos[table], last, "out of order: %s", op)
			last = pos[table]
		}

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats["projects"])
		for _, name := range []string{"scripts", "acts", "scene_scripts", "dialogue_lines", "characters", "stories", "storyboards", "frames"} {
			assert.Zero(t, stats[name], name)
		}

		orphans, err := s.CheckIntegrity(ctx)
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})
}

func TestClearAllData(t *testing.T) {
	runTestsForAllStores(t, "ClearAllData", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)
		script := flatScript("P1")
		require.NoError(t, s.Scripts.Save(ctx, &script))

		require.NoError(t, s.ClearAllData(ctx))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		for name, n := range stats {
			assert.Zero(t, n, name)
		}
	})
}

func TestCheckIntegrityFindsOrphans(t *testing.T) {
	runTestsForAllStores(t, "CheckIntegrityFindsOrphans", func(t *testing.T, s *Store) {
		ctx := context.Background()
		seedProject(t, s)

		// Written straight to the backend, bypassing the parent check.
		require.NoError(t, s.Backend().Put(ctx, TableSceneScripts, &SceneScriptRow{
			ID: "lost", ScriptID: "S404", ActID: Some("A404"), TimeOfDay: "day", CharacterIDs: "[]",
		}))

		orphans, err := s.CheckIntegrity(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 2)
		columns := []string{orphans[0].Column, orphans[1].Column}
		assert.ElementsMatch(t, []string{"script_id", "act_id"}, columns)
		assert.Contains(t, orphans[0].String(), "lost")
	})
}

func TestListOrdering(t *testing.T) {
	runTestsForAllStores(t, "ListOrdering", func(t *testing.T, s *Store) {
		ctx := context.Background()
		for i, id := range []string{"PC", "PA", "PB"} {
			p := fixtureProject(id)
			p.CreatedAt = t0.Add(time.Duration(3-i) * time.Minute)
			require.NoError(t, s.Projects.Save(ctx, &p))
		}

		list, err := s.Projects.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"PB", "PA", "PC"}, []string{list[0].ID, list[1].ID, list[2].ID})
	})
}
