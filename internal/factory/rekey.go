package factory

import "github.com/kittclouds/studiocore/internal/domain"

// idMap hands out one fresh id per old id, so an id and every reference to
// it are rewritten to the same value.
type idMap map[string]string

func (m idMap) id(old string) string {
	if old == "" {
		return ""
	}
	if id, ok := m[old]; ok {
		return id
	}
	id := domain.NewID()
	m[old] = id
	return id
}

func (m idMap) ptr(old *string) *string {
	if old == nil {
		return nil
	}
	id := m.id(*old)
	return &id
}

func (m idMap) list(old []string) []string {
	if old == nil {
		return nil
	}
	out := make([]string, len(old))
	for i, id := range old {
		out[i] = m.id(id)
	}
	return out
}

// rekey rewrites every id owned by the factory in place. References that
// point outside it (owner, avatars) are left alone.
func rekey(f *ProjectFactory) {
	m := make(idMap)
	pid := m.id(f.Project.ID)
	f.Project.ID = pid

	for i := range f.Characters {
		c := &f.Characters[i]
		c.ID = m.id(c.ID)
		c.ProjectID = pid
		for j := range c.Relationships {
			rel := &c.Relationships[j]
			rel.ID = m.id(rel.ID)
			rel.CharacterID = m.id(rel.CharacterID)
			rel.TargetCharacterID = m.id(rel.TargetCharacterID)
		}
	}

	for i := range f.Stories {
		s := &f.Stories[i]
		s.ID = m.id(s.ID)
		s.ProjectID = pid
		s.ScriptID = m.id(s.ScriptID)
	}

	for i := range f.Scripts {
		s := &f.Scripts[i]
		s.ID = m.id(s.ID)
		s.ProjectID = pid
		s.StoryID = m.id(s.StoryID)
		for j := range s.Acts {
			act := &s.Acts[j]
			act.ID = m.id(act.ID)
			act.ScriptID = s.ID
			rekeyScenes(m, act.SceneScripts, s.ID)
		}
		rekeyScenes(m, s.SceneScripts, s.ID)
	}

	for i := range f.Storyboards {
		b := &f.Storyboards[i]
		b.ID = m.id(b.ID)
		b.ProjectID = pid
		b.StoryID = m.id(b.StoryID)
		b.ScriptID = m.id(b.ScriptID)
		for j := range b.Scenes {
			scene := &b.Scenes[j]
			scene.ID = m.id(scene.ID)
			scene.StoryboardID = b.ID
			scene.ScriptSceneID = m.ptr(scene.ScriptSceneID)
			for k := range scene.Frames {
				frame := &scene.Frames[k]
				frame.ID = m.id(frame.ID)
				frame.SceneID = scene.ID
				frame.DialogueLineID = m.ptr(frame.DialogueLineID)
			}
		}
	}

	for i := range f.Contents {
		f.Contents[i].ID = m.id(f.Contents[i].ID)
		f.Contents[i].ProjectID = pid
	}
	for i := range f.Deliverables {
		f.Deliverables[i].ID = m.id(f.Deliverables[i].ID)
		f.Deliverables[i].ProjectID = pid
	}
	if f.Bible != nil {
		f.Bible.ID = m.id(f.Bible.ID)
		f.Bible.ProjectID = pid
	}
	if f.Publishing != nil {
		f.Publishing.ID = m.id(f.Publishing.ID)
		f.Publishing.ProjectID = pid
	}
}

func rekeyScenes(m idMap, scenes []domain.SceneScript, scriptID string) {
	for i := range scenes {
		scene := &scenes[i]
		scene.ID = m.id(scene.ID)
		scene.ScriptID = scriptID
		scene.ActID = m.ptr(scene.ActID)
		scene.CharacterIDs = m.list(scene.CharacterIDs)
		for j := range scene.Dialogue {
			line := &scene.Dialogue[j]
			line.ID = m.id(line.ID)
			line.SceneID = scene.ID
			line.CharacterID = m.id(line.CharacterID)
		}
	}
}
