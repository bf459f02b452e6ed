package factory

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxComponentBytes is the largest encoded component a backend row has to
// hold.
const MaxComponentBytes = 2 << 20

// ErrComponentTooLarge is returned when one component outgrows
// MaxComponentBytes. Splitting further is the caller's job.
var ErrComponentTooLarge = errors.New("component exceeds size limit")

// Component names.
const (
	ComponentProject      = "project"
	ComponentCharacters   = "characters"
	ComponentStories      = "stories"
	ComponentScripts      = "scripts"
	ComponentStoryboards  = "storyboards"
	ComponentContents     = "contents"
	ComponentDeliverables = "deliverables"
	ComponentBible        = "bible"
	ComponentPublishing   = "publishing"
	ComponentMetadata     = "metadata"
)

// ComponentNames lists every component in write order.
var ComponentNames = []string{
	ComponentProject, ComponentCharacters, ComponentStories, ComponentScripts,
	ComponentStoryboards, ComponentContents, ComponentDeliverables,
	ComponentBible, ComponentPublishing, ComponentMetadata,
}

// Components maps a component name to its compact JSON. A missing key is
// the null component: an empty collection or an absent optional.
type Components map[string]string

// Size returns the total encoded size.
func (c Components) Size() int {
	n := 0
	for _, v := range c {
		n += len(v)
	}
	return n
}

// SerializeComponents encodes each part of f on its own.
func SerializeComponents(f *ProjectFactory) (Components, error) {
	c := make(Components, len(ComponentNames))

	put := func(name string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if len(data) > MaxComponentBytes {
			return fmt.Errorf("%w: %s is %d bytes", ErrComponentTooLarge, name, len(data))
		}
		c[name] = string(data)
		return nil
	}

	parts := []struct {
		name    string
		present bool
		value   any
	}{
		{ComponentProject, true, f.Project},
		{ComponentCharacters, len(f.Characters) > 0, f.Characters},
		{ComponentStories, len(f.Stories) > 0, f.Stories},
		{ComponentScripts, len(f.Scripts) > 0, f.Scripts},
		{ComponentStoryboards, len(f.Storyboards) > 0, f.Storyboards},
		{ComponentContents, len(f.Contents) > 0, f.Contents},
		{ComponentDeliverables, len(f.Deliverables) > 0, f.Deliverables},
		{ComponentBible, f.Bible != nil, f.Bible},
		{ComponentPublishing, f.Publishing != nil, f.Publishing},
		{ComponentMetadata, true, f.Metadata},
	}
	for _, p := range parts {
		if !p.present {
			continue
		}
		if err := put(p.name, p.value); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DeserializeFromComponents rebuilds a factory from any subset of
// components. Missing components become empty defaults. A corrupt
// component other than the project also becomes its default and is named
// in the returned fallback list; a corrupt project is an error.
func DeserializeFromComponents(c Components) (*ProjectFactory, []string, error) {
	f := &ProjectFactory{Metadata: Metadata{SchemaVersion: 1}}
	var fallbacks []string

	if raw, ok := c[ComponentProject]; ok {
		if err := json.Unmarshal([]byte(raw), &f.Project); err != nil {
			return nil, nil, fmt.Errorf("failed to decode project component: %w", err)
		}
	}

	decode := func(name string, dst any, reset func()) {
		raw, ok := c[name]
		if !ok {
			return
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			reset()
			fallbacks = append(fallbacks, name)
		}
	}

	decode(ComponentCharacters, &f.Characters, func() { f.Characters = nil })
	decode(ComponentStories, &f.Stories, func() { f.Stories = nil })
	decode(ComponentScripts, &f.Scripts, func() { f.Scripts = nil })
	decode(ComponentStoryboards, &f.Storyboards, func() { f.Storyboards = nil })
	decode(ComponentContents, &f.Contents, func() { f.Contents = nil })
	decode(ComponentDeliverables, &f.Deliverables, func() { f.Deliverables = nil })
	decode(ComponentBible, &f.Bible, func() { f.Bible = nil })
	decode(ComponentPublishing, &f.Publishing, func() { f.Publishing = nil })
	decode(ComponentMetadata, &f.Metadata, func() { f.Metadata = Metadata{SchemaVersion: 1} })

	if f.Metadata.SchemaVersion == 0 {
		f.Metadata.SchemaVersion = 1
	}
	return f, fallbacks, nil
}
