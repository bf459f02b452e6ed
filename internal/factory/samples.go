package factory

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed samples/*.json
var sampleFiles embed.FS

// Samples decodes the bundled sample factories in file name order. Each
// one is stamped as a sample regardless of what the file says.
func Samples() ([]*ProjectFactory, error) {
	names, err := fs.Glob(sampleFiles, "samples/*.json")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]*ProjectFactory, 0, len(names))
	for _, name := range names {
		data, err := sampleFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		f, err := FromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		f.Metadata.IsSample = true
		f.Metadata.IsTemplate = false
		out = append(out, f)
	}
	return out, nil
}
