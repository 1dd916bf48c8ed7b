package changelog_fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source reads the per-version changelog that becomes the annotated
// tag's message. A missing file is an error surfaced as-is; nothing is
// generated on the fly.
type Source struct {
	dir  string
	file string
}

func New(dir string) *Source {
	return &Source{dir: dir, file: "community.md"}
}

func (s *Source) Read(version string) (string, error) {
	path := filepath.Join(s.dir, version, s.file)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
