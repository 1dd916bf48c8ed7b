package artifact_fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mirrorship/mirrorship/internal/domain"
)

// Store locates built packages under the artifact directory and
// records a release summary snapshot next to them.
type Store struct {
	dir         string
	summaryPath string
}

func New(dir, summaryPath string) *Store {
	return &Store{dir: dir, summaryPath: summaryPath}
}

// Collect resolves glob patterns (doublestar syntax) relative to the
// artifact directory. Matches are deduplicated and sorted.
func (s *Store) Collect(patterns []string) ([]domain.Asset, error) {
	if s.dir == "" {
		return nil, errors.New("artifact dir is empty")
	}

	fsys := os.DirFS(s.dir)
	seen := make(map[string]bool)
	var names []string

	for _, pat := range patterns {
		matches, err := doublestar.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			info, err := os.Stat(filepath.Join(s.dir, m))
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				continue
			}
			seen[m] = true
			names = append(names, m)
		}
	}
	sort.Strings(names)

	assets := make([]domain.Asset, 0, len(names))
	for _, n := range names {
		assets = append(assets, domain.Asset{
			Name: filepath.Base(n),
			Path: filepath.Join(s.dir, n),
		})
	}
	return assets, nil
}

func (s *Store) WriteSummary(_ context.Context, sum domain.ReleaseSummary) error {
	if s.summaryPath == "" {
		return errors.New("summary path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(s.summaryPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(s.summaryPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	type out struct {
		Tag       string   `json:"tag"`
		Assets    []string `json:"assets"`
		Published int64    `json:"published"`
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(out{Tag: sum.Tag, Assets: sum.Assets, Published: sum.Published})
}
