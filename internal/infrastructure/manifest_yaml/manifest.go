package manifest_yaml

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/mirrorship/mirrorship/internal/domain"
)

type manifestDTO struct {
	Package struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"package"`

	Source struct {
		URL    string `yaml:"url"`
		SHA256 string `yaml:"sha256"`
	} `yaml:"source"`

	Build struct {
		Number    int  `yaml:"number"`
		SkipTests bool `yaml:"skip_tests"`
	} `yaml:"build"`

	Requirements struct {
		Host []string `yaml:"host,omitempty"`
		Run  []string `yaml:"run,omitempty"`
	} `yaml:"requirements"`

	Test struct {
		Commands []string `yaml:"commands,omitempty"`
	} `yaml:"test,omitempty"`

	About struct {
		Description string `yaml:"description,omitempty"`
		Home        string `yaml:"home,omitempty"`
	} `yaml:"about,omitempty"`
}

func Load(path string) (domain.Manifest, error) {
	var m domain.Manifest

	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}

	var dto manifestDTO
	if err := yaml.Unmarshal(b, &dto); err != nil {
		return m, fmt.Errorf("parse %s: %w", path, err)
	}

	m.Package.Name = dto.Package.Name
	m.Package.Version = dto.Package.Version
	m.Source.URL = dto.Source.URL
	m.Source.SHA256 = dto.Source.SHA256
	m.Build.Number = dto.Build.Number
	m.Build.SkipTests = dto.Build.SkipTests
	m.Requirements.Host = dto.Requirements.Host
	m.Requirements.Run = dto.Requirements.Run
	m.Test.Commands = dto.Test.Commands
	m.About.Description = dto.About.Description
	m.About.Home = dto.About.Home

	if m.Package.Name == "" {
		return m, errors.New("manifest: package.name is required")
	}
	if m.Package.Version == "" {
		return m, errors.New("manifest: package.version is required")
	}
	if m.Source.SHA256 == "" {
		return m, errors.New("manifest: source.sha256 is required")
	}

	return m, nil
}

// Save fully replaces the manifest file: the new content is written to
// a temp file and renamed over the old one.
func Save(path string, m domain.Manifest) error {
	if path == "" {
		return errors.New("empty manifest path")
	}

	var dto manifestDTO
	dto.Package.Name = m.Package.Name
	dto.Package.Version = m.Package.Version
	dto.Source.URL = m.Source.URL
	dto.Source.SHA256 = m.Source.SHA256
	dto.Build.Number = m.Build.Number
	dto.Build.SkipTests = m.Build.SkipTests
	dto.Requirements.Host = m.Requirements.Host
	dto.Requirements.Run = m.Requirements.Run
	dto.Test.Commands = m.Test.Commands
	dto.About.Description = m.About.Description
	dto.About.Home = m.About.Home

	b, err := yaml.Marshal(&dto)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(b); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Resolver renders the manifest's source URL template against the
// pinned package name and version.
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

func (Resolver) SourceURL(m domain.Manifest) (string, error) {
	if m.Source.URL == "" {
		return "", errors.New("manifest: source.url is required")
	}

	tmpl, err := template.New("source").Funcs(sprig.FuncMap()).Parse(m.Source.URL)
	if err != nil {
		return "", fmt.Errorf("parse source url template: %w", err)
	}

	data := struct {
		Name    string
		Version string
	}{m.Package.Name, m.Package.Version}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render source url: %w", err)
	}
	return buf.String(), nil
}
