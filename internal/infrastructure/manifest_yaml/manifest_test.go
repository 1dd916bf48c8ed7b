package manifest_yaml

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `
package:
  name: simplejson
  version: "3.17.2"

source:
  url: https://pypi.io/packages/source/s/{{ .Name }}/{{ .Name }}-{{ .Version }}.tar.gz
  sha256: 75ecc79f26d99222a084fbdd1ce5aad3ac3a8bd535cd9059528452da38b68841

build:
  number: 0
  skip_tests: true

requirements:
  host:
    - pip
    - python
  run:
    - python

about:
  description: Simple, fast, extensible JSON encoder/decoder
  home: https://github.com/simplejson/simplejson
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Sample(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Package.Name != "simplejson" || m.Package.Version != "3.17.2" {
		t.Errorf("unexpected package: %+v", m.Package)
	}
	if !m.Build.SkipTests {
		t.Error("skip_tests must be read")
	}
	if len(m.Requirements.Host) != 2 {
		t.Errorf("unexpected host requirements: %v", m.Requirements.Host)
	}
}

func TestLoad_MissingHashRejected(t *testing.T) {
	content := `
package:
  name: simplejson
  version: "3.17.2"
source:
  url: https://example.com/a.tar.gz
`
	if _, err := Load(writeManifest(t, content)); err == nil {
		t.Fatal("expected error for missing sha256")
	}
}

func TestResolver_RendersPinnedURL(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatal(err)
	}

	url, err := NewResolver().SourceURL(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "https://pypi.io/packages/source/s/simplejson/simplejson-3.17.2.tar.gz"
	if url != want {
		t.Errorf("got %s, want %s", url, want)
	}
}

func TestSave_ReplacesWholeFile(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	m.Package.Version = "3.18.0"
	m.Source.SHA256 = "0000000000000000000000000000000000000000000000000000000000000000"

	if err := Save(path, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Package.Version != "3.18.0" {
		t.Errorf("version not replaced: %s", again.Package.Version)
	}
	if _, err := os.Stat(path + ".tmp"); err == nil {
		t.Error("temp file left behind")
	}
}
