package artifact_fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mirrorship/mirrorship/internal/domain"
)

func TestCollect_MatchesPackageGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"faraday-server_amd64.deb", "faraday-server_amd64.rpm", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := New(dir, "")
	assets, err := s.Collect([]string{"*.deb", "*.rpm"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %v", assets)
	}
	if assets[0].Name != "faraday-server_amd64.deb" {
		t.Errorf("unexpected first asset %q", assets[0].Name)
	}
}

func TestCollect_DeduplicatesOverlappingPatterns(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.deb"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(dir, "")
	assets, err := s.Collect([]string{"*.deb", "a.*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("expected 1 asset, got %v", assets)
	}
}

func TestWriteSummary_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.json")

	s := New(".", path)
	err := s.WriteSummary(context.Background(), domain.ReleaseSummary{
		Tag: "v5.0.0", Assets: []string{"a.deb"}, Published: 123,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}
}
