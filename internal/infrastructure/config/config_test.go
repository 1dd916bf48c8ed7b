package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mirrorship/mirrorship/internal/domain"
)

func TestLoad_FromYAMLAndEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	cfgFile := filepath.Join(tmp, "config.yaml")

	yaml := `
host:
  base_url: https://ci.example.com
  token: token-yaml
  project_id: 42
  timeout: 5s

mirror:
  url: https://code.example.com/org/repo.git
  branch: master

release:
  version_expr: '{{ .FARADAY_VERSION }}'
`
	if err := os.WriteFile(cfgFile, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("HOST_TOKEN", "token-env")
	defer os.Unsetenv("HOST_TOKEN")

	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Host.Token != "token-env" {
		t.Errorf("env override failed, got %s", c.Host.Token)
	}
	if c.Host.ProjectID != 42 {
		t.Errorf("project_id lost, got %d", c.Host.ProjectID)
	}
	if err := c.RequireMirror(); err != nil {
		t.Errorf("mirror config should be complete: %v", err)
	}
}

func TestLoad_DefaultsApply(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Mirror.Branch != "master" {
		t.Errorf("expected default branch master, got %s", c.Mirror.Branch)
	}
	if len(c.Release.Artifacts) != 2 {
		t.Errorf("expected default artifact globs, got %v", c.Release.Artifacts)
	}
	if err := c.RequireMirror(); err == nil {
		t.Error("incomplete mirror config must be rejected")
	}
}

func TestSave_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	c.Mirror.URL = "https://code.example.com/org/repo.git"
	c.Host.ProjectID = 42

	if err := Save(path, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Mirror.URL != c.Mirror.URL || again.Host.ProjectID != 42 {
		t.Errorf("round trip lost fields: %+v", again)
	}
	if _, err := os.Stat(path + ".tmp"); err == nil {
		t.Error("temp file left behind")
	}
}

func TestRequireRelease_NeedsProjectID(t *testing.T) {
	var c Config
	c.Mirror.URL = "https://code.example.com/org/repo.git"
	c.Host.Token = "tok"

	if err := c.RequireRelease(); err == nil {
		t.Fatal("release without project_id must be rejected before any upload")
	}

	c.Host.ProjectID = 42
	if err := c.RequireRelease(); err != nil {
		t.Errorf("complete release config rejected: %v", err)
	}
}

func TestResolveVersion_ImageTagWins(t *testing.T) {
	var c Config
	c.Release.VersionExpr = `{{ .FARADAY_VERSION }}`

	v, err := ResolveVersion(c, domain.Env{"IMAGE_TAG": "5.0.0", "FARADAY_VERSION": "4.0.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "5.0.0" {
		t.Errorf("IMAGE_TAG must win, got %s", v)
	}
}

func TestResolveVersion_ExpressionFallback(t *testing.T) {
	var c Config
	c.Release.VersionExpr = `{{ .FARADAY_VERSION }}`

	v, err := ResolveVersion(c, domain.Env{"FARADAY_VERSION": "4.0.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "4.0.0" {
		t.Errorf("got %s", v)
	}
}

func TestResolveVersion_EmptyIsError(t *testing.T) {
	var c Config
	c.Release.VersionExpr = `{{ .MISSING }}`

	if _, err := ResolveVersion(c, domain.Env{}); err == nil {
		t.Fatal("expected error for empty version")
	}
}

func TestEnviron_DotenvOverlay(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "ci.env")
	if err := os.WriteFile(envFile, []byte("CI_COMMIT_REF_NAME=white/master\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := Environ(envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env["CI_COMMIT_REF_NAME"] != "white/master" {
		t.Errorf("dotenv value missing: %v", env["CI_COMMIT_REF_NAME"])
	}
}
