package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mirrorship/mirrorship/internal/domain"
)

type Config struct {
	Host struct {
		BaseURL   string        `yaml:"base_url"`
		Token     string        `yaml:"token"`
		ProjectID int64         `yaml:"project_id"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"host"`

	Repo struct {
		Path string `yaml:"path"`
	} `yaml:"repo"`

	Mirror struct {
		Remote        string `yaml:"remote"`
		URL           string `yaml:"url"`
		Branch        string `yaml:"branch"`
		CommitMessage string `yaml:"commit_message"`
	} `yaml:"mirror"`

	Release struct {
		VersionExpr  string   `yaml:"version_expr"`
		ChangelogDir string   `yaml:"changelog_dir"`
		ArtifactDir  string   `yaml:"artifact_dir"`
		Artifacts    []string `yaml:"artifacts"`
		SummaryPath  string   `yaml:"summary_path"`
	} `yaml:"release"`

	Pipeline struct {
		Path    string `yaml:"path"`
		EnvFile string `yaml:"env_file"`
	} `yaml:"pipeline"`

	Watch struct {
		Ref       string        `yaml:"ref"`
		Interval  time.Duration `yaml:"interval"`
		PauseFile string        `yaml:"pause_file"`
		Downloads []Download    `yaml:"downloads"`
	} `yaml:"watch"`
}

// Download names one artifact to pull from an upstream job before a
// watched release fires.
type Download struct {
	Job  string `yaml:"job"`
	Path string `yaml:"path"`
}

func Load(path string) (Config, error) {
	var c Config

	c.Host.BaseURL = "https://gitlab.com"
	c.Host.Timeout = 10 * time.Second
	c.Repo.Path = "."
	c.Mirror.Remote = "mirror"
	c.Mirror.Branch = "master"
	c.Mirror.CommitMessage = "ci: publish snapshot"
	c.Release.ChangelogDir = "CHANGELOG"
	c.Release.ArtifactDir = "dist"
	c.Release.Artifacts = []string{"*.deb", "*.rpm"}
	c.Release.SummaryPath = expandHome("~/.cache/mirrorship/release.json")
	c.Pipeline.Path = "pipeline.yaml"
	c.Watch.Ref = "white/master"
	c.Watch.Interval = 20 * time.Second
	c.Watch.PauseFile = expandHome("~/.cache/mirrorship_paused")

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}

	if v := os.Getenv("HOST_BASE_URL"); v != "" {
		c.Host.BaseURL = v
	}
	if v := os.Getenv("HOST_TOKEN"); v != "" {
		c.Host.Token = v
	}
	if v := os.Getenv("HOST_PROJECT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Host.ProjectID = id
		}
	}
	if v := os.Getenv("MIRROR_URL"); v != "" {
		c.Mirror.URL = v
	}
	if v := os.Getenv("MIRROR_BRANCH"); v != "" {
		c.Mirror.Branch = v
	}
	if v := os.Getenv("WATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Watch.Interval = d
		}
	}

	c.Release.SummaryPath = expandHome(c.Release.SummaryPath)
	c.Watch.PauseFile = expandHome(c.Watch.PauseFile)

	if c.Host.Timeout <= 0 {
		c.Host.Timeout = 10 * time.Second
	}
	if c.Watch.Interval <= 0 {
		c.Watch.Interval = 20 * time.Second
	}
	if c.Mirror.Branch == "" {
		c.Mirror.Branch = "master"
	}

	return c, nil
}

// RequireMirror checks the fields the mirror and release operations
// push with.
func (c Config) RequireMirror() error {
	if c.Mirror.URL == "" {
		return errors.New("mirror.url is required (YAML or MIRROR_URL)")
	}
	if c.Host.Token == "" {
		return errors.New("host.token is required (YAML or HOST_TOKEN)")
	}
	return nil
}

// RequireRelease checks everything Tag & Release touches: the mirror
// it pushes the tag to and the host API it uploads packages through.
func (c Config) RequireRelease() error {
	if err := c.RequireMirror(); err != nil {
		return err
	}
	return c.RequireHost()
}

// RequireHost checks the fields the upstream CI API client needs.
func (c Config) RequireHost() error {
	if c.Host.Token == "" {
		return errors.New("host.token is required (YAML or HOST_TOKEN)")
	}
	if c.Host.ProjectID == 0 {
		return errors.New("host.project_id is required (YAML or HOST_PROJECT_ID)")
	}
	return nil
}

func Save(path string, c Config) error {
	if path == "" {
		return errors.New("empty config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	b, err := yaml.Marshal(&c)
	if err != nil {
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

// Environ builds the rule-evaluation environment: the process env,
// optionally overlaid with a dotenv file.
func Environ(envFile string) (domain.Env, error) {
	env := domain.Env{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}

	if envFile != "" {
		extra, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
		for k, v := range extra {
			env[k] = v
		}
	}

	return env, nil
}

// ResolveVersion computes the release version: IMAGE_TAG when the CI
// context provides it, otherwise the configured version expression
// rendered against the environment.
func ResolveVersion(c Config, env domain.Env) (string, error) {
	if v := env["IMAGE_TAG"]; v != "" {
		return v, nil
	}

	if c.Release.VersionExpr == "" {
		return "", errors.New("no IMAGE_TAG and no release.version_expr configured")
	}

	tmpl, err := template.New("version").Funcs(sprig.FuncMap()).Parse(c.Release.VersionExpr)
	if err != nil {
		return "", fmt.Errorf("parse version_expr: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string(env)); err != nil {
		return "", fmt.Errorf("render version_expr: %w", err)
	}

	v := strings.TrimSpace(buf.String())
	if v == "" {
		return "", errors.New("version_expr rendered empty")
	}
	return v, nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if h, _ := os.UserHomeDir(); h != "" {
			return h + p[1:]
		}
	}
	return p
}
