package domain

import (
	"context"
)

type MockGit struct {
	Remotes    []string
	Commits    []string
	Dirty      bool
	Tags       map[string]string
	Pushes     []string
	ForcedPush []bool
	AddErr     error
	CommitErr  error
	TagErr     error
	PushErr    error
}

func (m *MockGit) AddRemote(ctx context.Context, name, url string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Remotes = append(m.Remotes, name+" "+url)
	return nil
}

func (m *MockGit) CommitAll(ctx context.Context, message string) (bool, error) {
	if m.CommitErr != nil {
		return false, m.CommitErr
	}
	if !m.Dirty {
		return false, nil
	}
	m.Commits = append(m.Commits, message)
	return true, nil
}

func (m *MockGit) PushHead(ctx context.Context, remote, branch string, force bool) error {
	if m.PushErr != nil {
		return m.PushErr
	}
	m.Pushes = append(m.Pushes, remote+" HEAD:"+branch)
	m.ForcedPush = append(m.ForcedPush, force)
	return nil
}

func (m *MockGit) CreateTag(ctx context.Context, name, message string) error {
	if m.TagErr != nil {
		return m.TagErr
	}
	if m.Tags == nil {
		m.Tags = make(map[string]string)
	}
	m.Tags[name] = message
	return nil
}

func (m *MockGit) PushTag(ctx context.Context, remote, tag string, force bool) error {
	if m.PushErr != nil {
		return m.PushErr
	}
	m.Pushes = append(m.Pushes, remote+" "+tag)
	m.ForcedPush = append(m.ForcedPush, force)
	return nil
}

type MockChangelog struct {
	Entries map[string]string
	Err     error
}

func (c *MockChangelog) Read(version string) (string, error) {
	if c.Err != nil {
		return "", c.Err
	}
	body, ok := c.Entries[version]
	if !ok {
		return "", &missingChangelog{version}
	}
	return body, nil
}

type missingChangelog struct{ version string }

func (e *missingChangelog) Error() string { return "no changelog for " + e.version }

type MockUploader struct {
	Releases []Release
	Err      error
}

func (u *MockUploader) Publish(ctx context.Context, rel Release) error {
	if u.Err != nil {
		return u.Err
	}
	u.Releases = append(u.Releases, rel)
	return nil
}

type MockStore struct {
	Assets    []Asset
	Summaries []ReleaseSummary
	Err       error
}

func (s *MockStore) Collect(patterns []string) ([]Asset, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Assets, nil
}

func (s *MockStore) WriteSummary(ctx context.Context, sum ReleaseSummary) error {
	s.Summaries = append(s.Summaries, sum)
	return nil
}

type MockHost struct {
	Run       PipelineRun
	Err       error
	Called    int
	Downloads []string
}

func (h *MockHost) LatestPipeline(ctx context.Context, ref string) (PipelineRun, error) {
	h.Called++
	if h.Err != nil {
		return PipelineRun{}, h.Err
	}
	return h.Run, nil
}

func (h *MockHost) DownloadArtifact(ctx context.Context, ref, job, path, dest string) error {
	if h.Err != nil {
		return h.Err
	}
	h.Downloads = append(h.Downloads, job+":"+path)
	return nil
}

type MockFetcher struct {
	Body []byte
	Err  error
	URLs []string
}

func (f *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.URLs = append(f.URLs, url)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Body, nil
}

type MockRunner struct {
	Commands []string
	Output   string
	Err      error
}

func (r *MockRunner) Run(ctx context.Context, command string, env Env) (string, error) {
	r.Commands = append(r.Commands, command)
	if r.Err != nil {
		return r.Output, r.Err
	}
	return r.Output, nil
}

type MockNotifier struct {
	Messages []string
	Err      error
}

func (n *MockNotifier) Notify(ctx context.Context, title, body, url string) error {
	n.Messages = append(n.Messages, title+"|"+body+"|"+url)
	return n.Err
}
