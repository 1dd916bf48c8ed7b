package domain

import (
	"context"
	"errors"
)

// ErrRemoteExists is returned by AddRemote when the remote is already
// configured. Callers treat it as success.
var ErrRemoteExists = errors.New("remote already exists")

// ErrHashMismatch aborts a manifest verification before any build step.
var ErrHashMismatch = errors.New("source hash mismatch")

type GitPublisher interface {
	AddRemote(ctx context.Context, name, url string) error
	CommitAll(ctx context.Context, message string) (bool, error)
	PushHead(ctx context.Context, remote, branch string, force bool) error
	CreateTag(ctx context.Context, name, message string) error
	PushTag(ctx context.Context, remote, tag string, force bool) error
}

type ChangelogSource interface {
	Read(version string) (string, error)
}

type ReleaseUploader interface {
	Publish(ctx context.Context, rel Release) error
}

type ArtifactStore interface {
	Collect(patterns []string) ([]Asset, error)
	WriteSummary(ctx context.Context, s ReleaseSummary) error
}

type CIHost interface {
	LatestPipeline(ctx context.Context, ref string) (PipelineRun, error)
	DownloadArtifact(ctx context.Context, ref, job, path, dest string) error
}

type SourceFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type SourceResolver interface {
	SourceURL(m Manifest) (string, error)
}

type CommandRunner interface {
	Run(ctx context.Context, command string, env Env) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, title, body, url string) error
}
