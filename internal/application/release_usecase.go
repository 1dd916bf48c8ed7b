package application

import (
	"context"
	"fmt"
	"time"

	"github.com/mirrorship/mirrorship/internal/domain"
)

// ReleaseInput drives one Tag & Release run.
type ReleaseInput struct {
	Version   string
	Remote    string
	Artifacts []string
}

// ReleaseUseCase tags the repository as v<version> with the changelog
// body as the tag message, force-pushes the tag and uploads the built
// packages. Single-shot: any failing step fails the whole run and
// nothing is retried.
type ReleaseUseCase struct {
	git       domain.GitPublisher
	changelog domain.ChangelogSource
	up        domain.ReleaseUploader
	store     domain.ArtifactStore
}

func NewReleaseUseCase(git domain.GitPublisher, changelog domain.ChangelogSource, up domain.ReleaseUploader, store domain.ArtifactStore) *ReleaseUseCase {
	return &ReleaseUseCase{git: git, changelog: changelog, up: up, store: store}
}

func (uc *ReleaseUseCase) Publish(ctx context.Context, in ReleaseInput) (domain.Release, error) {
	if in.Version == "" {
		return domain.Release{}, fmt.Errorf("empty version")
	}

	// The changelog must pre-exist; its absence fails the run before
	// any tag is created.
	body, err := uc.changelog.Read(in.Version)
	if err != nil {
		return domain.Release{}, fmt.Errorf("changelog for %s: %w", in.Version, err)
	}

	assets, err := uc.store.Collect(in.Artifacts)
	if err != nil {
		return domain.Release{}, fmt.Errorf("collect artifacts: %w", err)
	}
	if len(assets) == 0 {
		return domain.Release{}, fmt.Errorf("no artifacts matched %v", in.Artifacts)
	}

	tag := "v" + in.Version
	if err := uc.git.CreateTag(ctx, tag, body); err != nil {
		return domain.Release{}, fmt.Errorf("create tag %s: %w", tag, err)
	}

	if err := uc.git.PushTag(ctx, in.Remote, tag, true); err != nil {
		return domain.Release{}, fmt.Errorf("push tag %s: %w", tag, err)
	}

	rel := domain.Release{Tag: tag, Description: body, Assets: assets}
	if err := uc.up.Publish(ctx, rel); err != nil {
		return domain.Release{}, fmt.Errorf("upload release %s: %w", tag, err)
	}

	names := make([]string, 0, len(assets))
	for _, a := range assets {
		names = append(names, a.Name)
	}
	_ = uc.store.WriteSummary(ctx, domain.ReleaseSummary{
		Tag: tag, Assets: names, Published: time.Now().Unix(),
	})

	return rel, nil
}
