package cli

import (
	"context"

	"github.com/mirrorship/mirrorship/internal/application"
	"github.com/mirrorship/mirrorship/internal/domain"
	"github.com/mirrorship/mirrorship/internal/infrastructure/artifact_fs"
	"github.com/mirrorship/mirrorship/internal/infrastructure/changelog_fs"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
	"github.com/mirrorship/mirrorship/internal/infrastructure/git_gogit"
	"github.com/mirrorship/mirrorship/internal/infrastructure/release_http"
)

func newMirrorUseCase(cfg config.Config) *application.MirrorUseCase {
	return application.NewMirrorUseCase(git_gogit.New(cfg.Repo.Path, cfg.Host.Token))
}

func newReleaseUseCase(cfg config.Config) *application.ReleaseUseCase {
	return application.NewReleaseUseCase(
		git_gogit.New(cfg.Repo.Path, cfg.Host.Token),
		changelog_fs.New(cfg.Release.ChangelogDir),
		release_http.New(cfg.Host.BaseURL, cfg.Host.Token, cfg.Host.ProjectID, cfg.Host.Timeout),
		artifact_fs.New(cfg.Release.ArtifactDir, cfg.Release.SummaryPath),
	)
}

// mirrorInput derives the mirror destination from config plus the rule
// environment: a DESTINY_BRANCH bound by a matched rule overrides the
// configured branch.
func mirrorInput(cfg config.Config, env domain.Env) application.MirrorInput {
	branch := cfg.Mirror.Branch
	if v := env["DESTINY_BRANCH"]; v != "" {
		branch = v
	}
	return application.MirrorInput{
		Remote:        cfg.Mirror.Remote,
		URL:           cfg.Mirror.URL,
		Branch:        branch,
		CommitMessage: cfg.Mirror.CommitMessage,
	}
}

func pipelineActions(cfg config.Config) map[string]application.ActionFunc {
	mirror := newMirrorUseCase(cfg)
	release := newReleaseUseCase(cfg)

	return map[string]application.ActionFunc{
		domain.ActionMirror: func(ctx context.Context, env domain.Env) error {
			if err := cfg.RequireMirror(); err != nil {
				return err
			}
			return mirror.Publish(ctx, mirrorInput(cfg, env))
		},
		domain.ActionRelease: func(ctx context.Context, env domain.Env) error {
			if err := cfg.RequireRelease(); err != nil {
				return err
			}
			version, err := config.ResolveVersion(cfg, env)
			if err != nil {
				return err
			}
			_, err = release.Publish(ctx, application.ReleaseInput{
				Version:   version,
				Remote:    cfg.Mirror.Remote,
				Artifacts: cfg.Release.Artifacts,
			})
			return err
		},
	}
}
