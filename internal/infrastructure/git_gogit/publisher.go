package git_gogit

import (
	"context"
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/mirrorship/mirrorship/internal/domain"
)

// Publisher performs all git operations against the local repository
// through go-git; nothing shells out.
type Publisher struct {
	path string
	auth *githttp.BasicAuth

	name  string
	email string
}

func New(path, token string) *Publisher {
	var auth *githttp.BasicAuth
	if token != "" {
		auth = &githttp.BasicAuth{Username: "oauth2", Password: token}
	}
	return &Publisher{
		path:  path,
		auth:  auth,
		name:  "mirrorship",
		email: "mirrorship@localhost",
	}
}

func (p *Publisher) AddRemote(_ context.Context, name, url string) error {
	repo, err := git.PlainOpen(p.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.path, err)
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if errors.Is(err, git.ErrRemoteExists) {
		return domain.ErrRemoteExists
	}
	return err
}

func (p *Publisher) CommitAll(_ context.Context, message string) (bool, error) {
	repo, err := git.PlainOpen(p.path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", p.path, err)
	}

	w, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}

	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("stage changes: %w", err)
	}

	if _, err := w.Commit(message, &git.CommitOptions{Author: p.signature()}); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (p *Publisher) PushHead(ctx context.Context, remote, branch string, force bool) error {
	repo, err := git.PlainOpen(p.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}

	spec := fmt.Sprintf("%s:refs/heads/%s", head.Name(), branch)
	if force {
		spec = "+" + spec
	}
	return p.push(ctx, repo, remote, spec, force)
}

func (p *Publisher) CreateTag(_ context.Context, name, message string) error {
	repo, err := git.PlainOpen(p.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}

	_, err = repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger:  p.signature(),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("tag %s: %w", name, err)
	}
	return nil
}

func (p *Publisher) PushTag(ctx context.Context, remote, tag string, force bool) error {
	repo, err := git.PlainOpen(p.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.path, err)
	}

	spec := fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)
	if force {
		spec = "+" + spec
	}
	return p.push(ctx, repo, remote, spec, force)
}

func (p *Publisher) push(ctx context.Context, repo *git.Repository, remote, spec string, force bool) error {
	err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(spec)},
		Auth:       p.auth,
		Force:      force,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("push %s to %s: %w", spec, remote, err)
	}
	return nil
}

func (p *Publisher) signature() *object.Signature {
	return &object.Signature{Name: p.name, Email: p.email, When: time.Now()}
}
