package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/mirrorship/mirrorship/internal/domain"
)

// MirrorInput describes where the working tree is pushed to.
type MirrorInput struct {
	Remote        string
	URL           string
	Branch        string
	CommitMessage string
}

// MirrorUseCase force-pushes the local HEAD onto the mirror's primary
// branch. There is no merge, conflict detection or rollback: the mirror
// is overwritten unconditionally.
type MirrorUseCase struct {
	git domain.GitPublisher
}

func NewMirrorUseCase(git domain.GitPublisher) *MirrorUseCase {
	return &MirrorUseCase{git: git}
}

func (uc *MirrorUseCase) Publish(ctx context.Context, in MirrorInput) error {
	err := uc.git.AddRemote(ctx, in.Remote, in.URL)
	if err != nil && !errors.Is(err, domain.ErrRemoteExists) {
		return fmt.Errorf("add remote %s: %w", in.Remote, err)
	}

	if _, err := uc.git.CommitAll(ctx, in.CommitMessage); err != nil {
		return fmt.Errorf("commit working tree: %w", err)
	}

	if err := uc.git.PushHead(ctx, in.Remote, in.Branch, true); err != nil {
		return fmt.Errorf("push HEAD to %s/%s: %w", in.Remote, in.Branch, err)
	}

	return nil
}
