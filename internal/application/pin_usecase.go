package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mirrorship/mirrorship/internal/domain"
)

// PinUseCase repins a manifest to a new version: the source archive
// for that version is fetched and its hash becomes the declared one.
// The caller regenerates the manifest file from the result, replacing
// it whole.
type PinUseCase struct {
	resolve domain.SourceResolver
	fetch   domain.SourceFetcher
}

func NewPinUseCase(resolve domain.SourceResolver, fetch domain.SourceFetcher) *PinUseCase {
	return &PinUseCase{resolve: resolve, fetch: fetch}
}

func (uc *PinUseCase) Pin(ctx context.Context, m domain.Manifest, version string) (domain.Manifest, error) {
	if version == "" {
		return domain.Manifest{}, fmt.Errorf("empty version")
	}

	m.Package.Version = version

	url, err := uc.resolve.SourceURL(m)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("resolve source: %w", err)
	}

	body, err := uc.fetch.Fetch(ctx, url)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("fetch %s: %w", url, err)
	}

	sum := sha256.Sum256(body)
	m.Source.SHA256 = hex.EncodeToString(sum[:])

	return m, nil
}
