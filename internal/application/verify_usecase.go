package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mirrorship/mirrorship/internal/domain"
)

// VerifyUseCase checks a dependency manifest against reality: the
// pinned version's source archive must hash to the declared value
// before anything else happens. With skip_tests set, no test command
// runs at all; the report records that as a known limitation.
type VerifyUseCase struct {
	resolve domain.SourceResolver
	fetch   domain.SourceFetcher
	run     domain.CommandRunner
}

func NewVerifyUseCase(resolve domain.SourceResolver, fetch domain.SourceFetcher, run domain.CommandRunner) *VerifyUseCase {
	return &VerifyUseCase{resolve: resolve, fetch: fetch, run: run}
}

func (uc *VerifyUseCase) Verify(ctx context.Context, m domain.Manifest) (domain.VerifyReport, error) {
	url, err := uc.resolve.SourceURL(m)
	if err != nil {
		return domain.VerifyReport{}, fmt.Errorf("resolve source: %w", err)
	}

	body, err := uc.fetch.Fetch(ctx, url)
	if err != nil {
		return domain.VerifyReport{}, fmt.Errorf("fetch %s: %w", url, err)
	}

	sum := sha256.Sum256(body)
	got := hex.EncodeToString(sum[:])
	if got != m.Source.SHA256 {
		return domain.VerifyReport{URL: url, SHA256: got},
			fmt.Errorf("%w for %s: declared %s, got %s", domain.ErrHashMismatch, m.Package.Name, m.Source.SHA256, got)
	}

	report := domain.VerifyReport{URL: url, SHA256: got}

	if m.Build.SkipTests {
		report.TestsSkipped = true
		return report, nil
	}

	env := domain.Env{"PKG_NAME": m.Package.Name, "PKG_VERSION": m.Package.Version}
	for _, cmd := range m.Test.Commands {
		if _, err := uc.run.Run(ctx, cmd, env); err != nil {
			return report, fmt.Errorf("test %q: %w", cmd, err)
		}
		report.TestsRun++
	}

	return report, nil
}
