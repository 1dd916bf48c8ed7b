package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorship/mirrorship/internal/application"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
	"github.com/mirrorship/mirrorship/internal/infrastructure/manifest_yaml"
	"github.com/mirrorship/mirrorship/internal/infrastructure/shell_exec"
	"github.com/mirrorship/mirrorship/internal/infrastructure/source_http"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest.yaml>",
	Short: "Check a dependency manifest: fetch the pinned source and compare hashes",
	Args:  cobra.MatchAll(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		m, err := manifest_yaml.Load(args[0])
		if err != nil {
			return err
		}

		uc := application.NewVerifyUseCase(
			manifest_yaml.NewResolver(),
			source_http.New(cfg.Host.Timeout),
			shell_exec.New(cfg.Repo.Path),
		)

		report, err := uc.Verify(cmd.Context(), m)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s: source ok (%s)\n", m.Package.Name, m.Package.Version, report.URL)
		if report.TestsSkipped {
			fmt.Println("tests: skipped by manifest (recorded limitation)")
		} else {
			fmt.Printf("tests: %d passed\n", report.TestsRun)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
