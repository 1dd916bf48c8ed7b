package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorship/mirrorship/internal/application"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
	"github.com/mirrorship/mirrorship/internal/infrastructure/manifest_yaml"
	"github.com/mirrorship/mirrorship/internal/infrastructure/source_http"
)

var pinCmd = &cobra.Command{
	Use:   "pin <manifest.yaml> <version>",
	Short: "Repin a dependency manifest to a version and regenerate the file",
	Args:  cobra.MatchAll(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		m, err := manifest_yaml.Load(args[0])
		if err != nil {
			return err
		}

		uc := application.NewPinUseCase(
			manifest_yaml.NewResolver(),
			source_http.New(cfg.Host.Timeout),
		)

		out, err := uc.Pin(cmd.Context(), m, args[1])
		if err != nil {
			return err
		}

		if err := manifest_yaml.Save(args[0], out); err != nil {
			return err
		}

		fmt.Printf("%s pinned to %s (%s)\n", out.Package.Name, out.Package.Version, out.Source.SHA256)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinCmd)
}
