package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorship/mirrorship/internal/application"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
)

var releaseVersion string

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Tag v<version> with the changelog and upload packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := cfg.RequireRelease(); err != nil {
			return err
		}

		env, err := config.Environ(cfg.Pipeline.EnvFile)
		if err != nil {
			return err
		}

		v := releaseVersion
		if v == "" {
			v, err = config.ResolveVersion(cfg, env)
			if err != nil {
				return err
			}
		}

		uc := newReleaseUseCase(cfg)
		rel, err := uc.Publish(cmd.Context(), application.ReleaseInput{
			Version:   v,
			Remote:    cfg.Mirror.Remote,
			Artifacts: cfg.Release.Artifacts,
		})
		if err != nil {
			return err
		}

		fmt.Printf("released %s with %d assets\n", rel.Tag, len(rel.Assets))
		return nil
	},
}

func init() {
	releaseCmd.Flags().StringVar(&releaseVersion, "version", "", "release version (default: IMAGE_TAG or release.version_expr)")
	rootCmd.AddCommand(releaseCmd)
}
