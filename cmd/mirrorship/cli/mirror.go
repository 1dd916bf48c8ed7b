package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorship/mirrorship/internal/domain"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
	"github.com/mirrorship/mirrorship/internal/infrastructure/pipeline_yaml"
)

var mirrorForce bool

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Force-push the working tree to the mirror remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := cfg.RequireMirror(); err != nil {
			return err
		}

		env, err := config.Environ(cfg.Pipeline.EnvFile)
		if err != nil {
			return err
		}

		// The pipeline's mirror job gates this command; --force
		// bypasses the gate for manual runs.
		if !mirrorForce {
			d, err := mirrorDecision(cfg, env)
			if err != nil {
				return err
			}
			if !d.Run {
				fmt.Println("mirror gate not satisfied (set FORK_TEST or run on the publish branch; --force to override)")
				return nil
			}
			env = env.Merge(d.Variables)
		}

		uc := newMirrorUseCase(cfg)
		if err := uc.Publish(cmd.Context(), mirrorInput(cfg, env)); err != nil {
			return err
		}

		fmt.Printf("mirrored HEAD to %s\n", cfg.Mirror.URL)
		return nil
	},
}

func mirrorDecision(cfg config.Config, env domain.Env) (domain.Decision, error) {
	p, err := pipeline_yaml.Load(cfg.Pipeline.Path)
	if err != nil {
		// Without a pipeline definition there is no gate.
		return domain.Decision{Run: true}, nil
	}

	for _, j := range p.Jobs {
		if j.Action == domain.ActionMirror {
			return domain.EvaluateRules(j.Rules, env.Merge(p.Variables, j.Variables))
		}
	}
	return domain.Decision{Run: true}, nil
}

func init() {
	mirrorCmd.Flags().BoolVar(&mirrorForce, "force", false, "skip the rule gate")
	rootCmd.AddCommand(mirrorCmd)
}
