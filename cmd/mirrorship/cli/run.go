package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mirrorship/mirrorship/internal/application"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
	"github.com/mirrorship/mirrorship/internal/infrastructure/logging"
	"github.com/mirrorship/mirrorship/internal/infrastructure/notify_exec"
	"github.com/mirrorship/mirrorship/internal/infrastructure/pipeline_yaml"
	"github.com/mirrorship/mirrorship/internal/infrastructure/shell_exec"
)

var runEnvFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the publish pipeline definition",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New()
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatal("config", zap.Error(err))
		}

		envFile := cfg.Pipeline.EnvFile
		if runEnvFile != "" {
			envFile = runEnvFile
		}
		env, err := config.Environ(envFile)
		if err != nil {
			log.Fatal("environment", zap.Error(err))
		}

		p, err := pipeline_yaml.Load(cfg.Pipeline.Path)
		if err != nil {
			log.Fatal("pipeline", zap.String("path", cfg.Pipeline.Path), zap.Error(err))
		}

		uc := application.NewPipelineUseCase(
			shell_exec.New(cfg.Repo.Path),
			notify_exec.New(),
			pipelineActions(cfg),
		)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		log.Info("start",
			zap.String("version", version),
			zap.String("pipeline", cfg.Pipeline.Path),
			zap.Int("jobs", len(p.Jobs)),
			zap.String("repo", cfg.Repo.Path),
		)

		results, err := uc.Execute(ctx, p, env)
		for _, r := range results {
			log.Info("job", zap.String("name", r.Job), zap.String("status", string(r.Status)))
		}
		if err != nil {
			log.Fatal("pipeline failed", zap.Error(err))
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&runEnvFile, "env-file", "", "dotenv file overlaying the CI environment")
	rootCmd.AddCommand(runCmd)
}
