package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mirrorship/mirrorship/internal/application"
	"github.com/mirrorship/mirrorship/internal/domain"
	"github.com/mirrorship/mirrorship/internal/infrastructure/cihost_http"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
	"github.com/mirrorship/mirrorship/internal/infrastructure/logging"
	"github.com/mirrorship/mirrorship/internal/infrastructure/notify_exec"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the upstream CI and release when its pipeline goes green",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New()
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatal("config", zap.Error(err))
		}
		if err := cfg.RequireRelease(); err != nil {
			log.Fatal("config", zap.Error(err))
		}

		host := cihost_http.New(cfg.Host.BaseURL, cfg.Host.Token, cfg.Host.ProjectID, cfg.Host.Timeout)
		note := notify_exec.New()
		release := newReleaseUseCase(cfg)

		fire := func(ctx context.Context, run domain.PipelineRun) error {
			for _, d := range cfg.Watch.Downloads {
				dest := filepath.Join(cfg.Release.ArtifactDir, filepath.Base(d.Path))
				if err := host.DownloadArtifact(ctx, run.Ref, d.Job, d.Path, dest); err != nil {
					return fmt.Errorf("artifact %s from %s: %w", d.Path, d.Job, err)
				}
			}

			env, err := config.Environ(cfg.Pipeline.EnvFile)
			if err != nil {
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
		}

		sched := application.NewScheduler(log, host, note, cfg.Watch.Ref, cfg.Watch.Interval, cfg.Watch.PauseFile, fire)
		watchAndReload(cfgPath, log, sched)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		log.Info("start",
			zap.String("version", version),
			zap.String("ref", cfg.Watch.Ref),
			zap.Duration("every", cfg.Watch.Interval),
			zap.String("host", cfg.Host.BaseURL),
			zap.String("pause_file", cfg.Watch.PauseFile),
		)
		sched.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchAndReload(cfgPath string, log *zap.Logger, sched *application.Scheduler) {
	if cfgPath == "" {
		return
	}

	dir := filepath.Dir(cfgPath)
	base := filepath.Base(cfgPath)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify init failed", zap.Error(err))
		return
	}

	go func() {
		defer func() { _ = w.Close() }()

		var timer *time.Timer
		fire := func() {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				log.Warn("config reload failed", zap.Error(err))
				return
			}
			sched.UpdateRef(cfg.Watch.Ref)
		}

		startTimer := func() {
			if timer == nil {
				timer = time.AfterFunc(300*time.Millisecond, fire)
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(300 * time.Millisecond)
		}

		if err := w.Add(dir); err != nil {
			log.Warn("fsnotify add dir failed", zap.String("dir", dir), zap.Error(err))
			return
		}

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					startTimer()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()
}
