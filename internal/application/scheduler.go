package application

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/mirrorship/mirrorship/internal/domain"
	"go.uber.org/zap"
)

// OnSuccess runs once when the watched upstream pipeline turns green.
type OnSuccess func(ctx context.Context, run domain.PipelineRun) error

// Scheduler polls the upstream CI host for the watched ref and fires
// the release callback on the first successful pipeline it has not
// seen before.
type Scheduler struct {
	log       *zap.Logger
	host      domain.CIHost
	note      domain.Notifier
	every     time.Duration
	pauseFile string
	fire      OnSuccess

	mu   sync.RWMutex
	ref  string
	last struct {
		id     int64
		status domain.PipelineStatus
	}
}

func NewScheduler(l *zap.Logger, host domain.CIHost, note domain.Notifier, ref string, every time.Duration, pauseFile string, fire OnSuccess) *Scheduler {
	return &Scheduler{
		log: l, host: host, note: note, ref: ref, every: every, pauseFile: pauseFile, fire: fire,
	}
}

func (s *Scheduler) UpdateRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref = ref
	s.log.Info("watch ref updated", zap.String("ref", ref))
}

func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.every)
	defer t.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.isPaused() {
		s.log.Debug("paused: skipping poll")
		return
	}

	s.mu.RLock()
	ref := s.ref
	s.mu.RUnlock()

	run, err := s.host.LatestPipeline(ctx, ref)
	if err != nil {
		s.log.Warn("poll failed", zap.String("ref", ref), zap.Error(err))
		return
	}

	if run.ID == s.last.id && run.Status == s.last.status {
		return
	}
	s.last.id = run.ID
	s.last.status = run.Status

	s.log.Info("upstream pipeline",
		zap.Int64("id", run.ID),
		zap.String("ref", run.Ref),
		zap.String("status", string(run.Status)),
	)

	if run.Status != domain.StatusSuccess || s.fire == nil {
		return
	}

	if err := s.fire(ctx, run); err != nil {
		s.log.Error("release failed", zap.Int64("pipeline", run.ID), zap.Error(err))
		if s.note != nil {
			_ = s.note.Notify(ctx, "❌ release failed", err.Error(), run.WebURL)
		}
		return
	}

	if s.note != nil {
		_ = s.note.Notify(ctx, "✅ release published", run.Ref, run.WebURL)
	}
}

func (s *Scheduler) isPaused() bool {
	if s.pauseFile == "" {
		return false
	}
	_, err := os.Stat(s.pauseFile)
	return err == nil
}
