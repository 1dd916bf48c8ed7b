package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/mirrorship/mirrorship/internal/domain"
)

// ActionFunc is a built-in job body (mirror publish, tag & release)
// wired in by the caller instead of a shell script.
type ActionFunc func(ctx context.Context, env domain.Env) error

// PipelineUseCase executes a pipeline definition: rules decide per job
// whether it runs, needs force ordering on upstream jobs, script jobs
// run through the shell, action jobs dispatch to registered functions.
// Jobs run sequentially; the first hard failure aborts the run.
type PipelineUseCase struct {
	run     domain.CommandRunner
	note    domain.Notifier
	actions map[string]ActionFunc
}

func NewPipelineUseCase(run domain.CommandRunner, note domain.Notifier, actions map[string]ActionFunc) *PipelineUseCase {
	return &PipelineUseCase{run: run, note: note, actions: actions}
}

func (uc *PipelineUseCase) Execute(ctx context.Context, p domain.Pipeline, env domain.Env) ([]domain.JobResult, error) {
	jobs, err := orderJobs(p)
	if err != nil {
		return nil, err
	}

	var results []domain.JobResult
	for _, job := range jobs {
		base := env.Merge(p.Variables, job.Variables)

		d, err := domain.EvaluateRules(job.Rules, base)
		if err != nil {
			return results, fmt.Errorf("job %s: %w", job.Name, err)
		}
		if !d.Run {
			results = append(results, domain.JobResult{Job: job.Name, Status: domain.JobSkipped})
			continue
		}

		res := uc.runJob(ctx, job, base.Merge(d.Variables))
		results = append(results, res)

		uc.notify(ctx, res)

		if res.Status == domain.JobFailed && !job.AllowFailure {
			return results, fmt.Errorf("job %s failed", job.Name)
		}
	}

	return results, nil
}

func (uc *PipelineUseCase) runJob(ctx context.Context, job domain.Job, env domain.Env) domain.JobResult {
	if job.Action != "" {
		fn, ok := uc.actions[job.Action]
		if !ok {
			return domain.JobResult{Job: job.Name, Status: domain.JobFailed, Output: "unknown action " + job.Action}
		}
		if err := fn(ctx, env); err != nil {
			return domain.JobResult{Job: job.Name, Status: domain.JobFailed, Output: err.Error()}
		}
		return domain.JobResult{Job: job.Name, Status: domain.JobSuccess}
	}

	var out strings.Builder
	for _, cmd := range job.Script {
		o, err := uc.run.Run(ctx, cmd, env)
		out.WriteString(o)
		if err != nil {
			return domain.JobResult{Job: job.Name, Status: domain.JobFailed, Output: out.String()}
		}
	}
	return domain.JobResult{Job: job.Name, Status: domain.JobSuccess, Output: out.String()}
}

func (uc *PipelineUseCase) notify(ctx context.Context, res domain.JobResult) {
	if uc.note == nil {
		return
	}
	title := "✅ " + res.Job
	if res.Status == domain.JobFailed {
		title = "❌ " + res.Job
	}
	_ = uc.note.Notify(ctx, title, string(res.Status), "")
}

// orderJobs returns jobs in stage order, validating that every need
// names a known job scheduled earlier. Needs may not reach forward, so
// cycles are impossible in an accepted ordering.
func orderJobs(p domain.Pipeline) ([]domain.Job, error) {
	stageIdx := make(map[string]int, len(p.Stages))
	for i, s := range p.Stages {
		stageIdx[s] = i
	}

	var ordered []domain.Job
	if len(p.Stages) == 0 {
		ordered = append(ordered, p.Jobs...)
	} else {
		for i := range p.Stages {
			for _, j := range p.Jobs {
				if stageIdx[j.Stage] == i {
					ordered = append(ordered, j)
				}
			}
		}
		for _, j := range p.Jobs {
			if _, ok := stageIdx[j.Stage]; !ok {
				return nil, fmt.Errorf("job %s: unknown stage %q", j.Name, j.Stage)
			}
		}
	}

	seen := make(map[string]bool, len(ordered))
	for _, j := range ordered {
		for _, need := range j.Needs {
			if !seen[need] {
				return nil, fmt.Errorf("job %s: need %q is not an earlier job", j.Name, need)
			}
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("duplicate job %q", j.Name)
		}
		seen[j.Name] = true
	}

	return ordered, nil
}
