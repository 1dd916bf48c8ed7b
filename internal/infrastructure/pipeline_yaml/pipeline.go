package pipeline_yaml

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mirrorship/mirrorship/internal/domain"
)

type pipelineDTO struct {
	Stages    []string          `yaml:"stages,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`
	Jobs      []jobDTO          `yaml:"jobs"`
}

type jobDTO struct {
	Name         string            `yaml:"name"`
	Stage        string            `yaml:"stage,omitempty"`
	Action       string            `yaml:"action,omitempty"`
	Script       []string          `yaml:"script,omitempty"`
	Rules        []ruleDTO         `yaml:"rules,omitempty"`
	Needs        []string          `yaml:"needs,omitempty"`
	Tags         []string          `yaml:"tags,omitempty"`
	Variables    map[string]string `yaml:"variables,omitempty"`
	AllowFailure bool              `yaml:"allow_failure,omitempty"`
}

type ruleDTO struct {
	If        string            `yaml:"if,omitempty"`
	When      string            `yaml:"when,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`
}

// Load reads and validates a pipeline definition file.
func Load(path string) (domain.Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Pipeline{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (domain.Pipeline, error) {
	var dto pipelineDTO
	if err := yaml.Unmarshal(b, &dto); err != nil {
		return domain.Pipeline{}, fmt.Errorf("parse pipeline: %w", err)
	}

	if len(dto.Jobs) == 0 {
		return domain.Pipeline{}, errors.New("pipeline has no jobs")
	}

	p := domain.Pipeline{
		Stages:    dto.Stages,
		Variables: dto.Variables,
	}

	for i, j := range dto.Jobs {
		if j.Name == "" {
			return domain.Pipeline{}, fmt.Errorf("job %d has no name", i)
		}
		if j.Action == "" && len(j.Script) == 0 {
			return domain.Pipeline{}, fmt.Errorf("job %s has neither action nor script", j.Name)
		}
		if j.Action != "" && len(j.Script) > 0 {
			return domain.Pipeline{}, fmt.Errorf("job %s has both action and script", j.Name)
		}
		if len(dto.Stages) > 0 && j.Stage == "" {
			return domain.Pipeline{}, fmt.Errorf("job %s has no stage", j.Name)
		}

		job := domain.Job{
			Name:         j.Name,
			Stage:        j.Stage,
			Action:       j.Action,
			Script:       j.Script,
			Needs:        j.Needs,
			Tags:         j.Tags,
			Variables:    j.Variables,
			AllowFailure: j.AllowFailure,
		}
		for _, r := range j.Rules {
			switch r.When {
			case "", domain.WhenAlways, domain.WhenOnSuccess, domain.WhenNever:
			default:
				return domain.Pipeline{}, fmt.Errorf("job %s: unknown when %q", j.Name, r.When)
			}
			job.Rules = append(job.Rules, domain.Rule{If: r.If, When: r.When, Variables: r.Variables})
		}
		p.Jobs = append(p.Jobs, job)
	}

	return p, nil
}
