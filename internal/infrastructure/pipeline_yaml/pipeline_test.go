package pipeline_yaml

import (
	"testing"

	"github.com/mirrorship/mirrorship/internal/domain"
)

const samplePipeline = `
stages:
  - publish
  - release

variables:
  FARADAY_USER: faraday

jobs:
  - name: mirror-publish
    stage: publish
    action: mirror
    tags: [faradaytests]
    rules:
      - if: '$FORK_TEST'
      - if: '$CI_COMMIT_REF_NAME == "white/master"'
        variables:
          DESTINY_BRANCH: master

  - name: tag-and-release
    stage: release
    action: release
    needs: [mirror-publish]
    rules:
      - if: '$CI_COMMIT_REF_NAME == "white/master"'
`

func TestParse_Sample(t *testing.T) {
	p, err := Parse([]byte(samplePipeline))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(p.Jobs))
	}

	mirror := p.Jobs[0]
	if mirror.Action != domain.ActionMirror {
		t.Errorf("unexpected action %q", mirror.Action)
	}
	if len(mirror.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(mirror.Rules))
	}
	if mirror.Rules[1].Variables["DESTINY_BRANCH"] != "master" {
		t.Errorf("rule variables lost: %v", mirror.Rules[1].Variables)
	}

	if p.Jobs[1].Needs[0] != "mirror-publish" {
		t.Errorf("needs lost: %v", p.Jobs[1].Needs)
	}
	if p.Variables["FARADAY_USER"] != "faraday" {
		t.Errorf("pipeline variables lost: %v", p.Variables)
	}
}

func TestParse_Rejections(t *testing.T) {
	cases := map[string]string{
		"no jobs":           `stages: [a]`,
		"nameless job":      "jobs:\n  - script: [echo]\n",
		"empty job":         "jobs:\n  - name: x\n",
		"action and script": "jobs:\n  - name: x\n    action: mirror\n    script: [echo]\n",
		"missing stage":     "stages: [a]\njobs:\n  - name: x\n    script: [echo]\n",
		"unknown when":      "jobs:\n  - name: x\n    script: [echo]\n    rules:\n      - when: sometimes\n",
	}

	for name, content := range cases {
		if _, err := Parse([]byte(content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
