package domain

import (
	"testing"
)

func publishRules() []Rule {
	return []Rule{
		{If: `$FORK_TEST`},
		{If: `$CI_COMMIT_REF_NAME == "white/master"`, Variables: map[string]string{"DESTINY_BRANCH": "master"}},
	}
}

func TestEvaluateRules_BranchMatchBindsVariables(t *testing.T) {
	env := Env{"CI_COMMIT_REF_NAME": "white/master"}

	d, err := EvaluateRules(publishRules(), env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Run {
		t.Fatal("expected job to run")
	}
	if d.Variables["DESTINY_BRANCH"] != "master" {
		t.Errorf("expected DESTINY_BRANCH=master, got %q", d.Variables["DESTINY_BRANCH"])
	}
}

func TestEvaluateRules_NoMatchSkips(t *testing.T) {
	env := Env{"CI_COMMIT_REF_NAME": "other"}

	d, err := EvaluateRules(publishRules(), env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Run {
		t.Fatal("expected job to be skipped")
	}
}

func TestEvaluateRules_FirstMatchWins(t *testing.T) {
	rules := []Rule{
		{If: `$BRANCH == "main"`, Variables: map[string]string{"TARGET": "first"}},
		{If: `$BRANCH == "main"`, Variables: map[string]string{"TARGET": "second"}},
	}

	d, err := EvaluateRules(rules, Env{"BRANCH": "main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Variables["TARGET"] != "first" {
		t.Errorf("later rule applied: TARGET=%q", d.Variables["TARGET"])
	}
}

func TestEvaluateRules_ForkTestFlagRuns(t *testing.T) {
	d, err := EvaluateRules(publishRules(), Env{"FORK_TEST": "1", "CI_COMMIT_REF_NAME": "feature"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Run {
		t.Fatal("expected FORK_TEST to enable the job")
	}
	if len(d.Variables) != 0 {
		t.Errorf("fork-test rule binds no variables, got %v", d.Variables)
	}
}

func TestEvaluateRules_WhenNeverSkipsEvenOnMatch(t *testing.T) {
	rules := []Rule{
		{If: `$BRANCH == "main"`, When: WhenNever},
		{If: `$BRANCH == "main"`},
	}

	d, err := EvaluateRules(rules, Env{"BRANCH": "main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Run {
		t.Fatal("when: never must skip even though a later rule would match")
	}
}

func TestEvaluateRules_NoRulesRuns(t *testing.T) {
	d, err := EvaluateRules(nil, Env{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Run {
		t.Fatal("job without rules must run")
	}
}

func TestEvalCondition(t *testing.T) {
	env := Env{"A": "x", "B": "", "REF": "white/master"}

	cases := []struct {
		expr string
		want bool
	}{
		{`$A`, true},
		{`$B`, false},
		{`$MISSING`, false},
		{`$A == "x"`, true},
		{`$A == "y"`, false},
		{`$A != "y"`, true},
		{`$REF == "white/master"`, true},
		{`$A == "x" && $B`, false},
		{`$A == "x" || $B`, true},
		{`$B || $MISSING || $A`, true},
		{`($A || $B) && $REF == "white/master"`, true},
		{`$A == 'x'`, true},
	}

	for _, c := range cases {
		got, err := EvalCondition(c.expr, env)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.expr, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: got %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestEvalCondition_Errors(t *testing.T) {
	for _, expr := range []string{
		`$`,
		`$A == `,
		`$A == B`,
		`"x" == "x"`,
		`($A`,
		`$A ==`,
		`$A @@ "x"`,
		`$A == "unterminated`,
	} {
		if _, err := EvalCondition(expr, Env{}); err == nil {
			t.Errorf("%s: expected error", expr)
		}
	}
}
