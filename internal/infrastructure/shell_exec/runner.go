package shell_exec

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/mirrorship/mirrorship/internal/domain"
)

// Runner executes one pipeline script command through the shell, with
// env layered over the inherited process environment.
type Runner struct {
	shell string
	dir   string
}

func New(dir string) *Runner {
	return &Runner{shell: "sh", dir: dir}
}

func (r *Runner) Run(ctx context.Context, command string, env domain.Env) (string, error) {
	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Dir = r.dir

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}
