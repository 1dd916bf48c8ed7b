package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mirrorship/mirrorship/internal/domain"
	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
	"github.com/mirrorship/mirrorship/internal/infrastructure/pipeline_yaml"
)

var jobsJSON bool

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List pipeline jobs with their rule decision for this environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		env, err := config.Environ(cfg.Pipeline.EnvFile)
		if err != nil {
			return err
		}

		p, err := pipeline_yaml.Load(cfg.Pipeline.Path)
		if err != nil {
			return err
		}

		type row struct {
			Name      string            `json:"name"`
			Stage     string            `json:"stage,omitempty"`
			Action    string            `json:"action,omitempty"`
			Run       bool              `json:"run"`
			Variables map[string]string `json:"variables,omitempty"`
		}

		rows := make([]row, 0, len(p.Jobs))
		for _, j := range p.Jobs {
			d, err := domain.EvaluateRules(j.Rules, env.Merge(p.Variables, j.Variables))
			if err != nil {
				return fmt.Errorf("job %s: %w", j.Name, err)
			}
			rows = append(rows, row{Name: j.Name, Stage: j.Stage, Action: j.Action, Run: d.Run, Variables: d.Variables})
		}

		if jobsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tSTAGE\tACTION\tRUN\tBINDS")
		for _, r := range rows {
			binds := make([]string, 0, len(r.Variables))
			for k, v := range r.Variables {
				binds = append(binds, k+"="+v)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", r.Name, r.Stage, r.Action, r.Run, strings.Join(binds, ","))
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	jobsCmd.Flags().BoolVar(&jobsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(jobsCmd)
}
