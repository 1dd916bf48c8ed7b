package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mirrorship/mirrorship/internal/infrastructure/config"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the watcher (creates the pause file)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(cfg.Watch.PauseFile), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(cfg.Watch.PauseFile, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		_ = f.Close()

		fmt.Printf("paused: %s\n", cfg.Watch.PauseFile)
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the watcher (removes the pause file)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		if err := os.Remove(cfg.Watch.PauseFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Println("not paused")
				return nil
			}
			return err
		}

		fmt.Println("resumed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
}
