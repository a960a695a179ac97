package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/atmovis/internal/logging"
)

var (
	logLevel  string
	logFormat string
	log       *logrus.Logger
)

// exitError carries a process status for errors already reported to the user.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "atmovis",
		Short:         "atmospheric forecast visualization and extraction",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel, logFormat, os.Stderr)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(newViewCmd(), newExtractCmd(), newInspectCmd(), newListCmd(), newPresetsCmd())
	return rootCmd
}

// main runs the atmovis CLI. Errors not already reported exit with status 1.
func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
