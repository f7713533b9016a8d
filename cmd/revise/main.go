package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/revise/internal/cli"
	"github.com/at-ishikawa/revise/internal/store"
)

const exitCodeAborted = 2

var (
	configFile string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, cli.ErrAborted) {
			_, _ = fmt.Fprintln(os.Stderr, "quitting")
			os.Exit(exitCodeAborted)
		}
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCommand := &cobra.Command{
		Use:           "revise",
		Short:         "Spaced repetition scheduler for items and cards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	rootCommand.AddCommand(
		newEntityCommand(store.KindItem, "Items scheduled by quality 0-5 with an ease factor"),
		newEntityCommand(store.KindCard, "Cards scheduled by rating 0-3 with a memory model"),
		newExportCommand(),
		newImportCommand(),
	)
	return rootCommand
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}
