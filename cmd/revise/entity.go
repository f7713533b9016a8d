package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/revise/internal/cli"
	"github.com/at-ishikawa/revise/internal/store"
)

func newEntityCommand(kind store.Kind, short string) *cobra.Command {
	command := &cobra.Command{
		Use:   string(kind),
		Short: short,
	}

	command.AddCommand(
		newAddCommand(kind),
		newEditCommand(kind),
		newViewCommand(kind),
		newRemoveCommand(kind),
		newListCommand(kind),
		newReviewCommand(kind),
		newStatsCommand(kind),
	)
	return command
}

func newAddCommand(kind store.Kind) *cobra.Command {
	var group string
	command := &cobra.Command{
		Use:   "add <description>",
		Short: fmt.Sprintf("Add a %s, due immediately", kind),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			manager := cli.NewManager(ws.store, ws.algorithm, cmd.OutOrStdout())
			_, err = manager.Create(cmd.Context(), strings.Join(args, " "), group)
			return err
		},
	}
	command.Flags().StringVar(&group, "group", "", "group of the "+string(kind))
	return command
}

func newEditCommand(kind store.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <description>",
		Short: fmt.Sprintf("Change the description of a %s", kind),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd.Context(), kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			manager := cli.NewManager(ws.store, ws.algorithm, cmd.OutOrStdout())
			return manager.Edit(cmd.Context(), id, strings.Join(args[1:], " "))
		},
	}
}

func newViewCommand(kind store.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: fmt.Sprintf("Show a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd.Context(), kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			return cli.NewManager(ws.store, ws.algorithm, cmd.OutOrStdout()).View(cmd.Context(), id)
		},
	}
}

func newRemoveCommand(kind store.Kind) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Remove a %s", kind),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd.Context(), kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			return cli.NewManager(ws.store, ws.algorithm, cmd.OutOrStdout()).Remove(cmd.Context(), id)
		},
	}
}

func newListCommand(kind store.Kind) *cobra.Command {
	var options cli.ListOptions
	command := &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List due %ss", kind),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				options.Query = args[0]
			}
			ws, err := openWorkspace(cmd.Context(), kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			_, err = cli.NewManager(ws.store, ws.algorithm, cmd.OutOrStdout()).List(cmd.Context(), options)
			return err
		},
	}
	command.Flags().StringVar(&options.Group, "group", "", "only list this group")
	command.Flags().BoolVarP(&options.All, "all", "a", false, "include entries that are not due yet")
	return command
}

func newReviewCommand(kind store.Kind) *cobra.Command {
	var group string
	command := &cobra.Command{
		Use:   "review [id]",
		Short: fmt.Sprintf("Review due %ss, or one %s by id", kind, kind),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			ws, err := openWorkspace(cmd.Context(), kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			reviewer := cli.NewReviewer(ws.store, ws.algorithm, cmd.InOrStdin(), cmd.OutOrStdout())
			return runInterruptible(cmd.Context(), cmd, func(ctx context.Context) error {
				if id != 0 {
					_, err := reviewer.ReviewByID(ctx, id)
					return err
				}
				_, err := reviewer.ReviewDue(ctx, group)
				return err
			})
		},
	}
	command.Flags().StringVar(&group, "group", "", "only review this group")
	return command
}

func newStatsCommand(kind store.Kind) *cobra.Command {
	var year, month int
	command := &cobra.Command{
		Use:   "stats",
		Short: fmt.Sprintf("Show monthly review statistics of %ss", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month != 0 && year == 0 {
				return fmt.Errorf("--month requires --year")
			}
			if month < 0 || month > 12 {
				return fmt.Errorf("invalid month %d", month)
			}
			ws, err := openWorkspace(cmd.Context(), kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			_, err = cli.NewManager(ws.store, ws.algorithm, cmd.OutOrStdout()).Stats(cmd.Context(), year, month)
			return err
		},
	}
	command.Flags().IntVar(&year, "year", 0, "only count reviews in this year")
	command.Flags().IntVar(&month, "month", 0, "only count reviews in this month of --year")
	return command
}

// runInterruptible runs fn until it returns or an interrupt arrives.
// Reading input cannot be cancelled, so an interrupt abandons fn and reports an abort.
func runInterruptible(ctx context.Context, cmd *cobra.Command, fn func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx)
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt signal, exiting...")
		return cli.ErrAborted
	case err := <-errCh:
		return err
	}
}
