package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/store"
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "interruptlog",
		Short: "Track tasks, interrupts, and breaks on the command line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addStart(topLevel)
	addStop(topLevel)
	addInterrupt(topLevel)
	addBreak(topLevel)
	addResume(topLevel)
	addCancel(topLevel)
	addLog(topLevel)
	addEdit(topLevel)
	addTask(topLevel)
	addCategory(topLevel)
}

// withService opens the configured store, hydrates a service over it, runs
// fn, and flushes pending writes before returning.
func withService(fn func(ctx context.Context, svc *app.Service) error) error {
	gateway, err := store.Open(nil)
	if err != nil {
		return err
	}
	svc := app.New(gateway)
	defer svc.Close()

	ctx := context.Background()
	if err := svc.Hydrate(ctx); err != nil {
		return err
	}
	return fn(ctx, svc)
}
