package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/timeutil"
)

func addStart(topLevel *cobra.Command) {
	var taskID string

	cmd := &cobra.Command{
		Use:   "start [label]",
		Short: "Start a task event, closing whatever is running",
		Example: `
interruptlog start "write report"
interruptlog start --task 1a2b3c
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.Join(args, " ")
			return withService(func(ctx context.Context, svc *app.Service) error {
				e := svc.StartTask(label, taskID)
				fmt.Printf("started %q at %s\n", e.Label, timeutil.Clock(e.Start))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "id of the task to link and inherit category from")

	topLevel.AddCommand(cmd)
}

func addStop(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				svc.Timeline.StopCurrentEvent()
				fmt.Println("stopped")
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
