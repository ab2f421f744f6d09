package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/timeline"
	"github.com/yakan-007/interruptlog/pkg/timeutil"
)

func addBreak(topLevel *cobra.Command) {
	var kind, span string

	cmd := &cobra.Command{
		Use:   "break [label]",
		Short: "Start a break, remembering the task to resume",
		Example: `
interruptlog break lunch --for 45m
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.Join(args, " ")
			minutes := 0
			if span != "" {
				var err error
				minutes, err = timeutil.ParseMinutes(span)
				if err != nil {
					return err
				}
			}
			return withService(func(ctx context.Context, svc *app.Service) error {
				e := svc.Timeline.StartBreak(timeline.StartBreak{
					Label:           label,
					BreakType:       kind,
					DurationMinutes: minutes,
				})
				fmt.Printf("break started at %s\n", timeutil.Clock(e.Start))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "break type, e.g. lunch or coffee")
	cmd.Flags().StringVar(&span, "for", "", "intended length, e.g. 15m")

	topLevel.AddCommand(cmd)
}
