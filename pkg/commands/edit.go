package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/timeline"
	"github.com/yakan-007/interruptlog/pkg/timeutil"
)

func addEdit(topLevel *cobra.Command) {
	var start, end, label, category, taskID, kind, gapLabel string
	var noGap bool

	cmd := &cobra.Command{
		Use:   "edit <event-id>",
		Short: "Retroactively change an event's time range",
		Long: `Edit moves an event's boundaries after the fact. The new range must not
overlap the neighboring events and must not end in the future. Shrinking
the end of an event leaves a gap on the timeline; by default the freed
time is kept visible as an "unknown activity" event that a later edit can
claim.`,
		Example: `
interruptlog edit 1a2b3c --end 2026-08-30T15:00:00+09:00
interruptlog edit 1a2b3c --start 2026-08-30T14:00:00+09:00 --end 2026-08-30T15:00:00+09:00 --no-gap
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if end == "" {
				return fmt.Errorf("--end is required")
			}
			endAt, err := timeutil.ParseRFC3339(end)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			var createGap *bool
			if noGap {
				f := false
				createGap = &f
			}

			return withService(func(ctx context.Context, svc *app.Service) error {
				if start == "" && label == "" && category == "" && taskID == "" && kind == "" {
					return svc.Timeline.UpdateEventEndTime(args[0], endAt.UnixMilli(), gapLabel, createGap)
				}

				edit := timeline.RangeEdit{
					EventID:   args[0],
					NewEnd:    endAt.UnixMilli(),
					GapLabel:  gapLabel,
					CreateGap: createGap,
				}
				if start != "" {
					startAt, err := timeutil.ParseRFC3339(start)
					if err != nil {
						return fmt.Errorf("invalid --start: %w", err)
					}
					edit.NewStart = startAt.UnixMilli()
				} else {
					for _, e := range svc.Timeline.Events() {
						if e.ID == args[0] {
							edit.NewStart = e.Start
							break
						}
					}
				}
				edit.NewType = event.Type(kind)
				if cmd.Flags().Changed("label") {
					edit.NewLabel = &label
				}
				if cmd.Flags().Changed("category") {
					edit.NewCategoryID = &category
				}
				if cmd.Flags().Changed("task") {
					edit.MyTaskID = &taskID
				}
				return svc.Timeline.UpdateEventTimeRange(edit)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "new start, RFC3339 (unchanged when omitted)")
	cmd.Flags().StringVar(&end, "end", "", "new end, RFC3339")
	cmd.Flags().StringVar(&label, "label", "", "new label; claims an unknown-activity gap")
	cmd.Flags().StringVar(&category, "category", "", "new category id")
	cmd.Flags().StringVar(&taskID, "task", "", "task id to link; claims an unknown-activity gap")
	cmd.Flags().StringVar(&kind, "type", "", "new event type: task, interrupt, or break")
	cmd.Flags().StringVar(&gapLabel, "gap-label", "", "label for the gap left by shrinking the end")
	cmd.Flags().BoolVar(&noGap, "no-gap", false, "discard the freed time instead of leaving a gap")

	topLevel.AddCommand(cmd)
}
