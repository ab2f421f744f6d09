package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/timeline"
	"github.com/yakan-007/interruptlog/pkg/timeutil"
)

func addInterrupt(topLevel *cobra.Command) {
	var who, kind, urgency string

	cmd := &cobra.Command{
		Use:   "interrupt [label]",
		Short: "Log an interruption, remembering the task to resume",
		Example: `
interruptlog interrupt "prod incident" --who alice --urgency High
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.Join(args, " ")
			return withService(func(ctx context.Context, svc *app.Service) error {
				e := svc.Timeline.StartInterrupt(timeline.StartInterrupt{
					Label:         label,
					Who:           who,
					InterruptType: kind,
					Urgency:       event.Urgency(urgency),
				})
				fmt.Printf("interrupt started at %s\n", timeutil.Clock(e.Start))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "who interrupted you")
	cmd.Flags().StringVar(&kind, "type", "", "interrupt category label")
	cmd.Flags().StringVar(&urgency, "urgency", "", "Low, Medium, or High")

	addInterruptUpdate(cmd)
	topLevel.AddCommand(cmd)
}

func addInterruptUpdate(parent *cobra.Command) {
	var who, kind, urgency string

	cmd := &cobra.Command{
		Use:   "update [label]",
		Short: "Edit the running interrupt's details",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				var p timeline.InterruptDetails
				if len(args) > 0 {
					label := strings.Join(args, " ")
					p.Label = &label
				}
				if cmd.Flags().Changed("who") {
					p.Who = &who
				}
				if cmd.Flags().Changed("type") {
					p.InterruptType = &kind
				}
				if cmd.Flags().Changed("urgency") {
					u := event.Urgency(urgency)
					p.Urgency = &u
				}
				svc.Timeline.UpdateInterruptDetails(p)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "who interrupted you")
	cmd.Flags().StringVar(&kind, "type", "", "interrupt category label")
	cmd.Flags().StringVar(&urgency, "urgency", "", "Low, Medium, or High")

	parent.AddCommand(cmd)
}

func addResume(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "End the running interrupt or break and return to the task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				switch openType(svc) {
				case event.TypeInterrupt:
					svc.Timeline.StopInterruptAndResumePreviousTask()
				case event.TypeBreak:
					svc.Timeline.StopBreakAndResumePreviousTask()
				case event.TypeTask:
					return fmt.Errorf("a task is already running; nothing to resume from")
				default:
					return fmt.Errorf("nothing is running")
				}
				if id := svc.Timeline.CurrentEventID(); id != "" {
					fmt.Println("resumed")
				} else {
					fmt.Println("stopped; no task to resume")
				}
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addCancel(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Discard the running interrupt, keeping its time as unknown activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				svc.Timeline.CancelCurrentInterruptAndResumeTask()
				fmt.Println("canceled")
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func openType(svc *app.Service) event.Type {
	id := svc.Timeline.CurrentEventID()
	if id == "" {
		return ""
	}
	for _, e := range svc.Timeline.Events() {
		if e.ID == id {
			return e.Type
		}
	}
	return ""
}
