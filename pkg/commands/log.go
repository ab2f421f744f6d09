package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/printers"
	"github.com/yakan-007/interruptlog/pkg/store"
	"github.com/yakan-007/interruptlog/pkg/timeutil"
)

func addLog(topLevel *cobra.Command) {
	var all, showID, follow bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the day's timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				pp := printers.PrettyPrint{
					ShowID:       showID,
					CategoryName: svc.Tasks.CategoryName,
				}

				render := func(events []event.Event) {
					if !all {
						start, end := timeutil.DayBounds(time.Now())
						filtered := make([]event.Event, 0, len(events))
						for _, e := range events {
							if e.Start >= start && e.Start < end {
								filtered = append(filtered, e)
							}
						}
						events = filtered
					}
					pp.NewLine()
					pp.Title("timeline")
					pp.Timeline(events, time.Now().UnixMilli())
				}

				render(svc.Timeline.Events())
				if !follow {
					return nil
				}
				return followTimeline(ctx, svc, render)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print the full history instead of today")
	cmd.Flags().BoolVar(&showID, "ids", false, "show event ids")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "re-print when another process updates the timeline")

	topLevel.AddCommand(cmd)
}

// followTimeline re-renders on every timeline change written by another
// process, until interrupted.
func followTimeline(ctx context.Context, svc *app.Service, render func([]event.Event)) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	changes, err := svc.WatchStore(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			if ch.Key != store.KeyEvents {
				continue
			}
			snap, err := svc.ReloadTimeline(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "log: reload timeline: %v\n", err)
				continue
			}
			render(snap.Events)
		}
	}
}
