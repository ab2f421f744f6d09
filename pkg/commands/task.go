package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/printers"
	"github.com/yakan-007/interruptlog/pkg/task"
	"github.com/yakan-007/interruptlog/pkg/timeutil"
)

func addTask(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addTaskAdd(cmd)
	addTaskList(cmd)
	addTaskDone(cmd)
	addTaskRemove(cmd)
	addTaskRestore(cmd)

	topLevel.AddCommand(cmd)
}

func addTaskAdd(parent *cobra.Command) {
	var categoryID, plan, due string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			planning, err := parsePlanning(plan, due)
			if err != nil {
				return err
			}
			return withService(func(ctx context.Context, svc *app.Service) error {
				t, err := svc.AddMyTask(name, categoryID, planning)
				if err != nil {
					return err
				}
				fmt.Printf("added %q (%s)\n", t.Name, t.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&categoryID, "category", "", "category id")
	cmd.Flags().StringVar(&plan, "plan", "", "planned duration, e.g. 1h30m")
	cmd.Flags().StringVar(&due, "due", "", "due time, RFC3339")

	parent.AddCommand(cmd)
}

func addTaskList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				pp := printers.PrettyPrint{CategoryName: svc.Tasks.CategoryName}
				pp.NewLine()
				pp.Title("tasks")
				pp.Tasks(svc.Tasks.Tasks(), svc.Tasks.Archived())
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addTaskDone(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task, archiving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				return svc.Tasks.SetMyTaskCompletion(args[0], true)
			})
		},
	}

	parent.AddCommand(cmd)
}

func addTaskRemove(parent *cobra.Command) {
	var archived bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task (the ledger keeps its history)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				if archived {
					return svc.Tasks.DeleteArchivedTask(args[0])
				}
				return svc.Tasks.RemoveMyTask(args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "delete from the archive instead of the active list")

	parent.AddCommand(cmd)
}

func addTaskRestore(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore an archived task to the active list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				return svc.Tasks.RestoreArchivedTask(args[0])
			})
		},
	}

	parent.AddCommand(cmd)
}

func parsePlanning(plan, due string) (*task.Planning, error) {
	if plan == "" && due == "" {
		return nil, nil
	}
	p := &task.Planning{}
	if plan != "" {
		minutes, err := timeutil.ParseMinutes(plan)
		if err != nil {
			return nil, err
		}
		p.PlannedDurationMinutes = &minutes
	}
	if due != "" {
		t, err := timeutil.ParseRFC3339(due)
		if err != nil {
			return nil, err
		}
		ms := t.UnixMilli()
		p.DueAt = &ms
	}
	return p, nil
}
