package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakan-007/interruptlog/pkg/app"
	"github.com/yakan-007/interruptlog/pkg/printers"
)

func addCategory(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addCategoryAdd(cmd)
	addCategoryList(cmd)
	addCategoryRemove(cmd)

	topLevel.AddCommand(cmd)
}

func addCategoryAdd(parent *cobra.Command) {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withService(func(ctx context.Context, svc *app.Service) error {
				c, err := svc.Tasks.AddCategory(name, color)
				if err != nil {
					return err
				}
				fmt.Printf("added category %q (%s)\n", c.Name, c.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "display color, e.g. #60a5fa")

	parent.AddCommand(cmd)
}

func addCategoryList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				pp := printers.PrettyPrint{}
				pp.NewLine()
				pp.Title("categories")
				pp.Categories(svc.Tasks.Categories())
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}

func addCategoryRemove(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a category, clearing references from tasks and events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *app.Service) error {
				cleared, err := svc.RemoveCategory(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("removed; cleared %d references (ledger keeps the name)\n", cleared)
				return nil
			})
		},
	}

	parent.AddCommand(cmd)
}
