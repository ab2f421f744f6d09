package printers

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/yakan-007/interruptlog/pkg/event"
	"github.com/yakan-007/interruptlog/pkg/task"
	"github.com/yakan-007/interruptlog/pkg/timeutil"
)

// PrettyPrint renders timeline and task views for the CLI.
type PrettyPrint struct {
	ShowID bool

	// CategoryName resolves category ids for display; nil leaves ids raw.
	CategoryName func(id string) string
}

var spacing = strings.Repeat(" ", len("171dff69  "))

func (pp *PrettyPrint) NewLine() {
	fmt.Println("")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Print(spacing)
	}
	_, _ = t.Println(title)
}

// Timeline prints events in order with clock times, durations, and type
// markers. The open event renders with a live duration against now.
func (pp *PrettyPrint) Timeline(events []event.Event, now int64) {
	if len(events) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Print(" none\n\n")
		return
	}

	t := color.New()
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	open := color.New(color.FgGreen, color.Bold)
	gap := color.New(color.Faint, color.Italic)

	for _, e := range events {
		if pp.ShowID {
			id := e.ID
			if len(id) > 8 {
				id = id[:8]
			}
			_, _ = y.Print(id)
			_, _ = y.Print(strings.Repeat(" ", len(spacing)-len(id)))
		}
		span := fmt.Sprintf("%s–%s", timeutil.Clock(e.Start), endClock(e))
		line := fmt.Sprintf("%s  %-11s %s  %s", span, marker(e), pp.label(e), timeutil.FormatMS(e.Duration(now)))
		switch {
		case e.Open():
			_, _ = open.Println(line)
		case e.IsGap():
			_, _ = gap.Println(line)
		default:
			_, _ = t.Println(line)
		}
	}
	_, _ = t.Println("")
}

// Tasks prints the active list and archive counts as a table.
func (pp *PrettyPrint) Tasks(active []task.MyTask, archived []task.ArchivedTask) {
	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("#", "TASK", "CATEGORY", "PLANNED", "DUE")
	for _, t := range active {
		table.AddRow(t.Order, t.Name, pp.categoryName(t.CategoryID), planned(t.Planning), due(t.Planning))
	}
	fmt.Println(table)

	if len(archived) > 0 {
		f := color.New(color.Faint)
		_, _ = f.Printf("\n%d archived\n", len(archived))
	}
	fmt.Println("")
}

// Categories prints the category set in manual order.
func (pp *PrettyPrint) Categories(categories []task.Category) {
	table := uitable.New()
	table.AddRow("#", "CATEGORY", "COLOR")
	for _, c := range categories {
		table.AddRow(c.Order, c.Name, c.Color)
	}
	fmt.Println(table)
	fmt.Println("")
}

func (pp *PrettyPrint) label(e event.Event) string {
	label := e.Label
	if label == "" {
		label = string(e.Type)
	}
	if e.Type == event.TypeInterrupt && e.Who != "" {
		label = fmt.Sprintf("%s (%s)", label, e.Who)
	}
	if name := pp.categoryName(e.CategoryID); name != "" {
		label = fmt.Sprintf("%s [%s]", label, name)
	}
	return label
}

func (pp *PrettyPrint) categoryName(id string) string {
	if id == "" {
		return ""
	}
	if pp.CategoryName == nil {
		return id
	}
	return pp.CategoryName(id)
}

func marker(e event.Event) string {
	switch {
	case e.IsGap():
		return "?"
	case e.Type == event.TypeInterrupt:
		return "interrupt"
	case e.Type == event.TypeBreak:
		return "break"
	default:
		return "task"
	}
}

func endClock(e event.Event) string {
	if e.End == nil {
		return "now  "
	}
	return timeutil.Clock(*e.End)
}

func planned(p *task.Planning) string {
	if p == nil || p.PlannedDurationMinutes == nil {
		return ""
	}
	return timeutil.FormatMS(int64(*p.PlannedDurationMinutes) * 60_000)
}

func due(p *task.Planning) string {
	if p == nil || p.DueAt == nil {
		return ""
	}
	return timeutil.Clock(*p.DueAt)
}
