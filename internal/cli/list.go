package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"zero/internal/task"
	"zero/internal/viewmodel"
)

var (
	listQuery     string
	listCompleted bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the To-Do list",
	Long: `Print open tasks in display order: pinned first, then by priority.
--query filters by title or description, case-insensitively. --completed
also prints the Completed section, which is never filtered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		tasks, err := a.repo.Tasks(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching tasks: %w", err)
		}
		v := viewmodel.Derive(tasks, listQuery)
		out := cmd.OutOrStdout()
		printSection(out, "TO-DO", v.ToDo)
		if listCompleted {
			fmt.Fprintln(out)
			printSection(out, "COMPLETED", v.Completed)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Print one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.repo.Task(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching task %s: %w", args[0], err)
		}
		printTask(cmd.OutOrStdout(), t)
		return nil
	},
}

func printSection(w io.Writer, name string, tasks []task.Task) {
	fmt.Fprintf(w, "== %s (%d) ==\n", name, len(tasks))
	for _, t := range tasks {
		pin := " "
		if t.IsPinned {
			pin = "*"
		}
		fmt.Fprintf(w, "%s %-6s %-36s %-30s due %s\n", pin, t.Priority, t.ID, t.Title, humanize.Time(t.DueDate))
	}
}

func printTask(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "%s\n", t.Title)
	fmt.Fprintf(w, "  id:        %s\n", t.ID)
	fmt.Fprintf(w, "  priority:  %s\n", t.Priority)
	fmt.Fprintf(w, "  from:      %s\n", t.FromDate.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  due:       %s (%s)\n", t.DueDate.Local().Format("2006-01-02 15:04"), humanize.Time(t.DueDate))
	if t.ReminderDate != nil {
		fmt.Fprintf(w, "  reminder:  %s\n", t.ReminderDate.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "  completed: %t\n", t.IsCompleted)
	fmt.Fprintf(w, "  pinned:    %t\n", t.IsPinned)
	if t.Description != "" {
		fmt.Fprintf(w, "  %s\n", t.Description)
	}
	if len(t.References) > 0 {
		fmt.Fprintf(w, "  references: %s\n", strings.Join(t.References, ", "))
	}
	if len(t.ImageURIs) > 0 {
		fmt.Fprintf(w, "  images: %s\n", strings.Join(t.ImageURIs, ", "))
	}
	for _, s := range t.Subtasks {
		mark := " "
		if s.IsCompleted {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, s.Title)
	}
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "filter by title or description")
	listCmd.Flags().BoolVar(&listCompleted, "completed", false, "also print completed tasks")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
