package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zero/internal/codec"
	"zero/internal/task"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all tasks as a JSON array to stdout",
	Args:  cobra.NoArgs,
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
		blob, err := codec.EncodeTasks(tasks)
		if err != nil {
			return fmt.Errorf("encoding tasks: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), blob)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load tasks from a JSON array written by export",
	Long: `Insert every task in the file, replacing stored tasks with the same id.
Importing the same file twice leaves the store unchanged. Nothing is written
when any task is invalid or reuses a subtask id owned by another task.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		res := codec.DecodeTasks(string(data))
		if !res.OK {
			return fmt.Errorf("decoding %s: %w", args[0], res.Err)
		}

		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		existing, err := a.repo.Tasks(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching tasks: %w", err)
		}
		if err := checkImport(existing, res.Value); err != nil {
			return err
		}
		for _, t := range res.Value {
			if err := a.repo.SaveTask(cmd.Context(), t); err != nil {
				return fmt.Errorf("saving %s: %w", t.ID, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks.\n", len(res.Value))
		return nil
	},
}

// checkImport validates each incoming task and keeps subtask ids unique
// across the store once the import has replaced tasks by id.
func checkImport(existing, incoming []task.Task) error {
	replaced := map[string]bool{}
	for _, t := range incoming {
		replaced[t.ID] = true
	}
	owner := map[string]string{}
	for _, t := range existing {
		if replaced[t.ID] {
			continue
		}
		for _, s := range t.Subtasks {
			owner[s.ID] = t.ID
		}
	}
	for _, t := range incoming {
		if t.ID == "" {
			return errors.New("task without id")
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
		for _, s := range t.Subtasks {
			if id, ok := owner[s.ID]; ok && id != t.ID {
				return fmt.Errorf("subtask %s belongs to task %s: %w", s.ID, id, task.ErrDuplicateSubtaskID)
			}
			owner[s.ID] = t.ID
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
