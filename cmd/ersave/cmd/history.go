/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/ersave/pkg/journal"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded repair runs",
	Long: `List the repair runs recorded in the journal, oldest first.

Example:
  ersave history
  ersave history --save ER0000.sl2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}

		filter, _ := cmd.Flags().GetString("save")
		if filter != "" {
			if filter, err = filepath.Abs(filter); err != nil {
				return err
			}
		}

		entries, err := j.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if filter != "" && e.SavePath != filter {
				continue
			}
			tokens := make([]string, 0, len(e.Actions))
			for _, a := range e.Actions {
				tokens = append(tokens, a.Token())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run=%s time=%s slot=%d name=%s save=%s actions=%s\n",
				e.ID, e.CreatedAt.UTC().Format(time.RFC3339), e.Slot+1, e.Name, e.SavePath, strings.Join(tokens, ";"))
		}
		return nil
	},
}

// undoCmd represents the undo command
var undoCmd = &cobra.Command{
	Use:   "undo <run-id>",
	Short: "Put a slot back the way it was before a repair run",
	Long: `Write the slot bytes saved with a repair run back into the save file and
recalculate checksums. Other slots are left as they are. A run recorded for
a different save file is refused unless --force is given.

Example:
  ersave undo 2lBPH0ckJmFQqRW7sXGLvUTb4MG --save ER0000.sl2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		j, err := openJournal()
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("save")
		if path == "" {
			e, err := j.Get(id)
			if err != nil {
				return err
			}
			path = e.SavePath
		}

		force, _ := cmd.Flags().GetBool("force")
		e, err := container.GetFixer().Undo(path, id, j, force)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok undone run=%s slot=%d\n", e.ID, e.Slot+1)
		return nil
	},
}

func openJournal() (*journal.Journal, error) {
	j, err := container.GetJournal()
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, fmt.Errorf("the repair journal is disabled")
	}
	return j, nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(undoCmd)
	historyCmd.Flags().StringP("save", "s", "", "Only show runs for this save file")
	undoCmd.Flags().StringP("save", "s", "", "Save file to restore into (default: the path recorded with the run)")
	undoCmd.Flags().Bool("force", false, "Restore into a save file other than the one the run was recorded for")
}
