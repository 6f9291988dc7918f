/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ssargent/ersave/pkg/save"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the characters in a save file",
	Long: `List the characters in a save file, one line per active slot.

Checksum mismatches and slots that failed to decode are reported on stderr.

Example:
  ersave list --save ~/AppData/Roaming/EldenRing/7656119.../ER0000.sl2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := requireSave(cmd)
		if err != nil {
			return err
		}

		f := container.GetFixer()
		c, err := f.Load(path)
		if err != nil {
			return err
		}
		warnContainer(cmd, c)
		for _, e := range f.Integrity(c) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
		}

		for _, ch := range f.ListCharacters(c) {
			fmt.Fprintf(cmd.OutOrStdout(), "slot=%d name=%s map=%s\n", ch.Slot+1, ch.Name, ch.MapID)
		}
		return nil
	},
}

// warnContainer prints slot and common-section decode failures to stderr
func warnContainer(cmd *cobra.Command, c *save.Container) {
	errs := c.SlotErrors()
	slots := make([]int, 0, len(errs))
	for i := range errs {
		slots = append(slots, i)
	}
	sort.Ints(slots)
	for _, i := range slots {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", errs[i])
	}
	if err := c.CommonError(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	addSaveFlag(listCmd)
}
