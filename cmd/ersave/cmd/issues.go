/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/ersave/pkg/fixer"
)

// issuesCmd represents the issues command
var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Show the corruption signatures found on a slot",
	Long: `Run every detection rule on one slot without changing the file.

Checks that need the world tail are listed as unavailable when it cannot be
located.

Example:
  ersave issues --save ER0000.sl2 --slot 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := requireSave(cmd)
		if err != nil {
			return err
		}
		slotArg, _ := cmd.Flags().GetString("slot")
		slot, err := fixer.ParseSlot(slotArg)
		if err != nil {
			return err
		}

		f := container.GetFixer()
		c, err := f.Load(path)
		if err != nil {
			return err
		}
		report, err := f.Report(c, slot)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(report.Issues) == 0 {
			fmt.Fprintln(out, "no issues")
		}
		for _, k := range report.Issues {
			fmt.Fprintf(out, "%s: %s\n", k, k.Describe())
		}
		for _, k := range report.Unavailable {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s not checked: %v\n", k, report.TailErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issuesCmd)
	addSaveFlag(issuesCmd)
	issuesCmd.Flags().String("slot", "", "Character slot (1-10)")
	if err := issuesCmd.MarkFlagRequired("slot"); err != nil {
		panic(err)
	}
}
