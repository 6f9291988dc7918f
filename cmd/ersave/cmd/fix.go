/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/ersave/pkg/fixer"
	"github.com/ssargent/ersave/pkg/repair"
)

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Repair a character slot",
	Long: `Repair every detected issue on one character slot, optionally teleport
the character, recalculate checksums and save.

A backup is written next to the save first (PATH.backup) unless --no-backup
is given. Each repair is recorded in the journal so it can be undone.

Examples:
  ersave fix --save ER0000.sl2 --slot 1
  ersave fix --save ER0000.sl2 --slot 3 --teleport roundtable --no-backup`,
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

		var teleport *repair.Destination
		if name, _ := cmd.Flags().GetString("teleport"); name != "" {
			dest, err := repair.ParseDestination(name)
			if err != nil {
				return err
			}
			teleport = &dest
		}

		noBackup, _ := cmd.Flags().GetBool("no-backup")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		cfg := container.Config()

		req := fixer.FixRequest{
			Path:         path,
			Slot:         slot,
			Teleport:     teleport,
			Backup:       cfg.Backup.Enabled && !noBackup,
			BackupSuffix: cfg.Backup.Suffix,
			DryRun:       dryRun,
		}

		var j fixer.Journal
		if !dryRun {
			opened, err := container.GetJournal()
			if err != nil {
				return err
			}
			if opened != nil {
				j = opened
			}
		}

		res, err := container.GetFixer().Fix(req, j)
		if err != nil {
			return err
		}

		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "dry-run slot=%d actions=%s\n", res.Slot+1, strings.Join(res.Tokens(), ";"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fixCmd)
	addSaveFlag(fixCmd)
	fixCmd.Flags().String("slot", "", "Character slot (1-10)")
	fixCmd.Flags().String("teleport", "", "Force teleport destination: limgrave or roundtable")
	fixCmd.Flags().Bool("no-backup", false, "Do not write PATH.backup first")
	fixCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	if err := fixCmd.MarkFlagRequired("slot"); err != nil {
		panic(err)
	}
}
