/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/ersave/pkg/store"
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Copy the backup written by fix back over the save",
	Long: `Replace the save file with the PATH.backup written by the last fix.

Example:
  ersave restore --save ER0000.sl2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := requireSave(cmd)
		if err != nil {
			return err
		}
		backup, err := store.RestoreBackup(path, container.Config().Backup.Suffix)
		if err != nil {
			return err
		}
		container.Logger().Info("store.restore", "path", path, "backup", backup)
		fmt.Fprintf(cmd.OutOrStdout(), "ok restored=%s\n", filepath.Base(backup))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	addSaveFlag(restoreCmd)
}
