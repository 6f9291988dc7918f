/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the stored checksums",
	Long: `Compare every stored MD5 digest with its data. Exits non-zero when any
digest does not match. Console saves carry no digests and always pass.

Example:
  ersave verify --save ER0000.sl2`,
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

		mismatches := f.Integrity(c)
		for _, e := range mismatches {
			fmt.Fprintln(cmd.OutOrStdout(), e)
		}
		if len(mismatches) > 0 {
			return fmt.Errorf("%d checksum mismatch(es)", len(mismatches))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok checksums platform=%s slots=%d\n", c.Layout.Platform, len(c.ActiveSlotIndices()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addSaveFlag(verifyCmd)
}
