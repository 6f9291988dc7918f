/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/ersave/pkg/config"
	"github.com/ssargent/ersave/pkg/di"
)

// container is built from the flags before every command unless injected.
var (
	container *di.Container
	injected  bool
)

// SetContainer injects a prebuilt container (for testing)
func SetContainer(c *di.Container) {
	container = c
	injected = c != nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ersave",
	Short: "ersave - Elden Ring save inspector and repair tool",
	Long: `ersave decodes Elden Ring save containers (ER0000.sl2 and console
saves), lists the characters, detects known corruption signatures and
repairs them with recalculated checksums.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if injected {
			return nil
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := di.NewContainer(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		container = c
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if injected || container == nil {
			return nil
		}
		return container.Close()
	},
}

// loadConfig reads --config, or the default file when it exists, and
// applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg := config.DefaultConfig()
	switch {
	case path != "":
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case config.ConfigExists(config.GetDefaultConfigPath()):
		loaded, err := config.LoadConfig(config.GetDefaultConfigPath())
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("journal-dir") {
		cfg.Journal.Dir, _ = cmd.Flags().GetString("journal-dir")
		cfg.Journal.Enabled = true
	}
	if cmd.Flags().Changed("no-journal") {
		noJournal, _ := cmd.Flags().GetBool("no-journal")
		cfg.Journal.Enabled = !noJournal
	}
	return cfg, nil
}

// run executes the command line and returns the process exit code. Errors
// are printed as "error: <message>".
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if !injected && container != nil {
			container.Close()
		}
		return 1
	}
	return 0
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.ersave/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error or off")
	rootCmd.PersistentFlags().String("journal-dir", "", "Repair journal directory")
	rootCmd.PersistentFlags().Bool("no-journal", false, "Do not record repairs in the journal")
}

// requireSave returns the --save flag of cmd
func requireSave(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("save")
	if path == "" {
		return "", fmt.Errorf("--save is required")
	}
	return path, nil
}

func addSaveFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("save", "s", "", "Path to the ER*.sl2 or console save file")
}
