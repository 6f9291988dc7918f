/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/ersave/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only inspection API",
	Long: `Serve a read-only JSON API over one save file. The file is reloaded
whenever it changes on disk, so the API follows the game as it saves.

Routes:
  GET /api/v1/health
  GET /api/v1/characters
  GET /api/v1/slots/{slot}/issues
  GET /api/v1/checksums
  GET /metrics

Examples:
  ersave serve --save ER0000.sl2
  ersave serve --save ER0000.sl2 --port 9400 --api-key mysecretkey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := requireSave(cmd)
		if err != nil {
			return err
		}

		server := container.Config().Server
		if cmd.Flags().Changed("port") {
			server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			server.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		starter := container.GetServerFactory().CreateServerStarter(container.GetFixer())
		return starter.StartServer(api.ServerConfig{
			Bind:     server.Bind,
			Port:     server.Port,
			APIKey:   server.APIKey,
			SavePath: path,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSaveFlag(serveCmd)
	serveCmd.Flags().IntP("port", "p", 9300, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind")
	serveCmd.Flags().String("api-key", "", "Require this X-API-Key on API routes")
}
