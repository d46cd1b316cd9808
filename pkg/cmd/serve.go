package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/relayvault/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the http server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(app.Options{ConfigPath: configPath, Debug: debug})
		if err != nil {
			return err
		}

		return a.Run()
	},
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
