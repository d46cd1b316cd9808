// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/relayvault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:          "relayvault",
		Short:        "Relay batch uploads to chat channels used as blob storage",
		Version:      configs.AppVersion,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode (overrides server.debug)")

	registerServeCommands()
	registerConfigsCommands()
	registerChannelCommands()
	registerKVCommands()
	registerMQCommands()
	registerDBCommands()
}

// loadConfig 供需要读取配置的子命令在 PreRunE 中调用.
func loadConfig(_ *cobra.Command, _ []string) error {
	if err := configs.InitConfig(configPath); err != nil {
		return err
	}

	if debug {
		configs.OverrideDebug()
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
