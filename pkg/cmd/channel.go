package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/relayvault/pkg/configs"
)

var (
	channelCmd = &cobra.Command{
		Use:               "channel",
		Short:             "Relay channel related commands",
		PersistentPreRunE: loadConfig,
	}

	// 只输出凭据是否配置，不输出凭据本身.
	channelListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list configured relay channels",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			upload := configs.GetConfig().Upload
			if len(upload.Channels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no channels configured")

				return
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTOKEN\tCHAT\tPROXY")

			for _, ch := range upload.Channels {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ch.Name, present(ch.BotToken), present(ch.ChatID), ch.ProxyURL)
			}

			_ = w.Flush()

			fmt.Fprintf(cmd.OutOrStdout(), "load_balance: %v\n", upload.LoadBalance)
		},
	}
)

func present(s string) string {
	if s == "" {
		return "missing"
	}

	return "set"
}

// registerChannelCommands 注册频道相关命令.
func registerChannelCommands() {
	rootCmd.AddCommand(channelCmd)
	channelCmd.AddCommand(channelListCmd)
}
