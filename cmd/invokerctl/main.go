package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverConf holds the remote host/port every subcommand targets, settable
// via persistent flags.
var serverConf = struct {
	Host string
	Port int
}{Host: "127.0.0.1", Port: 1323}

var rootCmd = &cobra.Command{
	Use:   "invokerctl",
	Short: "Admin CLI for the invoker's container pool",
	Long:  "invokerctl talks to a running invoker's dispatcher to inspect and manage its container pool.",
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&serverConf.Host, "host", "H", serverConf.Host, "invoker dispatcher host")
	rootCmd.PersistentFlags().IntVarP(&serverConf.Port, "port", "P", serverConf.Port, "invoker dispatcher port")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(stragglersCmd)

	gcCmd.AddCommand(gcForceCmd)
	gcCmd.AddCommand(gcEnableCmd)
	gcCmd.AddCommand(gcDisableCmd)

	stragglersCmd.AddCommand(stragglersKillCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func baseURL() string {
	return fmt.Sprintf("http://%s:%d", serverConf.Host, serverConf.Port)
}
