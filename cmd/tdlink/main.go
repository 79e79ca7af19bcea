package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dmora/tdlink/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "tdlink",
		Short: "Telegram client runtime tools",
		Long: `tdlink drives the Telegram client runtime from the command line.

  tdlink replay     Replay a recorded frame session through the runtime
  tdlink inspect    Decode and summarize recorded frames
  tdlink version    Print the build version`,
	}

	config.BindRootFlags(rootCmd, v)

	rootCmd.AddCommand(
		newReplayCmd(v),
		newInspectCmd(),
		newVersionCmd(),
	)

	return rootCmd.Execute()
}
