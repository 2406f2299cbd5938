package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/output"
)

var installCmd = &cobra.Command{
	Use:   "install APK...",
	Short: "Install or replace APKs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInstall,
}

var pushCmd = &cobra.Command{
	Use:   "push LOCAL REMOTE",
	Short: "Copy a file to the device",
	Args:  cobra.ExactArgs(2),
	RunE:  runPush,
}

var pullCmd = &cobra.Command{
	Use:   "pull REMOTE LOCAL",
	Short: "Copy a file from the device",
	Args:  cobra.ExactArgs(2),
	RunE:  runPull,
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	for _, apk := range args {
		if _, err := os.Stat(apk); err != nil {
			return fmt.Errorf("apk: %w", err)
		}
	}

	client := adbClient()
	start := time.Now()
	for _, apk := range args {
		if err := client.Install(cmd.Context(), apk); err != nil {
			return err
		}
	}
	return output.Print(output.ActionResult{OK: true, Action: "install", Target: strings.Join(args, " "), Elapsed: elapsed(start)})
}

func runPush(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if err := adbClient().Push(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	return output.Print(output.ActionResult{OK: true, Action: "push", Target: args[1], Elapsed: elapsed(start)})
}

func runPull(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if err := adbClient().Pull(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	return output.Print(output.ActionResult{OK: true, Action: "pull", Target: args[1], Elapsed: elapsed(start)})
}
