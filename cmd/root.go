package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mj1618/droid-cli/internal/config"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "droid-cli",
	Short: "Inspect and drive Android devices",
	Long: `A CLI tool that reads the view hierarchy of an Android device through the
on-device view server and sends input through the monkey.`,
	SilenceUsage: true,
}

// Shared state set up by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger = slog.New(slog.DiscardHandler)
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// deviceFlags holds the flags that override the device section of the
// config file.
func deviceFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("device", pflag.ContinueOnError)
	fs.StringP("serial", "s", "", "Device serial (overrides config)")
	fs.String("adb", "", "Path to the adb binary (overrides config)")
	fs.String("address", "", "Host the forwarded ports listen on (overrides config)")
	return fs
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", "", "Config file (default: $"+config.EnvVar+")")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().AddFlagSet(deviceFlags())
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		flags := rootCmd.PersistentFlags()

		format, _ := flags.GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = flags.GetBool("pretty")

		verbose, _ := flags.GetBool("verbose")
		logger = newLogger(verbose)

		path, _ := flags.GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := applyDeviceFlags(loaded, flags); err != nil {
			return err
		}
		cfg = loaded
		return nil
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// applyDeviceFlags copies any device flags the user set onto c.
func applyDeviceFlags(c *config.Config, flags *pflag.FlagSet) error {
	overrides := map[string]*string{
		"serial":  &c.Device.Serial,
		"adb":     &c.Device.ADB,
		"address": &c.Device.Address,
	}
	for name, dst := range overrides {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return c.Validate()
}
