package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var logcatCmd = &cobra.Command{
	Use:   "logcat",
	Short: "Print the device log",
	Long:  "Print the device log buffer in brief format, with the chattiest framework tags silenced. Output is always plain text.",
	RunE:  runLogcat,
}

func init() {
	rootCmd.AddCommand(logcatCmd)
	logcatCmd.Flags().String("grep", "", "Only print lines containing this")
	logcatCmd.Flags().Int("tail", 0, "Only print the last N lines (0 = all)")
}

func runLogcat(cmd *cobra.Command, args []string) error {
	grep, _ := cmd.Flags().GetString("grep")
	tail, _ := cmd.Flags().GetInt("tail")

	log, err := adbClient().Logcat(cmd.Context())
	if err != nil {
		return err
	}
	for _, line := range filterLog(log, grep, tail) {
		fmt.Println(line)
	}
	return nil
}

// filterLog keeps lines containing grep, then the last tail of those.
func filterLog(log, grep string, tail int) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(log))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || (grep != "" && !strings.Contains(line, grep)) {
			continue
		}
		lines = append(lines, line)
	}
	if tail > 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	return lines
}
