package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/pilot"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List status bar notifications",
	Long: `List the notifications in the expanded status bar. Pass --open to pull the
notification shade down first.`,
	RunE: runNotifications,
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.Flags().Bool("open", false, "Open the notification shade first")
	notificationsCmd.Flags().String("title", "", "Only list notifications whose title contains this")
	notificationsCmd.Flags().String("message", "", "Only list notifications whose message contains this")
}

func runNotifications(cmd *cobra.Command, args []string) error {
	open, _ := cmd.Flags().GetBool("open")
	title, _ := cmd.Flags().GetString("title")
	message, _ := cmd.Flags().GetString("message")

	ctx := cmd.Context()
	var ns []pilot.Notification
	err := withPilot(ctx, func(p *pilot.Pilot) error {
		if open {
			if err := p.OpenNotificationBar(ctx); err != nil {
				return err
			}
		}
		var err error
		ns, err = p.Notifications(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if title != "" {
		ns = pilot.FilterNotifications(ns, pilot.ByTitle(title, true))
	}
	if message != "" {
		ns = pilot.FilterNotifications(ns, pilot.ByMessage(message, true))
	}
	if ns == nil {
		ns = []pilot.Notification{}
	}
	return output.Print(ns)
}
