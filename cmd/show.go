package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/xerochat/internal/completion"
	"github.com/spf13/cobra"
)

var limit int

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)
)

var showCmd = &cobra.Command{
	Use:   "show [session]",
	Short: "Show the messages of a session (the active one by default)",
	Long: `Show the messages of a session rendered for the terminal.

Assistant replies are rendered as Markdown; user messages are rendered as
Markdown only when the userMarkdown setting is on.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.resolveSession(firstArg(args))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sessionHeaderStyle.Render(sess.Name))
		fmt.Fprintln(out, sessionMetaStyle.Render(fmt.Sprintf("%s · %s · %d message(s) · updated %s",
			shortID(sess.ID), completion.Badge(sess.Model), len(sess.Messages),
			relativeDate(sess.GetUpdatedAt(), time.Now()))))

		messages := sess.Messages
		if limit > 0 && len(messages) > limit {
			messages = messages[len(messages)-limit:]
		}
		if len(messages) == 0 {
			fmt.Fprintln(out, dateStyle.Render("No messages yet."))
			return nil
		}
		for _, m := range messages {
			a.view.ShowMessage(m.Role, a.ctl.RenderMessage(m))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last n messages")
}
