package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/completion"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List sessions",
	Long: `List sessions, most recently updated first.

A filter keeps only sessions whose name or last message preview contains
it, ignoring case. The active session is marked with *.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		displaySessions(cmd.OutOrStdout(), a.store.List(firstArg(args)), a.store.ActiveID(), time.Now())
		return nil
	},
}

func displaySessions(out io.Writer, sessions []*internal.Session, activeID string, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, " \t"+titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+
		titleStyle.Render("Model")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")

	for _, sess := range sessions {
		marker := " "
		if sess.ID == activeID {
			marker = countStyle.Render("*")
		}
		name := runewidth.Truncate(sess.Name, 40, "...")
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			marker,
			idStyle.Render(shortID(sess.ID)),
			name,
			modelStyle.Render(completion.Badge(sess.Model)),
			countStyle.Render(strconv.Itoa(len(sess.Messages))),
			dateStyle.Render(relativeDate(sess.GetUpdatedAt(), now)),
		)
		if preview := strings.TrimSpace(sess.Preview); preview != "" {
			_, _ = fmt.Fprintf(w, " \t\t%s\t\t\t\t\n", dateStyle.Render(runewidth.Truncate(preview, 60, "...")))
		}
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	internal.PrintInfo(out, "Tip: use an ID prefix or a name with `xerochat use <session>`")
}

func init() {
	rootCmd.AddCommand(listCmd)
}
