package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/xerochat/internal"
	"github.com/spf13/cobra"
)

var settingsReset bool

var settingsCmd = &cobra.Command{
	Use:   "settings [key [value]]",
	Short: "Show or change display settings",
	Long: `Show or change display settings.

Without arguments every setting is listed with the effect it has; with a key
its value is printed; with a key and a value the setting is changed. Numbers
are clamped into their valid range.

Keys:
  theme          system, light, or dark
  typewriter     reveal replies gradually (true or false)
  typeSpeed      milliseconds per revealed character (5-60)
  bubbleWidth    message width as a percentage of the terminal (40-100)
  sidebarWidth   session list width in pixels for HTML exports (160-480)
  userMarkdown   render your own messages as Markdown (true or false)`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		out := cmd.OutOrStdout()

		switch {
		case settingsReset:
			a.settings.Reset()
			internal.PrintSuccess(out, "Settings reset to defaults")
		case len(args) == 2:
			if _, err := a.settings.Set(args[0], args[1]); err != nil {
				return err
			}
			internal.PrintSuccess(out, "%s = %s", args[0], settingValue(a.settings.Current(), args[0]))
			return nil
		case len(args) == 1:
			v := settingValue(a.settings.Current(), args[0])
			if v == "" {
				return fmt.Errorf("unknown setting %q (known: %s)", args[0], strings.Join(internal.SettingKeys(), ", "))
			}
			fmt.Fprintln(out, v)
			return nil
		}

		current := a.settings.Current()
		applied := a.settings.Applied()
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, key := range internal.SettingKeys() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t\n", titleStyle.Render(key), settingValue(current, key))
		}
		_ = w.Flush()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s theme=%s reveal=%s\n", dateStyle.Render("Applied:"), applied.Theme, revealSummary(applied))
		return nil
	},
}

func settingValue(s internal.Settings, key string) string {
	switch key {
	case "theme":
		return s.Theme
	case "typewriter":
		return strconv.FormatBool(s.Typewriter)
	case "typeSpeed":
		return strconv.Itoa(s.TypeSpeed)
	case "bubbleWidth":
		return strconv.Itoa(s.BubbleWidth)
	case "sidebarWidth":
		return strconv.Itoa(s.SidebarWidth)
	case "userMarkdown":
		return strconv.FormatBool(s.UserMarkdown)
	}
	return ""
}

func revealSummary(a internal.Applied) string {
	if !a.Typewriter {
		return "off"
	}
	return a.RevealInterval.String() + "/char"
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.Flags().BoolVar(&settingsReset, "reset", false, "Restore the default settings")
}
