package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/xerochat/internal"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Start a new session and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sess := a.store.Create(strings.Join(args, " "))
		internal.PrintSuccess(cmd.OutOrStdout(), "Created %s %s", sess.Name, idStyle.Render(sess.ID))
		return nil
	},
}

var useCmd = &cobra.Command{
	Use:   "use <session>",
	Short: "Make a session active",
	Long:  `Make a session active. The session is named by ID, unique ID prefix, or name.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.resolveSession(args[0])
		if err != nil {
			return err
		}
		a.store.SetActive(sess.ID)
		internal.PrintSuccess(cmd.OutOrStdout(), "Active session: %s %s", sess.Name, idStyle.Render(sess.ID))
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <session> <name>",
	Short: "Rename a session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.resolveSession(args[0])
		if err != nil {
			return err
		}
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return fmt.Errorf("name must not be blank")
		}
		a.store.Rename(sess.ID, name)
		internal.PrintSuccess(cmd.OutOrStdout(), "Renamed %s to %s", sess.Name, name)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete [session]",
	Aliases: []string{"rm"},
	Short:   "Delete a session (the active one by default)",
	Args:    cobra.MaximumNArgs(1),
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
		a.store.Delete(sess.ID)
		out := cmd.OutOrStdout()
		internal.PrintSuccess(out, "Deleted %s", sess.Name)
		if next, ok := a.store.Active(); ok {
			fmt.Fprintf(out, "   Active session: %s %s\n", next.Name, idStyle.Render(next.ID))
		} else {
			fmt.Fprintln(out, "   No sessions left. Start one with `xerochat new`.")
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [session]",
	Short: "Remove every message from a session (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
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
		a.store.Clear(sess.ID)
		internal.PrintSuccess(cmd.OutOrStdout(), "Cleared %s", sess.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
}
