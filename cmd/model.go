package cmd

import (
	"fmt"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/completion"
	"github.com/spf13/cobra"
)

var modelList bool

var modelCmd = &cobra.Command{
	Use:   "model [model]",
	Short: "Show or change the active session's model",
	Long: `Show or change the model used for the active session's next requests.

Models prefixed with openrouter/ are sent to OpenRouter; all others go to Groq.
Use --list to show the models named in the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		out := cmd.OutOrStdout()

		sess, err := a.resolveSession("")
		if err != nil {
			return err
		}

		if modelList {
			for _, m := range a.cfg.Models {
				marker := " "
				if m == sess.Model {
					marker = countStyle.Render("*")
				}
				provider, _ := completion.DeriveProvider(m)
				fmt.Fprintf(out, "%s %s %s\n", marker, m, dateStyle.Render("("+provider+")"))
			}
			return nil
		}

		if len(args) == 1 {
			if err := a.ctl.SetModel(args[0]); err != nil {
				return err
			}
			sess, _ = a.store.Active()
			internal.PrintSuccess(out, "Model for %s set to %s", sess.Name, modelStyle.Render(completion.Badge(sess.Model)))
			return nil
		}

		model := sess.Model
		if model == "" {
			model = a.cfg.DefaultModel
		}
		provider, name := completion.DeriveProvider(model)
		fmt.Fprintf(out, "%s\n", model)
		fmt.Fprintf(out, "   Badge: %s\n", modelStyle.Render(completion.Badge(model)))
		fmt.Fprintf(out, "   Provider: %s (%s)\n", provider, name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.Flags().BoolVarP(&modelList, "list", "l", false, "List configured models")
}
