package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/iksnae/xerochat/internal"
	"github.com/spf13/cobra"
)

var (
	sendImages []string
	sendModel  string
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message to the active session and print the reply",
	Long: `Send one message to the active session and print the reply.

Images given with --image are attached to the message as data URLs.
The message may be omitted when at least one image is attached.

Examples:
  xerochat send "Explain goroutines"
  xerochat send --image diagram.png "What does this show?"
  xerochat send --model openrouter/deepseek/deepseek-r1:free "Prove it"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if sendModel != "" {
			if err := a.ctl.SetModel(sendModel); err != nil {
				return err
			}
		}
		if err := stageImages(a, sendImages); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()
		_, err = a.ctl.Send(ctx, strings.Join(args, " "))
		return err
	},
}

// stageImages loads each path and stages it for the next turn
func stageImages(a *app, paths []string) error {
	for _, p := range paths {
		att, err := internal.LoadImageAttachment(p)
		if err != nil {
			a.ctl.Composer().Discard()
			return err
		}
		a.ctl.Composer().Stage(att)
		internal.LogDebug("Attached %s (%s)", att.Name, att.MediaType)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringSliceVarP(&sendImages, "image", "i", nil, "Attach an image (repeatable)")
	sendCmd.Flags().StringVarP(&sendModel, "model", "m", "", "Set the session's model before sending")
}
