package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/iksnae/xerochat/internal/render"
	"github.com/spf13/cobra"
)

// newClipboard returns the clipboard code blocks are copied to
var newClipboard = func() render.Clipboard { return render.SystemClipboard{} }

var copyList bool

var copyCmd = &cobra.Command{
	Use:   "copy [n]",
	Short: "Copy a code block from the active session to the clipboard",
	Long: `Copy a code block from the active session's replies to the clipboard.

Blocks are numbered from 1 in conversation order; the last block is copied
when no number is given. Use --list to show the numbered blocks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		blocks := a.ctl.CodeBlocks()
		if copyList {
			listCodeBlocks(cmd.OutOrStdout(), blocks)
			return nil
		}
		n := len(blocks)
		if len(args) == 1 {
			if n, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid block number %q", args[0])
			}
		}
		return copyCodeBlock(cmd.OutOrStdout(), blocks, n)
	},
}

// copyCodeBlock copies block n (1-based) and prints the button feedback
func copyCodeBlock(out io.Writer, blocks []string, n int) error {
	if len(blocks) == 0 {
		return fmt.Errorf("no code blocks in this session")
	}
	if n < 1 || n > len(blocks) {
		return fmt.Errorf("block %d out of range (1-%d)", n, len(blocks))
	}
	btn := render.NewCopyButton(newClipboard())
	err := btn.Click(blocks[n-1])
	style := successStyle
	if err != nil {
		style = errorStyle
	}
	fmt.Fprintf(out, "%s block %d\n", style.Render(btn.Label()), n)
	return err
}

func listCodeBlocks(out io.Writer, blocks []string) {
	if len(blocks) == 0 {
		fmt.Fprintln(out, "No code blocks in this session.")
		return
	}
	for i, b := range blocks {
		fmt.Fprintf(out, "%s\n%s\n\n", titleStyle.Render(fmt.Sprintf("[%d]", i+1)), b)
	}
}

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().BoolVarP(&copyList, "list", "l", false, "List the code blocks instead of copying")
}
