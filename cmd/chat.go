package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/completion"
	"github.com/iksnae/xerochat/internal/export"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var promptStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("39")).
	Bold(true)

const chatHelp = `Commands:
  /new [name]        start a new session
  /use <session>     switch to a session by ID prefix or name
  /list [filter]     list sessions
  /rename <name>     rename the active session
  /model [model]     show or change the model
  /image <path>      attach an image to the next message
  /discard           drop staged attachments
  /clear             remove every message from the active session
  /delete            delete the active session
  /copy [n]          copy a code block (the last one by default)
  /export [format]   export the active session to the current directory
  /set <key> <value> change a setting
  /help              show this help
  /quit              leave`

// lineReader reads one line of input after showing a prompt
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader edits lines with history when attached to a terminal
type linerReader struct {
	state       *liner.State
	historyFile string
}

func newLinerReader(historyFile string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	if f, err := os.Open(historyFile); err == nil {
		_, _ = state.ReadHistory(f)
		f.Close()
	}
	return &linerReader{state: state, historyFile: historyFile}
}

func (l *linerReader) Prompt(prompt string) (string, error) {
	line, err := l.state.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		l.state.AppendHistory(line)
	}
	return line, nil
}

func (l *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(l.historyFile), 0755); err == nil {
		if f, err := os.OpenFile(l.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = l.state.WriteHistory(f)
			f.Close()
		}
	}
	return l.state.Close()
}

// scanReader reads piped input line by line
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newScanReader(in io.Reader, out io.Writer) *scanReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), internal.MaxAttachmentSize)
	return &scanReader{scanner: s, out: out}
}

func (s *scanReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	fmt.Fprintln(s.out)
	return s.scanner.Text(), nil
}

func (s *scanReader) Close() error { return nil }

var chatCmd = &cobra.Command{
	Use:   "chat [session]",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the active session, or with the
named one. Lines starting with / are commands; type /help to list them.
Ctrl+C while waiting for a reply cancels the request; Ctrl+C or Ctrl+D at
the prompt leaves.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if ref := firstArg(args); ref != "" {
			if _, err := a.ctl.Switch(ref); err != nil {
				return err
			}
		} else {
			a.ctl.ShowActive()
		}

		var input lineReader
		if f, ok := cmd.InOrStdin().(*os.File); ok && internal.IsTerminal(f) && internal.IsTerminal(cmd.OutOrStdout()) {
			input = newLinerReader(filepath.Join(a.paths.DataDir, "history"))
		} else {
			input = newScanReader(cmd.InOrStdin(), cmd.OutOrStdout())
		}
		defer input.Close()

		return runChat(cmd, a, input)
	},
}

func runChat(cmd *cobra.Command, a *app, input lineReader) error {
	out := cmd.OutOrStdout()
	for {
		line, err := input.Prompt(chatPrompt(a))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, dateStyle.Render("Bye."))
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleSlashCommand(out, a, line)
			if err != nil {
				internal.PrintError(out, "%v", err)
			}
			if quit {
				fmt.Fprintln(out, dateStyle.Render("Bye."))
				return nil
			}
			continue
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		_, err = a.ctl.Send(ctx, line)
		stop()
		if err != nil {
			internal.LogDebug("Send failed: %v", err)
		}
	}
}

func chatPrompt(a *app) string {
	model := a.cfg.DefaultModel
	if sess, ok := a.store.Active(); ok && sess.Model != "" {
		model = sess.Model
	}
	staged := ""
	if n := len(a.ctl.Composer().Pending()); n > 0 {
		staged = fmt.Sprintf(" +%d", n)
	}
	return promptStyle.Render(completion.Badge(model)+staged+"> ")
}

// handleSlashCommand runs one REPL command and reports whether to leave
func handleSlashCommand(out io.Writer, a *app, line string) (quit bool, err error) {
	name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(out, chatHelp)
	case "new":
		a.ctl.NewSession(rest)
	case "use":
		if rest == "" {
			return false, fmt.Errorf("usage: /use <session>")
		}
		_, err = a.ctl.Switch(rest)
	case "list":
		displaySessions(out, a.store.List(rest), a.store.ActiveID(), time.Now())
	case "rename":
		sess, ok := a.store.Active()
		if !ok {
			return false, internal.ErrNoActiveSession
		}
		if rest == "" {
			return false, fmt.Errorf("usage: /rename <name>")
		}
		a.store.Rename(sess.ID, rest)
		internal.PrintSuccess(out, "Renamed to %s", rest)
	case "model":
		if rest == "" {
			sess, ok := a.store.Active()
			if !ok {
				return false, internal.ErrNoActiveSession
			}
			fmt.Fprintln(out, sess.Model)
			return false, nil
		}
		if err = a.ctl.SetModel(rest); err == nil {
			internal.PrintSuccess(out, "Model set to %s", modelStyle.Render(completion.Badge(rest)))
		}
	case "image":
		if rest == "" {
			return false, fmt.Errorf("usage: /image <path>")
		}
		if err = stageImages(a, []string{rest}); err == nil {
			internal.PrintSuccess(out, "Attached %s", filepath.Base(rest))
		}
	case "discard":
		a.ctl.Composer().Discard()
		internal.PrintSuccess(out, "Attachments discarded")
	case "clear":
		err = a.ctl.ClearActive()
	case "delete":
		err = a.ctl.DeleteActive()
	case "copy":
		blocks := a.ctl.CodeBlocks()
		n := len(blocks)
		if rest != "" {
			if n, err = strconv.Atoi(rest); err != nil {
				return false, fmt.Errorf("invalid block number %q", rest)
			}
		}
		err = copyCodeBlock(out, blocks, n)
	case "export":
		err = exportActive(out, a, rest)
	case "set":
		key, value, found := strings.Cut(rest, " ")
		if !found {
			return false, fmt.Errorf("usage: /set <key> <value>")
		}
		if _, err = a.settings.Set(key, value); err == nil {
			internal.PrintSuccess(out, "%s = %s", key, settingValue(a.settings.Current(), key))
		}
	default:
		err = fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return false, err
}

// exportActive writes the active session into the current directory
func exportActive(out io.Writer, a *app, format string) error {
	if format == "" {
		format = "json"
	}
	exporter, err := export.NewExporter(format,
		export.WithPipeline(a.pipeline),
		export.WithSettings(a.settings.Applied()))
	if err != nil {
		return err
	}
	sess, ok := a.store.Active()
	if !ok {
		return internal.ErrNoActiveSession
	}
	path := export.FileName(sess, exporter.Extension())
	if err := exportFile(exporter, format, sess, path); err != nil {
		return err
	}
	internal.PrintSuccess(out, "Exported %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
