package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ShowProgress runs fn while a spinner with message is shown on stderr
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !IsTerminal(os.Stderr) {
		LogInfo(message)
		return fn()
	}

	stop := StartSpinner(os.Stderr, message)
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), message)
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", successStyle.Render("✓"), message)
		return nil
	case <-ctx.Done():
		stop()
		return ctx.Err()
	}
}

// StartSpinner animates a spinner on w until the returned stop func is called.
// Stop clears the spinner line and is safe to call more than once.
func StartSpinner(w io.Writer, message string) (stop func()) {
	quit := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			char := spinnerChars[i%len(spinnerChars)]
			fmt.Fprintf(w, "\r%s %s", progressStyle.Render(char), message)
			select {
			case <-quit:
				fmt.Fprint(w, "\r\033[2K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			<-finished
		})
	}
}

// IsTerminal checks if the writer is a terminal
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// TerminalWidth returns the width of w, or fallback when it is not a terminal
func TerminalWidth(w io.Writer, fallback int) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return fallback
}

// ErrorText styles an inline error message
func ErrorText(message string) string {
	return errorStyle.Render(message)
}

// PrintSuccess writes a confirmation line to w
func PrintSuccess(w io.Writer, format string, args ...any) {
	printMarked(w, successStyle, "✓", format, args...)
}

// PrintError writes an error line to w
func PrintError(w io.Writer, format string, args ...any) {
	printMarked(w, errorStyle, "✗", format, args...)
}

// PrintInfo writes an informational line to w
func PrintInfo(w io.Writer, format string, args ...any) {
	printMarked(w, progressStyle, "ℹ", format, args...)
}

// PrintWarning writes a warning line to w
func PrintWarning(w io.Writer, format string, args ...any) {
	printMarked(w, warningStyle, "⚠", format, args...)
}

// printMarked styles the mark only when w is a terminal
func printMarked(w io.Writer, style lipgloss.Style, mark, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if IsTerminal(w) {
		mark = style.Render(mark)
	}
	fmt.Fprintf(w, "%s %s\n", mark, msg)
}
