package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	exportAll bool
	toStdout  bool
)

var exportCmd = &cobra.Command{
	Use:   "export [session]",
	Short: "Export sessions to file",
	Long: `Export a session (the active one by default) or every session with --all.

Files are named after the session, with characters other than letters,
digits, underscore, and hyphen replaced by underscores.

Formats: json (importable), jsonl, md, yaml, html (standalone page).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// validate before touching storage
		if _, err := export.NewExporter(format); err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		exporter, err := export.NewExporter(format,
			export.WithPipeline(a.pipeline),
			export.WithSettings(a.settings.Applied()))
		if err != nil {
			return err
		}

		var sessions []*internal.Session
		if exportAll {
			sessions = a.store.List("")
		} else {
			sess, err := a.resolveSession(firstArg(args))
			if err != nil {
				return err
			}
			sessions = []*internal.Session{sess}
		}

		out := cmd.OutOrStdout()
		if toStdout {
			for _, sess := range sessions {
				if err := exporter.Export(sess, out); err != nil {
					return &internal.ExportError{Format: format, Path: "-", Err: err}
				}
			}
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return &internal.ExportError{Format: format, Path: outputDir, Err: err}
		}
		written := 0
		err = internal.ShowProgress(commandContext(cmd), fmt.Sprintf("Exporting %d session(s)", len(sessions)), func() error {
			used := make(map[string]int)
			for _, sess := range sessions {
				path := uniquePath(outputDir, export.FileName(sess, exporter.Extension()), used)
				if err := exportFile(exporter, format, sess, path); err != nil {
					return err
				}
				written++
				internal.LogDebug("Exported %s to %s", sess.ID, path)
				internal.PrintSuccess(out, "%s", path)
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %s session(s) to %s\n", countStyle.Render(fmt.Sprint(written)), outputDir)
		return nil
	},
}

func exportFile(exporter export.Exporter, format string, sess *internal.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := exporter.Export(sess, f); err != nil {
		_ = f.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

// uniquePath keeps same-named sessions from overwriting each other in one run
func uniquePath(dir, name string, used map[string]int) string {
	n := used[name]
	used[name] = n + 1
	if n > 0 {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s-%d%s", name[:len(name)-len(ext)], n+1, ext)
	}
	return filepath.Join(dir, name)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import sessions from a JSON export",
	Long: `Import sessions from a file written by "xerochat export --format json".

The file may hold one session or an array of sessions; "-" reads standard
input. Sessions whose conversation already exists are skipped. An imported
session whose ID is taken gets a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		var r io.Reader = cmd.InOrStdin()
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return &internal.ImportError{Path: path, Err: err}
			}
			defer f.Close()
			r = f
		}
		sessions, err := export.ImportAll(r)
		if err != nil {
			return &internal.ImportError{Path: path, Err: err}
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		dedup := internal.NewDeduplicator()
		unique := dedup.Deduplicate(sessions)
		imported, skipped := 0, len(sessions)-len(unique)
		if skipped > 0 {
			internal.PrintWarning(out, "Skipped %d repeated conversation(s) in %s", skipped, path)
		}
		existing := a.store.List("")
		for _, sess := range unique {
			if dup, ok := dedup.FindDuplicate(sess, existing); ok {
				internal.PrintWarning(out, "Skipped %s (same conversation as %s)",
					sess.Name, idStyle.Render(shortID(dup.ID)))
				skipped++
				continue
			}
			added := a.store.Import(sess)
			internal.PrintSuccess(out, "Imported %s %s", added.Name, idStyle.Render(added.ID))
			imported++
		}
		fmt.Fprintf(out, "Imported %s session(s), skipped %d\n", countStyle.Render(fmt.Sprint(imported)), skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "Export format (json, jsonl, md, yaml, html)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", ".", "Output directory")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every session")
	exportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to standard output instead of files")
}
