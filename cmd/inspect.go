package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/xerochat/internal"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	inspectFormat string
	inspectRaw    bool
)

// storedRecord is one raw key-value record with a short description
type storedRecord struct {
	Key     string `json:"key"`
	Bytes   int    `json:"bytes"`
	Summary string `json:"summary"`
	Value   string `json:"value,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the raw stored records",
	Long: `Inspect the raw records in the configured storage.

Each record is listed with its size and a short description of what it
holds. Records that no longer decode are reported as such, which helps
when a session list was edited by hand or written by another version.

Examples:
  xerochat inspect                       # Summarize records
  xerochat inspect --raw                 # Include the stored values
  xerochat inspect --format json         # Machine-readable output`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFormat != "text" && inspectFormat != "json" {
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		pairs, err := loadRecords(a.kv)
		if err != nil {
			return err
		}
		records := make([]storedRecord, 0, len(pairs))
		for _, p := range pairs {
			r := storedRecord{Key: p.Key, Bytes: len(p.Value), Summary: summarizeRecord(p.Key, p.Value)}
			if inspectRaw {
				r.Value = p.Value
			}
			records = append(records, r)
		}
		return printRecords(cmd.OutOrStdout(), a, records)
	},
}

// loadRecords reads every record. SQLite is queried directly so rows written
// by other tools under the same prefix show up too.
func loadRecords(kv internal.KVStore) ([]internal.KeyValuePair, error) {
	if s, ok := kv.(*internal.SQLiteKV); ok {
		return internal.QueryKV(s.DB(), internal.KeyPrefix+"%")
	}
	keys, err := kv.Keys("")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	pairs := make([]internal.KeyValuePair, 0, len(keys))
	for _, k := range keys {
		v, err := kv.Get(k)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		pairs = append(pairs, internal.KeyValuePair{Key: k, Value: v})
	}
	return pairs, nil
}

func summarizeRecord(key, value string) string {
	if !gjson.Valid(value) {
		if key == internal.ActiveKey {
			return "active session " + shortID(value)
		}
		return "not JSON"
	}
	switch key {
	case internal.SessionsKey:
		doc := gjson.Parse(value)
		if !doc.IsArray() {
			return "session list is not an array"
		}
		messages := 0
		doc.ForEach(func(_, s gjson.Result) bool {
			messages += int(s.Get("messages.#").Int())
			return true
		})
		return fmt.Sprintf("%d session(s), %d message(s)", doc.Get("#").Int(), messages)
	case internal.SettingsKey:
		return fmt.Sprintf("theme=%s typewriter=%s", gjson.Get(value, "theme").String(), gjson.Get(value, "typewriter").Raw)
	case internal.ActiveKey:
		return "active session " + shortID(gjson.Parse(value).String())
	}
	return "unknown record"
}

func printRecords(out io.Writer, a *app, records []storedRecord) error {
	if inspectFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Fprintln(out, sectionStyle.Render(fmt.Sprintf("📊 %s storage", a.cfg.Storage)))
	fmt.Fprintln(out)
	if len(records) == 0 {
		fmt.Fprintln(out, "No records stored yet.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render(r.Key), dateStyle.Render(fmt.Sprintf("(%d bytes)", r.Bytes)))
		fmt.Fprintf(out, "   %s\n", r.Summary)
		if r.Value != "" {
			fmt.Fprintf(out, "   %s\n", strings.ReplaceAll(r.Value, "\n", "\n   "))
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().BoolVar(&inspectRaw, "raw", false, "Include stored values")
}
