package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/smallbiznis/astrolabe/internal/calendar"
	"github.com/smallbiznis/astrolabe/internal/envelope"
)

// OutputFormatter renders command results as indented JSON or plain text.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) Envelope(env envelope.Envelope) error {
	if f.Format == "json" {
		return f.json(env)
	}

	fmt.Fprintf(f.Writer, "status: %s\n", env.Status)
	fmt.Fprintf(f.Writer, "message: %s\n", env.Message)
	fmt.Fprintf(f.Writer, "timestamp: %s\n", env.Timestamp)
	if env.Error != "" {
		fmt.Fprintf(f.Writer, "error: %s\n", env.Error)
	}
	if env.Result == nil {
		return nil
	}

	result, err := generic(env.Result)
	if err != nil {
		return err
	}
	fmt.Fprintln(f.Writer, "result:")
	return writeMap(f.Writer, result, 1)
}

func (f *OutputFormatter) Month(month calendar.Month) error {
	if f.Format == "json" {
		return f.json(month)
	}

	fmt.Fprintf(f.Writer, "year: %d\n", month.Year)
	fmt.Fprintf(f.Writer, "month: %d\n", month.Month)
	fmt.Fprintf(f.Writer, "count: %d\n", month.Count)
	fmt.Fprintln(f.Writer, "days:")
	for _, day := range month.Days {
		fmt.Fprintf(f.Writer, "  %s\n", day)
	}
	return nil
}

func (f *OutputFormatter) json(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// generic round-trips v through JSON so nested engine maps render uniformly.
func generic(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeMap(w io.Writer, m map[string]any, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, key := range slices.Sorted(maps.Keys(m)) {
		switch value := m[key].(type) {
		case map[string]any:
			if len(value) == 0 {
				fmt.Fprintf(w, "%s%s: {}\n", indent, key)
				continue
			}
			fmt.Fprintf(w, "%s%s:\n", indent, key)
			if err := writeMap(w, value, depth+1); err != nil {
				return err
			}
		case string:
			fmt.Fprintf(w, "%s%s: %s\n", indent, key, value)
		default:
			raw, err := json.Marshal(value)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s%s: %s\n", indent, key, raw)
		}
	}
	return nil
}
