package formatter

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// Name returns the formatter name.
func (JSONFormatter) Name() string { return "json" }

// Format writes {"name", "count", "data"}.
func (JSONFormatter) Format(w io.Writer, data Dataset, opts FormatOptions) error {
	rows := project(data.Records, opts.columns(data))
	return encodeJSON(w, map[string]any{
		"name":  data.Name,
		"count": len(rows),
		"data":  rows,
	}, opts.Compact)
}

// FormatError formats an error as JSON.
func (JSONFormatter) FormatError(w io.Writer, err error) error {
	return encodeJSON(w, map[string]any{"error": err.Error()}, false)
}

func encodeJSON(w io.Writer, v any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
