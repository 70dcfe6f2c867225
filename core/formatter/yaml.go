package formatter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// Name returns the formatter name.
func (YAMLFormatter) Name() string { return "yaml" }

// Format writes name, count and data keys.
func (YAMLFormatter) Format(w io.Writer, data Dataset, opts FormatOptions) error {
	rows := project(data.Records, opts.columns(data))
	return encodeYAML(w, map[string]any{
		"name":  data.Name,
		"count": len(rows),
		"data":  rows,
	})
}

// FormatError formats an error as YAML.
func (YAMLFormatter) FormatError(w io.Writer, err error) error {
	return encodeYAML(w, map[string]any{"error": err.Error()})
}

func encodeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
