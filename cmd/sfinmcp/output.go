package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"sfinmcp/internal/infra/catalog"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

type toolView struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ReadOnly    bool            `json:"readOnly"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func printTools(w io.Writer, descriptors []catalog.Descriptor, format string) error {
	views := make([]toolView, 0, len(descriptors))
	for _, d := range descriptors {
		schema, err := json.Marshal(d.InputSchema)
		if err != nil {
			return fmt.Errorf("encode schema for %s: %w", d.Name(), err)
		}
		views = append(views, toolView{
			Name:        d.Name(),
			Title:       d.Title,
			Description: d.Description,
			ReadOnly:    d.ReadOnly,
			InputSchema: schema,
		})
	}
	return printValue(w, views, format)
}

// printValue writes value as indented JSON or as YAML. YAML goes through a
// JSON round trip so json tags and RawMessage fields render the same way.
func printValue(w io.Writer, value any, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", outputJSON:
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output %q (want json or yaml)", format)
	}
}
