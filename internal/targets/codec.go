package targets

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the serialization of a target table collection.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name; the empty name selects JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported targets format: %q", name)
}

// FormatFor infers the format from an output file extension, falling back to def.
func FormatFor(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return def
}

// Encode writes tables to w. JSON output is an array of objects whose line
// keys are decimal strings, the layout the compiler pass reads.
func Encode(w io.Writer, tables []*Table, format Format) error {
	if tables == nil {
		tables = []*Table{}
	}
	switch format {
	case FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tables)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(tables); err != nil {
			return err
		}
		return encoder.Close()
	}
	return fmt.Errorf("unsupported targets format: %q", format)
}

// Decode reads a table collection written by Encode.
func Decode(r io.Reader, format Format) ([]*Table, error) {
	var tables []*Table
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&tables); err != nil {
			return nil, fmt.Errorf("failed to decode targets: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&tables); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode targets: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported targets format: %q", format)
	}
	for _, table := range tables {
		normalize(table)
	}
	if tables == nil {
		tables = []*Table{}
	}
	return tables, nil
}

func normalize(table *Table) {
	if table == nil {
		return
	}
	if table.TargetsConst == nil {
		table.TargetsConst = map[int]string{}
	}
	if table.TargetsBlock == nil {
		table.TargetsBlock = map[int]Vars{}
	}
	if table.TargetsFunction == nil {
		table.TargetsFunction = map[int]Vars{}
	}
	for _, group := range []map[int]Vars{table.TargetsBlock, table.TargetsFunction} {
		for _, vars := range group {
			for name, trace := range vars {
				if trace == nil {
					vars[name] = []uint32{}
				}
			}
		}
	}
}
