package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// tableRow is a result row that can also be printed as a table line.
type tableRow interface {
	cells() []string
}

// writeReport prints rows in the requested format. top > 0 truncates rows
// before printing.
func writeReport[T tableRow](w io.Writer, format string, top int, header []string, rows []T) error {
	if top > 0 && top < len(rows) {
		rows = rows[:top]
	}
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, r := range rows {
			fmt.Fprintln(tw, strings.Join(r.cells(), "\t"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func f5(v float64) string {
	return fmt.Sprintf("%.5f", v)
}
