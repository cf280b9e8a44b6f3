package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Output formats accepted by Write.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Write renders res to w in the given format.
func Write(w io.Writer, res Result, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatTable:
		return writeTable(w, res)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, res Result) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", res.Title); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Columns, "\t")))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n(%d rows)\n", len(res.Rows))
	return err
}

// WriteCatalog lists the catalog as a table.
func WriteCatalog(w io.Writer, defs []Definition) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tTITLE\tPARAMETERS")
	for _, d := range defs {
		var params []string
		if d.RequiresSpecies {
			params = append(params, "species")
		}
		if d.Ranked {
			params = append(params, "limit")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Category, d.Title, strings.Join(params, ","))
	}
	return tw.Flush()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
