package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TableFormatter renders records as a table: one row per section, with the
// column set taken from the union of field keys in first-seen order.
type TableFormatter struct{}

func (f *TableFormatter) Write(w io.Writer, doc Document) error {
	if len(doc.Sections) == 0 {
		fmt.Fprintln(w, "No items found")
		return nil
	}

	var columns []string
	seen := map[string]bool{}
	for _, section := range doc.Sections {
		for _, kv := range section.Fields {
			if !seen[kv.Key] {
				seen[kv.Key] = true
				columns = append(columns, kv.Key)
			}
		}
	}

	headers := make([]string, 0, len(columns)+1)
	headers = append(headers, "NAME")
	for _, c := range columns {
		headers = append(headers, strings.ToUpper(c))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, section := range doc.Sections {
		fields := map[string]string{}
		for _, kv := range section.Fields {
			fields[kv.Key] = kv.Value
		}
		row := make([]string, 0, len(columns)+1)
		row = append(row, section.Name)
		for _, c := range columns {
			row = append(row, fields[c])
		}
		table.Append(row)
	}

	table.Render()
	return nil
}
