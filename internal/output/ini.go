package output

import (
	"fmt"
	"io"
)

// INIFormatter renders one [section] per record with `key = value` lines.
type INIFormatter struct{}

func (f *INIFormatter) Write(w io.Writer, doc Document) error {
	for i, section := range doc.Sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%s]\n", section.Name); err != nil {
			return err
		}
		for _, kv := range section.Fields {
			if _, err := fmt.Fprintf(w, "%s = %s\n", kv.Key, kv.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
