package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Write(w io.Writer, doc Document) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(doc.Raw)
}
