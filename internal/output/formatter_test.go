package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/boxfleet/boxfleet/internal/model"
)

func sampleDoc() Document {
	return Document{
		Sections: []Section{
			{Name: "boxfleet-alice-ubuntu24", Fields: []model.KV{
				{Key: "instance_id", Value: "box-1a2b3c4d"},
				{Key: "public_ip", Value: "(pending)"},
				{Key: "age", Value: "0d0h1m0s"},
			}},
			{Name: "db", Fields: []model.KV{
				{Key: "instance_id", Value: "box-9f8e7d6c"},
				{Key: "public_ip", Value: "10.0.0.9"},
				{Key: "age", Value: "1d2h3m4s"},
			}},
		},
		Raw: map[string]interface{}{"boxes": []string{"a", "b"}},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"ini":     FormatINI,
		"":        FormatINI,
		"garbage": FormatINI,
		"json":    FormatJSON,
		"YAML":    FormatYAML,
		"yml":     FormatYAML,
		"table":   FormatTable,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestINIFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatINI).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := buf.String()

	want := "[boxfleet-alice-ubuntu24]\n" +
		"instance_id = box-1a2b3c4d\n" +
		"public_ip = (pending)\n" +
		"age = 0d0h1m0s\n" +
		"\n" +
		"[db]\n" +
		"instance_id = box-9f8e7d6c\n" +
		"public_ip = 10.0.0.9\n" +
		"age = 1d2h3m4s\n"
	if got != want {
		t.Fatalf("ini output:\n%s\nwant:\n%s", got, want)
	}
}

func TestJSONFormatterUsesRaw(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output not json: %v", err)
	}
	if _, ok := decoded["boxes"]; !ok {
		t.Fatalf("json output missing raw payload: %s", buf.String())
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatTable).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := buf.String()
	for _, want := range []string{"NAME", "INSTANCE_ID", "box-1a2b3c4d", "db", "(pending)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestTableFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatTable).Write(&buf, Document{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No items found") {
		t.Fatalf("empty table output = %q", buf.String())
	}
}
