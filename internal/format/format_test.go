package format_test

import (
	"strings"
	"testing"

	"tageval/internal/format"
)

func TestASCIIBasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Type", "Targets", "F(strict)")
	tb.Row("Person", 42, 0.95)
	tb.Row("Location", 17, 0.88)
	out := tb.String()

	if !strings.Contains(out, "TYPE") && !strings.Contains(out, "Type") {
		t.Errorf("expected Type header in output:\n%s", out)
	}
	if !strings.Contains(out, "Person") {
		t.Errorf("expected 'Person' in output:\n%s", out)
	}
	if !strings.Contains(out, "0.95") {
		t.Errorf("expected '0.95' in output:\n%s", out)
	}
	// ASCII mode uses StyleLight box-drawing characters.
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdownBasicTable(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Threshold", "Responses")
	tb.Row("0.90", 12)
	tb.Row("0.50", 30)
	out := tb.String()

	if !strings.Contains(out, "| Threshold") {
		t.Errorf("expected markdown header with '| Threshold':\n%s", out)
	}
	if !strings.Contains(out, "---") {
		t.Errorf("expected markdown separator '---':\n%s", out)
	}
	if !strings.Contains(out, "0.90") {
		t.Errorf("expected '0.90' in output:\n%s", out)
	}
}

func TestMarkdownWithFooter(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Type", "Targets")
	tb.Row("Person", 100)
	tb.Row("Location", 200)
	tb.Footer("total", 300)
	out := tb.String()

	if !strings.Contains(out, "300") {
		t.Errorf("expected footer value '300' in output:\n%s", out)
	}
}

func TestColumnsRightAlign(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Type", "Count")
	tb.Row("Person", 7)
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	out := tb.String()

	// Right alignment pads the value on the left within its column.
	if !strings.Contains(out, "    7") {
		t.Errorf("expected right-aligned count in output:\n%s", out)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want format.Mode
	}{
		{"markdown", format.Markdown},
		{"md", format.Markdown},
		{"ascii", format.ASCII},
		{"", format.ASCII},
		{"bogus", format.ASCII},
	}
	for _, tc := range cases {
		if got := format.ParseMode(tc.in); got != tc.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
