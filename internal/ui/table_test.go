package ui

import (
	"strings"
	"testing"
)

func TestFormatTable(t *testing.T) {
	output := FormatTable(
		[]string{"NAME", "WINDOW"},
		[][]string{
			{"Lunch", "13:00-14:00"},
			{"Evening wind-down", "22:00-02:00"},
		},
	)

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("expected header row, got %q", lines[0])
	}

	// Columns align on the widest cell.
	windowCol := strings.Index(lines[2], "22:00-02:00")
	if strings.Index(lines[1], "13:00-14:00") != windowCol {
		t.Errorf("expected aligned columns:\n%s", output)
	}
}

func TestTableBuilder(t *testing.T) {
	builder := NewTableBuilder([]string{"A"}, 1)
	builder.AddRow([]string{"x"})
	if got := builder.String(); got != "A\nx\n" {
		t.Errorf("unexpected table output %q", got)
	}
}

func TestTruncateTableCell(t *testing.T) {
	if got := TruncateTableCell("short\nvalue"); got != "short value" {
		t.Errorf("expected newlines flattened, got %q", got)
	}

	long := strings.Repeat("a", 100)
	got := TruncateTableCell(long)
	if len(got) != tableCellMaxWidth {
		t.Errorf("expected width %d, got %d", tableCellMaxWidth, len(got))
	}
	if !strings.HasSuffix(got, tableCellEllipsis) {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}
