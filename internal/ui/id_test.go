package ui

import "testing"

func TestUniqueIDPrefixLengths(t *testing.T) {
	lengths := UniqueIDPrefixLengths([]string{"abcd1234", "abzz9876", "qrst5555"})

	cases := map[string]int{
		"abcd1234": 3,
		"abzz9876": 3,
		"qrst5555": 1,
	}
	for id, want := range cases {
		if got := lengths[id]; got != want {
			t.Errorf("prefix length for %s = %d, want %d", id, got, want)
		}
	}
}

func TestUniqueIDPrefixLengthsDuplicates(t *testing.T) {
	lengths := UniqueIDPrefixLengths([]string{"aaaa", "AAAA", ""})
	if len(lengths) != 1 {
		t.Fatalf("expected one entry, got %d", len(lengths))
	}
	if lengths["aaaa"] != 1 {
		t.Errorf("expected prefix length 1 for a lone id, got %d", lengths["aaaa"])
	}
}

func TestHighlightIDOutOfRange(t *testing.T) {
	if got := HighlightID("abc", 9); got != "abc" {
		t.Errorf("expected untouched id, got %q", got)
	}
	if got := HighlightID("", 1); got != "" {
		t.Errorf("expected empty id passthrough, got %q", got)
	}
}
