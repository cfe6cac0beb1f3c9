package flags

import "testing"

func TestFormatParse(t *testing.T) {
	tests := []struct {
		flags uint32
		text  string
	}{
		{DEFAULT, "DEFAULT"},
		{LOCK, "LOCK"},
		{AUTO_SIZE | LOCK | ENC_MR, "AUTO_SIZE|LOCK|ENC_MR"},
		{SHORT_ARG | X86_ONLY, "SHORT_ARG|X86_ONLY"},
	}
	for _, tt := range tests {
		if got := Format(tt.flags); got != tt.text {
			t.Errorf("Format(%#x) = %q, want %q", tt.flags, got, tt.text)
		}
		got, err := Parse(tt.text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.text, err)
		}
		if got != tt.flags {
			t.Errorf("Parse(%q) = %#x, want %#x", tt.text, got, tt.flags)
		}
	}
}

func TestParseLowerCaseAndSpaces(t *testing.T) {
	got, err := Parse(" lock | rep ")
	if err != nil {
		t.Fatal(err)
	}
	if got != LOCK|REP {
		t.Fatalf("got %#x", got)
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("LOCK|BOGUS"); err == nil {
		t.Fatal("expected an error for an unknown flag")
	}
}
