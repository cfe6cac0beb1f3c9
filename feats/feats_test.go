package feats

import "testing"

func TestParse(t *testing.T) {
	f, err := Parse("sse|SSE2, cmov")
	if err != nil {
		t.Fatal(err)
	}
	if f != SSE|SSE2|CMOV {
		t.Fatalf("got %v", f)
	}
	if !f.Has(SSE2) || f.Has(RDTSCP) {
		t.Fatalf("unexpected Has results for %v", f)
	}
	if got := f.String(); got != "CMOV|SSE|SSE2" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseAll(t *testing.T) {
	f, err := Parse("all")
	if err != nil {
		t.Fatal(err)
	}
	if f != AllFeatures {
		t.Fatalf("got %v", f)
	}
	if !f.Has(X64_IMPLICIT) {
		t.Fatal("every set has the baseline")
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("AVX512"); err == nil {
		t.Fatal("expected an error")
	}
}
