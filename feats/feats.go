// Package feats defines the CPU feature bits which gate variant selection.
package feats

import (
	"fmt"
	"sort"
	"strings"
)

type Feature uint32

// CPU Features
const (
	X64_IMPLICIT Feature = 0 // baseline; always available
	CMOV         Feature = 1 << iota
	CX8
	SSE
	SSE2
	SSE3
	RDTSCP
	SYSCALL
)

const AllFeatures Feature = 0xffffffff

// Check if all features in want are present in f.
func (f Feature) Has(want Feature) bool { return f&want == want }

func (f Feature) String() string {
	if f == X64_IMPLICIT {
		return "X64_IMPLICIT"
	}
	if f == AllFeatures {
		return "ALL"
	}
	var names []string
	for bit := Feature(1); bit != 0; bit <<= 1 {
		if f&bit == 0 {
			continue
		}
		if name, ok := featNames[bit]; ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

func FeatName(f Feature) string { return featNames[f] }

// Parse a feature set from names separated by "|" or ",". "ALL" selects every feature.
func Parse(s string) (Feature, error) {
	var f Feature
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == "ALL" {
			f |= AllFeatures
			continue
		}
		bit, ok := featsByName[name]
		if !ok {
			return 0, fmt.Errorf("unknown CPU feature %q", name)
		}
		f |= bit
	}
	return f, nil
}

// Get the names of all known features, sorted.
func Names() []string {
	names := make([]string, 0, len(featsByName))
	for name := range featsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var featNames = map[Feature]string{
	X64_IMPLICIT: "X64_IMPLICIT",
	CMOV:         "CMOV",
	CX8:          "CX8",
	SSE:          "SSE",
	SSE2:         "SSE2",
	SSE3:         "SSE3",
	RDTSCP:       "RDTSCP",
	SYSCALL:      "SYSCALL",
}

var featsByName = func() map[string]Feature {
	m := make(map[string]Feature, len(featNames))
	for f, name := range featNames {
		m[name] = f
	}
	return m
}()
