// package x86lookup resolves mnemonics as written in assembly text to variant-table entries.
//
// Conditional instructions are written with their condition code, e.g. "jz", "setae" or "cmovnle",
// and resolve to a conditional family ("jcc", "setcc", "cmovcc") and a condition code.
package x86lookup

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/wdamron/x86enc"
)

const maxMnemonicLength = 16

// Alternate names for mnemonics in the built-in table.
var aliases = map[string]string{
	"retn":   "ret",
	"xlat":   "xlatb",
	"loopz":  "loope",
	"loopnz": "loopne",
}

// Conditional families, by the prefix their mnemonics are written with.
var condPrefixes = []struct {
	prefix string
	family string
}{
	{"cmov", x86enc.Cmovcc},
	{"set", x86enc.Setcc},
	{"j", x86enc.Jcc},
}

// Lookup a mnemonic in the built-in variant table. The mnemonic will be converted to lowercase if
// necessary. For conditional instructions, the family name and condition code are returned.
func Inst(name string) (mnemonic string, cond x86enc.Cond, ok bool) {
	return InstIn(x86enc.DefaultTable(), name)
}

// Lookup a mnemonic in a variant table. See Inst.
func InstIn(t *x86enc.Table, name string) (mnemonic string, cond x86enc.Cond, ok bool) {
	if len(name) == 0 || len(name) >= maxMnemonicLength {
		return "", x86enc.CondNone, false
	}
	name = lowerCase(name)
	if alias, ok := aliases[name]; ok && t.Has(alias) {
		name = alias
	}
	if t.Has(name) && !t.IsCond(name) {
		return name, x86enc.CondNone, true
	}
	for _, p := range condPrefixes {
		if !strings.HasPrefix(name, p.prefix) || !t.IsCond(p.family) {
			continue
		}
		if cc, ok := x86enc.CondByName(name[len(p.prefix):]); ok {
			return p.family, cc, true
		}
	}
	return "", x86enc.CondNone, false
}

// Get the names which may be looked up in a variant table: plain mnemonics, plus each conditional
// family written with each condition-code suffix and alias. The result is sorted.
func Names(t *x86enc.Table) []string {
	var names []string
	for _, m := range t.Mnemonics() {
		if !t.IsCond(m) {
			names = append(names, m)
			continue
		}
		prefix := strings.TrimSuffix(m, "cc")
		for _, cc := range x86enc.CondNames() {
			names = append(names, prefix+cc)
		}
	}
	sort.Strings(names)
	return names
}

// Find the mnemonics in the built-in table closest to an unknown name, for "did you mean" hints.
// At most maxSuggestions names are returned, nearest first.
func Suggest(name string) []string {
	return SuggestIn(x86enc.DefaultTable(), name)
}

const maxSuggestions = 5

// Find the mnemonics in a variant table closest to an unknown name. See Suggest.
func SuggestIn(t *x86enc.Table, name string) []string {
	name = strings.ToLower(name)
	if name == "" {
		return nil
	}
	// allow roughly one edit per three characters
	limit := len(name)/3 + 1

	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	for _, n := range Names(t) {
		if d := levenshtein.ComputeDistance(name, n); d <= limit && n != name {
			cands = append(cands, candidate{n, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if len(cands) > maxSuggestions {
		cands = cands[:maxSuggestions]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

func lowerCase(s string) string {
	var b [maxMnemonicLength]byte
	changed := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
			changed = true
		}
		b[i] = ch
	}
	if !changed {
		return s
	}
	return string(b[:len(s)])
}
