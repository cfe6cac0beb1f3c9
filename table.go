package x86enc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type tableKey struct {
	mnemonic string
	cond     Cond
}

// Table maps mnemonics, or (mnemonic, condition code) pairs for conditional families, to ordered
// variant lists. When several variants accept the same arguments the first one wins, so specialized
// encodings (such as accumulator short forms) must be added before general ones.
//
// A Table must not be modified after it has been shared with an Encoder; lookups are then safe for
// concurrent use.
type Table struct {
	variants map[tableKey][]*OpcodeVariant
	conds    map[string]bool
}

// Create an empty table.
func NewTable() *Table {
	return &Table{
		variants: make(map[tableKey][]*OpcodeVariant),
		conds:    make(map[string]bool),
	}
}

// Append variants for a mnemonic, in definition order.
func (t *Table) Add(mnemonic string, defs ...Def) error {
	mnemonic = strings.ToLower(mnemonic)
	if t.conds[mnemonic] {
		return fmt.Errorf("x86enc: %s is a conditional family", mnemonic)
	}
	return t.add(mnemonic, CondNone, defs)
}

// Append variants for a conditional family, once per condition code. The condition code is added to
// the last opcode byte of each definition.
func (t *Table) AddCond(mnemonic string, defs ...Def) error {
	mnemonic = strings.ToLower(mnemonic)
	if _, ok := t.variants[tableKey{mnemonic, CondNone}]; ok {
		return fmt.Errorf("x86enc: %s is not a conditional family", mnemonic)
	}
	t.conds[mnemonic] = true
	for cc := CondO; cc <= CondG; cc++ {
		if err := t.add(mnemonic, cc, defs); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) add(mnemonic string, cond Cond, defs []Def) error {
	key := tableKey{mnemonic, cond}
	list := t.variants[key]
	for _, def := range defs {
		vs, err := compileDef(mnemonic, cond, def)
		if err != nil {
			return err
		}
		list = append(list, vs...)
	}
	t.variants[key] = list
	return nil
}

func (t *Table) mustAdd(mnemonic string, defs ...Def) {
	if err := t.Add(mnemonic, defs...); err != nil {
		panic(err)
	}
}

func (t *Table) mustAddCond(mnemonic string, defs ...Def) {
	if err := t.AddCond(mnemonic, defs...); err != nil {
		panic(err)
	}
}

// Get the ordered variants for a mnemonic (with CondNone), or for one condition code of a conditional
// family. The returned slice must not be modified.
func (t *Table) Variants(mnemonic string, cond Cond) []*OpcodeVariant {
	return t.variants[tableKey{strings.ToLower(mnemonic), cond}]
}

// Check if the mnemonic names a conditional family.
func (t *Table) IsCond(mnemonic string) bool { return t.conds[strings.ToLower(mnemonic)] }

// Check if the table has variants for the mnemonic.
func (t *Table) Has(mnemonic string) bool {
	mnemonic = strings.ToLower(mnemonic)
	if t.conds[mnemonic] {
		return true
	}
	_, ok := t.variants[tableKey{mnemonic, CondNone}]
	return ok
}

// Get all mnemonics in the table, sorted. Conditional families are listed once, by family name.
func (t *Table) Mnemonics() []string {
	seen := make(map[string]bool, len(t.variants))
	names := make([]string, 0, len(t.variants))
	for k := range t.variants {
		if !seen[k.mnemonic] {
			seen[k.mnemonic] = true
			names = append(names, k.mnemonic)
		}
	}
	sort.Strings(names)
	return names
}

// Count the variants in the table.
func (t *Table) Len() int {
	n := 0
	for _, vs := range t.variants {
		n += len(vs)
	}
	return n
}

// Copy every mnemonic of other into t. Mnemonics present in both are replaced by other's variants.
func (t *Table) Merge(other *Table) {
	for name := range other.conds {
		t.drop(name)
		t.conds[name] = true
	}
	for k, vs := range other.variants {
		if !other.conds[k.mnemonic] {
			t.drop(k.mnemonic)
		}
		t.variants[k] = vs
	}
}

func (t *Table) drop(mnemonic string) {
	delete(t.conds, mnemonic)
	for k := range t.variants {
		if k.mnemonic == mnemonic {
			delete(t.variants, k)
		}
	}
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Get the built-in variant table. It is built once, on first use, and must not be modified.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable()
		buildX86Table(defaultTable)
	})
	return defaultTable
}
