package x86enc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wdamron/x86enc/feats"
	"github.com/wdamron/x86enc/flags"
)

// MnemonicDefs holds the definitions of one mnemonic, as read from a YAML variant table.
type MnemonicDefs struct {
	Mnemonic string
	Cond     bool // conditional family, added with Table.AddCond
	Defs     []Def
}

type defDoc struct {
	Pattern string `yaml:"pattern"`
	Opcode  string `yaml:"opcode"`
	Ext     *int   `yaml:"ext"`
	Flags   string `yaml:"flags"`
	Feats   string `yaml:"feats"`
}

type mnemonicDoc struct {
	Cond     bool     `yaml:"cond"`
	Variants []defDoc `yaml:"variants"`
}

// Read variant definitions from a YAML document, in document order. The document maps each mnemonic
// to its definitions:
//
// 	add:
// 	  variants:
// 	    - {pattern: Abib, opcode: "04"}
// 	    - {pattern: m*ib, opcode: "83", ext: 0, flags: AUTO_SIZE|IMM_SX|LOCK}
// 	cmovcc:
// 	  cond: true
// 	  variants:
// 	    - {pattern: r*v*, opcode: 0F 40, flags: AUTO_SIZE, feats: CMOV}
//
// Opcodes are hex bytes separated by spaces. Flags and features are names joined by "|".
func ReadDefs(r io.Reader) ([]MnemonicDefs, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("x86enc: decoding variant table: %w", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("x86enc: variant table (line %d): expected a mapping of mnemonics", doc.Line)
	}

	out := make([]MnemonicDefs, 0, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]
		var md mnemonicDoc
		if err := val.Decode(&md); err != nil {
			return nil, fmt.Errorf("x86enc: %s (line %d): %w", key.Value, key.Line, err)
		}
		m := MnemonicDefs{Mnemonic: strings.ToLower(key.Value), Cond: md.Cond}
		for j, d := range md.Variants {
			def, err := d.def()
			if err != nil {
				return nil, fmt.Errorf("x86enc: %s variant %d (line %d): %w", key.Value, j, key.Line, err)
			}
			m.Defs = append(m.Defs, def)
		}
		out = append(out, m)
	}
	return out, nil
}

func (d defDoc) def() (Def, error) {
	def := Def{Pattern: d.Pattern, Ext: NoExt}
	for _, s := range strings.Fields(d.Opcode) {
		b, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 8)
		if err != nil {
			return def, fmt.Errorf("invalid opcode byte %q", s)
		}
		def.Opcode = append(def.Opcode, byte(b))
	}
	if d.Ext != nil {
		if *d.Ext < 0 || *d.Ext > 7 {
			return def, fmt.Errorf("opcode extension %d out of range", *d.Ext)
		}
		def.Ext = int8(*d.Ext)
	}
	var err error
	if def.Flags, err = flags.Parse(d.Flags); err != nil {
		return def, err
	}
	if def.Feats, err = feats.Parse(d.Feats); err != nil {
		return def, err
	}
	return def, nil
}

// Load a variant table from a YAML document. See ReadDefs for the document format.
func LoadTable(r io.Reader) (*Table, error) {
	defs, err := ReadDefs(r)
	if err != nil {
		return nil, err
	}
	t := NewTable()
	for _, m := range defs {
		if m.Cond {
			err = t.AddCond(m.Mnemonic, m.Defs...)
		} else {
			err = t.Add(m.Mnemonic, m.Defs...)
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}
