// Command x86gen compiles a YAML variant table into Go source which registers the table's variants.
//
//	x86gen --in table.yaml --out table_gen.go --package mytable
//
// The generated file declares one constant per mnemonic and a Register function:
//
//	func Register(t *x86enc.Table) error
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/pflag"

	"github.com/wdamron/x86enc"
	"github.com/wdamron/x86enc/flags"
)

func main() {
	in := pflag.StringP("in", "i", "", "YAML variant table (default: standard input)")
	out := pflag.StringP("out", "o", "", "output Go file (default: standard output)")
	pkg := pflag.StringP("package", "p", "table", "package name of the generated file")
	pflag.Parse()

	if err := run(*in, *out, *pkg); err != nil {
		fmt.Fprintln(os.Stderr, "x86gen:", err)
		os.Exit(1)
	}
}

func run(in, out, pkg string) error {
	var r io.Reader = os.Stdin
	source := "stdin"
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		r, source = f, filepath.Base(in)
	}
	defs, err := x86enc.ReadDefs(r)
	if err != nil {
		return err
	}
	src, err := generate(defs, pkg, source)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = os.Stdout.Write(src)
		return err
	}
	return os.WriteFile(out, src, 0o644)
}

type genMnemonic struct {
	Const string
	Name  string
	Cond  bool
	Defs  []genDef
}

type genDef struct {
	Pattern string
	Opcode  string
	Ext     string
	Flags   string
	Feats   string
}

// Render Go source for the definitions.
func generate(defs []x86enc.MnemonicDefs, pkg, source string) ([]byte, error) {
	data := struct {
		Package   string
		Source    string
		UsesFeats bool
		Mnemonics []genMnemonic
	}{Package: pkg, Source: source}

	seen := make(map[string]string)
	for _, m := range defs {
		c := constName(m.Mnemonic)
		if prev, ok := seen[c]; ok {
			return nil, fmt.Errorf("mnemonics %q and %q map to the same constant %s", prev, m.Mnemonic, c)
		}
		seen[c] = m.Mnemonic
		gm := genMnemonic{Const: c, Name: m.Mnemonic, Cond: m.Cond}
		for _, d := range m.Defs {
			gd := genDef{
				Pattern: d.Pattern,
				Opcode:  opcodeLiteral(d.Opcode),
				Ext:     "x86enc.NoExt",
				Flags:   flags.Format(d.Flags),
				Feats:   "0",
			}
			if d.Ext >= 0 {
				gd.Ext = fmt.Sprint(d.Ext)
			}
			if d.Feats != 0 {
				gd.Feats = featsExpr(d.Feats.String())
				data.UsesFeats = true
			}
			gm.Defs = append(gm.Defs, gd)
		}
		data.Mnemonics = append(data.Mnemonics, gm)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w\n%s", err, buf.Bytes())
	}
	return src, nil
}

func constName(mnemonic string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(mnemonic))
}

func opcodeLiteral(opcode []byte) string {
	parts := make([]string, len(opcode))
	for i, b := range opcode {
		parts[i] = fmt.Sprintf("0x%02x", b)
	}
	return "[]byte{" + strings.Join(parts, ", ") + "}"
}

func featsExpr(names string) string {
	parts := strings.Split(names, "|")
	for i, p := range parts {
		parts[i] = "feats." + p
	}
	return strings.Join(parts, " | ")
}

var fileTemplate = template.Must(template.New("table").Parse(`// Code generated by x86gen from {{.Source}}; DO NOT EDIT.

package {{.Package}}

import (
	"github.com/wdamron/x86enc"
	{{- if .UsesFeats}}
	"github.com/wdamron/x86enc/feats"
	{{- end}}
	. "github.com/wdamron/x86enc/flags"
)

// Mnemonics
const (
{{- range .Mnemonics}}
	{{.Const}} = {{printf "%q" .Name}}
{{- end}}
)

// Register adds every variant to t, in table order.
func Register(t *x86enc.Table) error {
{{- range .Mnemonics}}
	if err := t.{{if .Cond}}AddCond{{else}}Add{{end}}({{.Const}},
	{{- range .Defs}}
		x86enc.Def{Pattern: {{printf "%q" .Pattern}}, Opcode: {{.Opcode}}, Ext: {{.Ext}}, Flags: {{.Flags}}, Feats: {{.Feats}}},
	{{- end}}
	); err != nil {
		return err
	}
{{- end}}
	return nil
}
`))
