package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wdamron/x86enc"
)

func readTestdata(t *testing.T) []x86enc.MnemonicDefs {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "table.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	defs, err := x86enc.ReadDefs(f)
	if err != nil {
		t.Fatal(err)
	}
	return defs
}

func TestGenerate(t *testing.T) {
	src, err := generate(readTestdata(t), "table", "table.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(src), "// Code generated by x86gen from table.yaml; DO NOT EDIT.\n") {
		t.Fatalf("missing generated-code header:\n%s", src)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "table_gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	if file.Name.Name != "table" {
		t.Fatalf("unexpected package %s", file.Name.Name)
	}

	var imports []string
	for _, imp := range file.Imports {
		imports = append(imports, imp.Path.Value)
	}
	wantImports := []string{`"github.com/wdamron/x86enc"`, `"github.com/wdamron/x86enc/feats"`, `"github.com/wdamron/x86enc/flags"`}
	if diff := cmp.Diff(wantImports, imports); diff != "" {
		t.Fatalf("unexpected imports (-want +got):\n%s", diff)
	}

	var consts []string
	var register *ast.FuncDecl
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.CONST {
				continue
			}
			for _, spec := range d.Specs {
				consts = append(consts, spec.(*ast.ValueSpec).Names[0].Name)
			}
		case *ast.FuncDecl:
			if d.Name.Name == "Register" {
				register = d
			}
		}
	}
	if diff := cmp.Diff([]string{"CPUID", "ADCX", "CMOVCC", "INC"}, consts); diff != "" {
		t.Fatalf("unexpected constants (-want +got):\n%s", diff)
	}
	if register == nil {
		t.Fatal("missing Register function")
	}

	for _, want := range []string{
		`t.Add(CPUID,`,
		`t.AddCond(CMOVCC,`,
		`Opcode: []byte{0x0f, 0x38, 0xf6}`,
		`Ext: x86enc.NoExt`,
		`Ext: 0`,
		`Feats: feats.CMOV`,
		`Flags: DEFAULT`,
		`PREF_66`,
	} {
		if !strings.Contains(string(src), want) {
			t.Errorf("expected %q in generated source:\n%s", want, src)
		}
	}
}

func TestGenerateWithoutFeatures(t *testing.T) {
	defs := []x86enc.MnemonicDefs{{
		Mnemonic: "ud2",
		Defs:     []x86enc.Def{{Opcode: []byte{0x0f, 0x0b}, Ext: x86enc.NoExt}},
	}}
	src, err := generate(defs, "ops", "stdin")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(src), "x86enc/feats") {
		t.Fatalf("unexpected feats import:\n%s", src)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), "", src, 0); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateConstClash(t *testing.T) {
	defs := []x86enc.MnemonicDefs{{Mnemonic: "a.b"}, {Mnemonic: "a-b"}}
	if _, err := generate(defs, "ops", "stdin"); err == nil {
		t.Fatal("expected an error for clashing constant names")
	}
}

func TestRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "table_gen.go")
	if err := run(filepath.Join("testdata", "table.yaml"), out, "gen"); err != nil {
		t.Fatal(err)
	}
	src, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), "package gen") {
		t.Fatalf("unexpected output:\n%s", src)
	}
}
