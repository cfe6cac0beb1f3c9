// Package syntax parses single lines of Intel-syntax assembly into instructions for the x86enc
// encoder.
//
// Supported operand forms:
//
// 	eax, r8b, xmm3                      registers
// 	5, -1, 0x7f, 0b101                  immediates
// 	[rbx+rsi*4-8], dword ptr [esp]      memory, with an optional width and segment override (fs:[0x28])
// 	.+5, .-0x9                          relative offsets from the end of the instruction
// 	0x08:0x1000                         far pointers
package syntax

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/wdamron/x86enc"
	x86lookup "github.com/wdamron/x86enc/lookup"
)

var (
	reSizedMem = regexp.MustCompile(`(?i)^(byte|word|dword|fword|qword|xmmword|oword)\s+ptr\s+(.+)$`)
	reMem      = regexp.MustCompile(`(?i)^(?:([a-z]s)\s*:\s*)?\[([^\]]*)\]$`)
	reRel      = regexp.MustCompile(`^\.\s*(?:([+-])\s*(\S+))?$`)
	reFarPtr   = regexp.MustCompile(`(?i)^([0-9a-fx_]+)\s*:\s*([0-9a-fx_]+)$`)
	reScaled   = regexp.MustCompile(`(?i)^([a-z0-9]+)\s*\*\s*([0-9]+)$|^([0-9]+)\s*\*\s*([a-z0-9]+)$`)
)

var ptrSizes = map[string]x86enc.Size{
	"byte":    x86enc.Size8,
	"word":    x86enc.Size16,
	"dword":   x86enc.Size32,
	"fword":   x86enc.Size48,
	"qword":   x86enc.Size64,
	"xmmword": x86enc.Size128,
	"oword":   x86enc.Size128,
}

// Parser resolves mnemonics against a variant table.
type Parser struct {
	table *x86enc.Table
}

// Create a parser which resolves mnemonics against t.
func NewParser(t *x86enc.Table) *Parser { return &Parser{table: t} }

// Parse one line of assembly, resolving mnemonics against the built-in variant table.
func Parse(line string) (x86enc.Instruction, error) {
	return NewParser(x86enc.DefaultTable()).Parse(line)
}

// Parse a program, resolving mnemonics against the built-in variant table.
func ParseAll(r io.Reader) ([]x86enc.Instruction, error) {
	return NewParser(x86enc.DefaultTable()).ParseAll(r)
}

// Parse one line of assembly, e.g. "lock add dword ptr [rax+rcx*4], 1". Comments starting with ';'
// or '#' are ignored.
func (p *Parser) Parse(line string) (x86enc.Instruction, error) {
	var inst x86enc.Instruction
	s := strings.TrimSpace(stripComment(line))
	if s == "" {
		return inst, fmt.Errorf("syntax: empty instruction")
	}

	// prefixes, then the mnemonic
	var name string
	for {
		word, rest := cutWord(s)
		switch strings.ToLower(word) {
		case "lock":
			inst.Lock = true
		case "rep", "repe", "repz":
			inst.Rep = x86enc.RepE
		case "repne", "repnz":
			inst.Rep = x86enc.RepNE
		default:
			name, s = word, rest
		}
		if name != "" {
			break
		}
		if rest == "" {
			return inst, fmt.Errorf("syntax: %q: prefix without an instruction", line)
		}
		s = rest
	}

	mnemonic, cond, ok := x86lookup.InstIn(p.table, name)
	if !ok {
		err := fmt.Errorf("syntax: %w %q", x86enc.ErrUnknownMnemonic, name)
		if hints := x86lookup.SuggestIn(p.table, name); len(hints) > 0 {
			err = fmt.Errorf("%w (did you mean %s?)", err, strings.Join(hints, ", "))
		}
		return inst, err
	}
	inst.Mnemonic, inst.Cond = mnemonic, cond

	if s == "" {
		return inst, nil
	}
	for i, field := range splitOperands(s) {
		arg, err := parseOperand(field)
		if err != nil {
			return inst, fmt.Errorf("syntax: %q operand %d: %w", line, i, err)
		}
		inst.Args = append(inst.Args, arg)
	}
	return inst, nil
}

// Parse a program, one instruction per line. Blank lines and comment lines are skipped. Errors
// include the 1-based line number.
func (p *Parser) ParseAll(r io.Reader) ([]x86enc.Instruction, error) {
	var insts []x86enc.Instruction
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if strings.TrimSpace(stripComment(sc.Text())) == "" {
			continue
		}
		inst, err := p.Parse(sc.Text())
		if err != nil {
			return insts, fmt.Errorf("line %d: %w", n, err)
		}
		insts = append(insts, inst)
	}
	return insts, sc.Err()
}

func stripComment(s string) string {
	if i := strings.IndexAny(s, ";#"); i >= 0 {
		return s[:i]
	}
	return s
}

func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// Split operands on commas outside of brackets.
func splitOperands(s string) []string {
	var fields []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				fields = append(fields, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(fields, strings.TrimSpace(s[start:]))
}

// parseOperand tries each operand form in turn, from most to least specific.
func parseOperand(s string) (x86enc.Arg, error) {
	if s == "" {
		return nil, fmt.Errorf("missing operand")
	}
	if r, ok := x86enc.RegByName(s); ok {
		return r, nil
	}
	if m := reSizedMem.FindStringSubmatch(s); m != nil {
		mem, err := parseMem(strings.TrimSpace(m[2]))
		if err != nil {
			return nil, err
		}
		mem.Width = ptrSizes[strings.ToLower(m[1])]
		return mem, nil
	}
	if reMem.MatchString(s) {
		return parseMem(s)
	}
	if m := reRel.FindStringSubmatch(s); m != nil {
		if m[1] == "" {
			return x86enc.Rel(0), nil
		}
		v, err := parseInt(m[2])
		if err != nil {
			return nil, err
		}
		if m[1] == "-" {
			v = -v
		}
		if v < -1<<31 || v > 1<<31-1 {
			return nil, fmt.Errorf("relative offset %s out of range", s)
		}
		return x86enc.Rel(v), nil
	}
	if m := reFarPtr.FindStringSubmatch(s); m != nil {
		sel, err := strconv.ParseUint(m[1], 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid segment selector %q", m[1])
		}
		off, err := strconv.ParseUint(m[2], 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid far pointer offset %q", m[2])
		}
		return x86enc.FarPtr{Selector: uint16(sel), Offset: uint32(off)}, nil
	}
	v, err := parseInt(s)
	if err != nil {
		return nil, fmt.Errorf("unknown operand format: %s", s)
	}
	return x86enc.Imm(v), nil
}

// Parse a memory operand: an optional segment override and a bracketed sum of a base register,
// a scaled index register and displacements.
func parseMem(s string) (x86enc.Mem, error) {
	var mem x86enc.Mem
	m := reMem.FindStringSubmatch(s)
	if m == nil {
		return mem, fmt.Errorf("invalid memory operand %s", s)
	}
	if m[1] != "" {
		seg, ok := x86enc.RegByName(m[1])
		if !ok || seg.Family() != x86enc.REG_SEGMENT {
			return mem, fmt.Errorf("invalid segment register %s", m[1])
		}
		mem.Seg = seg
	}

	expr := strings.ReplaceAll(m[2], " ", "")
	if expr == "" {
		return mem, fmt.Errorf("empty memory operand")
	}
	var disp int64
	for len(expr) > 0 {
		neg := false
		switch expr[0] {
		case '+':
			expr = expr[1:]
		case '-':
			neg, expr = true, expr[1:]
		}
		end := strings.IndexAny(expr, "+-")
		if end < 0 {
			end = len(expr)
		}
		term := expr[:end]
		expr = expr[end:]
		if term == "" {
			return mem, fmt.Errorf("invalid memory operand %s", s)
		}

		if r, ok := x86enc.RegByName(term); ok {
			if neg {
				return mem, fmt.Errorf("cannot subtract register %s", term)
			}
			switch {
			case mem.Base == 0:
				mem.Base = r
			case mem.Index == 0:
				mem.Index = r
			default:
				return mem, fmt.Errorf("too many registers in memory operand %s", s)
			}
			continue
		}
		if sm := reScaled.FindStringSubmatch(term); sm != nil {
			regName, scaleText := sm[1], sm[2]
			if regName == "" {
				regName, scaleText = sm[4], sm[3]
			}
			r, ok := x86enc.RegByName(regName)
			if !ok || neg {
				return mem, fmt.Errorf("invalid index %s", term)
			}
			if mem.Index != 0 {
				return mem, fmt.Errorf("too many index registers in memory operand %s", s)
			}
			scale, _ := strconv.ParseUint(scaleText, 10, 8)
			mem.Index, mem.Scale = r, uint8(scale)
			continue
		}
		v, err := parseInt(term)
		if err != nil {
			return mem, fmt.Errorf("invalid displacement %s", term)
		}
		if neg {
			v = -v
		}
		disp += v
	}
	if disp < -1<<31 || disp > 1<<32-1 {
		return mem, fmt.Errorf("displacement out of range in %s", s)
	}
	// unsigned 32-bit displacements wrap, as in absolute addresses above 2GiB
	mem.Disp = int32(uint32(disp))
	if mem.Index != 0 && mem.Scale == 0 {
		mem.Scale = 1
	}
	return mem, nil
}

// Parse a signed or unsigned integer in Go syntax (decimal, 0x, 0o, 0b), allowing values up to
// 2^64-1.
func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(s, "_", "")
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, err
	}
	return int64(u), nil
}
