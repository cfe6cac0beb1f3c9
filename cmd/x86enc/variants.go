package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wdamron/x86enc"
	"github.com/wdamron/x86enc/internal/syntax"
	x86lookup "github.com/wdamron/x86enc/lookup"
)

func newVariantsCommand(cfg *config) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "variants [mnemonic]",
		Short: "List the encoding variants of a mnemonic",
		Long: `List the encoding variants of a mnemonic in selection order. A conditional family such as
"jcc" lists every condition code.

With --match, only the variants accepting the given instruction are listed; the first one is the
variant the encoder selects.`,
		Example: `  x86enc variants add
  x86enc variants --mode 32 --match "push 1"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := cfg.encoder()
			if err != nil {
				return err
			}
			t := enc.Table()

			var variants []*x86enc.OpcodeVariant
			switch {
			case match != "":
				inst, err := syntax.NewParser(t).Parse(match)
				if err != nil {
					return err
				}
				if variants, err = enc.AllMatches(inst); err != nil {
					return err
				}
			case len(args) == 1:
				if variants, err = lookupVariants(t, args[0]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("a mnemonic or --match is required")
			}
			renderVariants(cmd.OutOrStdout(), variants)
			return nil
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "list the variants accepting an instruction")
	return cmd
}

func lookupVariants(t *x86enc.Table, name string) ([]*x86enc.OpcodeVariant, error) {
	name = strings.ToLower(name)
	if t.IsCond(name) {
		var variants []*x86enc.OpcodeVariant
		for cc := x86enc.CondO; cc <= x86enc.CondG; cc++ {
			variants = append(variants, t.Variants(name, cc)...)
		}
		return variants, nil
	}
	mnemonic, cond, ok := x86lookup.InstIn(t, name)
	if !ok {
		err := fmt.Errorf("%w %q", x86enc.ErrUnknownMnemonic, name)
		if hints := x86lookup.SuggestIn(t, name); len(hints) > 0 {
			err = fmt.Errorf("%w (did you mean %s?)", err, strings.Join(hints, ", "))
		}
		return nil, err
	}
	return t.Variants(mnemonic, cond), nil
}

func renderVariants(w io.Writer, variants []*x86enc.OpcodeVariant) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Instruction", "Opcode", "Modes", "Features", "Lock"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, v := range variants {
		name := v.Mnemonic
		if v.Cond != x86enc.CondNone {
			name = x86enc.Instruction{Mnemonic: v.Mnemonic, Cond: v.Cond}.Name()
		}
		if ops := v.OperandString(); ops != "" {
			name += " " + ops
		}
		feat := ""
		if v.Feats != 0 {
			feat = v.Feats.String()
		}
		lock := ""
		if v.Lockable {
			lock = "yes"
		}
		table.Append([]string{strconv.Itoa(i + 1), name, v.OpcodeString(), v.Modes.String(), feat, lock})
	}
	table.Render()
}
