package main

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/wdamron/x86enc"
	"github.com/wdamron/x86enc/disasm"
	"github.com/wdamron/x86enc/internal/syntax"
)

type encodeOptions struct {
	verify bool
	dump   bool
	raw    bool
}

func newEncodeCommand(cfg *config) *cobra.Command {
	var opts encodeOptions
	cmd := &cobra.Command{
		Use:   "encode [instruction]...",
		Short: "Encode Intel-syntax instructions",
		Long: `Encode instructions given as arguments, or one per line on standard input.

Each instruction is printed as hex bytes followed by the instruction. With --verify, each encoding is
decoded again and must span exactly one instruction.`,
		Example: `  x86enc encode "mov eax, 1" "ret"
  echo "lock add dword ptr [eax], 1" | x86enc encode --mode 32 --verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := cfg.encoder()
			if err != nil {
				return err
			}
			parser := syntax.NewParser(enc.Table())

			var insts []x86enc.Instruction
			if len(args) > 0 {
				for _, arg := range args {
					inst, err := parser.Parse(arg)
					if err != nil {
						return err
					}
					insts = append(insts, inst)
				}
			} else if insts, err = parser.ParseAll(cmd.InOrStdin()); err != nil {
				return err
			}

			opts.verify = cfg.v.GetBool("verify")
			return runEncode(cmd.OutOrStdout(), enc, insts, opts)
		},
	}
	cmd.Flags().Bool("verify", false, "decode each encoding and check that it spans exactly one instruction")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "dump the selected variant of each instruction")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "write raw machine code instead of a hex listing")
	return cmd
}

func runEncode(w io.Writer, enc *x86enc.Encoder, insts []x86enc.Instruction, opts encodeOptions) error {
	codes, err := enc.EncodeBatch(insts)
	if err != nil {
		return err
	}
	dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

	for i, code := range codes {
		inst := insts[i]
		if opts.verify {
			if _, err := disasm.One(code, enc.Mode().Bits()); err != nil {
				return fmt.Errorf("verifying %s (% x): %w", inst, code, err)
			}
		}
		if opts.raw {
			if _, err := w.Write(code); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%-30s %s\n", fmt.Sprintf("% x", code), inst)
		if opts.dump {
			v, err := enc.Select(inst)
			if err != nil {
				return err
			}
			dumper.Fdump(w, v)
		}
	}
	return nil
}
