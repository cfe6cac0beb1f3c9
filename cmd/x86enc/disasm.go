package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wdamron/x86enc/disasm"
)

func newDisasmCommand(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:     "disasm HEX...",
		Short:   "Decode machine code given as hex bytes",
		Example: `  x86enc disasm 48 01 d8 c3`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseHex(strings.Join(args, " "))
			if err != nil {
				return err
			}
			lines, err := disasm.Decode(code, cfg.mode.Bits())
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return err
		},
	}
}

// Parse hex bytes, ignoring whitespace, commas and 0x prefixes.
func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer("0x", "", "0X", "", ",", " ").Replace(s)
	code, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return code, nil
}
