// Package x86enc encodes x86 and x86-64 instructions to machine code for real (16-bit), protected
// (32-bit) and long (64-bit) mode.
//
// An instruction is a mnemonic with arguments. The encoder selects the first variant of the mnemonic,
// in table order, which accepts the arguments in the processor mode with the enabled CPU features,
// then emits its prefixes, REX, opcode, ModRM/SIB, displacement and immediates. Conditional families
// (Jcc, Setcc, Cmovcc) are selected by family name and condition code.
//
// usage example:
//
// 	package example
//
// 	import (
// 		"github.com/wdamron/x86enc/execmem"
//
// 		// Importing everything from the package into the current scope
// 		// makes for less noise:
// 		. "github.com/wdamron/x86enc"
// 	)
//
// 	func CompileSumFunc() (func(a, b int) int, *execmem.Region, error) {
// 		asm := NewAssembler(nil, Long)
//
// 		// Note: with the register ABI, a and b arrive in RAX and RBX and the result is returned in RAX
//
// 		asm.Inst("add", RAX, RBX) // RAX += RBX
// 		asm.Inst("ret")           // return
// 		if asm.Err() != nil {
// 			return nil, nil, asm.Err()
// 		}
//
// 		region, err := execmem.Map(asm.Code())
// 		if err != nil {
// 			return nil, nil, err
// 		}
//
// 		sum := (func(a, b int) int)(nil) // placeholder value
//
// 		// Assign the address of the executable code to the code-pointer
// 		// within the placeholder function-value:
// 		if err := region.SetFunc(&sum); err != nil {
// 			region.Close()
// 			return nil, nil, err
// 		}
//
// 		return sum, region, nil
// 	}
//
// Single instructions can be encoded without an assembler:
//
// 	code, err := Encode(JccInst(CondNE, Rel8(-9)), Long) // 75 f7
//
// The built-in variant table covers the general-purpose integer instructions and the common SSE/SSE2
// instructions. Tables can be extended with Table.Add or loaded from YAML with LoadTable.
package x86enc
