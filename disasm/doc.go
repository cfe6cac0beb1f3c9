// package disasm decodes machine code back to Intel-syntax text, for verifying encoder output and
// for inspecting Go functions at runtime.
//
// example usage:
//
// 	package example
//
// 	import (
// 		"fmt"
//
// 		. "github.com/wdamron/x86enc"
// 		"github.com/wdamron/x86enc/disasm"
// 	)
//
// 	func Listing() error {
// 		asm := NewAssembler(nil, Long)
// 		asm.Inst("mov", RAX, Mem{Base: RSP, Disp: 8})
// 		asm.Inst("add", RAX, RBX)
// 		asm.Cond(Jcc, CondNE, Rel8(-9))
// 		asm.Inst("ret")
// 		if asm.Err() != nil {
// 			return asm.Err()
// 		}
//
// 		lines, err := disasm.Decode(asm.Code(), 64)
// 		if err != nil {
// 			return err
// 		}
// 		for _, line := range lines {
// 			fmt.Println(line.Text)
// 		}
// 		// Outputs:
// 		//
// 		// 	mov rax, qword ptr [rsp+0x8]
// 		// 	add rax, rbx
// 		// 	jnz .-0x9
// 		// 	ret
// 		return nil
// 	}
package disasm
