//go:build unix

// package execmem maps encoded machine code into executable memory.
//
// example usage:
//
// 	asm := x86enc.NewAssembler(nil, x86enc.Long)
// 	asm.Inst("mov", x86enc.RAX, x86enc.RBX) // Go's register ABI passes a in RAX and b in RBX
// 	asm.Inst("add", x86enc.RAX, x86enc.RBX) // the result is returned in RAX
// 	asm.Inst("ret")
// 	if asm.Err() != nil {
// 		return asm.Err()
// 	}
//
// 	region, err := execmem.Map(asm.Code())
// 	if err != nil {
// 		return err
// 	}
// 	defer region.Close()
//
// 	double := (func(a, b int) int)(nil) // placeholder value
// 	if err := region.SetFunc(&double); err != nil {
// 		return err
// 	}
// 	fmt.Println(double(1, 2)) // 4
package execmem

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	anonPrivate = unix.MAP_ANON | unix.MAP_PRIVATE

	readWrite = unix.PROT_READ | unix.PROT_WRITE
	readExec  = unix.PROT_READ | unix.PROT_EXEC
)

// ErrClosed is returned when using a region which has been unmapped.
var ErrClosed = errors.New("execmem: region is closed")

// Region is a private, anonymous mapping holding a copy of machine code, with read and execute
// permissions.
type Region struct {
	mem  []byte // whole pages
	code []byte
}

// Map a copy of code into new read+exec pages. The region must be closed to release the pages.
func Map(code []byte) (*Region, error) {
	if len(code) == 0 {
		return nil, errors.New("execmem: no code to map")
	}
	page := os.Getpagesize()
	size := (len(code) + page - 1) &^ (page - 1)
	mem, err := unix.Mmap(-1, 0, size, readWrite, anonPrivate)
	if err != nil {
		return nil, fmt.Errorf("execmem: sys/unix.Mmap failed: %w", err)
	}
	n := copy(mem, code)
	if err := unix.Mprotect(mem, readExec); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("execmem: sys/unix.Mprotect failed: %w", err)
	}
	return &Region{mem: mem, code: mem[:n:n]}, nil
}

// Get the mapped code. The returned slice is read-only and is invalid once the region is closed.
func (r *Region) Bytes() []byte { return r.code }

// Get the number of bytes mapped, rounded up to whole pages.
func (r *Region) Size() int { return len(r.mem) }

// Unmap the region. Functions assigned with SetFunc must not be called afterwards.
func (r *Region) Close() error {
	if r.mem == nil {
		return ErrClosed
	}
	err := unix.Munmap(r.mem)
	r.mem, r.code = nil, nil
	if err != nil {
		return fmt.Errorf("execmem: sys/unix.Munmap failed: %w", err)
	}
	return nil
}

// Set the executable code for a function value to the start of the region. This method is entirely
// unsafe: the code must follow the calling convention of the function's signature.
//
// dstAddr must be a pointer to a function value.
func (r *Region) SetFunc(dstAddr interface{}) error {
	if r.mem == nil {
		return ErrClosed
	}
	// See "Go 1.1 Function Calls":
	// https://docs.google.com/document/d/1bMwCey-gmqZVTpRax-ESeVuZGmjwbocYs1iHplK-cjo/pub
	type interfaceHeader struct {
		typ  uintptr
		addr **[]byte
	}
	v := reflect.ValueOf(dstAddr)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || !v.Elem().CanSet() || v.Elem().Kind() != reflect.Func {
		return fmt.Errorf("execmem: destination for SetFunc must be a pointer to a function-value")
	}
	code := r.code
	header := *(*interfaceHeader)(unsafe.Pointer(&dstAddr))
	*header.addr = &code
	return nil
}
