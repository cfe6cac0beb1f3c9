package x86enc

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Encode a batch of instructions in parallel, bounded by GOMAXPROCS. The result holds the encoding of
// each instruction at its index. If any instruction fails, the error for the lowest failing index is
// returned along with no output.
func (e *Encoder) EncodeBatch(insts []Instruction) ([][]byte, error) {
	out := make([][]byte, len(insts))
	errs := make([]error, len(insts))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range insts {
		i := i
		g.Go(func() error {
			code, err := e.Encode(insts[i])
			if err != nil {
				errs[i] = fmt.Errorf("instruction %d (%s): %w", i, insts[i], err)
				return errs[i]
			}
			out[i] = code
			return nil
		})
	}
	if g.Wait() == nil {
		return out, nil
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Encode a batch of instructions in parallel and concatenate their encodings in order.
func (e *Encoder) EncodeAll(insts []Instruction) ([]byte, error) {
	parts, err := e.EncodeBatch(insts)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	code := make([]byte, 0, n)
	for _, p := range parts {
		code = append(code, p...)
	}
	return code, nil
}
