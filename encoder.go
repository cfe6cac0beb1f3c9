package x86enc

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wdamron/x86enc/feats"
)

// Encoder selects variants and encodes instructions for one processor mode.
//
// An Encoder is safe for concurrent use once configured; the Set/Enable/Disable methods must not be
// called concurrently with encoding.
type Encoder struct {
	mode  Mode
	table *Table
	feats feats.Feature
	log   logrus.FieldLogger
}

// Create an encoder for the processor mode, using the built-in variant table.
//
// All CPU features will be enabled by default, for variant selection.
func NewEncoder(mode Mode) *Encoder {
	return &Encoder{mode: mode, table: DefaultTable(), feats: feats.AllFeatures}
}

// Encode one instruction for the processor mode with the built-in variant table and all CPU
// features enabled.
func Encode(inst Instruction, mode Mode) ([]byte, error) {
	return NewEncoder(mode).Encode(inst)
}

// Get the processor mode instructions are encoded for.
func (e *Encoder) Mode() Mode { return e.mode }

// Change the processor mode instructions are encoded for.
func (e *Encoder) SetMode(mode Mode) { e.mode = mode }

// Get the variant table used for selection.
func (e *Encoder) Table() *Table { return e.table }

// Replace the variant table used for selection. The table must not be modified afterwards.
func (e *Encoder) SetTable(t *Table) { e.table = t }

// Get the current, allowable CPU feature-set for variant selection.
//
// See package x86enc/feats for all available CPU features.
func (e *Encoder) Features() feats.Feature { return e.feats }

// Restrict the allowable CPU feature-set for variant selection.
//
// See package x86enc/feats for all available CPU features.
func (e *Encoder) SetFeatures(enabledFeatures feats.Feature) { e.feats = enabledFeatures }

// Control the allowable CPU feature-set for variant selection.
func (e *Encoder) DisableFeature(feature feats.Feature) { e.feats &^= feature }

// Control the allowable CPU feature-set for variant selection.
func (e *Encoder) EnableFeature(feature feats.Feature) { e.feats |= feature }

// Log variant selection and encoding failures at debug level. A nil logger disables logging,
// which is the default.
func (e *Encoder) SetLogger(log logrus.FieldLogger) { e.log = log }

// Select the variant which would be used to encode the instruction.
func (e *Encoder) Select(inst Instruction) (*OpcodeVariant, error) {
	return matchInst(e.table, &inst, e.mode, e.feats)
}

// Find every variant which accepts the instruction, in table order. The first one is the variant
// Select returns. If none are found, the error Select would return is returned.
func (e *Encoder) AllMatches(inst Instruction) ([]*OpcodeVariant, error) {
	first, err := e.Select(inst)
	if err != nil {
		return nil, err
	}
	matches := []*OpcodeVariant{first}
	variants := e.table.Variants(inst.Mnemonic, inst.Cond)
	start := 0
	for i, v := range variants {
		if v == first {
			start = i + 1
			break
		}
	}
	// re-run selection over the remaining variants, one at a time
	for _, v := range variants[start:] {
		single := NewTable()
		single.variants[tableKey{v.Mnemonic, v.Cond}] = []*OpcodeVariant{v}
		if v.Cond != CondNone {
			single.conds[v.Mnemonic] = true
		}
		if m, err := matchInst(single, &inst, e.mode, e.feats); err == nil {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// Encode one instruction. On error, no bytes are returned.
func (e *Encoder) Encode(inst Instruction) ([]byte, error) {
	return e.Append(nil, inst)
}

// Encode one instruction, appending its bytes to dst. On error, dst is returned unchanged.
func (e *Encoder) Append(dst []byte, inst Instruction) ([]byte, error) {
	v, err := matchInst(e.table, &inst, e.mode, e.feats)
	if err != nil {
		e.logFailure(inst, err)
		return dst, err
	}
	n := len(dst)
	buf := newBuffer(dst)
	if err := emitInst(buf, v, &inst, e.mode); err != nil {
		e.logFailure(inst, err)
		return dst[:n], err
	}
	if e.log != nil {
		e.log.WithFields(logrus.Fields{
			"inst":    inst.String(),
			"mode":    e.mode.String(),
			"variant": v.String(),
			"bytes":   fmt.Sprintf("% x", buf.Get()[n:]),
		}).Debug("encoded instruction")
	}
	return buf.Get(), nil
}

func (e *Encoder) logFailure(inst Instruction, err error) {
	if e.log == nil {
		return
	}
	e.log.WithFields(logrus.Fields{
		"inst": inst.String(),
		"mode": e.mode.String(),
	}).WithError(err).Debug("encoding failed")
}
