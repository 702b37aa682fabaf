package vm

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/holiman/uint256"
)

// maxLifterDepth bounds recursion in structural walks of a WrappedOpcode
// (depth, hashing, equality). Adversarial bytecode can build arbitrarily
// deep provenance trees; this is the "lifter recursion" cap of spec.md §9.
const maxLifterDepth = 64

// WrappedOpcode is the symbolic provenance tree: either a raw constant, or
// an opcode applied to an ordered vector of wrapped inputs. It is immutable
// once constructed and safe to share by value-copy.
type WrappedOpcode struct {
	Opcode OpCode
	Inputs []WrappedOpcode

	// isRaw marks a leaf constant (spec.md's Raw(u256) variant). A raw node
	// carries its value in Value and has no Inputs.
	isRaw bool
	Value uint256.Int
}

// Raw constructs a leaf wrapped expression from a concrete value.
func Raw(v *uint256.Int) WrappedOpcode {
	w := WrappedOpcode{isRaw: true}
	if v != nil {
		w.Value = *v
	}
	return w
}

// New constructs a symbolic expression node: opcode applied to inputs.
func New(op OpCode, inputs ...WrappedOpcode) WrappedOpcode {
	return WrappedOpcode{Opcode: op, Inputs: inputs}
}

// IsRaw reports whether this node is a constant leaf.
func (w WrappedOpcode) IsRaw() bool { return w.isRaw }

// RawValue returns the constant value of a raw leaf. Callers must check
// IsRaw first; calling this on a non-raw node returns the zero value, never
// a concrete-from-symbolic read, per spec.md §9's "never reach into the
// expression tree to read a concrete value" design note.
func (w WrappedOpcode) RawValue() uint256.Int {
	return w.Value
}

// Depth returns 1 + max(input depth), the loop-detection signal of spec.md
// §4.1. A raw leaf has depth 1. Trees deeper than maxLifterDepth report
// maxLifterDepth.
func (w WrappedOpcode) Depth() int {
	if d := w.depth(0); d < maxLifterDepth {
		return d
	}
	return maxLifterDepth
}

func (w WrappedOpcode) depth(level int) int {
	if level >= maxLifterDepth {
		return maxLifterDepth
	}
	if w.isRaw || len(w.Inputs) == 0 {
		return 1
	}
	max := 0
	for _, in := range w.Inputs {
		if d := in.depth(level + 1); d > max {
			max = d
		}
	}
	return 1 + max
}

// Equal reports structural equality: same shape, same opcode, same raw
// values, recursively. Used for stack/frame provenance comparisons.
func (w WrappedOpcode) Equal(other WrappedOpcode) bool {
	return w.equal(other, 0)
}

func (w WrappedOpcode) equal(other WrappedOpcode, level int) bool {
	if level >= maxLifterDepth {
		return true // depth-capped comparison; treat as equal past the cap
	}
	if w.isRaw != other.isRaw {
		return false
	}
	if w.isRaw {
		return w.Value.Eq(&other.Value)
	}
	if w.Opcode != other.Opcode || len(w.Inputs) != len(other.Inputs) {
		return false
	}
	for i := range w.Inputs {
		if !w.Inputs[i].equal(other.Inputs[i], level+1) {
			return false
		}
	}
	return true
}

// Hash returns a stable structural hash, used as a loop-detection key and
// as a map key for the branch explorer's handled-jumps table.
func (w WrappedOpcode) Hash() uint64 {
	h := fnv.New64a()
	w.writeHash(h, 0)
	return h.Sum64()
}

func (w WrappedOpcode) writeHash(h interface{ Write([]byte) (int, error) }, level int) {
	if level >= maxLifterDepth {
		_, _ = h.Write([]byte{0xff})
		return
	}
	if w.isRaw {
		_, _ = h.Write([]byte{0x00})
		b := w.Value.Bytes32()
		_, _ = h.Write(b[:])
		return
	}
	_, _ = h.Write([]byte{0x01, byte(w.Opcode)})
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(w.Inputs)))
	_, _ = h.Write(lenBuf[:])
	for _, in := range w.Inputs {
		in.writeHash(h, level+1)
	}
}

// Root walks down the leftmost input chain and returns the opcode at the
// root of the leftmost provenance chain; used by the branch explorer's
// stack-bloat heuristic ("> 16 frames share the same provenance root").
func (w WrappedOpcode) Root() OpCode {
	cur := w
	for i := 0; i < maxLifterDepth && !cur.isRaw && len(cur.Inputs) > 0; i++ {
		next := cur.Inputs[0]
		if next.isRaw {
			return cur.Opcode
		}
		cur = next
	}
	return cur.Opcode
}
