package vm

import (
	"hash/fnv"

	"github.com/holiman/uint256"
)

// maxStackDepth is the EVM's own 1024-frame bound (spec.md §3 invariants).
const maxStackDepth = 1024

// Frame is one stack slot: a concrete value paired with the wrapped
// expression that produced it.
type Frame struct {
	Value      uint256.Int
	Provenance WrappedOpcode
}

// Stack is a bounded LIFO of Frames.
type Stack struct {
	data []Frame
}

func newStack() *Stack {
	return &Stack{data: make([]Frame, 0, 32)}
}

// NewStack constructs an empty stack.
func NewStack() *Stack { return newStack() }

func (st *Stack) Size() int { return len(st.data) }

func (st *Stack) Push(f Frame) error {
	if len(st.data) >= maxStackDepth {
		return NewStackError("PUSH", 1, maxStackDepth-len(st.data), nil)
	}
	st.data = append(st.data, f)
	return nil
}

func (st *Stack) Pop() (Frame, error) {
	if len(st.data) == 0 {
		return Frame{}, NewStackError("POP", 1, 0, nil)
	}
	n := len(st.data) - 1
	f := st.data[n]
	st.data = st.data[:n]
	return f, nil
}

// Peek returns the n-th frame from the top without popping (0 = top).
func (st *Stack) Peek(n int) (Frame, error) {
	idx := len(st.data) - 1 - n
	if idx < 0 || idx >= len(st.data) {
		return Frame{}, NewStackError("PEEK", n+1, len(st.data), nil)
	}
	return st.data[idx], nil
}

// Dup pushes a clone of the n-th-from-top frame (1-based, matching DUPn).
func (st *Stack) Dup(n int) error {
	f, err := st.Peek(n - 1)
	if err != nil {
		return err
	}
	return st.Push(f)
}

// Swap swaps the top frame with the n-th-from-top below it (1-based,
// matching SWAPn: SWAP1 swaps top with the second item).
func (st *Stack) Swap(n int) error {
	top := len(st.data) - 1
	other := top - n
	if other < 0 {
		return NewStackError("SWAP", n+1, len(st.data), nil)
	}
	st.data[top], st.data[other] = st.data[other], st.data[top]
	return nil
}

// Equal compares two stacks over the provenance column only, per spec.md
// §4.2 ("value equality" is separate from the provenance-only comparison
// the branch explorer uses for loop detection).
func (st *Stack) Equal(other *Stack) bool {
	if len(st.data) != len(other.data) {
		return false
	}
	for i := range st.data {
		if !st.data[i].Provenance.Equal(other.data[i].Provenance) {
			return false
		}
	}
	return true
}

// Hash returns a structural hash over the provenance column, used by the
// branch explorer as a loop-detection key component.
func (st *Stack) Hash() uint64 {
	h := fnv.New64a()
	for _, f := range st.data {
		ph := f.Provenance.Hash()
		var buf [8]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(ph >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Clone deep-copies the stack (frames are value types, so a slice copy
// suffices; WrappedOpcode nodes are immutable and safe to alias).
func (st *Stack) Clone() *Stack {
	cp := make([]Frame, len(st.data))
	copy(cp, st.data)
	return &Stack{data: cp}
}

// Frames returns the stack's frames, top-last, for read-only inspection by
// the branch explorer and analyzer. Callers must not mutate the result.
func (st *Stack) Frames() []Frame {
	return st.data
}
