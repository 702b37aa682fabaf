package lifter

import (
	"strings"

	"github.com/bifrost-re/bifrost/core/vm"
)

// Yulify lifts a wrapped opcode expression into Yul's `op(arg, arg, …)`
// form, per spec.md §4.1's WrappedOpcode.yulify(). Raw constants and PUSH
// results short-circuit straight to a literal instead of a call form.
func Yulify(w vm.WrappedOpcode) string {
	return yulify(w, 0)
}

func yulify(w vm.WrappedOpcode, level int) string {
	if level >= maxDepth {
		return "..."
	}
	if w.IsRaw() {
		return literal(w.RawValue())
	}
	if len(w.Inputs) == 0 {
		return strings.ToLower(w.Opcode.String()) + "()"
	}
	args := make([]string, len(w.Inputs))
	for i, in := range w.Inputs {
		args[i] = yulify(in, level+1)
	}
	return strings.ToLower(w.Opcode.String()) + "(" + strings.Join(args, ", ") + ")"
}

