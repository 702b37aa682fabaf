package explorer

import (
	"strings"

	"github.com/bifrost-re/bifrost/core/lifter"
	"github.com/bifrost-re/bifrost/core/vm"
)

// jumpKey identifies a JUMPI site for loop-detection purposes: the pc, the
// constant jump destination (0 if not constant), the stack size at the
// time, and whether the branch taken had a zero condition. Spec.md §4.4
// step 1.
type jumpKey struct {
	pc          uint64
	destination uint64
	stackSize   int
	conditionZero bool
}

// historicalStack is what handledJumps remembers per key: just enough of
// the stack (value+provenance) to run the heuristics below against a fresh
// visit to the same key.
type historicalStack struct {
	frames []vm.Frame
}

// loopHeuristics holds the thresholds for spec.md §4.4 step 3's loop
// heuristics, which evaluate runs as eight named checks (stack bloat is
// split into a total-size and a same-root check). They are over-eager:
// spec.md §9 documents loop detection as best-effort, not a soundness
// guarantee.
type loopHeuristics struct {
	maxStackFrames    int
	maxSameRoot       int
	maxProvenanceDepth int
	similarityCutoff  float64
}

func defaultHeuristics() loopHeuristics {
	return loopHeuristics{
		maxStackFrames:     320,
		maxSameRoot:        16,
		maxProvenanceDepth: 16,
		similarityCutoff:   0.9,
	}
}

// evaluate runs all heuristics against the current stack and the key's
// jump history, returning the name of the first one that fires, or "" if
// none do.
func (h loopHeuristics) evaluate(current *vm.Stack, history []historicalStack, jumpCondition vm.WrappedOpcode) string {
	frames := current.Frames()

	if len(frames) > h.maxStackFrames {
		return "stack-bloat-total"
	}
	rootCounts := make(map[vm.OpCode]int)
	for _, f := range frames {
		rootCounts[f.Provenance.Root()]++
		if rootCounts[f.Provenance.Root()] > h.maxSameRoot {
			return "stack-bloat-same-root"
		}
	}

	for _, f := range frames {
		if f.Provenance.Depth() > h.maxProvenanceDepth {
			return "deep-provenance"
		}
	}

	curDepth := len(frames)
	for _, hist := range history {
		if len(hist.frames) > curDepth {
			// we've gone deeper before and come back: a historical stack at
			// this key that is deeper than the current one means we unwound
			// and are about to re-descend.
			return "repeated-shallow-jump"
		}
	}

	for _, hist := range history {
		if stacksEqual(hist.frames, frames) {
			return "structurally-identical-stack"
		}
	}

	condLifted := lifter.Solidify(jumpCondition)
	for _, hist := range history {
		diff := diffLifted(hist.frames, frames)
		if diff != "" && strings.Contains(condLifted, diff) {
			return "condition-contains-own-diff"
		}
	}

	for _, hist := range history {
		diff := diffLifted(hist.frames, frames)
		if diff == "" {
			continue
		}
		if referencesMutatedState(condLifted) && strings.Contains(diff, "storage[") ||
			referencesMutatedState(condLifted) && strings.Contains(diff, "memory[") {
			return "condition-reads-mutated-state"
		}
	}

	for _, hist := range history {
		score := similarity(liftFrames(hist.frames), liftFrames(frames))
		if score >= h.similarityCutoff {
			return "approximate-historical-equivalence"
		}
	}

	return ""
}

func stacksEqual(a, b []vm.Frame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Provenance.Equal(b[i].Provenance) {
			return false
		}
	}
	return true
}

func liftFrames(frames []vm.Frame) string {
	var sb strings.Builder
	for _, f := range frames {
		sb.WriteString(lifter.Solidify(f.Provenance))
	}
	return sb.String()
}

// diffLifted returns the lifted form of the first frame that differs
// between two stacks of possibly-different length, or "" if none differ
// (a crude structural diff, matching the spec's description of "the
// symbolic diff between current and a historical stack, when lifted").
func diffLifted(a, b []vm.Frame) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if !a[i].Provenance.Equal(b[i].Provenance) {
			return lifter.Solidify(b[i].Provenance)
		}
	}
	if len(b) > len(a) {
		return lifter.Solidify(b[len(b)-1].Provenance)
	}
	return ""
}

func referencesMutatedState(lifted string) bool {
	return strings.Contains(lifted, "storage[") || strings.Contains(lifted, "memory[")
}

// similarity computes a normalized Damerau-Levenshtein similarity score in
// [0, 1], per spec.md §4.4's "approximate historical equivalence" heuristic.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := damerauLevenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

// damerauLevenshtein computes the optimal-string-alignment edit distance
// between two strings (insertions, deletions, substitutions, and adjacent
// transpositions).
func damerauLevenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j
	}
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := d[i-1][j] + 1
			ins := d[i][j-1] + 1
			sub := d[i-1][j-1] + cost
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				if trans := d[i-2][j-2] + cost; trans < best {
					best = trans
				}
			}
			d[i][j] = best
		}
	}
	return d[la][lb]
}
