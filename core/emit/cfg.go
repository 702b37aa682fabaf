package emit

import (
	"fmt"
	"strings"

	"github.com/bifrost-re/bifrost/core/explorer"
	"github.com/bifrost-re/bifrost/core/lifter"
)

// CFG renders an execution tree as Graphviz DOT: one node per basic block
// (its entry pc and opcode mnemonics), edges labeled with the jump
// condition that was true/false on that path, per spec.md §6.
func CFG(name string, root *explorer.Trace) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", sanitizeID(name))
	sb.WriteString("  node [shape=box fontname=\"monospace\"];\n")

	ids := make(map[*explorer.Trace]string)
	counter := 0
	nextID := func() string {
		counter++
		return fmt.Sprintf("block%d", counter)
	}

	var walk func(n *explorer.Trace)
	walk = func(n *explorer.Trace) {
		if n == nil {
			return
		}
		id := nextID()
		ids[n] = id

		label := blockLabel(n)
		fmt.Fprintf(&sb, "  %s [label=%q];\n", id, label)

		for _, c := range n.Children {
			walk(c)
		}

		if len(n.Children) == 2 {
			cond := jumpCondition(n)
			fmt.Fprintf(&sb, "  %s -> %s [label=\"%s\"];\n", id, ids[n.Children[0]], escapeDot(cond))
			fmt.Fprintf(&sb, "  %s -> %s [label=\"!(%s)\"];\n", id, ids[n.Children[1]], escapeDot(cond))
		} else {
			for _, c := range n.Children {
				fmt.Fprintf(&sb, "  %s -> %s;\n", id, ids[c])
			}
		}
	}
	walk(root)

	sb.WriteString("}\n")
	return sb.String()
}

func blockLabel(n *explorer.Trace) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("pc=%d", n.EntryPC))
	for _, rec := range n.Records {
		lines = append(lines, fmt.Sprintf("0x%04x %s", rec.PC, rec.Descriptor.Mnemonic))
	}
	if n.Abandoned {
		lines = append(lines, "ABANDONED: "+n.AbandonedBy)
	}
	return strings.Join(lines, "\\l") + "\\l"
}

// jumpCondition re-lifts the last record's popped condition — the JUMPI
// records live in the parent node (the branch explorer closes the node out
// right before forking), so the condition is the second popped wrapped
// value of the final record (JUMPI pops the destination first), when
// present.
func jumpCondition(n *explorer.Trace) string {
	if len(n.Records) == 0 {
		return "cond"
	}
	last := n.Records[len(n.Records)-1]
	if len(last.PoppedWrapped) < 2 {
		return "cond"
	}
	return lifter.Solidify(last.PoppedWrapped[1])
}

func sanitizeID(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "cfg"
	}
	return sb.String()
}

func escapeDot(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
