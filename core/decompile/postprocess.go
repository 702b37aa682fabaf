package decompile

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bifrost-re/bifrost/core/signatures"
)

// ifRevertElsePattern matches a compiler "if (!cond) { revert(...); } else {"
// chain that PostProcess folds into "require(cond);".
var ifRevertElsePattern = regexp.MustCompile(`^if \(!\((.*)\)\) \{$`)

// isZeroOfIsZeroPattern matches the literal text ISZERO(ISZERO(x)) produces
// when the lifter falls back to its default call-form rendering (it
// normally folds this itself, but a post-process pass catches the cases
// that survive stack-local folding across instruction boundaries).
var isZeroOfIsZeroPattern = regexp.MustCompile(`!\(!\((.*)\)\)`)

// PostProcess runs the final pass described in spec.md §4.7 over fn's body
// and selector-derived naming, using resolver to name fn.Events and to guess
// fn.ReturnType from fn.Selector's resolved name; fn.Errors are not looked
// up.
func PostProcess(ctx context.Context, fn *Function, resolver *signatures.Resolver) {
	foldRevertElseChains(fn)
	foldDoubleNegation(fn)
	collapseRepeatedStorageWrites(fn)
	resolveNames(ctx, fn, resolver)
}

// foldRevertElseChains rewrites "if (!cond) { revert(...); } else {" into
// "require(cond);", dropping the paired closing "}" and the revert line
// between them, when the block contains nothing else — i.e. revert was the
// guard's sole purpose.
func foldRevertElseChains(fn *Function) {
	var out []string
	lines := fn.Body
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		m := ifRevertElsePattern.FindStringSubmatch(trimmed)
		if m != nil && i+2 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			closeElse := strings.TrimSpace(lines[i+2])
			if strings.HasPrefix(next, "revert(") && closeElse == "} else {" {
				indent := lines[i][:len(lines[i])-len(trimmed)]
				out = append(out, fmt.Sprintf("%srequire(%s);", indent, m[1]))
				i += 2 // skip the revert line and the "} else {" line
				continue
			}
		}
		out = append(out, lines[i])
	}
	fn.Body = out
}

// foldDoubleNegation folds the textual ISZERO(ISZERO(x)) normalizer pattern
// down to x wherever it survived into emitted Solidity text.
func foldDoubleNegation(fn *Function) {
	for i, line := range fn.Body {
		fn.Body[i] = isZeroOfIsZeroPattern.ReplaceAllString(line, "$1")
	}
}

// collapseRepeatedStorageWrites drops a storage write immediately
// superseded by another write to the same slot with no intervening
// statement, keeping only the last.
func collapseRepeatedStorageWrites(fn *Function) {
	var out []string
	for i := 0; i < len(fn.Body); i++ {
		if i+1 < len(fn.Body) {
			slotA, ok1 := storageWriteSlot(fn.Body[i])
			slotB, ok2 := storageWriteSlot(fn.Body[i+1])
			if ok1 && ok2 && slotA == slotB {
				continue // superseded by the next line; drop this one
			}
		}
		out = append(out, fn.Body[i])
	}
	fn.Body = out
}

var storageWritePattern = regexp.MustCompile(`^\s*storage\[(.+?)\] = .+;$`)

func storageWriteSlot(line string) (string, bool) {
	m := storageWritePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// resolveNames resolves fn.Selector and each event's topic0 against
// resolver, taking the best-scoring candidate per spec.md §4.7's last
// bullet (Resolver.Best, the top of Resolver.Resolve's signatures.Score
// order). The selector's candidate only feeds reconcileReturnType; the
// Function record gets no name from it. Custom error selectors are not
// resolved.
func resolveNames(ctx context.Context, fn *Function, resolver *signatures.Resolver) {
	if resolver == nil {
		return
	}
	if best, ok := resolver.Best(ctx, fn.Selector); ok {
		fn.ReturnType = reconcileReturnType(fn.ReturnType, best)
	}
	for i := range fn.Events {
		sel := topic0Selector(fn.Events[i].TopicLit)
		if sel == ([4]byte{}) {
			continue
		}
		if best, ok := resolver.Best(ctx, sel); ok {
			fn.Events[i].Name = best.Name
		}
	}
}

// reconcileReturnType keeps the type the analyzer already inferred from the
// RETURN opcode's producer (spec.md §4.6) and only falls back to a guess
// from the resolved name when analysis came up empty — e.g. a zero-length
// RETURN, or a return word whose producer wasn't tracked in fn.MemoryMap.
func reconcileReturnType(existing string, best signatures.Candidate) string {
	if existing != "" {
		return existing
	}
	if t, ok := returnTypeFromKnownGetter(best.Name); ok {
		return t
	}
	return "uint256"
}

// returnTypeFromKnownGetter recognizes a handful of conventional ERC-style
// getter names whose return type the selector alone won't reveal.
func returnTypeFromKnownGetter(name string) (string, bool) {
	switch name {
	case "symbol", "name", "version":
		return "string memory", true
	case "decimals":
		return "uint8", true
	}
	if strings.HasPrefix(name, "is") || strings.HasPrefix(name, "has") {
		return "bool", true
	}
	return "", false
}

// topic0Selector reads the first 8 hex digits of a lifted hex literal as a
// 4-byte selector. The lifted form has its leading zero digits stripped, so
// these are the literal's most significant nonzero digits; a literal of
// fewer than 8 digits yields the zero selector.
func topic0Selector(lit string) [4]byte {
	lit = strings.TrimPrefix(lit, "0x")
	if len(lit) < 8 {
		return [4]byte{}
	}
	var sel [4]byte
	fmt.Sscanf(lit[:8], "%02x%02x%02x%02x", &sel[0], &sel[1], &sel[2], &sel[3])
	return sel
}
