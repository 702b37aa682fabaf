package signatures

// Score implements spec.md §4.10's resolver scoring heuristic: shorter
// signatures, and signatures with fewer digit characters, win over longer
// or more digit-heavy ones. 4byte-style directories are full of
// auto-generated collisions like "func_1234(uint256)"; this heuristic
// prefers the plausible hand-written signature among a selector's
// candidates.
func Score(signature string) int {
	digits := 0
	for _, r := range signature {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return 1000 - len(signature) - 3*digits
}
