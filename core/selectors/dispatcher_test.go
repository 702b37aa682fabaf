package selectors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bifrost-re/bifrost/core/hardfork"
)

// dispatcherCode is a minimal single-selector Solidity-style dispatcher:
//
//	PUSH1 0, CALLDATALOAD, PUSH1 0xe0, SHR, DUP1, PUSH4 <selector>, EQ,
//	PUSH1 <dest>, JUMPI, STOP, JUMPDEST, STOP
var selector4 = [4]byte{0xaa, 0xbb, 0xcc, 0xdd}

func dispatcherCode(sel [4]byte) []byte {
	code := []byte{
		0x60, 0x00, // PUSH1 0
		0x35,       // CALLDATALOAD
		0x60, 0xe0, // PUSH1 0xe0
		0x1c, // SHR
		0x80, // DUP1
		0x63, sel[0], sel[1], sel[2], sel[3], // PUSH4 selector
		0x14,       // EQ
		0x60, 0x11, // PUSH1 dest(17)
		0x57, // JUMPI
		0x00, // STOP (fallthrough)
		0x5b, // JUMPDEST (pc 17)
		0x00, // STOP
	}
	return code
}

func TestCandidatesFindsPush4Arguments(t *testing.T) {
	code := dispatcherCode(selector4)
	cands := Candidates(code)
	require.Len(t, cands, 1)
	require.Equal(t, selector4, cands[0])
}

func TestCandidatesDedupesRepeatedSelectors(t *testing.T) {
	code := append(dispatcherCode(selector4), dispatcherCode(selector4)...)
	require.Len(t, Candidates(code), 1)
}

func TestCandidatesSkipsTruncatedPush4(t *testing.T) {
	code := []byte{0x63, 0xaa, 0xbb} // PUSH4 with only 2 bytes remaining
	require.Empty(t, Candidates(code))
}

func TestResolveFindsDispatchEntryPoint(t *testing.T) {
	code := dispatcherCode(selector4)
	cand, ok := Resolve(code, selector4, hardfork.Cancun)
	require.True(t, ok)
	require.True(t, cand.Resolved)
	require.Equal(t, uint64(17), cand.EntryPC)
}

func TestResolveFailsForUnmatchedSelector(t *testing.T) {
	code := dispatcherCode(selector4)
	other := [4]byte{0x11, 0x22, 0x33, 0x44}
	_, ok := Resolve(code, other, hardfork.Cancun)
	require.False(t, ok)
}

func TestResolveAllReturnsOnlyMatchedCandidates(t *testing.T) {
	code := dispatcherCode(selector4)
	all := ResolveAll(code, hardfork.Cancun)
	require.Len(t, all, 1)
	require.Equal(t, selector4, all[0].Selector)
}

func TestSelectorLiteralFormatsLowercaseHexTrimmed(t *testing.T) {
	require.Equal(t, "0xaabbccdd", selectorLiteral(selector4))
	require.Equal(t, "0x1", selectorLiteral([4]byte{0, 0, 0, 1}))
	require.Equal(t, "0x0", selectorLiteral([4]byte{}))
}

func TestReferencesSelectorRequiresBothSignals(t *testing.T) {
	require.True(t, referencesSelector("msg.data[0] == 0xaabbccdd", "0xaabbccdd"))
	require.False(t, referencesSelector("1 == 0xaabbccdd", "0xaabbccdd"))
	require.False(t, referencesSelector("msg.data[0] == 0x1234", "0xaabbccdd"))
}
