package abi

import (
	"fmt"
	"math/big"
)

// Padding classifies how a 32-byte word's non-zero bytes are arranged.
type Padding int

const (
	PadNone Padding = iota
	PadLeft
	PadRight
)

// ClassifyPadding inspects a 32-byte word and reports which side, if any,
// is all-zero padding. A word whose first and last bytes are both nonzero
// has no padding and is reported as PadNone. Otherwise the side with more
// zero bytes wins; a tie (e.g. a single nonzero byte in the middle) and an
// all-zero word are reported as PadLeft, matching the common case of a
// small numeric value.
func ClassifyPadding(word []byte) Padding {
	firstNonZero, lastNonZero := -1, -1
	for i, b := range word {
		if b != 0 {
			if firstNonZero < 0 {
				firstNonZero = i
			}
			lastNonZero = i
		}
	}
	if firstNonZero < 0 {
		return PadLeft // all-zero: treat as a small left-padded number (0)
	}
	leftZeros := firstNonZero
	rightZeros := len(word) - 1 - lastNonZero
	if leftZeros == 0 && rightZeros == 0 {
		return PadNone
	}
	if leftZeros >= rightZeros {
		return PadLeft
	}
	return PadRight
}

// InferredWord is one word classified by the type-inference walk.
type InferredWord struct {
	Offset  int
	Padding Padding
	Guess   Type
	Covered bool // true if consumed as part of a dynamic type's offset/length/data triplet
}

// InferTypes runs the type-inference walk described in spec.md §4.9 over
// calldata whose signature failed to resolve: first detect dynamic types by
// their standard offset-then-length-then-data layout, then classify the
// padding of whatever static words remain.
func InferTypes(data []byte) ([]InferredWord, []Type) {
	n := len(data) / wordSize
	words := make([][]byte, n)
	for i := 0; i < n; i++ {
		words[i] = data[i*wordSize : (i+1)*wordSize]
	}

	covered := make([]bool, n)
	var result []InferredWord
	var guessed []Type

	for i := 0; i < n; i++ {
		if covered[i] {
			continue
		}
		if isPlausibleDynamicOffset(words[i], i, n) {
			rel := int(new(big.Int).SetBytes(words[i]).Int64())
			lengthIdx := rel / wordSize
			if lengthIdx < n && !covered[lengthIdx] {
				length := int(new(big.Int).SetBytes(words[lengthIdx]).Int64())
				dataWords := (length + wordSize - 1) / wordSize
				if lengthIdx+dataWords < n+1 && length >= 0 {
					covered[i] = true
					covered[lengthIdx] = true
					for k := 0; k < dataWords && lengthIdx+1+k < n; k++ {
						covered[lengthIdx+1+k] = true
					}
					guess := Type{Kind: KindBytes, Name: "bytes"}
					if looksLikeUTF8(data, lengthIdx, length) {
						guess = Type{Kind: KindString, Name: "string"}
					}
					result = append(result, InferredWord{Offset: i * wordSize, Guess: guess, Covered: true})
					guessed = append(guessed, guess)
					continue
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		if covered[i] {
			continue
		}
		pad := ClassifyPadding(words[i])
		guess := guessFromPadding(pad)
		result = append(result, InferredWord{Offset: i * wordSize, Padding: pad, Guess: guess})
		guessed = append(guessed, guess)
	}

	return result, guessed
}

func isPlausibleDynamicOffset(word []byte, idx, total int) bool {
	v := new(big.Int).SetBytes(word)
	if !v.IsInt64() {
		return false
	}
	rel := v.Int64()
	return rel > 0 && rel%wordSize == 0 && int(rel)/wordSize < total && int(rel)/wordSize > idx
}

func looksLikeUTF8(data []byte, lengthWordIdx, length int) bool {
	start := (lengthWordIdx + 1) * wordSize
	if start+length > len(data) || length == 0 {
		return false
	}
	for _, b := range data[start : start+length] {
		if b == 0 || b >= 0x80 {
			return false
		}
	}
	return true
}

func guessFromPadding(p Padding) Type {
	switch p {
	case PadLeft:
		return Type{Kind: KindUint, Bits: 256, Name: "uint256"}
	case PadRight:
		return Type{Kind: KindFixedBytes, Bits: 32, Name: "bytes32"}
	default:
		return Type{Kind: KindFixedBytes, Bits: 32, Name: "bytes32"}
	}
}

// SyntheticSignature builds the "Unresolved_<selector>(type, type, …)" name
// spec.md §4.9 specifies for calldata whose selector never resolved.
func SyntheticSignature(selector [4]byte, guessed []Type) string {
	names := make([]string, len(guessed))
	for i, t := range guessed {
		names[i] = t.Name
	}
	sig := "Unresolved_"
	for _, b := range selector {
		sig += fmt.Sprintf("%02x", b)
	}
	sig += "("
	for i, n := range names {
		if i > 0 {
			sig += ", "
		}
		sig += n
	}
	sig += ")"
	return sig
}
