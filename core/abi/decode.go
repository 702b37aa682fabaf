package abi

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const wordSize = 32

// Value is one decoded argument. The typed field matching Kind is set; a
// string sets both Str and Bytes (its raw bytes).
type Value struct {
	Type    Type
	Uint    *big.Int
	Int     *big.Int
	Addr    common.Address
	Bool    bool
	Bytes   []byte // KindBytes, KindString (as raw bytes), KindFixedBytes
	Str     string
	Array   []Value // KindArray, KindSlice
	Tuple   []Value // KindTuple, parallel to Type.Components
}

// DecodeArgs ABI-decodes data against params, per the standard head/tail
// encoding: each top-level parameter occupies one head word (or an offset
// into the tail, if dynamic).
func DecodeArgs(data []byte, params []Type) ([]Value, error) {
	values := make([]Value, len(params))
	offset := 0
	for i, t := range params {
		head := data[offset : offset+wordSize]
		if t.IsDynamic() {
			rel := new(big.Int).SetBytes(head).Int64()
			if int(rel) < 0 || int(rel) > len(data) {
				return nil, fmt.Errorf("abi: offset out of range for arg %d", i)
			}
			v, err := decodeValue(t, data, int(rel))
			if err != nil {
				return nil, fmt.Errorf("abi: arg %d: %w", i, err)
			}
			values[i] = v
		} else {
			v, _, err := decodeStatic(t, data, offset)
			if err != nil {
				return nil, fmt.Errorf("abi: arg %d: %w", i, err)
			}
			values[i] = v
		}
		offset += wordSize
	}
	return values, nil
}

// decodeValue decodes one value whose data begins at byte offset off within
// the full buffer — used for both top-level dynamic args and tuple/array
// elements that are themselves dynamic.
func decodeValue(t Type, data []byte, off int) (Value, error) {
	switch t.Kind {
	case KindBytes:
		return decodeBytesLike(t, data, off, false)
	case KindString:
		return decodeBytesLike(t, data, off, true)
	case KindSlice:
		return decodeSlice(t, data, off)
	case KindArray:
		return decodeFixedArrayDynamic(t, data, off)
	case KindTuple:
		return decodeTupleDynamic(t, data, off)
	default:
		v, _, err := decodeStatic(t, data, off)
		return v, err
	}
}

func decodeBytesLike(t Type, data []byte, off int, asString bool) (Value, error) {
	if off+wordSize > len(data) {
		return Value{}, fmt.Errorf("abi: truncated length word")
	}
	length := int(new(big.Int).SetBytes(data[off : off+wordSize]).Int64())
	start := off + wordSize
	if start+length > len(data) || length < 0 {
		return Value{}, fmt.Errorf("abi: truncated bytes/string payload")
	}
	raw := data[start : start+length]
	if asString {
		return Value{Type: t, Str: string(raw), Bytes: raw}, nil
	}
	return Value{Type: t, Bytes: raw}, nil
}

func decodeSlice(t Type, data []byte, off int) (Value, error) {
	if off+wordSize > len(data) {
		return Value{}, fmt.Errorf("abi: truncated slice length word")
	}
	n := int(new(big.Int).SetBytes(data[off : off+wordSize]).Int64())
	if n < 0 {
		return Value{}, fmt.Errorf("abi: negative slice length")
	}
	elemsStart := off + wordSize
	elems := make([]Value, n)
	elemDynamic := t.Elem.IsDynamic()
	for i := 0; i < n; i++ {
		wordOff := elemsStart + i*wordSize
		if wordOff+wordSize > len(data) {
			return Value{}, fmt.Errorf("abi: truncated slice element %d", i)
		}
		if elemDynamic {
			rel := int(new(big.Int).SetBytes(data[wordOff : wordOff+wordSize]).Int64())
			v, err := decodeValue(*t.Elem, data, elemsStart+rel)
			if err != nil {
				return Value{}, fmt.Errorf("abi: slice element %d: %w", i, err)
			}
			elems[i] = v
		} else {
			v, _, err := decodeStatic(*t.Elem, data, wordOff)
			if err != nil {
				return Value{}, fmt.Errorf("abi: slice element %d: %w", i, err)
			}
			elems[i] = v
		}
	}
	return Value{Type: t, Array: elems}, nil
}

func decodeFixedArrayDynamic(t Type, data []byte, off int) (Value, error) {
	elems := make([]Value, t.ArrayLen)
	elemDynamic := t.Elem.IsDynamic()
	for i := 0; i < t.ArrayLen; i++ {
		wordOff := off + i*wordSize
		if elemDynamic {
			rel := int(new(big.Int).SetBytes(data[wordOff : wordOff+wordSize]).Int64())
			v, err := decodeValue(*t.Elem, data, off+rel)
			if err != nil {
				return Value{}, fmt.Errorf("abi: array element %d: %w", i, err)
			}
			elems[i] = v
		} else {
			v, _, err := decodeStatic(*t.Elem, data, wordOff)
			if err != nil {
				return Value{}, fmt.Errorf("abi: array element %d: %w", i, err)
			}
			elems[i] = v
		}
	}
	return Value{Type: t, Array: elems}, nil
}

func decodeTupleDynamic(t Type, data []byte, off int) (Value, error) {
	v, err := decodeTupleAt(t, data, off)
	return v, err
}

// decodeStatic decodes a static (inline) value at offset off, returning the
// value and the byte offset just past its head word(s).
func decodeStatic(t Type, data []byte, off int) (Value, int, error) {
	switch t.Kind {
	case KindUint:
		if off+wordSize > len(data) {
			return Value{}, off, fmt.Errorf("abi: truncated uint")
		}
		return Value{Type: t, Uint: new(big.Int).SetBytes(data[off : off+wordSize])}, off + wordSize, nil
	case KindInt:
		if off+wordSize > len(data) {
			return Value{}, off, fmt.Errorf("abi: truncated int")
		}
		return Value{Type: t, Int: decodeSigned(data[off : off+wordSize])}, off + wordSize, nil
	case KindAddress:
		if off+wordSize > len(data) {
			return Value{}, off, fmt.Errorf("abi: truncated address")
		}
		var a common.Address
		copy(a[:], data[off+wordSize-20:off+wordSize])
		return Value{Type: t, Addr: a}, off + wordSize, nil
	case KindBool:
		if off+wordSize > len(data) {
			return Value{}, off, fmt.Errorf("abi: truncated bool")
		}
		b := data[off+wordSize-1] != 0
		return Value{Type: t, Bool: b}, off + wordSize, nil
	case KindFixedBytes:
		if off+wordSize > len(data) {
			return Value{}, off, fmt.Errorf("abi: truncated fixed bytes")
		}
		return Value{Type: t, Bytes: append([]byte(nil), data[off:off+t.Bits]...)}, off + wordSize, nil
	case KindArray:
		if t.Elem.IsDynamic() {
			// a fixed array of dynamic elements is itself dynamic; callers
			// route here only for static element types.
			return Value{}, off, fmt.Errorf("abi: unexpected dynamic element in static array decode")
		}
		v, err := decodeFixedArrayDynamic(t, data, off)
		return v, off + t.ArrayLen*wordSize, err
	case KindTuple:
		if t.IsDynamic() {
			return Value{}, off, fmt.Errorf("abi: unexpected dynamic tuple in static decode")
		}
		v, err := decodeTupleAt(t, data, off)
		return v, off + len(t.Components)*wordSize, err
	default:
		return Value{}, off, fmt.Errorf("abi: unsupported static kind for %q", t.Name)
	}
}

// decodeTupleAt decodes a tuple whose own data block begins at off, handling
// its own internal head/tail layout exactly like DecodeArgs does for the
// top-level parameter list.
func decodeTupleAt(t Type, data []byte, off int) (Value, error) {
	fields := make([]Value, len(t.Components))
	cursor := off
	for i, ct := range t.Components {
		if ct.IsDynamic() {
			if cursor+wordSize > len(data) {
				return Value{}, fmt.Errorf("abi: truncated tuple field %d offset", i)
			}
			rel := int(new(big.Int).SetBytes(data[cursor : cursor+wordSize]).Int64())
			v, err := decodeValue(ct, data, off+rel)
			if err != nil {
				return Value{}, fmt.Errorf("abi: tuple field %d: %w", i, err)
			}
			fields[i] = v
		} else {
			v, _, err := decodeStatic(ct, data, cursor)
			if err != nil {
				return Value{}, fmt.Errorf("abi: tuple field %d: %w", i, err)
			}
			fields[i] = v
		}
		cursor += wordSize
	}
	return Value{Type: t, Tuple: fields}, nil
}

func decodeSigned(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word)
	if len(word) > 0 && word[0]&0x80 != 0 {
		max := new(big.Int).Lsh(big.NewInt(1), uint(len(word)*8))
		v.Sub(v, max)
	}
	return v
}
