package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSignatureSimple(t *testing.T) {
	name, params, err := ParseSignature("transfer(address,uint256)")
	require.NoError(t, err)
	require.Equal(t, "transfer", name)
	require.Len(t, params, 2)
	require.Equal(t, KindAddress, params[0].Kind)
	require.Equal(t, KindUint, params[1].Kind)
	require.Equal(t, 256, params[1].Bits)
}

func TestParseSignatureNestedTuple(t *testing.T) {
	_, params, err := ParseSignature("multicall((address,bytes)[])")
	require.NoError(t, err)
	require.Len(t, params, 1)
	require.Equal(t, KindSlice, params[0].Kind)
	require.NotNil(t, params[0].Elem)
	require.Equal(t, KindTuple, params[0].Elem.Kind)
	require.Len(t, params[0].Elem.Components, 2)
	require.Equal(t, KindAddress, params[0].Elem.Components[0].Kind)
	require.Equal(t, KindBytes, params[0].Elem.Components[1].Kind)
}

func TestParseTypeFixedArray(t *testing.T) {
	ty, err := ParseType("uint256[3]")
	require.NoError(t, err)
	require.Equal(t, KindArray, ty.Kind)
	require.Equal(t, 3, ty.ArrayLen)
	require.Equal(t, KindUint, ty.Elem.Kind)
}

func TestParseTypeFixedBytes(t *testing.T) {
	ty, err := ParseType("bytes32")
	require.NoError(t, err)
	require.Equal(t, KindFixedBytes, ty.Kind)
	require.Equal(t, 32, ty.Bits)
}

func TestIsDynamic(t *testing.T) {
	str, err := ParseType("string")
	require.NoError(t, err)
	require.True(t, str.IsDynamic())

	fixed, err := ParseType("uint256")
	require.NoError(t, err)
	require.False(t, fixed.IsDynamic())

	arrOfDynamic, err := ParseType("string[2]")
	require.NoError(t, err)
	require.True(t, arrOfDynamic.IsDynamic())
}

func TestParseSignatureMalformed(t *testing.T) {
	_, _, err := ParseSignature("transfer(address,uint256")
	require.Error(t, err)
}
