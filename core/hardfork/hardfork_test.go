package hardfork

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveByBlock(t *testing.T) {
	require.Equal(t, Frontier, Mainnet.Resolve(0, 0))
	require.Equal(t, Homestead, Mainnet.Resolve(Mainnet.HomesteadBlock, 0))
	require.Equal(t, Byzantium, Mainnet.Resolve(Mainnet.ByzantiumBlock, 0))
	require.Equal(t, Paris, Mainnet.Resolve(Mainnet.MergeBlock, 0))
}

func TestResolveByTimestampPostMerge(t *testing.T) {
	require.Equal(t, Shanghai, Mainnet.Resolve(Mainnet.MergeBlock, Mainnet.ShanghaiTime))
	require.Equal(t, Cancun, Mainnet.Resolve(Mainnet.MergeBlock, Mainnet.CancunTime))
}

func TestIsValidOpcodePerFork(t *testing.T) {
	require.False(t, IsValidOpcode(0x5f, Paris), "PUSH0 is Shanghai+")
	require.True(t, IsValidOpcode(0x5f, Shanghai))
	require.False(t, IsValidOpcode(0x5c, Shanghai), "TLOAD is Cancun+")
	require.True(t, IsValidOpcode(0x5c, Cancun))
}

func TestForkString(t *testing.T) {
	require.Equal(t, "Cancun", Cancun.String())
	require.Equal(t, "Frontier", Frontier.String())
}
