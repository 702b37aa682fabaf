package signatures

import (
	"context"

	"github.com/ethereum/go-ethereum/crypto"
)

// SeedDirectory is a small in-process Directory backed by a fixed list of
// well-known signatures — ERC-20/721/1155 and a handful of proxy/ownership
// selectors that show up in nearly every contract. It never misses on these
// even if the network-backed directories are unreachable.
type SeedDirectory struct {
	bySelector map[[4]byte][]Candidate
}

var wellKnownSignatures = []string{
	"transfer(address,uint256)",
	"transferFrom(address,address,uint256)",
	"approve(address,uint256)",
	"allowance(address,address)",
	"balanceOf(address)",
	"totalSupply()",
	"name()",
	"symbol()",
	"decimals()",
	"ownerOf(uint256)",
	"safeTransferFrom(address,address,uint256)",
	"safeTransferFrom(address,address,uint256,bytes)",
	"setApprovalForAll(address,bool)",
	"isApprovedForAll(address,address)",
	"mint(address,uint256)",
	"burn(uint256)",
	"owner()",
	"transferOwnership(address)",
	"renounceOwnership()",
	"implementation()",
	"upgradeTo(address)",
	"upgradeToAndCall(address,bytes)",
	"initialize(address)",
	"pause()",
	"unpause()",
	"paused()",
	"multicall(bytes[])",
}

func NewSeedDirectory() *SeedDirectory {
	d := &SeedDirectory{bySelector: make(map[[4]byte][]Candidate)}
	for _, sig := range wellKnownSignatures {
		sel := selectorOf(sig)
		d.bySelector[sel] = append(d.bySelector[sel], Candidate{
			Name:          functionName(sig),
			FullSignature: sig,
		})
	}
	return d
}

func (d *SeedDirectory) Name() string { return "seed" }

func (d *SeedDirectory) Lookup(_ context.Context, selector [4]byte) ([]Candidate, error) {
	return d.bySelector[selector], nil
}

func selectorOf(signature string) [4]byte {
	h := crypto.Keccak256([]byte(signature))
	var sel [4]byte
	copy(sel[:], h[:4])
	return sel
}

func functionName(signature string) string {
	for i, r := range signature {
		if r == '(' {
			return signature[:i]
		}
	}
	return signature
}
