package lifter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bifrost-re/bifrost/core/vm"
	"github.com/holiman/uint256"
)

const maxDepth = 64

// Solidify lifts a wrapped opcode expression into a Solidity-flavored
// surface string, per spec.md §4.8. It never panics on adversarial/deeply
// nested input: recursion is capped at maxDepth and returns a placeholder
// past that point.
func Solidify(w vm.WrappedOpcode) string {
	return solidify(w, 0, 0)
}

func solidify(w vm.WrappedOpcode, level int, parentPrec int) string {
	if level >= maxDepth {
		return "..."
	}
	if w.IsRaw() {
		return literal(w.RawValue())
	}

	in := func(i int) string {
		if i >= len(w.Inputs) {
			return "0"
		}
		return solidify(w.Inputs[i], level+1, prec(w))
	}
	self := prec(w)
	binop := func(sym string) string {
		return wrapParens(self, parentPrec, in(0)+" "+sym+" "+in(1))
	}

	switch w.Opcode {
	case vm.ADD:
		return binop("+")
	case vm.SUB:
		return binop("-")
	case vm.MUL:
		return binop("*")
	case vm.DIV:
		return binop("/")
	case vm.SDIV:
		return binop("/")
	case vm.MOD:
		return binop("%")
	case vm.SMOD:
		return binop("%")
	case vm.EXP:
		return binop("**")
	case vm.ADDMOD:
		return wrapParens(self, parentPrec, fmt.Sprintf("(%s + %s) %% %s", in(0), in(1), in(2)))
	case vm.MULMOD:
		return wrapParens(self, parentPrec, fmt.Sprintf("(%s * %s) %% %s", in(0), in(1), in(2)))
	case vm.LT:
		return binop("<")
	case vm.GT:
		return binop(">")
	case vm.SLT:
		return binop("<")
	case vm.SGT:
		return binop(">")
	case vm.EQ:
		return binop("==")
	case vm.ISZERO:
		x := solidify(w.Inputs[0], level+1, 0)
		if strings.Contains(x, " ") {
			return "!(" + x + ")"
		}
		return "!" + x
	case vm.AND:
		return "(" + in(0) + " & " + in(1) + ")"
	case vm.OR:
		return binop("|")
	case vm.XOR:
		return binop("^")
	case vm.NOT:
		return "~(" + in(0) + ")"
	case vm.BYTE:
		return fmt.Sprintf("byte(%s, %s)", in(0), in(1))
	case vm.SHL:
		return wrapParens(self, parentPrec, in(1)+" << "+in(0))
	case vm.SHR:
		return wrapParens(self, parentPrec, in(1)+" >> "+in(0))
	case vm.SAR:
		return wrapParens(self, parentPrec, in(1)+" >> "+in(0))
	case vm.SHA3:
		return fmt.Sprintf("keccak256(memory[%s])", in(0))
	case vm.ADDRESS:
		return "address(this)"
	case vm.CALLER:
		return "msg.sender"
	case vm.ORIGIN:
		return "tx.origin"
	case vm.CALLVALUE:
		return "msg.value"
	case vm.CALLDATASIZE:
		return "msg.data.length"
	case vm.TIMESTAMP:
		return "block.timestamp"
	case vm.NUMBER:
		return "block.number"
	case vm.COINBASE:
		return "block.coinbase"
	case vm.GASLIMIT:
		return "block.gaslimit"
	case vm.CHAINID:
		return "block.chainid"
	case vm.GASPRICE:
		return "tx.gasprice"
	case vm.GAS:
		return "gasleft()"
	case vm.CALLDATALOAD:
		return calldataExpr(w.Inputs[0], level)
	case vm.SLOAD:
		return fmt.Sprintf("storage[%s]", in(0))
	case vm.TLOAD:
		return fmt.Sprintf("transient[%s]", in(0))
	case vm.MLOAD:
		return fmt.Sprintf("memory[%s]", in(0))
	case vm.CALL, vm.STATICCALL, vm.DELEGATECALL, vm.CALLCODE:
		return callExpr(w, level)
	case vm.BALANCE:
		return fmt.Sprintf("address(%s).balance", in(0))
	case vm.EXTCODESIZE:
		return fmt.Sprintf("address(%s).code.length", in(0))
	case vm.EXTCODEHASH:
		return fmt.Sprintf("address(%s).codehash", in(0))
	case vm.BLOCKHASH:
		return fmt.Sprintf("blockhash(%s)", in(0))
	default:
		if len(w.Inputs) == 0 {
			return strings.ToLower(w.Opcode.String()) + "()"
		}
		args := make([]string, len(w.Inputs))
		for i := range w.Inputs {
			args[i] = in(i)
		}
		return strings.ToLower(w.Opcode.String()) + "(" + strings.Join(args, ", ") + ")"
	}
}

// calldataExpr renders CALLDATALOAD(k): argN when k is the constant 4 +
// N*32 (a statically-known argument slot), msg.data[k] otherwise — which
// also covers the "k is 4 + expr" dynamic-offset case of spec.md §4.6.
func calldataExpr(offset vm.WrappedOpcode, level int) string {
	if offset.IsRaw() {
		v := offset.RawValue()
		if v.IsUint64() {
			k := v.Uint64()
			if k >= 4 && (k-4)%32 == 0 {
				return fmt.Sprintf("arg%d", (k-4)/32)
			}
		}
	}
	return fmt.Sprintf("msg.data[%s]", solidify(offset, level+1, 0))
}

// callExpr renders a CALL-family expression. Precompiles 1..3 (ecrecover,
// sha256, ripemd160) surface their return buffer rather than the bare
// success flag, per spec.md §4.8's CALL-family row.
func callExpr(w vm.WrappedOpcode, level int) string {
	// stack order for CALL: gas, addr, value, argsOffset, argsSize,
	// retOffset, retSize (fewer for DELEGATECALL/STATICCALL, no value).
	addrIdx := 1
	if w.Opcode == vm.DELEGATECALL || w.Opcode == vm.STATICCALL {
		addrIdx = 1
	}
	if len(w.Inputs) > addrIdx {
		addr := w.Inputs[addrIdx]
		if addr.IsRaw() {
			v := addr.RawValue()
			if v.IsUint64() && v.Uint64() >= 1 && v.Uint64() <= 3 {
				retOffIdx := len(w.Inputs) - 2
				if retOffIdx >= 0 {
					return fmt.Sprintf("memory[%s]", solidify(w.Inputs[retOffIdx], level+1, 0))
				}
			}
		}
	}
	return "success"
}

// literal renders a raw constant, hex-reduced: small values print decimal,
// larger ones print as 0x-hex, matching how go-ethereum's own debug/trace
// output favors hex for anything wider than a byte.
func literal(v uint256.Int) string {
	if v.IsUint64() && v.Uint64() < 256 {
		return strconv.FormatUint(v.Uint64(), 10)
	}
	return v.Hex()
}
