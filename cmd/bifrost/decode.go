package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bifrost-re/bifrost/core/abi"
)

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "decode calldata, either raw hex or a transaction hash",
	ArgsUsage: "<calldata-hex|tx-hash>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "skip-resolving", Usage: "skip external 4byte.directory signature lookups"},
		&cli.IntFlag{Name: "truncate-calldata", Usage: "truncate the echoed raw calldata in output to this many bytes (0 = no truncation)"},
		&cli.StringFlag{Name: "default", Usage: "fallback synthetic signature to use when no resolver match is found, e.g. 'bytes32,uint256'"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("decode: expected exactly one <calldata-hex|tx-hash>")
		}
		cfg := cfgFromContext(c)
		log := loggerFromContext(c)
		ctx := c.Context
		target := c.Args().First()

		var calldata []byte
		clean := strings.TrimPrefix(target, "0x")
		raw, err := hex.DecodeString(clean)
		if err != nil {
			return fmt.Errorf("decode: %q is not valid hex: %w", target, err)
		}
		if len(raw) == 32 {
			calldata, _, err = resolveTxTarget(ctx, target, cfg.RPCURL)
			if err != nil {
				return err
			}
		} else {
			calldata = raw
		}

		if len(calldata) < 4 {
			return fmt.Errorf("decode: calldata shorter than a 4-byte selector")
		}
		var selector [4]byte
		copy(selector[:], calldata[:4])
		args := calldata[4:]

		resolver, err := buildResolver(cfg, c.Bool("skip-resolving"), log)
		if err != nil {
			return err
		}

		var (
			signature string
			params    []abi.Type
		)
		if best, ok := resolver.Best(ctx, selector); ok {
			if name, parsed, perr := abi.ParseSignature(best.FullSignature); perr == nil {
				signature = best.FullSignature
				params = parsed
				_ = name
			}
		}
		if params == nil {
			if fallback := c.String("default"); fallback != "" {
				sig := fmt.Sprintf("fallback(%s)", fallback)
				if _, parsed, perr := abi.ParseSignature(sig); perr == nil {
					signature = sig
					params = parsed
				}
			}
		}

		out := map[string]interface{}{
			"selector": fmt.Sprintf("0x%x", selector),
		}
		if n := c.Int("truncate-calldata"); n > 0 && n < len(calldata) {
			out["calldata"] = fmt.Sprintf("0x%x...", calldata[:n])
		} else {
			out["calldata"] = fmt.Sprintf("0x%x", calldata)
		}

		if params != nil {
			values, derr := abi.DecodeArgs(args, params)
			if derr != nil {
				inferred, _ := abi.InferTypes(args)
				out["signature"] = signature
				out["decode_error"] = derr.Error()
				out["inferred"] = renderInferred(inferred)
			} else {
				out["signature"] = signature
				out["arguments"] = renderValues(values)
			}
		} else {
			inferred, synthTypes := abi.InferTypes(args)
			out["signature"] = abi.SyntheticSignature(selector, synthTypes)
			out["inferred"] = renderInferred(inferred)
		}

		body, merr := json.MarshalIndent(out, "", "  ")
		if merr != nil {
			return merr
		}
		return writeOutput(c, string(body)+"\n")
	},
}

func renderValues(values []abi.Value) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = renderValue(v)
	}
	return out
}

func renderValue(v abi.Value) interface{} {
	switch v.Kind() {
	case abi.KindUint:
		return v.Uint.String()
	case abi.KindInt:
		return v.Int.String()
	case abi.KindAddress:
		return v.Addr.Hex()
	case abi.KindBool:
		return v.Bool
	case abi.KindBytes, abi.KindFixedBytes:
		return fmt.Sprintf("0x%x", v.Bytes)
	case abi.KindString:
		return v.Str
	case abi.KindArray, abi.KindSlice:
		return renderValues(v.Array)
	case abi.KindTuple:
		return renderValues(v.Tuple)
	default:
		return nil
	}
}

func renderInferred(words []abi.InferredWord) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(words))
	for _, w := range words {
		if w.Covered {
			continue
		}
		out = append(out, map[string]interface{}{
			"offset":  w.Offset,
			"padding": int(w.Padding),
			"guess":   w.Guess.Name,
		})
	}
	return out
}
