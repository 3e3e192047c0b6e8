package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/numeric"
	"fastset.xyz/setcore/proxy"
	"fastset.xyz/setcore/types"
)

func (a *app) proxyClient() *proxy.Client {
	return proxy.NewClient(a.cfg.Proxy.URL, a.cfg.Proxy.ProxyOptions(a.logger))
}

func parseAddressArg(name, s string) (address.PublicKeyBytes, error) {
	addr, err := address.Parse(strings.TrimSpace(s))
	if err != nil {
		return addr, usagef("invalid %s: %v", name, err)
	}
	return addr, nil
}

func parseTokenList(s string) ([]types.TokenID, error) {
	var out []types.TokenID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "native" {
			out = append(out, types.NativeTokenID())
			continue
		}
		id, err := types.ParseTokenID(part)
		if err != nil {
			return nil, usagef("invalid token %q: %v", part, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func newAddressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Convert between raw public keys and set1… addresses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "encode <64hex>",
		Short: "Encode a 32-byte public key as an address",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return usagef("invalid hex: %v", err)
			}
			pk, err := address.FromSlice(raw)
			if err != nil {
				return usagef("%v", err)
			}
			fmt.Fprintln(a.out, address.Encode(pk))
			return nil
		},
	}, &cobra.Command{
		Use:   "decode <address>",
		Short: "Print the public key behind an address as hex",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := parseAddressArg("address", args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, hex.EncodeToString(pk[:]))
			return nil
		},
	})
	return cmd
}

func newAmountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amount",
		Short: "256-bit amount arithmetic and conversion (hex text)",
	}
	binary := func(use, short string, op func(x, y numeric.Amount) (numeric.Amount, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <hex> <hex>",
			Short: short,
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				x, err := numeric.ParseAmount(args[0])
				if err != nil {
					return usagef("%v", err)
				}
				y, err := numeric.ParseAmount(args[1])
				if err != nil {
					return usagef("%v", err)
				}
				z, err := op(x, y)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, z)
				return nil
			},
		}
	}
	cmd.AddCommand(
		binary("add", "Add two amounts", numeric.Amount.Add),
		binary("sub", "Subtract the second amount from the first", numeric.Amount.Sub),
		&cobra.Command{
			Use:   "to-decimal <hex>",
			Short: "Print an amount in decimal",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				x, err := numeric.ParseAmount(args[0])
				if err != nil {
					return usagef("%v", err)
				}
				fmt.Fprintln(a.out, x.Big().String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "from-decimal <decimal>",
			Short: "Convert a decimal amount to hex",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, ok := new(big.Int).SetString(args[0], 10)
				if !ok {
					return usagef("invalid decimal %q", args[0])
				}
				x, err := numeric.AmountFromBig(v)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, x)
				return nil
			},
		},
	)
	return cmd
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account queries",
	}
	var (
		tokens     string
		allTokens  bool
		certsFrom  uint64
		certsLimit uint64
	)
	info := &cobra.Command{
		Use:   "info <address>",
		Short: "Show balances, next nonce and optionally certificates of an account",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddressArg("address", args[0])
			if err != nil {
				return err
			}
			var q proxy.AccountQuery
			switch {
			case allTokens:
				q.TokenBalances = &[]types.TokenID{}
			case tokens != "":
				ids, err := parseTokenList(tokens)
				if err != nil {
					return err
				}
				q.TokenBalances = &ids
			}
			if certsLimit > 0 {
				q.CertificateByNonce = &types.NonceRange{Start: types.Nonce(certsFrom), Limit: certsLimit}
			}
			resp, err := a.proxyClient().GetAccountInfo(cmd.Context(), addr, q)
			if err != nil {
				return err
			}
			return writeJSON(a.out, resp)
		},
	}
	info.Flags().StringVar(&tokens, "tokens", "", "comma-separated token ids (hex or \"native\")")
	info.Flags().BoolVar(&allTokens, "all-tokens", false, "return every token balance")
	info.Flags().Uint64Var(&certsFrom, "certs-from", 0, "first nonce of certificates to return")
	info.Flags().Uint64Var(&certsLimit, "certs-limit", 0, "number of certificates to return")
	cmd.AddCommand(info)
	return cmd
}

func newFaucetCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "faucet <address> <amount-hex>",
		Short: "Request tokens from the proxy faucet",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddressArg("address", args[0])
			if err != nil {
				return err
			}
			amount, err := numeric.ParseAmount(args[1])
			if err != nil {
				return usagef("invalid amount: %v", err)
			}
			var tokenID *types.TokenID
			if token != "" {
				id, err := types.ParseTokenID(token)
				if err != nil {
					return usagef("invalid --token: %v", err)
				}
				tokenID = &id
			}
			if err := a.proxyClient().FaucetDrip(cmd.Context(), addr, amount, tokenID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Requested %s for %s\n", amount, addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token id (default native)")
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token metadata queries",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "info [token-id...]",
		Short: "Show token metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseTokenList(strings.Join(args, ","))
			if err != nil {
				return err
			}
			resp, err := a.proxyClient().GetTokenInfo(cmd.Context(), ids)
			if err != nil {
				return errors.WithMessage(err, "token info")
			}
			return writeJSON(a.out, resp)
		},
	})
	return cmd
}
