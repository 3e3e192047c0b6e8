package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/numeric"
	"fastset.xyz/setcore/proxy"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/types"
)

// signerFlags selects the signing key the way every signing command does.
type signerFlags struct {
	seedHex string
	name    string
	role    string
	keyFile string
}

func (s *signerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	cmd.Flags().StringVar(&s.name, "signer", "", "stored key name")
	cmd.Flags().StringVar(&s.role, "signer-role", "", "role of the stored key")
	cmd.Flags().StringVar(&s.keyFile, "key-file", "", "file holding a hex seed")
}

func (s *signerFlags) keyPair(a *app) (signing.KeyPair, error) {
	if s.seedHex == "" && s.name == "" && s.keyFile == "" {
		return signing.KeyPair{}, usagef("one of --seed-hex, --signer or --key-file is required")
	}
	ks, err := a.keyStore()
	if err != nil {
		return signing.KeyPair{}, err
	}
	kp, err := ks.LoadKeyPair(s.seedHex, s.name, s.role, s.keyFile)
	if err != nil {
		return signing.KeyPair{}, errors.WithMessage(err, "load signer")
	}
	return kp, nil
}

func newTransferCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Build, sign and submit token transfers",
	}
	cmd.AddCommand(newTransferSignCmd(a), newTransferSubmitCmd(a), newTransferDigestCmd(a))
	return cmd
}

func newTransferSignCmd(a *app) *cobra.Command {
	var (
		signer    signerFlags
		to        string
		amount    string
		token     string
		nonce     uint64
		timestamp string
		userData  string
		archival  bool
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Build a transfer and print the signed envelope as JSON",
		Long: "Build a token transfer and print the signed envelope as JSON.\n" +
			"Without --nonce the sender's next nonce is fetched from the proxy.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if to == "" || amount == "" {
				return usagef("--to and --amount are required")
			}
			recipient, err := parseAddressArg("--to", to)
			if err != nil {
				return err
			}
			amt, err := numeric.ParseAmount(amount)
			if err != nil {
				return usagef("invalid --amount: %v", err)
			}
			transfer := types.TokenTransfer{TokenID: types.NativeTokenID(), Amount: amt}
			if token != "" {
				if transfer.TokenID, err = types.ParseTokenID(token); err != nil {
					return usagef("invalid --token: %v", err)
				}
			}
			if userData != "" {
				raw, err := hex.DecodeString(strings.TrimPrefix(userData, "0x"))
				if err != nil || len(raw) != 32 {
					return usagef("--user-data must be 32 bytes of hex")
				}
				var d [32]byte
				copy(d[:], raw)
				transfer.UserData = types.SomeUserData(d)
			}
			ts := numeric.U128From64(uint64(time.Now().UnixNano()))
			if timestamp != "" {
				if ts, err = numeric.ParseU128(timestamp); err != nil {
					return usagef("invalid --timestamp-nanos: %v", err)
				}
			}

			kp, err := signer.keyPair(a)
			if err != nil {
				return err
			}
			tx := types.Transaction{
				Sender:         kp.Address(),
				Recipient:      recipient,
				Nonce:          types.Nonce(nonce),
				TimestampNanos: ts,
				Claim:          types.TransferClaim(transfer),
				Archival:       archival,
			}
			if !cmd.Flags().Changed("nonce") {
				info, err := a.proxyClient().GetAccountInfo(cmd.Context(), tx.Sender, proxy.AccountQuery{})
				if err != nil {
					return errors.WithMessage(err, "fetch next nonce")
				}
				tx.Nonce = info.NextNonce
			}

			env, err := signing.SignTransaction(tx, kp)
			if err != nil {
				return err
			}
			a.logger.Debug("signed transfer", "sender", tx.Sender, "nonce", uint64(tx.Nonce))
			return writeJSON(a.out, env)
		},
	}
	signer.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVar(&amount, "amount", "", "amount as hex")
	cmd.Flags().StringVar(&token, "token", "", "token id (default native)")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "sender nonce (default: fetched from the proxy)")
	cmd.Flags().StringVar(&timestamp, "timestamp-nanos", "", "timestamp in nanoseconds (default now)")
	cmd.Flags().StringVar(&userData, "user-data", "", "32 bytes of hex attached to the transfer")
	cmd.Flags().BoolVar(&archival, "archival", false, "ask validators to keep answering settlement queries")
	return cmd
}

func newTransferSubmitCmd(a *app) *cobra.Command {
	var archiveCert bool
	cmd := &cobra.Command{
		Use:   "submit <envelope.json|->",
		Short: "Submit a signed envelope to the proxy",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var env types.TransactionEnvelope
			if err := readJSON(args[0], cmd.InOrStdin(), &env); err != nil {
				return err
			}
			if err := signing.VerifyEnvelope(env); err != nil {
				return errors.WithMessage(err, "refusing to submit")
			}
			res, err := a.proxyClient().SubmitTransaction(cmd.Context(), env)
			if err != nil {
				return err
			}
			b, err := proxy.EncodeSubmitResult(res)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\n", b)

			success, ok := res.(proxy.Success)
			if !ok || !archiveCert {
				return nil
			}
			arc, closeArc, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer closeArc()
			id, err := arc.Put(cmd.Context(), success.Certificate)
			if err != nil {
				return errors.WithMessage(err, "archive certificate")
			}
			a.logger.Info("archived certificate", "cid", id.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&archiveCert, "archive", false, "store the certificate in the local archive on success")
	return cmd
}

func newTransferDigestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "digest <transaction-or-envelope.json|->",
		Short: "Print the signing bytes and digest of a transaction",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			var wrapped struct {
				Transaction *types.Transaction `json:"transaction"`
			}
			if err := json.Unmarshal(raw, &wrapped); err != nil {
				return errors.WithMessagef(err, "decode %s", args[0])
			}
			var tx types.Transaction
			if wrapped.Transaction != nil {
				tx = *wrapped.Transaction
			} else if err := json.Unmarshal(raw, &tx); err != nil {
				return errors.WithMessagef(err, "decode %s", args[0])
			}
			msg, err := bcs.SigningBytes(tx)
			if err != nil {
				return err
			}
			digest, err := tx.Digest()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "signing_bytes: %s\n", hex.EncodeToString(msg))
			fmt.Fprintf(a.out, "digest: %s\n", digest)
			return nil
		},
	}
}
