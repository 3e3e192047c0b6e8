// vector_gen prints conformance vectors for a transfer signed with fixed seeds:
// signing bytes, digest, signature, envelope JSON and the certificate CID.
package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/numeric"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/types"
)

func mustKeyPair(seedByte byte) signing.KeyPair {
	k, err := signing.KeyPairFromSeed(bytes.Repeat([]byte{seedByte}, signing.SeedSize))
	if err != nil {
		panic(err)
	}
	return k
}

func main() {
	sender := mustKeyPair(0xA1)
	recipient := mustKeyPair(0xA2)
	tx := types.Transaction{
		Sender:         sender.Address(),
		Recipient:      recipient.Address(),
		Nonce:          7,
		TimestampNanos: numeric.U128From64(1_700_000_000_000_000_000),
		Claim: types.TransferClaim(types.TokenTransfer{
			TokenID: types.NativeTokenID(),
			Amount:  numeric.MustParseAmount("ffff"),
		}),
		Archival: true,
	}

	msg, err := bcs.SigningBytes(tx)
	if err != nil {
		panic(err)
	}
	digest, err := tx.Digest()
	if err != nil {
		panic(err)
	}
	env, err := signing.SignTransaction(tx, sender)
	if err != nil {
		panic(err)
	}
	sig, _ := env.Signature.Single()

	var atts []types.ValidatedTransaction
	for _, seed := range []byte{0xB0, 0xB1, 0xB2} {
		vt, err := signing.Attest(env, mustKeyPair(seed))
		if err != nil {
			panic(err)
		}
		atts = append(atts, vt)
	}
	cert, err := signing.Certify(env, atts...)
	if err != nil {
		panic(err)
	}
	if err := signing.VerifyCertificate(cert, types.Quorum(len(atts))); err != nil {
		panic(err)
	}
	certBytes, id, err := cidutil.Canonical(cert)
	if err != nil {
		panic(err)
	}
	envJSON, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		panic(err)
	}

	fmt.Printf("SENDER=%s\n", tx.Sender)
	fmt.Printf("RECIPIENT=%s\n", tx.Recipient)
	fmt.Printf("SIGNING_BYTES=%s\n", hex.EncodeToString(msg))
	fmt.Printf("DIGEST=%s\n", digest)
	fmt.Printf("SIGNATURE=%s\n", sig)
	fmt.Printf("CERTIFICATE_BYTES=%s\n", hex.EncodeToString(certBytes))
	fmt.Printf("CERTIFICATE_CID=%s\n", id)
	fmt.Printf("---BEGIN ENVELOPE---\n%s\n---END ENVELOPE---\n", envJSON)
}
