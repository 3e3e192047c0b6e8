package signing

import (
	"fmt"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/types"
)

// CheckMultiSigConfig rejects configs that no set of signatures could satisfy
// or that list a signer twice.
func CheckMultiSigConfig(cfg types.MultiSigConfig) error {
	if cfg.Quorum == 0 {
		return errs.New(errs.KindInvalidConfig, "SET-SIG-101", "multisig quorum must be at least 1")
	}
	if uint64(cfg.Quorum) > uint64(len(cfg.AuthorizedSigners)) {
		return errs.New(errs.KindInvalidConfig, "SET-SIG-102",
			fmt.Sprintf("multisig quorum %d exceeds %d authorized signers", cfg.Quorum, len(cfg.AuthorizedSigners)))
	}
	seen := make(map[address.PublicKeyBytes]struct{}, len(cfg.AuthorizedSigners))
	for _, s := range cfg.AuthorizedSigners {
		if _, dup := seen[s]; dup {
			return errs.New(errs.KindInvalidConfig, "SET-SIG-103", "authorized signer "+s.String()+" listed twice")
		}
		seen[s] = struct{}{}
	}
	return nil
}

// VerifyMultiSig checks ms as an authorization of v. Member signatures are over
// the signing bytes of v, not of the config. Checks run in this order:
// config sanity, duplicate signers, membership, signature validity, quorum.
// Entry order does not matter.
func VerifyMultiSig(v bcs.Signable, ms types.MultiSig) error {
	cfg := ms.Config
	if err := CheckMultiSigConfig(cfg); err != nil {
		return err
	}

	authorized := make(map[address.PublicKeyBytes]struct{}, len(cfg.AuthorizedSigners))
	for _, s := range cfg.AuthorizedSigners {
		authorized[s] = struct{}{}
	}
	seen := make(map[address.PublicKeyBytes]struct{}, len(ms.Signatures))
	for _, entry := range ms.Signatures {
		if _, dup := seen[entry.Signer]; dup {
			return errs.New(errs.KindDuplicateSigner, "SET-SIG-104", "multisig signer "+entry.Signer.String()+" appears twice")
		}
		seen[entry.Signer] = struct{}{}
	}
	for _, entry := range ms.Signatures {
		if _, ok := authorized[entry.Signer]; !ok {
			return errs.New(errs.KindInvalidSignature, "SET-SIG-105", "unauthorized signer "+entry.Signer.String())
		}
	}

	msg, err := bcs.SigningBytes(v)
	if err != nil {
		return err
	}
	if i := firstInvalid(msg, ms.Signatures); i >= 0 {
		return errs.New(errs.KindInvalidSignature, "SET-SIG-106",
			fmt.Sprintf("multisig signature %d by %s does not verify", i, ms.Signatures[i].Signer))
	}

	if uint64(len(ms.Signatures)) < uint64(cfg.Quorum) {
		return errs.New(errs.KindQuorumNotMet, "SET-SIG-107",
			fmt.Sprintf("multisig has %d of %d required signatures", len(ms.Signatures), cfg.Quorum))
	}
	return nil
}
