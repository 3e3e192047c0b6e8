package keys

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/numeric"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/types"
)

func TestKeyStoreRootAndRoleKeys(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	seed := bytes.Repeat([]byte{7}, signing.SeedSize)

	rootAddr, path, err := ks.InitializeRootKey("alice", seed, false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("expected 0600 key file, got %v", info.Mode().Perm())
		}
	}
	if _, _, err := ks.InitializeRootKey("alice", seed, false); err == nil {
		t.Fatalf("expected refusal to overwrite existing root key")
	}

	roleAddr, _, err := ks.DeriveKeyFromRole("alice", "treasury", false)
	if err != nil {
		t.Fatalf("DeriveKeyFromRole: %v", err)
	}
	if roleAddr == rootAddr {
		t.Fatalf("role key must differ from root key")
	}

	got, err := ks.ExportAddress("alice", "treasury")
	if err != nil {
		t.Fatalf("ExportAddress: %v", err)
	}
	if got != roleAddr {
		t.Fatalf("exported %s, want %s", got, roleAddr)
	}

	entries, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(entries) != 1 || entries[0].Identifier != "alice" || entries[0].Address != rootAddr {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if len(entries[0].Roles) != 1 || entries[0].Roles[0] != "treasury" {
		t.Fatalf("unexpected roles: %v", entries[0].Roles)
	}
}

func TestKeyStoreLoadSeedPrecedence(t *testing.T) {
	dir := t.TempDir()
	ks := &KeyStore{Directory: dir}
	stored := bytes.Repeat([]byte{1}, signing.SeedSize)
	if _, _, err := ks.InitializeRootKey("bob", stored, false); err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	literal := bytes.Repeat([]byte{2}, signing.SeedSize)
	fileSeed := bytes.Repeat([]byte{3}, signing.SeedSize)
	keyFile := filepath.Join(dir, "loose.key")
	if err := os.WriteFile(keyFile, []byte(hex.EncodeToString(fileSeed)+"\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	seed, err := ks.LoadSeed("0x"+hex.EncodeToString(literal), "bob", "", keyFile)
	if err != nil || !bytes.Equal(seed, literal) {
		t.Fatalf("expected literal seed, got %x (%v)", seed, err)
	}
	seed, err = ks.LoadSeed("", "bob", "", keyFile)
	if err != nil || !bytes.Equal(seed, fileSeed) {
		t.Fatalf("expected key file seed, got %x (%v)", seed, err)
	}
	seed, err = ks.LoadSeed("", "bob", "", "")
	if err != nil || !bytes.Equal(seed, stored) {
		t.Fatalf("expected stored seed, got %x (%v)", seed, err)
	}
	if _, err := ks.LoadSeed("", "", "", ""); err == nil {
		t.Fatalf("expected error without a signer")
	}
	if _, err := ks.LoadSeed("abcd", "", "", ""); err == nil {
		t.Fatalf("expected error for short seed")
	}
}

func TestSignerSignsWithStoredKey(t *testing.T) {
	ks := &KeyStore{Directory: t.TempDir()}
	addr, _, err := ks.GenerateRootKey("carol", nil, false)
	if err != nil {
		t.Fatalf("GenerateRootKey: %v", err)
	}
	tx := types.Transaction{
		Sender:    addr,
		Recipient: address.PublicKeyBytes{9},
		Nonce:     1,
		Claim: types.TransferClaim(types.TokenTransfer{
			TokenID: types.NativeTokenID(),
			Amount:  numeric.NewAmount(10),
		}),
	}
	sig, err := Signer{Name: "carol"}.Sign(ks, tx)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := signing.Verify(tx, sig, addr); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := (Signer{Name: "carol", Role: "missing"}).Sign(ks, tx); err == nil {
		t.Fatalf("expected error for missing role key")
	}
}

func TestCheckKeyName(t *testing.T) {
	for _, ok := range []string{"alice", "A-1_b"} {
		if err := CheckKeyName(ok); err != nil {
			t.Fatalf("CheckKeyName(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "../x", "a b", "é"} {
		if err := CheckKeyName(bad); err == nil {
			t.Fatalf("CheckKeyName(%q): expected error", bad)
		}
	}
}
