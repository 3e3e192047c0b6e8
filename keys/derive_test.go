package keys

import (
	"bytes"
	"testing"

	"fastset.xyz/setcore/signing"
)

func TestDeriveRoleSeedDeterministic(t *testing.T) {
	root := make([]byte, signing.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveRoleSeed(root, "treasury")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "treasury")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected deterministic derivation")
	}
	if len(a) != signing.SeedSize {
		t.Fatalf("expected %d byte seed, got %d", signing.SeedSize, len(a))
	}

	c, err := DeriveRoleSeed(root, "validator")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if bytes.Equal(a, c) {
		t.Fatalf("expected different roles to derive different seeds")
	}
}

func TestDeriveRoleSeedRejectsBadInput(t *testing.T) {
	if _, err := DeriveRoleSeed([]byte{1, 2, 3}, "treasury"); err == nil {
		t.Fatalf("expected error for short root seed")
	}
	root := make([]byte, signing.SeedSize)
	if _, err := DeriveRoleSeed(root, "bad/role"); err == nil {
		t.Fatalf("expected error for invalid role")
	}
}

func TestAddressFromSeedMatchesKeyPair(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, signing.SeedSize)
	addr, err := AddressFromSeed(seed)
	if err != nil {
		t.Fatalf("AddressFromSeed: %v", err)
	}
	kp, err := signing.KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	if addr != kp.Address() {
		t.Fatalf("address mismatch: %s vs %s", addr, kp.Address())
	}
}
