package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/signing"
)

// KeyStore is a local-first store of Ed25519 seeds.
//
// EXPERIMENTAL: the on-disk layout may change.
//
// Layout:
//
//	<dir>/<name>/root.key
//	<dir>/<name>/roles/<role>.key
type KeyStore struct {
	Directory string
}

// KeyEntry lists one stored identity with its root address and derived roles.
type KeyEntry struct {
	Identifier string
	Address    address.PublicKeyBytes
	Roles      []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".setcli", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) getRootKeyFilePath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) getRoleKeyFilePath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".key")
}

func CheckKeyName(identifier string) error {
	if identifier == "" {
		return errors.New("identifier cannot be empty")
	}
	for _, char := range identifier {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in identifier", char)
	}
	return nil
}

func CheckRole(role string) error {
	if role == "" {
		return errors.New("role cannot be empty")
	}
	for _, char := range role {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in role", char)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != signing.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", signing.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != signing.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", signing.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// GenerateRootKey creates a fresh root key for identifier from r (crypto/rand
// when nil) and stores it.
func (ks *KeyStore) GenerateRootKey(identifier string, r io.Reader, overwrite bool) (address.PublicKeyBytes, string, error) {
	kp, err := signing.GenerateKeyPair(r)
	if err != nil {
		return address.PublicKeyBytes{}, "", err
	}
	return ks.InitializeRootKey(identifier, kp.Seed(), overwrite)
}

// InitializeRootKey stores seed as identifier's root key and returns its address.
func (ks *KeyStore) InitializeRootKey(identifier string, seed []byte, overwrite bool) (addr address.PublicKeyBytes, filePath string, err error) {
	if err := CheckKeyName(identifier); err != nil {
		return addr, "", err
	}
	if addr, err = AddressFromSeed(seed); err != nil {
		return addr, "", err
	}
	filePath = ks.getRootKeyFilePath(identifier)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return addr, "", err
	}
	return addr, filePath, nil
}

// DeriveKeyFromRole derives and stores the role key under from's root key.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (addr address.PublicKeyBytes, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return addr, "", err
	}
	if err := CheckRole(role); err != nil {
		return addr, "", err
	}
	rootSeed, err := ks.loadSeedFromFile(ks.getRootKeyFilePath(from))
	if err != nil {
		return addr, "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return addr, "", err
	}
	filePath = ks.getRoleKeyFilePath(from, role)
	if err := ks.saveSeedToFile(filePath, roleSeed, overwrite); err != nil {
		return addr, "", err
	}
	addr, err = AddressFromSeed(roleSeed)
	return addr, filePath, err
}

// ExportAddress returns the address of a stored key. An empty role selects the
// root key.
func (ks *KeyStore) ExportAddress(identifier string, role string) (address.PublicKeyBytes, error) {
	seed, err := ks.LoadSeed("", identifier, role, "")
	if err != nil {
		return address.PublicKeyBytes{}, err
	}
	return AddressFromSeed(seed)
}

// LoadSeed resolves a seed from, in order of precedence: a hex literal, a key
// file, or a stored identity and optional role.
func (ks *KeyStore) LoadSeed(seedHex, signerName, signerRole, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeedFromFile(keyFile)
	}
	if signerName != "" {
		if err := CheckKeyName(signerName); err != nil {
			return nil, err
		}
		if signerRole == "" {
			return ks.loadSeedFromFile(ks.getRootKeyFilePath(signerName))
		}
		if err := CheckRole(signerRole); err != nil {
			return nil, err
		}
		return ks.loadSeedFromFile(ks.getRoleKeyFilePath(signerName, signerRole))
	}
	return nil, errors.New("no signer provided")
}

// LoadKeyPair is LoadSeed followed by key derivation.
func (ks *KeyStore) LoadKeyPair(seedHex, signerName, signerRole, keyFile string) (signing.KeyPair, error) {
	seed, err := ks.LoadSeed(seedHex, signerName, signerRole, keyFile)
	if err != nil {
		return signing.KeyPair{}, err
	}
	return signing.KeyPairFromSeed(seed)
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		addr, err := ks.ExportAddress(identifier, "")
		if err != nil {
			// directories without a readable root key are not identities
			continue
		}
		rolesDir := filepath.Join(ks.Directory, identifier, "roles")
		roleEntries, rerr := os.ReadDir(rolesDir)
		var roles []string
		if rerr == nil {
			for _, roleEntry := range roleEntries {
				if roleEntry.IsDir() {
					continue
				}
				if strings.HasSuffix(roleEntry.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(roleEntry.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Identifier: identifier, Address: addr, Roles: roles})
	}
	return result, nil
}
