package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/keys"
)

func (a *app) keyStore() (*keys.KeyStore, error) {
	ks, err := keys.CreateKeyStore(a.cfg.Keystore.Dir)
	if err != nil {
		return nil, errors.WithMessage(err, "keys")
	}
	return ks, nil
}

func newKeysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Local Ed25519 key management",
	}
	cmd.AddCommand(newKeysInitCmd(a), newKeysDeriveCmd(a), newKeysListCmd(a), newKeysExportCmd(a))
	return cmd
}

func newKeysInitCmd(a *app) *cobra.Command {
	var (
		seedHex string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a root key",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := keys.CheckKeyName(name); err != nil {
				return usagef("invalid name: %v", err)
			}
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			var (
				addr address.PublicKeyBytes
				path string
			)
			if seedHex != "" {
				seed, perr := keys.ParseSeedHex(seedHex)
				if perr != nil {
					return usagef("invalid --seed-hex: %v", perr)
				}
				addr, path, err = ks.InitializeRootKey(name, seed, force)
			} else {
				addr, path, err = ks.GenerateRootKey(name, nil, force)
			}
			if err != nil {
				return errors.WithMessage(err, "write key")
			}
			fmt.Fprintf(a.out, "Created root key: %s\n", addr)
			fmt.Fprintf(a.out, "Stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars (for reproducible setups)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}

func newKeysDeriveCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "derive <name> <role>",
		Short: "Derive a role key from a root key",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, role := args[0], args[1]
			if err := keys.CheckKeyName(from); err != nil {
				return usagef("invalid name: %v", err)
			}
			if err := keys.CheckRole(role); err != nil {
				return usagef("invalid role: %v", err)
			}
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			addr, path, err := ks.DeriveKeyFromRole(from, role, force)
			if err != nil {
				return errors.WithMessage(err, "derive role key")
			}
			fmt.Fprintf(a.out, "Created role key: %s\n", addr)
			fmt.Fprintf(a.out, "Stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}

func newKeysListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys and their roles",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			entries, err := ks.ListKeys()
			if err != nil {
				return errors.WithMessage(err, "list keys")
			}
			for _, e := range entries {
				fmt.Fprintf(a.out, "%s %s\n", e.Identifier, e.Address)
				for _, r := range e.Roles {
					fmt.Fprintf(a.out, "  - %s\n", r)
				}
			}
			return nil
		},
	}
}

func newKeysExportCmd(a *app) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Print the address of a stored key",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keys.CheckKeyName(args[0]); err != nil {
				return usagef("invalid name: %v", err)
			}
			if role != "" {
				if err := keys.CheckRole(role); err != nil {
					return usagef("invalid --role: %v", err)
				}
			}
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			addr, err := ks.ExportAddress(args[0], role)
			if err != nil {
				return errors.WithMessage(err, "export key")
			}
			fmt.Fprintln(a.out, addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "export a derived role key instead of the root key")
	return cmd
}
