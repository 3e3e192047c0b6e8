package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/casregistry"
)

func newCASCmd(a *app) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "cas",
		Short: "Raw access to the configured archive storage (CIDv1 raw + sha2-256)",
	}
	cmd.PersistentFlags().StringVar(&backend, "backend", "", "write to this configured backend name or id first")

	open := func(cmd *cobra.Command) (storage.CAS, func() error, error) {
		cas, closeFn, err := a.cfg.Archive.Storage.Open(cmd.Context(), casregistry.UsageCLI, backend)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "open storage")
		}
		return cas, closeFn, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "backends",
		Short: "List storage backends compiled into setcli",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, b := range casregistry.List(casregistry.UsageCLI) {
				if b.Description == "" {
					fmt.Fprintf(a.out, "%s\n", b.Name)
					continue
				}
				fmt.Fprintf(a.out, "%s\t%s\n", b.Name, b.Description)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "put <file>",
		Short: "Store a file's bytes and print the CID",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			cas, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			id, err := cas.Put(cmd.Context(), b)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	})

	var outPath string
	get := &cobra.Command{
		Use:   "get <cid>",
		Short: "Fetch stored bytes by CID",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cidutil.Parse(args[0])
			if err != nil {
				return usagef("%v", storage.ErrInvalidCID)
			}
			cas, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			b, err := cas.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = a.out.Write(b)
				return err
			}
			return os.WriteFile(outPath, b, 0o600)
		},
	}
	get.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	has := &cobra.Command{
		Use:   "has <cid>",
		Short: "Report whether a CID is stored",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cidutil.Parse(args[0])
			if err != nil {
				return usagef("%v", storage.ErrInvalidCID)
			}
			cas, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			ok, err := cas.Has(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ok)
			return nil
		},
	}
	cmd.AddCommand(get, has)
	return cmd
}
