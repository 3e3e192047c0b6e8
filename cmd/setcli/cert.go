package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"fastset.xyz/setcore/archive"
	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/storage/casregistry"
	"fastset.xyz/setcore/types"
)

func (a *app) openArchive(ctx context.Context) (*archive.Archive, func() error, error) {
	settings, err := a.cfg.Archive.ArchiveSettings()
	if err != nil {
		return nil, nil, err
	}
	arc, closeFn, err := archive.Open(ctx, a.cfg.Archive.Storage, a.cfg.Archive.Index, casregistry.UsageCLI, settings, archive.WithLogger(a.logger))
	if err != nil {
		return nil, nil, errors.WithMessage(err, "open archive")
	}
	return arc, closeFn, nil
}

func newCertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Verify, archive and query transaction certificates",
	}
	cmd.AddCommand(
		newCertVerifyCmd(a),
		newCertArchiveCmd(a),
		newCertGetCmd(a),
		newCertLookupCmd(a),
		newCertListCmd(a),
		newCertExportCmd(a),
		newCertImportCmd(a),
		newCertEVMSignCmd(a),
	)
	return cmd
}

func newCertVerifyCmd(a *app) *cobra.Command {
	var quorum uint64
	cmd := &cobra.Command{
		Use:   "verify <certificate.json|->",
		Short: "Check a certificate's quorum and sender authorization",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cert types.TransactionCertificate
			if err := readJSON(args[0], cmd.InOrStdin(), &cert); err != nil {
				return err
			}
			settings, err := a.cfg.Archive.ArchiveSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("quorum") {
				settings.Quorum = types.Quorum(quorum)
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			var opts []signing.CertOption
			if len(settings.Committee) > 0 {
				opts = append(opts, signing.WithCommittee(settings.Committee...))
			}
			if err := signing.VerifyCertificate(cert, settings.Quorum, opts...); err != nil {
				return err
			}
			if err := signing.VerifyEnvelope(cert.Envelope); err != nil {
				return err
			}
			digest, err := cert.Transaction().Digest()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "OK %s (%d signatures)\n", digest, len(cert.Signatures))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&quorum, "quorum", 0, "required validator signatures (default archive.quorum)")
	return cmd
}

func newCertArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <certificate.json|->",
		Short: "Verify a certificate and store it in the archive",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cert types.TransactionCertificate
			if err := readJSON(args[0], cmd.InOrStdin(), &cert); err != nil {
				return err
			}
			arc, closeArc, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer closeArc()
			id, err := arc.Put(cmd.Context(), cert)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
}

func newCertGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <cid>",
		Short: "Print an archived certificate as JSON",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cidutil.Parse(args[0])
			if err != nil {
				return usagef("invalid cid: %v", err)
			}
			arc, closeArc, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer closeArc()
			cert, err := arc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(a.out, cert)
		},
	}
}

func newCertLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <sender> <nonce>",
		Short: "Print the CID of the certificate settling (sender, nonce)",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := parseAddressArg("sender", args[0])
			if err != nil {
				return err
			}
			nonce, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return usagef("invalid nonce: %v", err)
			}
			arc, closeArc, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer closeArc()
			id, err := arc.Lookup(cmd.Context(), sender, types.Nonce(nonce))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
}

func newCertListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <sender>",
		Short: "List archived settlements of a sender by nonce",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := parseAddressArg("sender", args[0])
			if err != nil {
				return err
			}
			arc, closeArc, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer closeArc()
			entries, err := arc.Settlements(sender)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(a.out, "%d %s\n", e.Nonce, e.CID)
			}
			return nil
		},
	}
}

func newCertExportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <sender>",
		Short: "Write a sender's archived certificates to a tar bundle",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := parseAddressArg("sender", args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				return usagef("--out is required")
			}
			arc, closeArc, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer closeArc()
			f, err := os.Create(outPath)
			if err != nil {
				return errors.WithMessage(err, "create bundle")
			}
			n, err := arc.Export(cmd.Context(), f, sender)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(outPath)
				return errors.WithMessage(err, "export")
			}
			fmt.Fprintf(a.out, "Exported %d certificate(s) to %s\n", n, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "bundle file to write")
	return cmd
}

func newCertImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle.tar>",
		Short: "Verify and archive every certificate in a bundle",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.WithMessage(err, "open bundle")
			}
			defer f.Close()
			arc, closeArc, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer closeArc()
			ids, err := arc.Import(cmd.Context(), f)
			if err != nil {
				return errors.WithMessage(err, "import")
			}
			for _, id := range ids {
				fmt.Fprintln(a.out, id)
			}
			return nil
		},
	}
}

func newCertEVMSignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evm-sign <certificate.json|->",
		Short: "Ask the proxy to cross-sign a certificate for EVM consumption",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cert types.TransactionCertificate
			if err := readJSON(args[0], cmd.InOrStdin(), &cert); err != nil {
				return err
			}
			resp, err := a.proxyClient().EVMSignCertificate(cmd.Context(), cert)
			if err != nil {
				return err
			}
			return writeJSON(a.out, resp)
		},
	}
}
