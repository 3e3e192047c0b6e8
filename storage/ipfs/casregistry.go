package ipfs

import (
	"context"
	"fmt"
	"strconv"

	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/casregistry"
)

// Configuration keys understood by the "ipfs" backend.
const (
	BinKey  = "bin"
	RepoKey = "repo"
	PinKey  = "pin"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "Local Kubo repository via the ipfs CLI (raw blocks)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{BinKey, RepoKey, PinKey},
		Open: func(_ context.Context, cfg map[string]string) (storage.CAS, func() error, error) {
			opts := Options{Bin: cfg[BinKey], RepoPath: cfg[RepoKey]}
			if v := cfg[PinKey]; v != "" {
				pin, err := strconv.ParseBool(v)
				if err != nil {
					return nil, nil, fmt.Errorf("ipfs: invalid %s %q", PinKey, v)
				}
				opts.Pin = pin
			}
			return New(opts), nil, nil
		},
	})
}
