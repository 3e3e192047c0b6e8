package boltcas

import (
	"context"
	"fmt"

	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/casregistry"
)

// PathKey is the configuration key naming the database file.
const PathKey = "path"

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "bolt",
		Description: "Single-file bolt database CAS",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{PathKey},
		Open: func(_ context.Context, cfg map[string]string) (storage.CAS, func() error, error) {
			path := cfg[PathKey]
			if path == "" {
				return nil, nil, fmt.Errorf("boltcas: missing %q", PathKey)
			}
			cas, err := Open(path)
			if err != nil {
				return nil, nil, err
			}
			return cas, cas.Close, nil
		},
	})
}
