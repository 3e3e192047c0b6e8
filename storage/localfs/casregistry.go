package localfs

import (
	"context"
	"fmt"

	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/casregistry"
)

// DirKey is the configuration key naming the storage directory.
const DirKey = "dir"

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem CAS (directory)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{DirKey},
		Open: func(_ context.Context, cfg map[string]string) (storage.CAS, func() error, error) {
			dir := cfg[DirKey]
			if dir == "" {
				return nil, nil, fmt.Errorf("localfs: missing %q", DirKey)
			}
			cas, err := New(dir)
			return cas, nil, err
		},
	})
}
