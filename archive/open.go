package archive

import (
	"context"
	"errors"

	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/boltcas"
	"fastset.xyz/setcore/storage/casconfig"
	"fastset.xyz/setcore/storage/casregistry"
)

// Open opens the configured storage backends and settlement index and returns
// an archive with a function releasing both. With an empty indexPath the index
// lives in the first bolt backend's database.
func Open(ctx context.Context, sc casconfig.Config, indexPath string, usage casregistry.Usage, cfg Config, opts ...Option) (*Archive, func() error, error) {
	cas, closeCAS, err := sc.Open(ctx, usage, "")
	if err != nil {
		return nil, nil, err
	}

	var idx *Index
	if indexPath != "" {
		idx, err = OpenIndex(indexPath)
	} else if db := firstBolt(cas); db != nil {
		idx, err = NewIndex(db.DB())
	} else {
		err = errors.New("archive: no bolt backend configured; set archive.index")
	}
	if err != nil {
		_ = closeCAS()
		return nil, nil, err
	}

	a, err := New(cas, idx, cfg, opts...)
	if err != nil {
		_ = idx.Close()
		_ = closeCAS()
		return nil, nil, err
	}
	closeAll := func() error {
		ierr := idx.Close()
		cerr := closeCAS()
		if ierr != nil {
			return ierr
		}
		return cerr
	}
	return a, closeAll, nil
}

func firstBolt(cas storage.CAS) *boltcas.CAS {
	switch c := cas.(type) {
	case *boltcas.CAS:
		return c
	case storage.MultiCAS:
		for _, a := range c.Adapters {
			if b := firstBolt(a); b != nil {
				return b
			}
		}
	case storage.ReplicatingCAS:
		for _, n := range c.Backends {
			if b := firstBolt(n.CAS); b != nil {
				return b
			}
		}
	}
	return nil
}
