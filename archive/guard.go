package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/types"
)

// Guarded returns a storage.CAS over the archive's store whose Put only accepts
// canonically encoded certificates that pass Verify. Accepted certificates are
// indexed as if passed to Put. Get and Has read the store directly.
func (a *Archive) Guarded() storage.CAS { return guardedCAS{a: a} }

type guardedCAS struct {
	a *Archive
}

func (g guardedCAS) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	want, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, err
	}
	cert, err := types.DecodeCertificate(b)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: not a certificate: %v", storage.ErrRejected, err)
	}
	_, canonical, err := cidutil.Canonical(cert)
	if err != nil {
		return cid.Undef, err
	}
	if canonical != want {
		return cid.Undef, fmt.Errorf("%w: certificate is not canonically encoded", storage.ErrRejected)
	}

	id, err := g.a.Put(ctx, cert)
	switch {
	case err == nil:
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotArchival), errs.KindOf(err) != "":
		return cid.Undef, fmt.Errorf("%w: %v", storage.ErrRejected, err)
	default:
		return cid.Undef, err
	}
	if id == want {
		return id, nil
	}
	// Another certificate for the same transaction is indexed; keep these bytes
	// addressable without touching the index.
	return g.a.cas.Put(ctx, b)
}

func (g guardedCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	return g.a.cas.Get(ctx, id)
}

func (g guardedCAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return g.a.cas.Has(ctx, id)
}
