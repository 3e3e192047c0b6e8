package archive

import (
	"context"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/bundle"
	"fastset.xyz/setcore/types"
)

// Export writes every archived certificate of sender as a bundle labelled
// "<sender>/<nonce>".
func (a *Archive) Export(ctx context.Context, w io.Writer, sender address.FastSetAddress) (int, error) {
	entries, err := a.index.Entries(sender)
	if err != nil {
		return 0, err
	}
	ids := make([]cid.Cid, 0, len(entries))
	labels := make(map[string]cid.Cid, len(entries))
	for _, e := range entries {
		ids = append(ids, e.CID)
		labels[fmt.Sprintf("%s/%d", e.Sender, e.Nonce)] = e.CID
	}
	if err := bundle.Export(ctx, w, a.cas, ids, bundle.ExportOptions{IncludeIndex: true, Labels: labels}); err != nil {
		return 0, err
	}
	a.logger.Info("archive exported", "sender", sender.String(), "certificates", len(ids))
	return len(ids), nil
}

// Import reads a bundle and archives each certificate in it through Put, so
// imported certificates pass the same verification as submitted ones. The
// bundle's index is ignored.
func (a *Archive) Import(ctx context.Context, r io.Reader) ([]cid.Cid, error) {
	staged := &stagingCAS{objects: map[cid.Cid][]byte{}}
	ids, err := bundle.Import(ctx, r, staged)
	if err != nil {
		return nil, err
	}
	out := make([]cid.Cid, 0, len(ids))
	for _, id := range ids {
		cert, err := decodeStaged(staged.objects[id], id)
		if err != nil {
			return out, err
		}
		got, err := a.Put(ctx, cert)
		if err != nil {
			return out, fmt.Errorf("archive: import %s: %w", id, err)
		}
		out = append(out, got)
	}
	return out, nil
}

func decodeStaged(data []byte, id cid.Cid) (types.TransactionCertificate, error) {
	cert, err := types.DecodeCertificate(data)
	if err != nil {
		return types.TransactionCertificate{}, fmt.Errorf("archive: bundle object %s is not a certificate: %w", id, err)
	}
	return cert, nil
}

// stagingCAS holds bundle objects in memory until they pass verification.
type stagingCAS struct {
	objects map[cid.Cid][]byte
}

func (s *stagingCAS) Put(_ context.Context, b []byte) (cid.Cid, error) {
	id, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, err
	}
	s.objects[id] = b
	return id, nil
}

func (s *stagingCAS) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	b, ok := s.objects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (s *stagingCAS) Has(_ context.Context, id cid.Cid) (bool, error) {
	_, ok := s.objects[id]
	return ok, nil
}
