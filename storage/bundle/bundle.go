// Package bundle moves archived objects between stores as deterministic TAR files.
//
// Layout:
//
//	objects/<cid>   raw object bytes, one entry per CID, sorted by CID string
//	index.json      optional; sizes and labels (e.g. "<sender>/<nonce>")
//
// The index is informational only: Import trusts nothing but object bytes that
// hash to their entry name.
package bundle

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

const (
	objectPrefix = "objects/"
	indexName    = "index.json"
)

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels maps human-readable names to CIDs in the bundle.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.json is written.
	IncludeIndex bool
}

// Export writes a deterministic TAR bundle containing the objects for ids.
//
// Entry order is lexicographic and TAR headers are normalized, so equal inputs
// produce equal bytes. Every exported object is checked against its CID.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, s)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	fail := func(err error) error {
		_ = tw.Close()
		return err
	}

	objects := make([]indexObject, 0, len(names))
	for _, s := range names {
		id := uniq[s]
		b, err := cas.Get(ctx, id)
		if err != nil {
			return fail(fmt.Errorf("bundle: %s: %w", s, err))
		}
		if !cidutil.Matches(id, b) {
			return fail(storage.ErrCIDMismatch)
		}
		if err := writeFile(tw, objectPrefix+s, b); err != nil {
			return fail(err)
		}
		objects = append(objects, indexObject{CID: s, Size: len(b)})
	}

	if opts.IncludeIndex {
		idx := indexJSON{
			Version:   FormatVersion,
			CIDCodec:  "raw",
			Multihash: "sha2-256",
			Objects:   objects,
		}
		labels, err := sortedLabels(opts.Labels, uniq)
		if err != nil {
			return fail(err)
		}
		idx.Labels = labels

		b, err := json.Marshal(idx)
		if err != nil {
			return fail(err)
		}
		if err := writeFile(tw, indexName, append(b, '\n')); err != nil {
			return fail(err)
		}
	}
	return tw.Close()
}

func sortedLabels(in map[string]cid.Cid, present map[string]cid.Cid) ([]indexLabel, error) {
	if len(in) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]indexLabel, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("bundle: empty label key")
		}
		v := in[k]
		if !v.Defined() {
			return nil, storage.ErrInvalidCID
		}
		if _, ok := present[v.String()]; !ok {
			return nil, fmt.Errorf("bundle: label %q refers to %s which is not exported", k, v)
		}
		out = append(out, indexLabel{Name: k, CID: v.String()})
	}
	return out, nil
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown skips unknown TAR entries instead of failing.
	IgnoreUnknown bool
}

// Import reads a bundle from r, stores every object in cas and returns the
// imported CIDs in bundle order. Unknown entries cause an error.
func Import(ctx context.Context, r io.Reader, cas storage.CAS) ([]cid.Cid, error) {
	return ImportWithOptions(ctx, r, cas, ImportOptions{})
}

// ImportWithOptions is Import with explicit options.
//
// Each object's bytes must hash to the CID in its entry name.
func ImportWithOptions(ctx context.Context, r io.Reader, cas storage.CAS, opts ImportOptions) ([]cid.Cid, error) {
	if cas == nil {
		return nil, fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var imported []cid.Cid

	for {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		h, err := tr.Next()
		if err == io.EOF {
			return imported, nil
		}
		if err != nil {
			return imported, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return imported, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return imported, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == indexName {
			_, _ = io.Copy(io.Discard, tr)
			continue
		}

		if !strings.HasPrefix(name, objectPrefix) {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return imported, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, err := cid.Decode(strings.TrimPrefix(name, objectPrefix))
		if err != nil || !id.Defined() {
			return imported, storage.ErrInvalidCID
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			return imported, err
		}
		if !cidutil.Matches(id, payload) {
			return imported, storage.ErrCIDMismatch
		}
		if _, ok := seen[id.String()]; ok {
			return imported, fmt.Errorf("bundle: duplicate object entry: %s", id)
		}
		seen[id.String()] = struct{}{}

		putID, err := cas.Put(ctx, payload)
		if err != nil {
			return imported, err
		}
		if putID != id {
			return imported, storage.ErrCIDMismatch
		}
		imported = append(imported, id)
	}
}

type indexJSON struct {
	Version   int           `json:"version"`
	CIDCodec  string        `json:"cidCodec"`
	Multihash string        `json:"multihash"`
	Objects   []indexObject `json:"objects"`
	Labels    []indexLabel  `json:"labels,omitempty"`
}

type indexObject struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
