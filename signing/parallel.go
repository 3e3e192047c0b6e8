package signing

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"fastset.xyz/setcore/types"
)

// firstInvalid verifies every entry over msg concurrently and returns the index
// of the lowest entry that fails, or -1. Reporting the lowest index keeps the
// result independent of scheduling.
func firstInvalid(msg []byte, entries []types.NamedSignature) int {
	ok := make([]bool, len(entries))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range entries {
		i := i
		g.Go(func() error {
			ok[i] = verifyMessage(msg, entries[i].Signature, entries[i].Signer)
			return nil
		})
	}
	_ = g.Wait()
	for i, valid := range ok {
		if !valid {
			return i
		}
	}
	return -1
}
