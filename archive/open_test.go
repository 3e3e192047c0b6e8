package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/storage/casconfig"
	"fastset.xyz/setcore/storage/casregistry"
	_ "fastset.xyz/setcore/storage/localfs"
)

func TestOpenSharesBoltDatabase(t *testing.T) {
	dir := t.TempDir()
	sc := casconfig.Config{Backends: []casconfig.BackendConfig{
		{Name: "localfs", Config: map[string]string{"dir": filepath.Join(dir, "fs")}},
		{Name: "bolt", Config: map[string]string{"path": filepath.Join(dir, "archive.db")}},
	}}
	a, closeFn, err := Open(context.Background(), sc, "", casregistry.UsageDaemon, Config{Quorum: 1, AllowAnyValidator: true})
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NoError(t, closeFn())
}

func TestOpenNeedsIndexWithoutBolt(t *testing.T) {
	dir := t.TempDir()
	sc := casconfig.Config{Backends: []casconfig.BackendConfig{
		{Name: "localfs", Config: map[string]string{"dir": dir}},
	}}
	_, _, err := Open(context.Background(), sc, "", casregistry.UsageDaemon, Config{Quorum: 1, AllowAnyValidator: true})
	require.Error(t, err)

	a, closeFn, err := Open(context.Background(), sc, filepath.Join(dir, "index.db"), casregistry.UsageDaemon, Config{Quorum: 1, AllowAnyValidator: true})
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NoError(t, closeFn())
}
