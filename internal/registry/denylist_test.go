package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audfs/creator-node/internal/registry"
)

func writeDenylistFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "denylist.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDenylist(t *testing.T) {
	path := writeDenylistFile(t, `{
		"cids": ["QmXoypizjW3WknFiJnKLwHCnL72vedxjQkDDP1mXWo6uco"],
		"wallets": ["0xAaAa000000000000000000000000000000000001"]
	}`)

	denylist, err := registry.LoadDenylist(path)
	require.NoError(t, err)

	assert.True(t, denylist.IsCIDDenied("QmXoypizjW3WknFiJnKLwHCnL72vedxjQkDDP1mXWo6uco"))
	assert.False(t, denylist.IsCIDDenied("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"))
	assert.True(t, denylist.IsWalletDenied("0xAaAa000000000000000000000000000000000001"))
	assert.False(t, denylist.IsWalletDenied("0xBbBb000000000000000000000000000000000002"))
}

func TestLoadDenylist_EmptyPath(t *testing.T) {
	denylist, err := registry.LoadDenylist("")
	require.NoError(t, err)

	assert.False(t, denylist.IsCIDDenied("QmXoypizjW3WknFiJnKLwHCnL72vedxjQkDDP1mXWo6uco"))
	assert.False(t, denylist.IsWalletDenied("0xAaAa000000000000000000000000000000000001"))
}

func TestLoadDenylist_MissingFile(t *testing.T) {
	_, err := registry.LoadDenylist(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read denylist file")
}

func TestLoadDenylist_MalformedJSON(t *testing.T) {
	path := writeDenylistFile(t, `{"cids": [`)

	_, err := registry.LoadDenylist(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse denylist file")
}

func TestDenylist_WalletLookupIsCaseInsensitive(t *testing.T) {
	path := writeDenylistFile(t, `{
		"wallets": ["0xAAAA000000000000000000000000000000000001"]
	}`)

	denylist, err := registry.LoadDenylist(path)
	require.NoError(t, err)

	assert.True(t, denylist.IsWalletDenied("0xaaaa000000000000000000000000000000000001"))
	assert.True(t, denylist.IsWalletDenied("  0xAaAa000000000000000000000000000000000001  "))
}

func TestDenylist_NilIsPermissive(t *testing.T) {
	var denylist *registry.Denylist

	assert.False(t, denylist.IsCIDDenied("QmXoypizjW3WknFiJnKLwHCnL72vedxjQkDDP1mXWo6uco"))
	assert.False(t, denylist.IsWalletDenied("0xAaAa000000000000000000000000000000000001"))
}
