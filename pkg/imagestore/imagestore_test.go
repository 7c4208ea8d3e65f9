package imagestore_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katalog/pkg/imagestore"
)

func TestDiskStore_SaveAndResolve(t *testing.T) {
	store, err := imagestore.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	id, err := store.Save(bytes.NewReader([]byte("fake-png-bytes")), "shoe.PNG")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotContains(t, id, "-", "identifier is opaque, no uuid dashes")

	path, err := store.Path(id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"), "extension is normalized to lower case")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), data)
}

func TestDiskStore_DefaultExtension(t *testing.T) {
	store, err := imagestore.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	id, err := store.Save(bytes.NewReader([]byte("x")), "noextension")
	require.NoError(t, err)

	path, err := store.Path(id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".jpg"))
}

func TestDiskStore_Remove(t *testing.T) {
	store, err := imagestore.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	id, err := store.Save(bytes.NewReader([]byte("x")), "a.jpg")
	require.NoError(t, err)

	require.NoError(t, store.Remove(id))
	_, err = store.Path(id)
	assert.Error(t, err)

	// Removing an unknown identifier is not an error.
	assert.NoError(t, store.Remove("doesnotexist"))
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	store, err := imagestore.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../etc/passwd", "a/b", "a.b"} {
		_, err := store.Path(id)
		assert.Error(t, err, "identifier %q must be rejected", id)
	}
}
