package artifact

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutJSONAndGetRoundTrips(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	meta, err := s.PutJSON(ctx, []byte(`{"ok":true}`), "diagnostics")
	require.NoError(t, err)
	assert.Equal(t, KindJSON, meta.Kind)
	assert.NotEmpty(t, meta.ID)

	data, got, err := s.Get(ctx, meta.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, meta.ID, got.ID)
}

func TestPutImageB64RejectsInvalidEncoding(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.PutImageB64(context.Background(), "not-base64!!", "shot")
	assert.Error(t, err)
}

func TestDeleteRemovesFromListing(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	meta, err := s.PutText(ctx, "hello", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, meta.ID))
	_, _, err = s.Get(ctx, meta.ID)
	assert.Error(t, err)
}

func TestListOrdersNewestFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	first, err := s.PutText(ctx, "one", "")
	require.NoError(t, err)
	second, err := s.PutText(ctx, "two", "")
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestExportWritesPayloadToDestPath(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	meta, err := s.PutText(ctx, "export-me", "")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "nested", "out.txt")
	require.NoError(t, s.Export(ctx, meta.ID, dest))
}
