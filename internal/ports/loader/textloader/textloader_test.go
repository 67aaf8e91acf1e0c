package textloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportsKnownExtensions(t *testing.T) {
	l := New()
	assert.True(t, l.Supports("notes.txt"))
	assert.True(t, l.Supports("README.MD"))
	assert.True(t, l.Supports("data.CSV"))
	assert.False(t, l.Supports("scan.pdf"))
	assert.False(t, l.Supports("archive.zip"))
}

func TestLoadSinglePageWithoutFormFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my_notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "my notes", doc.Name)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "hello world", doc.Pages[0].Text)
	assert.Equal(t, 0, doc.Pages[0].Index)
}

func TestLoadSplitsOnFormFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi-page.txt")
	require.NoError(t, os.WriteFile(path, []byte("page one\fpage two\fpage three"), 0o644))

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	assert.Equal(t, "page one", doc.Pages[0].Text)
	assert.Equal(t, "page two", doc.Pages[1].Text)
	assert.Equal(t, "page three", doc.Pages[2].Text)
	assert.Equal(t, 2, doc.Pages[2].Index)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
