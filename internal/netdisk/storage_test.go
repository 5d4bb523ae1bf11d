package netdisk

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupStorage(t *testing.T) (*Storage, string) {
	root := t.TempDir()
	st, err := NewStorage(root, zap.NewNop())
	require.NoError(t, err)
	return st, st.root
}

// newTestFileHeader builds a multipart.FileHeader the way gin would parse it.
func newTestFileHeader(t *testing.T, fieldname, filename, content string) *multipart.FileHeader {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldname, filename))
	partHeader.Set("Content-Type", "application/octet-stream")

	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File[fieldname]
	require.NotEmpty(t, files)
	return files[0]
}

func TestSplitPath(t *testing.T) {
	parts, err := SplitPath("a/b//c/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, parts)

	parts, err = SplitPath("")
	require.NoError(t, err)
	assert.Empty(t, parts)

	for _, bad := range []string{"../etc", "/abs", "a/../../b", `a\..\b`} {
		_, err := SplitPath(bad)
		assert.ErrorIs(t, err, ErrUnsafePath, bad)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("notes.txt"))
	for _, bad := range []string{"", "  ", "..", "a/b", `a\b`, "x..y"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestStorage_SaveListRenameRemove(t *testing.T) {
	st, root := setupStorage(t)

	fh := newTestFileHeader(t, "file", "report.txt", "hello disk")
	entry, err := st.SaveUploadedFile(fh, []string{"owner", "docs"})
	require.NoError(t, err)
	assert.Equal(t, "owner/docs/report.txt", entry.Path)
	assert.EqualValues(t, len("hello disk"), entry.Size)

	content, err := os.ReadFile(filepath.Join(root, "owner", "docs", "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello disk", string(content))

	_, err = st.Mkdir([]string{"owner"}, "docs")
	assert.ErrorIs(t, err, fs.ErrExist)
	_, err = st.Mkdir([]string{"owner"}, "Archive")
	require.NoError(t, err)

	dirs, files, err := st.List([]string{"owner"})
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	assert.Equal(t, "Archive", dirs[0].Name)
	assert.Empty(t, files)

	renamed, err := st.Rename([]string{"owner", "docs", "report.txt"}, "final.txt")
	require.NoError(t, err)
	assert.Equal(t, "owner/docs/final.txt", renamed.Path)

	walked, err := st.Walk([]string{"owner"})
	require.NoError(t, err)
	require.Len(t, walked, 1)

	require.NoError(t, st.Remove([]string{"owner", "docs"}))
	_, err = st.Stat([]string{"owner", "docs"})
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, st.Remove(nil), ErrUnsafePath)
}

func TestStorage_UploadNameIsSanitized(t *testing.T) {
	st, root := setupStorage(t)
	fh := newTestFileHeader(t, "file", "../../escape.txt", "x")
	entry, err := st.SaveUploadedFile(fh, []string{"owner"})
	require.NoError(t, err)
	assert.Equal(t, "owner/escape.txt", entry.Path)
	_, err = os.Stat(filepath.Join(root, "owner", "escape.txt"))
	assert.NoError(t, err)
}

func TestStorage_Cleanup(t *testing.T) {
	st, root := setupStorage(t)
	old := time.Now().Add(-10 * 24 * time.Hour)

	write := func(rel string, mtime time.Time) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("data"), 0o644))
		require.NoError(t, os.Chtimes(full, mtime, mtime))
	}
	write("u1/old/stale.txt", old)
	write("u1/fresh.txt", time.Now())
	for _, dir := range []string{"u1/old", "u1"} {
		require.NoError(t, os.Chtimes(filepath.Join(root, filepath.FromSlash(dir)), old, old))
	}

	dry, err := st.Cleanup(7*24*time.Hour, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1/old/stale.txt"}, dry.DeletedFiles)
	assert.Equal(t, []string{"u1/old"}, dry.DeletedDirs)
	_, err = os.Stat(filepath.Join(root, "u1", "old", "stale.txt"))
	require.NoError(t, err, "dry run keeps files")

	report, err := st.Cleanup(7*24*time.Hour, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1/old/stale.txt"}, report.DeletedFiles)
	assert.Equal(t, []string{"u1/old"}, report.DeletedDirs)
	_, err = os.Stat(filepath.Join(root, "u1", "old"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "u1", "fresh.txt"))
	assert.NoError(t, err)
}
