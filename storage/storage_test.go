package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/rsvblog/config"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestStageAndPutLocal(t *testing.T) {
	staging := t.TempDir()
	root := t.TempDir()

	staged, err := Stage(fileHeader(t, "../../evil name.png", []byte("png-bytes")), staging, 1024)
	require.NoError(t, err)
	assert.Equal(t, staging, filepath.Dir(staged), "original name never reaches the path")

	store := NewLocalStore(root, "/gen/")
	key := "post/2024_01_02/abc.png"
	require.NoError(t, store.Put(context.Background(), staged, key))
	assert.NoFileExists(t, staged)
	assert.FileExists(t, filepath.Join(root, "post", "2024_01_02", "abc.png"))
	assert.Equal(t, "/gen/post/2024_01_02/abc.png", store.URL(key))
	assert.Empty(t, NewLocalStore(root, "").URL(key))

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}

func TestStageRejectsLargeFiles(t *testing.T) {
	staging := t.TempDir()
	_, err := Stage(fileHeader(t, "big.bin", bytes.Repeat([]byte("a"), 64)), staging, 10)
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStoreKeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "")
	p, err := store.pathFor("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), p)

	_, err = store.pathFor("")
	assert.Error(t, err)
}

func TestLocalPutMissingStagedFile(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "")
	err := store.Put(context.Background(), filepath.Join(t.TempDir(), "nope"), "post/x.png")
	assert.Error(t, err)
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(context.Background(), config.StorageSection{Driver: "local", Root: "x"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(context.Background(), config.StorageSection{Driver: "ftp"})
	assert.Error(t, err)
}
