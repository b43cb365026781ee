package file_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/observerlabs/aavewatch/io/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkdirAll_AlreadyExists_WrongPermissions(t *testing.T) {
	dirName := filepath.Join(t.TempDir(), "somedir")
	require.NoError(t, os.MkdirAll(dirName, 0750))
	err := file.MkdirAll(dirName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists without proper 0700 permissions")
}

func TestMkdirAll_AlreadyExists_OK(t *testing.T) {
	dirName := filepath.Join(t.TempDir(), "somedir")
	require.NoError(t, os.MkdirAll(dirName, 0700))
	assert.NoError(t, file.MkdirAll(dirName))
}

func TestMkdirAll_OK(t *testing.T) {
	dirName := filepath.Join(t.TempDir(), "somedir")
	require.NoError(t, file.MkdirAll(dirName))
	exists, err := file.HasDir(dirName)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWriteFile_AlreadyExists_WrongPermissions(t *testing.T) {
	name := filepath.Join(t.TempDir(), "somefile")
	require.NoError(t, ioutil.WriteFile(name, []byte("hi"), 0644))
	err := file.WriteFile(name, []byte("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists without proper 0600 permissions")
}

func TestWriteFile_OK(t *testing.T) {
	name := filepath.Join(t.TempDir(), "somefile")
	require.NoError(t, file.WriteFile(name, []byte("hi")))
	assert.True(t, file.FileExists(name))
	got, err := ioutil.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

func TestWriteFileAtomic_ReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "status.json")
	require.NoError(t, file.WriteFileAtomic(name, []byte(`{"status":"scanning"}`)))
	require.NoError(t, file.WriteFileAtomic(name, []byte(`{"status":"completed"}`)))

	got, err := ioutil.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"completed"}`, string(got))

	// No temporary residue may remain next to the target.
	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 1, len(entries))
	assert.Equal(t, "status.json", entries[0].Name())
}

func TestFileExists_Dir(t *testing.T) {
	assert.False(t, file.FileExists(t.TempDir()), "directories are not files")
}
