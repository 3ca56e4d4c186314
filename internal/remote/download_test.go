package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadWritesBodyToLocalFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("era file contents"))
	}))
	defer server.Close()

	dir := t.TempDir()
	path, err := Download(context.Background(), server.Client(), EraFile{EraNumber: 1, URL: server.URL + "/mainnet-00001-aaaaaaaa.era"}, dir, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mainnet-00001-aaaaaaaa.era"), path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "era file contents", string(contents))
}

func TestDownloadRemovesPartialFileOnFinalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := Download(context.Background(), server.Client(), EraFile{EraNumber: 1, URL: server.URL + "/mainnet-00001-aaaaaaaa.era"}, dir, 0)
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "mainnet-00001-aaaaaaaa.era"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanupRemovesFileWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "era.era")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	Cleanup(path, true)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupLeavesFileWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "era.era")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	Cleanup(path, false)
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
