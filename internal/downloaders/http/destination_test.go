package stagehttp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/denoland/deno/releases/latest/download/deno-x86_64-unknown-linux-gnu.zip", "deno-x86_64-unknown-linux-gnu.zip"},
		{"https://example.com/archive.tar.gz?X-Amz-Signature=abc&X-Amz-Expires=900", "archive.tar.gz?X-Amz-Signature=abc&X-Amz-Expires=900"},
		{"https://example.com/dir/", "download"},
		{"https://example.com/..", "download"},
		{"no-slashes", "no-slashes"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileNameFromURL(tt.url), tt.url)
	}
}

func TestResolveTargetIsDeterministic(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "nested", "staging")
	url := "https://example.com/files/tool.zip"

	first, err := ResolveTarget(url, staging)
	require.NoError(t, err)
	second, err := ResolveTarget(url, staging)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, filepath.IsAbs(first.Path))
	assert.Equal(t, filepath.Join(staging, "tool.zip"), first.Path)
	assert.Equal(t, url, first.URL)

	info, err := os.Stat(staging)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveTargetDirectoryFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := ResolveTarget("https://example.com/a.zip", filepath.Join(blocker, "staging"))
	require.Error(t, err)
	assert.Equal(t, KindFileSystem, KindOf(err))
}

func TestDefaultStagingDir(t *testing.T) {
	assert.Equal(t, filepath.Join(os.TempDir(), "http-download-fw"), DefaultStagingDir())
}
