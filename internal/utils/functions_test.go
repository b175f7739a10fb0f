package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input    string
		expected uint64
	}{
		{"100", 100},
		{"100B", 100},
		{"1KB", 1024},
		{"640kb", 640 * 1024},
		{"1.5MB", 1536 * 1024},
		{"2GB", 2 << 30},
		{" 1 TB ", 1 << 40},
	}
	for _, tt := range tests {
		got, err := ParseBytes(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}
}

func TestParseBytesInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "-1KB", "KB"} {
		_, err := ParseBytes(input)
		assert.Error(t, err, input)
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "1023 B", FormatBytes(1023))
	assert.Equal(t, "1.00 KB", FormatBytes(1024))
	assert.Equal(t, "1.50 MB", FormatBytes(1536*1024))
	assert.Equal(t, "1.00 KB/s", FormatSpeed(2048, 2))
	assert.Equal(t, "0 B/s", FormatSpeed(2048, 0))
}

func TestParseHeaderArgs(t *testing.T) {
	got := ParseHeaderArgs([]string{"X-Api-Key: abc", "Accept:*/*", "broken"})
	assert.Equal(t, map[string]string{"X-Api-Key": "abc", "Accept": "*/*"}, got)
}

func TestClientSendsConfiguredHeaders(t *testing.T) {
	var gotUA, gotKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotKey = r.Header.Get("X-Api-Key")
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := NewStageHTTPClient(HTTPClientConfig{
		Headers: map[string]string{"X-Api-Key": "abc"},
		Token:   "secret",
	})
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, ToolUserAgent, gotUA)
	assert.Equal(t, "abc", gotKey)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestClientKeepsRequestUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewStageHTTPClient(HTTPClientConfig{UserAgent: "configured"})
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "explicit")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "explicit", gotUA)
}

func TestClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), StagingDirName)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "a.bin"), []byte("x"), 0644))

	require.NoError(t, Clean(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, Clean(dir), "missing directory is not an error")
}
