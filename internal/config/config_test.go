package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/stagedl/internal/utils"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint32(655360), cfg.ChunkSize)
	assert.True(t, cfg.Segmented)
	assert.Equal(t, utils.ToolUserAgent, cfg.UserAgent)
	assert.Equal(t, 3*time.Minute, cfg.Timeout)
	assert.Zero(t, cfg.MinSize)
	assert.Equal(t, 12*time.Hour, cfg.S3PresignExpiry)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
user_agent: custom-agent
timeout: 30s
keep_alive_timeout: 10s
chunk_size: 1MB
min_size: 2MB
segmented: false
staging_dir: /var/tmp/stage
headers:
  X-Api-Key: abc
token: secret
proxy: http://proxy.local:8080
s3_profile: ci
s3_presign_expiry: 24h
progress_interval: 1s
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-agent", cfg.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.KeepAliveTimeout)
	assert.Equal(t, uint32(1<<20), cfg.ChunkSize)
	assert.Equal(t, uint64(2<<20), cfg.MinSize)
	assert.False(t, cfg.Segmented)
	assert.Equal(t, "/var/tmp/stage", cfg.StagingDir)
	assert.Equal(t, map[string]string{"X-Api-Key": "abc"}, cfg.Headers)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "ci", cfg.S3Profile)
	assert.Equal(t, 24*time.Hour, cfg.S3PresignExpiry)
	assert.Equal(t, time.Second, cfg.ProgressInterval)

	opts := cfg.EngineOptions()
	assert.Equal(t, uint32(1<<20), opts.ChunkSize)
	assert.Equal(t, uint64(2<<20), opts.MinSize)
	assert.False(t, opts.Segmented)
	assert.Equal(t, "custom-agent", opts.UserAgent)

	client := cfg.HTTPClientConfig()
	assert.Equal(t, "http://proxy.local:8080", client.ProxyURL)
	assert.Equal(t, "secret", client.Token)
	client.Headers["X-Other"] = "y"
	assert.NotContains(t, cfg.Headers, "X-Other")
}

func TestPartialYAMLKeepsDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "min_size: 1KB\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Segmented)
	assert.Equal(t, uint32(655360), cfg.ChunkSize)
	assert.Equal(t, uint64(1024), cfg.MinSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for name, content := range map[string]string{
		"zero chunk":      "chunk_size: 0\n",
		"huge chunk":      "chunk_size: 8GB\n",
		"bad chunk":       "chunk_size: lots\n",
		"bad timeout":     "timeout: soon\n",
		"negative":        "timeout: -1s\n",
		"bad min size":    "min_size: tiny\n",
		"malformed yaml":  "headers: [unclosed\n",
		"bad segmented":   "segmented: maybe\n",
		"bad keep alive":  "keep_alive_timeout: 1x\n",
		"bad progress ms": "progress_interval: fast\n",
		"bad expiry":      "s3_presign_expiry: later\n",
		"expiry too long": "s3_presign_expiry: 200h\n",
	} {
		_, err := LoadFromFile(writeConfig(t, content))
		assert.Error(t, err, name)
	}
}

func TestZeroChunkAllowedWhenStreaming(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "segmented: false\nchunk_size: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.ChunkSize)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
