package stagehttp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tanq16/stagedl/internal/utils"
)

// Target is one download: the remote URL and the absolute local path it is
// staged to. ProbeURL, when set, receives the preflight request instead of URL
// (presigned URLs are only valid for the method they were signed for).
type Target struct {
	URL      string
	Path     string
	ProbeURL string
}

func DefaultStagingDir() string {
	return filepath.Join(os.TempDir(), utils.StagingDirName)
}

// FileNameFromURL returns everything after the last "/" of rawURL. Query
// strings are kept as part of the name.
func FileNameFromURL(rawURL string) string {
	name := rawURL[strings.LastIndex(rawURL, "/")+1:]
	if name == "" || name == "." || name == ".." {
		return "download"
	}
	return name
}

// ResolveTarget derives the staging path for rawURL and creates the staging
// directory. An empty stagingDir selects DefaultStagingDir.
func ResolveTarget(rawURL, stagingDir string) (Target, error) {
	if stagingDir == "" {
		stagingDir = DefaultStagingDir()
	}
	dir, err := filepath.Abs(stagingDir)
	if err != nil {
		return Target{}, newError(KindFileSystem, "resolve destination", rawURL, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Target{}, newError(KindFileSystem, "create staging directory", rawURL, err)
	}
	return Target{URL: rawURL, Path: filepath.Join(dir, FileNameFromURL(rawURL))}, nil
}
