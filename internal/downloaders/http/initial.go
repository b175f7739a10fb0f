package stagehttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/stagedl/internal/utils"
)

// Options selects the retrieval strategy and its policies.
type Options struct {
	// Segmented fetches a known-length resource as sequential ranged requests.
	Segmented bool
	// ChunkSize is the byte length of each ranged request. Must be non-zero
	// when Segmented is set.
	ChunkSize uint32
	// MinSize rejects resources advertising fewer bytes. Zero disables the check.
	MinSize uint64
	// StagingDir overrides DefaultStagingDir.
	StagingDir string
	UserAgent  string
	// Progress is called after every completed segment or received chunk.
	Progress func(ProgressState)
	// ProgressInterval throttles Progress in streaming mode. Zero reports every chunk.
	ProgressInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		Segmented: true,
		ChunkSize: utils.DefaultChunkSize,
		UserAgent: utils.ToolUserAgent,
	}
}

// ContentLength is the probed size of a resource; Known is false when the
// server did not send one.
type ContentLength struct {
	Size  uint64
	Known bool
}

// Engine downloads remote resources into the staging directory. An Engine
// holds no per-download state and may be shared, but two downloads must not
// target the same path at once.
type Engine struct {
	client utils.HTTPDoer
	opts   Options
}

func New(client utils.HTTPDoer, opts Options) (*Engine, error) {
	if client == nil {
		return nil, newError(KindConfiguration, "new engine", "", errors.New("nil HTTP client"))
	}
	if opts.Segmented && opts.ChunkSize == 0 {
		return nil, newError(KindConfiguration, "new engine", "", errors.New("chunk size must be greater than zero"))
	}
	return &Engine{client: client, opts: opts}, nil
}

func (e *Engine) Options() Options { return e.opts }

// Download stages rawURL under the staging directory and returns the local path.
func (e *Engine) Download(ctx context.Context, rawURL string) (string, error) {
	target, err := ResolveTarget(rawURL, e.opts.StagingDir)
	if err != nil {
		return "", err
	}
	return e.Fetch(ctx, target)
}

// Fetch downloads target.URL into target.Path. Partial files are left in place on failure.
func (e *Engine) Fetch(ctx context.Context, target Target) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError(KindNetwork, "download", target.URL, err)
	}
	probeURL := target.URL
	if target.ProbeURL != "" {
		probeURL = target.ProbeURL
	}
	length, err := e.Probe(ctx, probeURL)
	if err != nil {
		return "", err
	}
	if err := e.checkMinSize(target.URL, length); err != nil {
		return "", err
	}
	if e.opts.Segmented && length.Known {
		log.Debug().Str("op", "http/initial").Str("url", target.URL).Msgf("segmented download of %d bytes to %s", length.Size, target.Path)
		err = e.downloadSegmented(ctx, target, length.Size)
	} else {
		log.Debug().Str("op", "http/initial").Str("url", target.URL).Msgf("streaming download to %s", target.Path)
		err = e.downloadStream(ctx, target, length)
	}
	if err != nil {
		log.Error().Str("op", "http/initial").Str("url", target.URL).Err(err).Msg("download failed")
		return "", err
	}
	log.Info().Str("op", "http/initial").Msgf("download complete for %s", target.Path)
	return target.Path, nil
}

// Probe sends the preflight HEAD request and reports the advertised length.
func (e *Engine) Probe(ctx context.Context, url string) (ContentLength, error) {
	req, err := e.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return ContentLength{}, newError(KindConfiguration, "probe", url, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return ContentLength{}, newError(KindNetwork, "probe", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ContentLength{}, statusError("probe", url, resp)
	}
	raw := strings.TrimSpace(resp.Header.Get("Content-Length"))
	if raw == "" {
		log.Debug().Str("op", "http/probe").Str("url", url).Msg("server did not report a content length")
		return ContentLength{}, nil
	}
	size, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return ContentLength{}, newError(KindFormat, "probe", url, err)
	}
	log.Debug().Str("op", "http/probe").Str("url", url).Uint64("size", size).Msg("probed content length")
	return ContentLength{Size: size, Known: true}, nil
}

func (e *Engine) checkMinSize(url string, length ContentLength) error {
	if e.opts.MinSize == 0 || !length.Known || length.Size >= e.opts.MinSize {
		return nil
	}
	return newError(KindSize, "check size", url,
		fmt.Errorf("resource advertises %s, minimum is %s", utils.FormatBytes(length.Size), utils.FormatBytes(e.opts.MinSize)))
}

// newRequest detaches the request from ctx cancellation; callers check ctx
// between segments and chunks instead, so a transfer unit is never cut short.
func (e *Engine) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), method, url, nil)
	if err != nil {
		return nil, err
	}
	if e.opts.UserAgent != "" {
		req.Header.Set("User-Agent", e.opts.UserAgent)
	}
	return req, nil
}

func (e *Engine) report(state ProgressState) {
	if e.opts.Progress != nil {
		e.opts.Progress(state)
	}
}
