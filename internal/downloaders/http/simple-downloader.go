package stagehttp

import (
	"context"
	"io"
	"iter"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// bodyChunks yields r as network-sized chunks read into buf. A yielded slice
// is only valid until the next iteration.
func bodyChunks(r io.Reader, buf []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			n, err := r.Read(buf)
			if n > 0 && !yield(buf[:n], nil) {
				return
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// downloadStream fetches target.URL with one unranged GET and writes each
// chunk as it arrives.
func (e *Engine) downloadStream(ctx context.Context, target Target, length ContentLength) (err error) {
	req, err := e.newRequest(ctx, http.MethodGet, target.URL)
	if err != nil {
		return newError(KindConfiguration, "fetch stream", target.URL, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return newError(KindNetwork, "fetch stream", target.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return statusError("fetch stream", target.URL, resp)
	}
	if !length.Known && resp.ContentLength >= 0 {
		length = ContentLength{Size: uint64(resp.ContentLength), Known: true}
	}
	if err := e.checkMinSize(target.URL, length); err != nil {
		return err
	}

	file, err := os.Create(target.Path)
	if err != nil {
		return newError(KindFileSystem, "create destination", target.URL, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = newError(KindFileSystem, "close destination", target.URL, cerr)
		}
	}()

	state := ProgressState{Total: length.Size, TotalKnown: length.Known}
	var reported uint64
	throttle := rate.Sometimes{Interval: e.opts.ProgressInterval}
	written, err := writeChunks(file, resp.Body, "fetch stream", target.URL, func(total uint64) error {
		state.Transferred = total
		if e.opts.ProgressInterval > 0 {
			throttle.Do(func() {
				e.report(state)
				reported = state.Transferred
			})
		} else {
			e.report(state)
			reported = state.Transferred
		}
		if err := ctx.Err(); err != nil {
			return newError(KindNetwork, "fetch stream", target.URL, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if written == 0 || reported != written {
		e.report(state)
	}
	log.Debug().Str("op", "http/simple-downloader").Msgf("streamed %d bytes to %s", written, target.Path)
	return nil
}
