package stagehttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/stagedl/internal/utils"
)

// fetchSegment issues one ranged GET for r and writes its payload at r.Start
// in file. It returns the number of bytes written. When the server ignores
// Range and answers 200, the rest of the entity is returned as body, positioned
// at r.End+1, and the caller owns closing it.
func (e *Engine) fetchSegment(ctx context.Context, url string, r ByteRange, file *os.File) (written uint64, body io.ReadCloser, err error) {
	req, err := e.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return 0, nil, newError(KindConfiguration, "fetch segment", url, err)
	}
	req.Header.Set("Range", r.Header())
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, newError(KindNetwork, "fetch segment", url, err)
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		defer resp.Body.Close()
		written, err = copySegment(resp.Body, url, r, file)
		return written, nil, err
	case http.StatusOK:
		log.Warn().Str("op", "http/multi-chunk").Msgf("server ignored %s, reading the remaining ranges from one response", r.Header())
		if r.Start > 0 {
			if _, err := io.CopyN(io.Discard, resp.Body, int64(r.Start)); err != nil {
				resp.Body.Close()
				return 0, nil, newError(KindNetwork, "fetch segment", url, err)
			}
		}
		written, err = copySegment(resp.Body, url, r, file)
		if err != nil {
			resp.Body.Close()
			return written, nil, err
		}
		return written, resp.Body, nil
	default:
		resp.Body.Close()
		return 0, nil, statusError("fetch segment", url, resp)
	}
}

// copySegment writes exactly r.Len() bytes from src at r.Start in file.
func copySegment(src io.Reader, url string, r ByteRange, file *os.File) (uint64, error) {
	dst := io.NewOffsetWriter(file, int64(r.Start))
	written, err := writeChunks(dst, io.LimitReader(src, int64(r.Len())), "fetch segment", url, nil)
	if err != nil {
		return written, err
	}
	if written != r.Len() {
		return written, newError(KindNetwork, "fetch segment", url,
			fmt.Errorf("%w: %s returned %d of %d bytes", io.ErrUnexpectedEOF, r.Header(), written, r.Len()))
	}
	return written, nil
}

// writeChunks drains src into dst chunk by chunk, classifying read failures as
// network errors and write failures as file system errors. onChunk, when set,
// receives the running total after each write; a non-nil return stops the copy.
func writeChunks(dst io.Writer, src io.Reader, op, url string, onChunk func(total uint64) error) (uint64, error) {
	var written uint64
	buffer := make([]byte, utils.DefaultBufferSize)
	for chunk, err := range bodyChunks(src, buffer) {
		if err != nil {
			return written, newError(KindNetwork, op, url, err)
		}
		if _, err := dst.Write(chunk); err != nil {
			return written, newError(KindFileSystem, op, url, err)
		}
		written += uint64(len(chunk))
		if onChunk != nil {
			if err := onChunk(written); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}
