package stagehttp

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// downloadSegmented fetches [0, total-1] range by range into target.Path, in
// order, reporting progress after each segment.
func (e *Engine) downloadSegmented(ctx context.Context, target Target, total uint64) (err error) {
	ranges, err := Ranges(total, e.opts.ChunkSize)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			se.URL = target.URL
		}
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

	state := ProgressState{Total: total, TotalKnown: true}
	if total == 0 {
		e.report(state)
		return nil
	}
	count := RangeCount(total, e.opts.ChunkSize)
	var index uint64
	// entity is set once the server answers a ranged GET with the whole body;
	// later ranges are read from it instead of being requested again.
	var entity io.ReadCloser
	defer func() {
		if entity != nil {
			entity.Close()
		}
	}()
	for r := range ranges {
		if err := ctx.Err(); err != nil {
			return newError(KindNetwork, "fetch segment", target.URL, err)
		}
		var n uint64
		var err error
		if entity != nil {
			n, err = copySegment(entity, target.URL, r, file)
		} else {
			n, entity, err = e.fetchSegment(ctx, target.URL, r, file)
		}
		if err != nil {
			return err
		}
		index++
		state.Transferred += n
		log.Debug().Str("op", "http/multi-down").Msgf("segment %d/%d (%s) done", index, count, r.Header())
		e.report(state)
	}
	return nil
}
