package stagehttp

import (
	"errors"
	"fmt"
	"iter"
)

// ByteRange is an inclusive [Start, End] interval of bytes.
type ByteRange struct {
	Start uint64
	End   uint64
}

func (r ByteRange) Len() uint64 { return r.End - r.Start + 1 }

// Header renders r as a Range request header value.
func (r ByteRange) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// Ranges splits [0, total-1] into consecutive ranges of chunkSize bytes; only
// the last may be shorter. Each call returns a fresh sequence, and a zero
// total yields no ranges.
func Ranges(total uint64, chunkSize uint32) (iter.Seq[ByteRange], error) {
	if chunkSize == 0 {
		return nil, newError(KindConfiguration, "sequence ranges", "", errors.New("chunk size must be greater than zero"))
	}
	return func(yield func(ByteRange) bool) {
		for cursor := uint64(0); cursor < total; {
			step := min(uint64(chunkSize), total-cursor)
			if !yield(ByteRange{Start: cursor, End: cursor + step - 1}) {
				return
			}
			cursor += step
		}
	}, nil
}

// RangeCount is the number of ranges Ranges yields for total and chunkSize.
func RangeCount(total uint64, chunkSize uint32) uint64 {
	if chunkSize == 0 || total == 0 {
		return 0
	}
	n := total / uint64(chunkSize)
	if total%uint64(chunkSize) != 0 {
		n++
	}
	return n
}
