package stagehttp

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fileServer serves data with HEAD and Range support and records what it saw.
type fileServer struct {
	data        []byte
	headStatus  int
	getStatus   int
	omitLength  bool // no Content-Length on HEAD, chunked GET
	ignoreRange bool // answer ranged GETs with the whole entity

	mu         sync.Mutex
	methods    []string
	ranges     []string
	userAgents []string
	served     int // body bytes sent in GET responses
}

func newFileServer(t *testing.T, fs *fileServer) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(fs)
	t.Cleanup(server.Close)
	return server
}

func (s *fileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.methods = append(s.methods, r.Method)
	s.userAgents = append(s.userAgents, r.Header.Get("User-Agent"))
	if r.Method == http.MethodGet {
		s.ranges = append(s.ranges, r.Header.Get("Range"))
	}
	cfg := fileServer{
		data:        s.data,
		headStatus:  s.headStatus,
		getStatus:   s.getStatus,
		omitLength:  s.omitLength,
		ignoreRange: s.ignoreRange,
	}
	s.mu.Unlock()
	cfg.serve(w, r, func(n int) {
		s.mu.Lock()
		s.served += n
		s.mu.Unlock()
	})
}

// update changes the served configuration while the server is running.
func (s *fileServer) update(fn func(*fileServer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// serve writes the response; record receives each body length before it is written.
func (s *fileServer) serve(w http.ResponseWriter, r *http.Request, record func(int)) {
	if r.Method == http.MethodHead {
		if s.headStatus != 0 {
			w.WriteHeader(s.headStatus)
			return
		}
		if !s.omitLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(s.data)))
		}
		w.WriteHeader(http.StatusOK)
		return
	}
	if s.getStatus != 0 {
		w.Header().Set("X-Debug", "segment-failure")
		w.WriteHeader(s.getStatus)
		return
	}
	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" || s.ignoreRange {
		if s.omitLength {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
		} else {
			w.Header().Set("Content-Length", strconv.Itoa(len(s.data)))
		}
		record(len(s.data))
		w.Write(s.data)
		return
	}
	parts := strings.SplitN(strings.TrimPrefix(rangeHeader, "bytes="), "-", 2)
	start, _ := strconv.Atoi(parts[0])
	end, _ := strconv.Atoi(parts[1])
	if end >= len(s.data) {
		end = len(s.data) - 1
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(s.data)))
	w.Header().Set("Content-Length", strconv.Itoa(end-start+1))
	w.WriteHeader(http.StatusPartialContent)
	record(end - start + 1)
	w.Write(s.data[start : end+1])
}

func (s *fileServer) seenMethods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.methods...)
}

func (s *fileServer) seenRanges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges...)
}

func (s *fileServer) servedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

func (s *fileServer) seenUserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }
