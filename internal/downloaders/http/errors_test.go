package stagehttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("install runtime: %w", newError(KindNetwork, "fetch segment", "https://example.com/a", io.ErrUnexpectedEOF))

	assert.True(t, errors.Is(err, KindNetwork))
	assert.False(t, errors.Is(err, KindProtocol))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "fetch segment: network error (https://example.com/a)")
}

func TestStatusErrorCarriesResponse(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusNotFound, Header: http.Header{"X-Request-Id": {"42"}}}
	err := statusError("probe", "https://example.com/a", resp)

	assert.Equal(t, KindProtocol, err.Kind)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "42", err.Header.Get("X-Request-Id"))
	assert.Equal(t, "probe: protocol error (https://example.com/a): unexpected status 404 Not Found", err.Error())

	resp.Header.Set("X-Request-Id", "changed")
	assert.Equal(t, "42", err.Header.Get("X-Request-Id"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "size error", KindSize.Error())
	assert.Equal(t, "unknown error", Kind(99).String())
}
