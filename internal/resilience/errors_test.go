package resilience

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"explicit", NewTransientError(errors.New("x"), 503), true},
		{"wrapped explicit", eris.Wrap(NewTransientError(errors.New("x"), 429), "start run"), true},
		{"conn reset", fmt.Errorf("dial: %w", syscall.ECONNRESET), true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"net timeout", timeoutErr{}, true},
		{"message pattern", errors.New("read tcp: i/o timeout"), true},
		{"unexpected eof", errors.New("Unexpected EOF"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}

func TestTransientError(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner, 503)
	assert.Equal(t, "inner", te.Error())
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 503, te.StatusCode)
}
