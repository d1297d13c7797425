package health

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeChecker struct{ err error }

func (f fakeChecker) CheckSanity() error { return f.err }

func TestReadyWhenSanityPasses(t *testing.T) {
	h := Handler(fakeChecker{})
	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
}

func TestNotReadyWhenSanityFails(t *testing.T) {
	h := Handler(fakeChecker{err: errors.New("bad magic")})
	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, 503, w.Code)
}

func TestLiveAlwaysOk(t *testing.T) {
	h := Handler(nil)
	req := httptest.NewRequest("GET", "/live", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
}
