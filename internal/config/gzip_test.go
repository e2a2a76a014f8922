package config

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGzipRoundTrip(t *testing.T) {
	payload := []byte(`[{"key":"CPU_Temperature","value":55.2}]`)
	compressed, err := GzipCompress(payload)
	require.NoError(t, err)

	got, err := GzipDecompress(bytes.NewReader(compressed))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestGzipRequestMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		require.Empty(t, r.Header.Get("Content-Encoding"))
		w.WriteHeader(http.StatusCreated)
	})
	h := GzipRequestMiddleware(next)

	compressed, err := GzipCompress([]byte("hello"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/data/bulk", bytes.NewReader(compressed))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "hello", seen)

	req = httptest.NewRequest(http.MethodPost, "/data/bulk", strings.NewReader("plain"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "plain", seen)

	req = httptest.NewRequest(http.MethodPost, "/data/bulk", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
