package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	var flaky atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Up</title></head><body>ua=` + r.UserAgent() + `</body></html>`))
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>caf\xe9</p>"))
	})
	mux.HandleFunc("/untyped", func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte("<!DOCTYPE html><html><body>sniffed</body></html>"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if flaky.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>recovered</p>"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDirectFetch(t *testing.T) {
	srv := upstream(t)
	d := NewDirect(Options{UserAgent: "test-agent"})

	body, err := d.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, body, "<title>Up</title>")
	assert.Contains(t, body, "ua=test-agent")
}

func TestDirectFetchPageFollowsRedirects(t *testing.T) {
	srv := upstream(t)
	page, err := NewDirect(Options{}).FetchPage(context.Background(), srv.URL+"/redirect")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/redirect", page.URL)
	assert.Equal(t, srv.URL+"/page", page.FinalURL)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.ContentType, "text/html")
}

func TestDirectFetchRedirectLimit(t *testing.T) {
	srv := upstream(t)
	_, err := NewDirect(Options{}).Fetch(context.Background(), srv.URL+"/loop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirects")
}

func TestDirectFetchTranscodes(t *testing.T) {
	srv := upstream(t)
	body, err := NewDirect(Options{}).Fetch(context.Background(), srv.URL+"/latin1")
	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>", body)
}

func TestDirectFetchSniffsUntypedText(t *testing.T) {
	srv := upstream(t)
	body, err := NewDirect(Options{}).Fetch(context.Background(), srv.URL+"/untyped")
	require.NoError(t, err)
	assert.Contains(t, body, "sniffed")
}

func TestDirectFetchFailures(t *testing.T) {
	srv := upstream(t)
	d := NewDirect(Options{})
	ctx := context.Background()

	_, err := d.Fetch(ctx, srv.URL+"/missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "HTTP error 404", err.Error())

	_, err = d.Fetch(ctx, srv.URL+"/image")
	assert.ErrorIs(t, err, ErrUnsupportedContent)

	_, err = d.Fetch(ctx, srv.URL+"/empty")
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = d.Fetch(ctx, "://bad")
	assert.Error(t, err)
}

func TestDirectFetchRetries(t *testing.T) {
	srv := upstream(t)
	body, err := NewDirect(Options{RetryMax: 1}).Fetch(context.Background(), srv.URL+"/flaky")
	require.NoError(t, err)
	assert.Equal(t, "<p>recovered</p>", body)
}

func TestDirectFetchCancelled(t *testing.T) {
	srv := upstream(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirect(Options{}).Fetch(ctx, srv.URL+"/page")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsText(t *testing.T) {
	assert.True(t, isText("text/html; charset=utf-8", nil))
	assert.True(t, isText("application/xhtml+xml", nil))
	assert.True(t, isText("application/json", nil))
	assert.True(t, isText("", []byte("just some words")))
	assert.False(t, isText("image/png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
	assert.False(t, isText("application/octet-stream", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3")))
}
