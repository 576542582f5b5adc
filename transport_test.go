package secboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL)
	raw, err := tr.Do(context.Background(), http.MethodGet, "/dashboard/", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(raw))
}

func TestTransportStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL)
	raw, err := tr.Do(context.Background(), http.MethodGet, "/dashboard/", nil, nil)
	require.Error(t, err)
	assert.Nil(t, raw)
	// the message must carry the numeric status
	assert.Contains(t, err.Error(), "500")

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.Code)
}

func TestTransportMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"truncated":`))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL)
	_, err := tr.Do(context.Background(), http.MethodGet, "/tools/", nil, nil)
	require.Error(t, err)
}

func TestTransportNetworkFailure(t *testing.T) {
	// nothing listens here
	tr := NewTransport("http://127.0.0.1:1")
	_, err := tr.Do(context.Background(), http.MethodGet, "/tools/", nil, nil)
	require.Error(t, err)
}

func TestTransportHeaderOverride(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Content-Type")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL)
	hdr := http.Header{"Content-Type": []string{"application/vnd.api+json"}}
	_, err := tr.Do(context.Background(), http.MethodGet, "/tools/", nil, hdr)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.api+json", got)
}

func TestTransportEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL)
	raw, err := tr.Do(context.Background(), http.MethodPost, "/tools/1/stop_scan/", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}
