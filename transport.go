package secboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// The backend leaves request deadlines to the client, so we set one
// ourselves rather than hang on a dead connection.
const defaultTimeout = 15 * time.Second

// StatusError is returned for any response outside the 2xx range.
type StatusError struct {
	Code   int
	Status string
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: %d %s", e.Code, http.StatusText(e.Code))
}

// Transport issues JSON requests against the backend and folds every
// failure class (network, status, parse) into a returned error. It
// never retries; retry policy lives in the feeds.
type Transport struct {
	base    string
	headers http.Header
	client  *http.Client
}

func NewTransport(base string) *Transport {
	return &Transport{
		base:    strings.TrimRight(base, "/"),
		headers: http.Header{"Content-Type": []string{"application/json"}},
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (t *Transport) WithClient(c *http.Client) *Transport {
	cp := *t
	cp.client = c
	return &cp
}

// Do issues a single request. A nil body sends no payload; otherwise
// the body is JSON-encoded. Caller headers override the defaults per
// key. The returned payload is the raw response body, already checked
// to be valid JSON.
func (t *Transport) Do(ctx context.Context, method, path string, body any, hdr http.Header) (json.RawMessage, error) {
	raw, err := t.do(ctx, method, path, body, hdr)
	if err != nil {
		// diagnostics only; the caller still gets the error
		log.Debug().Str("method", method).Str("path", path).Err(err).Msg("request failed")
	}
	return raw, err
}

func (t *Transport) do(ctx context.Context, method, path string, body any, hdr http.Header) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request body")
		}
		rd = bytes.NewReader(b)
	}

	u := t.base + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	for k, v := range t.headers {
		req.Header[k] = v
	}
	for k, v := range hdr {
		req.Header[k] = v
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: b}
	}

	if len(bytes.TrimSpace(b)) == 0 {
		// some mutation endpoints reply with an empty body
		return json.RawMessage("null"), nil
	}
	if !json.Valid(b) {
		return nil, errors.New("response is not valid JSON")
	}
	return json.RawMessage(b), nil
}
