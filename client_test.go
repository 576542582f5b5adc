package secboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(NewTransport(srv.URL)), srv
}

func TestUnwrapList(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want string
	}{
		"bare array":       {`[{"id":1},{"id":2}]`, `[{"id":1},{"id":2}]`},
		"envelope":         {`{"count":2,"results":[{"id":1},{"id":2}]}`, `[{"id":1},{"id":2}]`},
		"empty envelope":   {`{"count":0,"results":[]}`, `[]`},
		"unexpected shape": {`{"detail":"not found"}`, `[]`},
		"scalar":           {`42`, `[]`},
	}

	for name, tc := range tests {
		got := unwrapList(json.RawMessage(tc.raw))
		assert.JSONEq(t, tc.want, string(got), name)
	}
}

// Both response shapes must yield the same ordered sequence.
func TestListNormalization(t *testing.T) {
	payloads := []string{
		`[{"id":1,"name":"nmap","status":"active"},{"id":2,"name":"zap","status":"inactive"}]`,
		`{"count":2,"next":null,"previous":null,"results":[{"id":1,"name":"nmap","status":"active"},{"id":2,"name":"zap","status":"inactive"}]}`,
	}

	for _, payload := range payloads {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		}))

		tools, err := c.Tools(context.Background())
		require.NoError(t, err)
		require.Len(t, tools, 2)
		assert.Equal(t, uint(1), tools[0].ID)
		assert.Equal(t, "nmap", tools[0].Name)
		assert.Equal(t, uint(2), tools[1].ID)
	}
}

func TestStartScanValidation(t *testing.T) {
	var requests int
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"status":"scan_started"}`))
	}))

	// an empty target must never reach the wire
	_, err := c.StartScan(context.Background(), 1, "", "quick")
	require.ErrorIs(t, err, ErrEmptyTarget)

	_, err = c.StartScan(context.Background(), 1, "   ", "quick")
	require.ErrorIs(t, err, ErrEmptyTarget)

	_, err = c.StartScan(context.Background(), 1, "10.0.0.0/24", "")
	require.ErrorIs(t, err, ErrEmptyScanType)

	assert.Zero(t, requests)
}

func TestStartScan(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tools/3/start_scan/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "10.0.0.5", body["target"])
		assert.Equal(t, "quick", body["scan_type"])

		w.Write([]byte(`{"status":"scan_started","tool":"nmap","scan_result_id":12,"message":"Nmap scan initiated on 10.0.0.5"}`))
	}))

	started, err := c.StartScan(context.Background(), 3, "10.0.0.5", "quick")
	require.NoError(t, err)
	assert.Equal(t, "scan_started", started.Status)
	assert.Equal(t, uint(12), started.ScanResultID)
}

func TestAcknowledgeAlert(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/alerts/7/acknowledge/", r.URL.Path)
		w.Write([]byte(`{"status":"acknowledged"}`))
	}))

	reply, err := c.AcknowledgeAlert(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "acknowledged", reply.Status)
}

func TestVulnFilterQuery(t *testing.T) {
	var path string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.RequestURI()
		w.Write([]byte(`[]`))
	}))

	_, err := c.Vulnerabilities(context.Background(), VulnFilter{Severity: SEV_CRITICAL, Status: VULN_OPEN})
	require.NoError(t, err)
	assert.Equal(t, "/vulnerabilities/?severity=critical&status=open", path)

	_, err = c.Vulnerabilities(context.Background(), VulnFilter{})
	require.NoError(t, err)
	assert.Equal(t, "/vulnerabilities/", path)
}

func TestClientSurfacesTransportError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))

	_, err := c.Alerts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
