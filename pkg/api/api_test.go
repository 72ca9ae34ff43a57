package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackwright/pkg/cache"
	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/observability"
	"github.com/matzehuels/stackwright/pkg/pipeline"
	"github.com/matzehuels/stackwright/pkg/settings"
	"github.com/matzehuels/stackwright/pkg/state"
)

const catalog = `
layout "default" {
  position {}
}

model "tube-long" {
  diameter = 2.5
  height   = 6
  mass     = 2
  vscale   = true
}
model "tube-short" {
  diameter = 2.5
  height   = 3
  mass     = 1
}
model "cone" {
  orientation    = "top"
  diameter       = 2.5
  upper_diameter = 0.5
  height         = 2
}
model "skirt" {
  orientation    = "bottom"
  diameter       = 2.5
  lower_diameter = 3
  height         = 1
}

part "tank" {
  diameter = 2.5
  NOSE { model = ["cone"] }
  CORE {
    variant = "Long"
    model   = ["tube-long"]
  }
  CORE {
    variant = "Short"
    model   = ["tube-short"]
  }
  MOUNT { model = ["skirt"] }
}
`

type testServer struct {
	*Server
	http *httptest.Server
	ids  int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	runner, err := pipeline.NewRunner(pipeline.Config{
		Source:   cfgtree.Bytes([]byte(catalog), "catalog.hcl"),
		Settings: settings.Default(),
		Store:    state.NewCacheStore(sc, nil, 0),
	})
	require.NoError(t, err)

	ts := &testServer{Server: NewServer(runner, settings.Default().Server, nil)}
	ts.newID = func() string {
		ts.ids++
		return fmt.Sprintf("inst-%d", ts.ids)
	}
	ts.http = httptest.NewServer(ts.Handler())
	t.Cleanup(ts.http.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.http.URL+path, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (ts *testServer) create(t *testing.T) instanceResponse {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/v1/instances", createRequest{Part: "tank"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out instanceResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = ts.do(t, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"version":"dev"`)
}

func TestParts(t *testing.T) {
	ts := newTestServer(t)
	_, body := ts.do(t, http.MethodGet, "/api/v1/parts", nil)
	assert.JSONEq(t, `{"parts":["tank"]}`, string(body))

	resp, body := ts.do(t, http.MethodGet, "/api/v1/parts/tank", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var part struct {
		Variants []string `json:"variants"`
		Defaults struct {
			TotalLength float64 `json:"total_length"`
		} `json:"defaults"`
	}
	require.NoError(t, json.Unmarshal(body, &part))
	assert.Equal(t, []string{"Long", "Short"}, part.Variants)
	assert.InDelta(t, 9.0, part.Defaults.TotalLength, 1e-9)

	resp, body = ts.do(t, http.MethodGet, "/api/v1/parts/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), string(errors.ErrCodePartNotFound))
}

func TestInstanceLifecycle(t *testing.T) {
	ts := newTestServer(t)
	inst := ts.create(t)
	assert.Equal(t, "inst-1", inst.ID)
	require.NotNil(t, inst.Snapshot)
	assert.Equal(t, "Long", inst.Snapshot.Variant)

	resp, body := ts.do(t, http.MethodGet, "/api/v1/instances", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"id":"inst-1"`)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/instances/inst-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/v1/instances/inst-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/instances/inst-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, "/api/v1/instances/inst-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSetField(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)

	tests := []struct {
		name   string
		field  string
		value  string
		status int
	}{
		{"diameter", "diameter", "5", http.StatusOK},
		{"dashed name", "core-model", "tube-long", http.StatusOK},
		{"unknown field", "wingspan", "1", http.StatusBadRequest},
		{"not a number", "diameter", "wide", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.do(t, http.MethodPut, "/api/v1/instances/inst-1/fields/"+tt.field, setFieldRequest{Value: tt.value})
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
		})
	}

	_, body := ts.do(t, http.MethodGet, "/api/v1/instances/inst-1", nil)
	var inst instanceResponse
	require.NoError(t, json.Unmarshal(body, &inst))
	assert.InDelta(t, 5.0, inst.Snapshot.Diameter, 1e-12)
	assert.InDelta(t, 18.0, inst.Snapshot.TotalLength, 1e-9)
}

func TestPatchFieldsOrder(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)

	resp, body := ts.do(t, http.MethodPatch, "/api/v1/instances/inst-1/fields", map[string]string{
		"core_model": "tube-short",
		"variant":    "Short",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var inst instanceResponse
	require.NoError(t, json.Unmarshal(body, &inst))
	assert.Equal(t, "Short", inst.Snapshot.Variant)
	assert.Equal(t, "tube-short", inst.Snapshot.Segments[1].Model)

	resp, _ = ts.do(t, http.MethodPatch, "/api/v1/instances/inst-1/fields", map[string]string{"bogus": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFields(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)
	resp, body := ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/fields", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"variant"`)
	assert.Contains(t, string(body), `"choices":["Long","Short"]`)
}

func TestStateFormats(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"", "application/json", `"part":"tank"`},
		{"yaml", "application/yaml", "part: tank"},
		{"toml", "application/toml", `part = "tank"`},
		{"msgpack", "application/msgpack", "tank"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, body := ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/state?format="+tt.format, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Contains(t, string(body), tt.contains)
		})
	}

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/state?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveAndLoad(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)
	ts.do(t, http.MethodPut, "/api/v1/instances/inst-1/fields/variant", setFieldRequest{Value: "Short"})

	resp, body := ts.do(t, http.MethodPost, "/api/v1/instances/inst-1/save", saveRequest{Name: "keep"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = ts.do(t, http.MethodPost, "/api/v1/instances", createRequest{Part: "tank", Load: "keep"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var inst instanceResponse
	require.NoError(t, json.Unmarshal(body, &inst))
	assert.Equal(t, "Short", inst.Snapshot.Variant)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/instances", createRequest{Part: "tank", Load: "nothing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateFromInlineState(t *testing.T) {
	ts := newTestServer(t)
	st := state.State{Part: "tank", Diameter: 1.25, Variant: "Short"}
	resp, body := ts.do(t, http.MethodPost, "/api/v1/instances", createRequest{State: &st})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	bad := state.State{Part: "tank", VScale: 3}
	resp, _ = ts.do(t, http.MethodPost, "/api/v1/instances", createRequest{State: &bad})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownBodyField(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodPost, "/api/v1/instances", map[string]string{"part": "tank", "color": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExports(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)

	resp, body := ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/mesh.stl?cells=16", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "model/stl", resp.Header.Get("Content-Type"))
	assert.Greater(t, len(body), 84)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/mesh.stl?cells=2", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/graph?format=dot", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "digraph"))

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/graph?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConcurrentEditsSerialised(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := 1.0 + float64(i%4)
			req, _ := http.NewRequest(http.MethodPut, ts.http.URL+"/api/v1/instances/inst-1/fields/diameter",
				strings.NewReader(fmt.Sprintf(`{"value":"%g"}`, d)))
			resp, err := http.DefaultClient.Do(req)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					t.Errorf("status = %d, want 200", resp.StatusCode)
				}
			}
		}(i)
	}
	wg.Wait()
}

type httpRecorder struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *httpRecorder) OnResponse(_ context.Context, method, path string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, fmt.Sprintf("%s %s %d", method, path, status))
}

func TestObserveReportsRoutePattern(t *testing.T) {
	rec := &httpRecorder{}
	observability.SetHTTPHooks(rec)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t)
	ts.create(t)
	ts.do(t, http.MethodGet, "/api/v1/instances/inst-1/fields", nil)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Contains(t, rec.routes, "POST /api/v1/instances 201")
	assert.Contains(t, rec.routes, "GET /api/v1/instances/{id}/fields 200")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeModelNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidValue, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeReentrant, "x"), http.StatusConflict},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
