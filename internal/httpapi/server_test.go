package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/signalsfoundry/satnet-designer/codegen"
	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/gpss"
	"github.com/signalsfoundry/satnet-designer/internal/observability"
	"github.com/signalsfoundry/satnet-designer/model"
)

var fixedNow = time.Date(2026, 3, 7, 14, 5, 9, 0, time.UTC)

func sampleDocument(t *testing.T, satLabel string) []byte {
	t.Helper()
	n := 0
	d := core.NewDispatcher(core.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	routing := model.NodeProcessing{ServiceLines: 1, Mu: 2, Dist: "exponential", RoutingTable: []model.RoutingRule{{Type: 1, OutPort: 1}}}
	topo, err := d.ApplyAll(model.Topology{Model: core.DefaultModelConfig("web")},
		core.AddNode{ID: "as", Type: model.NodeTypeAS},
		core.AddNode{ID: "sat", Type: model.NodeTypeSC, Label: satLabel},
		core.AddNode{ID: "es", Type: model.NodeTypeES},
		core.AddNode{ID: "gw", Type: model.NodeTypeSSOP},
		core.Connect{EdgeID: "e1", SourceNodeID: "as", TargetNodeID: "sat"},
		core.Connect{EdgeID: "e2", SourceNodeID: "sat", TargetNodeID: "es"},
		core.Connect{EdgeID: "e3", SourceNodeID: "es", TargetNodeID: "gw"},
		core.ConnectTerminal{EdgeID: "e4", SourceNodeID: "gw", Terminal: "to_internet"},
		core.SetProcessing{NodeID: "sat", Processing: routing},
		core.SetProcessing{NodeID: "es", Processing: routing},
	)
	require.NoError(t, err)
	cfg := gpss.Default()
	data, err := core.Export(core.NewDocument(topo, &cfg))
	require.NoError(t, err)
	return data
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *observability.Collector) {
	t.Helper()
	collector, err := observability.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	gen := codegen.New(
		codegen.WithClock(func() time.Time { return fixedNow }),
		codegen.WithDurationObserver(collector.ObserveCodegen),
	)
	base := []Option{WithGenerator(gen), WithCollector(collector)}
	return NewServer(append(base, opts...)...), collector
}

func post(t *testing.T, h http.Handler, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	return rr
}

func TestGenerate(t *testing.T) {
	srv, collector := newTestServer(t)
	rr := post(t, srv, "/gpss/gen", sampleDocument(t, ""))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	var res codegen.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Contains(t, res.Code, "[Model settings 1]")
	assert.Contains(t, res.Code, "GENERATE")
	assert.NotContains(t, res.Code, "[Generation info]")
	assert.True(t, res.GenDate.Equal(fixedNow))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/gpss/gen", http.MethodPost, "200")))
}

func TestGenerateIncludeTime(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := post(t, srv, "/gpss/gen?include_time=true", sampleDocument(t, ""))
	require.Equal(t, http.StatusOK, rr.Code)
	var res codegen.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Contains(t, res.Code, "* Generated at: 2026-03-07T14:05:09Z")

	rr = post(t, srv, "/gpss/gen?include_time=maybe", sampleDocument(t, ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerateFileEncodings(t *testing.T) {
	srv, _ := newTestServer(t)
	doc := sampleDocument(t, "Спутник")

	rr := post(t, srv, "/gpss/gen-file", doc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=model-07-03-2026-14-05-09.gps.txt", rr.Header().Get("Content-Disposition"))

	decoded, err := charmap.Windows1251.NewDecoder().Bytes(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Спутник")
	assert.Contains(t, string(decoded), "[Generation info]")
	assert.NotContains(t, rr.Body.String(), "Спутник")

	rr = post(t, srv, "/gpss/gen-file?encoding=utf-8", doc)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Спутник")

	rr = post(t, srv, "/gpss/gen-file?encoding=koi8-r", doc)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerateFileUnencodableLabel(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := post(t, srv, "/gpss/gen-file?encoding=cp1251", sampleDocument(t, "sat ☃"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	srv, _ = newTestServer(t, WithDefaultEncoding(codegen.EncodingUTF8))
	rr = post(t, srv, "/gpss/gen-file", sampleDocument(t, "sat ☃"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGenerateErrors(t *testing.T) {
	srv, _ := newTestServer(t, WithMaxBodyBytes(64<<10))

	rr := post(t, srv, "/gpss/gen", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "bad request")

	empty, err := core.Export(core.NewDocument(model.Topology{Model: core.DefaultModelConfig("empty")}, nil))
	require.NoError(t, err)
	rr = post(t, srv, "/gpss/gen", empty)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), codegen.ErrEmptyTopology.Error())

	huge := []byte(`{"model":{"model":{"id":"` + strings.Repeat("x", 70<<10) + `"}}}`)
	rr = post(t, srv, "/gpss/gen", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestValidate(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := post(t, srv, "/gpss/validate", sampleDocument(t, ""))
	require.Equal(t, http.StatusOK, rr.Code)
	var res struct {
		Valid    bool              `json:"valid"`
		Topology map[string]string `json:"topology"`
		GPSS     map[string]string `json:"gpss"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.Empty(t, res.Topology)
	assert.Contains(t, res.GPSS, "experimentControl.horizon")

	noGPSS, err := core.Export(core.NewDocument(model.Topology{Model: core.DefaultModelConfig("")}, nil))
	require.NoError(t, err)
	rr = post(t, srv, "/gpss/validate", noGPSS)
	require.Equal(t, http.StatusOK, rr.Code)
	res.Topology, res.GPSS = nil, nil
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Contains(t, res.Topology, "model.model.id")
	assert.Contains(t, res.GPSS, "gpss")
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	srv.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "abc123", rr.Header().Get(RequestIDHeader))

	post(t, srv, "/gpss/gen", sampleDocument(t, ""))
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "satnet_gpss_codegen_duration_seconds_count 1")
	assert.Contains(t, rr.Body.String(), `satnet_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}
