package http_test

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/adapters/http"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/logging"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/runtime"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/dataset"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

type stubGenerator struct {
	records []dataset.Record
	scenes  int
}

func (g *stubGenerator) Generate(_ context.Context, scenes []*scene.Scene) ([]dataset.Record, *runtime.Report, error) {
	g.scenes = len(scenes)
	return g.records, &runtime.Report{RunID: "test-run", Records: len(g.records)}, nil
}

func newHandler(gen httpadapter.Generator, gatherer prometheus.Gatherer) nethttp.Handler {
	return httpadapter.NewHandler(gen, logging.NewNop(), gatherer)
}

func TestServer_Health(t *testing.T) {
	handler := newHandler(&stubGenerator{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Generate(t *testing.T) {
	gen := &stubGenerator{records: []dataset.Record{
		{SceneID: "s1", TemplateID: "count_color", Question: "How many red things are there?", Answer: "2"},
	}}
	handler := newHandler(gen, nil)

	body := `{"scenes": [
		{"id": "s1", "entities": [{"id": "a", "attributes": {"color": "red"}}]},
		{"id": "bad", "entities": [{"id": "a", "attributes": {}}]}
	]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/generate", strings.NewReader(body)))

	require.Equal(t, nethttp.StatusOK, rec.Code)

	var resp struct {
		Records []dataset.Record `json:"records"`
		Report  *runtime.Report  `json:"report"`
		Skipped []string         `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Records, 1)
	assert.Equal(t, "test-run", resp.Report.RunID)
	assert.Len(t, resp.Skipped, 1)

	// Only the valid scene reaches the engine.
	assert.Equal(t, 1, gen.scenes)
}

func TestServer_GenerateBadPayload(t *testing.T) {
	handler := newHandler(&stubGenerator{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/generate", strings.NewReader("not json")))

	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	handler := newHandler(&stubGenerator{}, registry)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	// Without a gatherer the route does not exist.
	bare := newHandler(&stubGenerator{}, nil)
	rec = httptest.NewRecorder()
	bare.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}
